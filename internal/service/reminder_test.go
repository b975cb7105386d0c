package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldosari/medbooking_bot/internal/model"
)

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []int64
	failOn map[int64]bool
}

func (n *fakeNotifier) SendText(chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failOn[chatID] {
		return errors.New("chat unreachable")
	}
	n.sent = append(n.sent, chatID)
	return nil
}

func seedReminder(store *fakeStore, chatID int64, due time.Time) string {
	slot := seedSlot(store)
	apt := &model.Appointment{SlotID: slot.ID, PatientName: "Ahmed", PatientAge: 35, ChatID: chatID, Status: model.StatusConfirmed}
	apt.GenerateID()
	_ = store.CreateAppointment(context.Background(), apt)
	r := &model.Reminder{AppointmentID: apt.ID, ReminderTime: due}
	_ = store.CreateReminder(context.Background(), r)
	return apt.ID
}

func TestCheckAndSendDeliversDueOnly(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	dueApt := seedReminder(store, 42, now.Add(-time.Minute))
	seedReminder(store, 43, now.Add(time.Hour))

	notifier := &fakeNotifier{}
	d := NewReminderDispatcher(store, notifier, zerolog.Nop())

	sent, err := d.CheckAndSend(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{42}, notifier.sent)

	r := store.reminderFor(dueApt)
	require.NotNil(t, r)
	assert.True(t, r.IsSent)
	require.NotNil(t, r.SentAt)
	assert.Equal(t, now, *r.SentAt)
}

func TestCheckAndSendIsIdempotentOnceSent(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	seedReminder(store, 42, now.Add(-time.Minute))

	notifier := &fakeNotifier{}
	d := NewReminderDispatcher(store, notifier, zerolog.Nop())

	_, err := d.CheckAndSend(context.Background(), now)
	require.NoError(t, err)
	sent, err := d.CheckAndSend(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, sent)
	assert.Len(t, notifier.sent, 1)
}

func TestCheckAndSendContinuesPastSendFailure(t *testing.T) {
	store := newFakeStore()
	now := time.Now()
	failedApt := seedReminder(store, 41, now.Add(-time.Minute))
	seedReminder(store, 42, now.Add(-time.Minute))

	notifier := &fakeNotifier{failOn: map[int64]bool{41: true}}
	d := NewReminderDispatcher(store, notifier, zerolog.Nop())

	sent, err := d.CheckAndSend(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []int64{42}, notifier.sent)

	// The failed reminder stays unsent so the next scan retries it.
	r := store.reminderFor(failedApt)
	require.NotNil(t, r)
	assert.False(t, r.IsSent)
}

func TestCheckAndSendPropagatesListFailure(t *testing.T) {
	store := newFakeStore()
	store.listErr = errors.New("backend down")

	d := NewReminderDispatcher(store, &fakeNotifier{}, zerolog.Nop())
	_, err := d.CheckAndSend(context.Background(), time.Now())
	assert.Error(t, err)
}

func TestReminderMessageNamesThePatient(t *testing.T) {
	msg := formatReminder(model.DueReminder{
		PatientName: "Ahmed",
		CenterName:  "مستشفى الملك فهد",
		ClinicName:  "عيادة الأسنان",
		Date:        "2026-09-01",
		StartTime:   "10:00",
	})
	assert.Contains(t, msg, "Ahmed")
	assert.Contains(t, msg, "مستشفى الملك فهد")
	assert.Contains(t, msg, "عيادة الأسنان")
	assert.Contains(t, msg, "10:00")
}
