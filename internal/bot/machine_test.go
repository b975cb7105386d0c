package bot

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aldosari/medbooking_bot/internal/apperror"
	"github.com/aldosari/medbooking_bot/internal/model"
	"github.com/aldosari/medbooking_bot/internal/service"
)

type fakeSender struct {
	messages []tgbotapi.MessageConfig
}

func (s *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		s.messages = append(s.messages, msg)
	}
	return tgbotapi.Message{}, nil
}

func (s *fakeSender) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, s.messages)
	return s.messages[len(s.messages)-1].Text
}

type fakeCatalog struct {
	centers []string
	clinics map[string][]string
	slots   map[string][]service.SlotOption

	centersErr error
	slotsErr   error
}

func (c *fakeCatalog) ListCenters(ctx context.Context) ([]string, error) {
	if c.centersErr != nil {
		return nil, c.centersErr
	}
	return c.centers, nil
}

func (c *fakeCatalog) ListClinics(ctx context.Context, centerName string) ([]string, error) {
	clinics, ok := c.clinics[centerName]
	if !ok {
		return nil, apperror.NotFound("center", nil)
	}
	return clinics, nil
}

func (c *fakeCatalog) ListSlotsForTomorrow(ctx context.Context, centerName, clinicName string) ([]service.SlotOption, error) {
	if c.slotsErr != nil {
		return nil, c.slotsErr
	}
	return c.slots[centerName+"|"+clinicName], nil
}

type fakeBooker struct {
	bookErr error
	booked  []string
}

func (b *fakeBooker) Book(ctx context.Context, slotID string, chatID int64, patientName string, patientAge int) (*model.Appointment, error) {
	if b.bookErr != nil {
		return nil, b.bookErr
	}
	b.booked = append(b.booked, slotID)
	return &model.Appointment{
		ID:          "apt-1",
		SlotID:      slotID,
		PatientName: patientName,
		PatientAge:  patientAge,
		ChatID:      chatID,
		Status:      model.StatusConfirmed,
	}, nil
}

func newTestBot() (*Bot, *fakeSender, *fakeCatalog, *fakeBooker) {
	sender := &fakeSender{}
	catalog := &fakeCatalog{
		centers: []string{"مستشفى الملك فهد", "مركز الأمل الطبي"},
		clinics: map[string][]string{
			"مستشفى الملك فهد": {"عيادة الأسنان", "عيادة العيون"},
			"مركز الأمل الطبي": {"عيادة الباطنية"},
		},
		slots: map[string][]service.SlotOption{
			"مستشفى الملك فهد|عيادة الأسنان": {
				{ID: "slot-1", Date: "2026-08-30", Time: "09:00-09:30"},
				{ID: "slot-2", Date: "2026-08-30", Time: "09:30-10:00"},
			},
		},
	}
	booker := &fakeBooker{}
	return New(sender, catalog, booker, 30*time.Minute, zerolog.Nop()), sender, catalog, booker
}

const chatID = int64(42)

func say(b *Bot, text string) {
	b.handleText(context.Background(), chatID, text)
}

// walkToConfirmation drives the dialogue up to the summary prompt.
func walkToConfirmation(b *Bot) {
	say(b, "حجز")
	say(b, "1")
	say(b, "1")
	say(b, "1")
	say(b, "Ahmed")
	say(b, "35")
}

func TestFullBookingDialogue(t *testing.T) {
	b, sender, _, booker := newTestBot()

	say(b, "حجز")
	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess)
	assert.Equal(t, StepSelectingCenter, sess.Step)
	assert.Contains(t, sender.last(t), "مستشفى الملك فهد")

	say(b, "1")
	assert.Equal(t, StepSelectingClinic, b.sessions.Get(chatID).Step)
	assert.Contains(t, sender.last(t), "عيادة الأسنان")

	say(b, "1")
	assert.Equal(t, StepSelectingTime, b.sessions.Get(chatID).Step)
	assert.Contains(t, sender.last(t), "09:00-09:30")

	say(b, "1")
	assert.Equal(t, StepCollectingName, b.sessions.Get(chatID).Step)
	assert.Equal(t, msgAskName, sender.last(t))

	say(b, "Ahmed")
	assert.Equal(t, StepCollectingAge, b.sessions.Get(chatID).Step)

	say(b, "35")
	sess = b.sessions.Get(chatID)
	assert.Equal(t, StepConfirming, sess.Step)
	assert.Equal(t, "Ahmed", sess.PatientName)
	assert.Equal(t, 35, sess.PatientAge)
	assert.Contains(t, sender.last(t), "تأكيد الحجز")

	say(b, "نعم")
	assert.Equal(t, []string{"slot-1"}, booker.booked)
	assert.Nil(t, b.sessions.Get(chatID))
	assert.Contains(t, sender.last(t), "تم تأكيد حجزك بنجاح")
	assert.Contains(t, sender.last(t), "Ahmed")
}

func TestIdleMessageWithoutSession(t *testing.T) {
	b, sender, _, _ := newTestBot()

	say(b, "مرحبا")
	assert.Nil(t, b.sessions.Get(chatID))
	assert.Equal(t, msgIdle, sender.last(t))
}

func TestHelpCommands(t *testing.T) {
	b, sender, _, _ := newTestBot()

	for _, cmd := range []string{"/start", "/help"} {
		say(b, cmd)
		assert.Equal(t, msgHelp, sender.last(t))
	}
}

func TestStartKeywordRestartsMidFlow(t *testing.T) {
	b, _, _, _ := newTestBot()

	say(b, "حجز")
	say(b, "1")
	require.Equal(t, StepSelectingClinic, b.sessions.Get(chatID).Step)

	say(b, "حجز")
	assert.Equal(t, StepSelectingCenter, b.sessions.Get(chatID).Step)
}

func TestInvalidMenuChoicesKeepStep(t *testing.T) {
	b, sender, _, _ := newTestBot()

	say(b, "حجز")
	for _, bad := range []string{"0", "3", "abc", "-1"} {
		say(b, bad)
		assert.Equal(t, StepSelectingCenter, b.sessions.Get(chatID).Step, "input %q", bad)
		assert.Equal(t, msgBadCenterIndex, sender.last(t))
	}

	say(b, "2")
	assert.Equal(t, StepSelectingClinic, b.sessions.Get(chatID).Step)
}

func TestNameValidation(t *testing.T) {
	b, sender, _, _ := newTestBot()

	say(b, "حجز")
	say(b, "1")
	say(b, "1")
	say(b, "1")
	require.Equal(t, StepCollectingName, b.sessions.Get(chatID).Step)

	say(b, "a")
	assert.Equal(t, StepCollectingName, b.sessions.Get(chatID).Step)
	assert.Equal(t, msgBadName, sender.last(t))

	// Two runes are enough, including non-ASCII names.
	say(b, "مي")
	assert.Equal(t, StepCollectingAge, b.sessions.Get(chatID).Step)
	assert.Equal(t, "مي", b.sessions.Get(chatID).PatientName)
}

func TestAgeValidation(t *testing.T) {
	for _, tc := range []struct {
		input string
		ok    bool
	}{
		{"0", false},
		{"121", false},
		{"abc", false},
		{"-5", false},
		{"1", true},
		{"120", true},
		{"35", true},
	} {
		t.Run(tc.input, func(t *testing.T) {
			b, sender, _, _ := newTestBot()
			say(b, "حجز")
			say(b, "1")
			say(b, "1")
			say(b, "1")
			say(b, "Ahmed")
			require.Equal(t, StepCollectingAge, b.sessions.Get(chatID).Step)

			say(b, tc.input)
			if tc.ok {
				assert.Equal(t, StepConfirming, b.sessions.Get(chatID).Step)
			} else {
				assert.Equal(t, StepCollectingAge, b.sessions.Get(chatID).Step)
				assert.Equal(t, msgBadAge, sender.last(t))
			}
		})
	}
}

func TestCancelAtConfirmation(t *testing.T) {
	for _, token := range []string{"لا", "إلغاء"} {
		t.Run(token, func(t *testing.T) {
			b, sender, _, booker := newTestBot()
			walkToConfirmation(b)

			say(b, token)
			assert.Nil(t, b.sessions.Get(chatID))
			assert.Empty(t, booker.booked)
			assert.Equal(t, msgCancelled, sender.last(t))
		})
	}
}

func TestConfirmTokens(t *testing.T) {
	for _, token := range []string{"نعم", "تأكيد"} {
		t.Run(token, func(t *testing.T) {
			b, _, _, booker := newTestBot()
			walkToConfirmation(b)

			say(b, token)
			assert.Equal(t, []string{"slot-1"}, booker.booked)
			assert.Nil(t, b.sessions.Get(chatID))
		})
	}
}

func TestUnknownConfirmationInputRepeatsHint(t *testing.T) {
	b, sender, _, booker := newTestBot()
	walkToConfirmation(b)

	say(b, "ربما")
	assert.Equal(t, StepConfirming, b.sessions.Get(chatID).Step)
	assert.Empty(t, booker.booked)
	assert.Equal(t, msgConfirmHint, sender.last(t))
}

func TestSlotTakenReturnsToTimeSelection(t *testing.T) {
	b, sender, _, booker := newTestBot()
	walkToConfirmation(b)
	booker.bookErr = apperror.SlotTaken("slot-1")

	say(b, "نعم")
	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess)
	assert.Equal(t, StepSelectingTime, sess.Step)

	found := false
	for _, m := range sender.messages {
		if m.Text == msgSlotTaken {
			found = true
		}
	}
	assert.True(t, found)
}

func TestBookingFailureClearsSession(t *testing.T) {
	b, sender, _, booker := newTestBot()
	walkToConfirmation(b)
	booker.bookErr = errors.New("backend down")

	say(b, "نعم")
	assert.Nil(t, b.sessions.Get(chatID))
	assert.Equal(t, msgErrBooking, sender.last(t))
}

func TestCenterFetchFailureLeavesNoSession(t *testing.T) {
	b, sender, catalog, _ := newTestBot()
	catalog.centersErr = apperror.Timeout("list centers", errors.New("deadline"))

	say(b, "حجز")
	assert.Nil(t, b.sessions.Get(chatID))
	assert.Equal(t, msgErrTimeout, sender.last(t))
}

func TestNoCentersLeavesNoSession(t *testing.T) {
	b, sender, catalog, _ := newTestBot()
	catalog.centers = nil

	say(b, "حجز")
	assert.Nil(t, b.sessions.Get(chatID))
	assert.Equal(t, msgNoCenters, sender.last(t))
}

func TestEmptyClinicsRestartsFromCenters(t *testing.T) {
	b, sender, catalog, _ := newTestBot()
	catalog.clinics["مستشفى الملك فهد"] = nil

	say(b, "حجز")
	say(b, "1")

	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess)
	assert.Equal(t, StepSelectingCenter, sess.Step)

	found := false
	for _, m := range sender.messages {
		if m.Text == formatNoClinics("مستشفى الملك فهد") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestEmptySlotsReturnToClinicList(t *testing.T) {
	b, sender, _, _ := newTestBot()

	say(b, "حجز")
	say(b, "1")
	say(b, "2") // عيادة العيون has no slots

	sess := b.sessions.Get(chatID)
	require.NotNil(t, sess)
	assert.Equal(t, StepSelectingClinic, sess.Step)

	found := false
	for _, m := range sender.messages {
		if m.Text == msgNoSlots {
			found = true
		}
	}
	assert.True(t, found)
}

func TestHandleWebhookRoutesMessage(t *testing.T) {
	b, sender, _, _ := newTestBot()

	body := fmt.Sprintf(`{"update_id":1,"message":{"message_id":1,"chat":{"id":%d},"text":"حجز"}}`, chatID)
	require.NoError(t, b.HandleWebhook(context.Background(), []byte(body)))

	require.NotNil(t, b.sessions.Get(chatID))
	assert.Equal(t, StepSelectingCenter, b.sessions.Get(chatID).Step)
	assert.NotEmpty(t, sender.messages)
}

func TestHandleWebhookRejectsMalformedBody(t *testing.T) {
	b, _, _, _ := newTestBot()
	assert.Error(t, b.HandleWebhook(context.Background(), []byte("{not json")))
}
