package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldosari/medbooking_bot/internal/model"
	"github.com/aldosari/medbooking_bot/internal/repository"
)

// Notifier sends a plain text message to a chat.
type Notifier interface {
	SendText(chatID int64, text string) error
}

// ReminderDispatcher scans for due reminders and notifies patients. It is a
// pure function of the clock it is handed, so it can run from an internal
// ticker or an external trigger without assuming its own cadence.
type ReminderDispatcher struct {
	store    repository.ReminderStore
	notifier Notifier
	log      zerolog.Logger
}

func NewReminderDispatcher(store repository.ReminderStore, notifier Notifier, log zerolog.Logger) *ReminderDispatcher {
	return &ReminderDispatcher{
		store:    store,
		notifier: notifier,
		log:      log.With().Str("component", "reminders").Logger(),
	}
}

// CheckAndSend sends every unsent reminder whose fire time is at or before
// now, returning how many were delivered. A failed send leaves the reminder
// unsent for the next scan; a failed mark after a successful send means the
// patient may be notified twice, which is the accepted failure mode.
func (d *ReminderDispatcher) CheckAndSend(ctx context.Context, now time.Time) (int, error) {
	due, err := d.store.ListDueReminders(ctx, now)
	if err != nil {
		return 0, err
	}

	if len(due) > 0 {
		d.log.Info().Int("count", len(due)).Msg("pending reminders found")
	}

	sent := 0
	for _, reminder := range due {
		if err := d.notifier.SendText(reminder.ChatID, formatReminder(reminder)); err != nil {
			d.log.Error().Err(err).Str("reminder_id", reminder.ID).Int64("chat_id", reminder.ChatID).Msg("failed to send reminder")
			continue
		}

		if err := d.store.MarkReminderSent(ctx, reminder.ID, now); err != nil {
			d.log.Error().Err(err).Str("reminder_id", reminder.ID).Msg("reminder sent but not marked, may repeat")
			continue
		}
		sent++
	}
	return sent, nil
}

// Run calls CheckAndSend on every tick until ctx is cancelled.
func (d *ReminderDispatcher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := d.CheckAndSend(ctx, time.Now()); err != nil {
				d.log.Error().Err(err).Msg("reminder scan failed")
			}
		}
	}
}

func formatReminder(r model.DueReminder) string {
	return fmt.Sprintf(
		"🔔 *تذكير بالموعد الطبي*\n\n"+
			"مرحبًا %s،\n\n"+
			"هذا تذكير بموعدك الطبي:\n\n"+
			"🏥 المركز: %s\n"+
			"⚕️ العيادة: %s\n"+
			"📅 التاريخ: %s\n"+
			"⏰ الوقت: %s\n\n"+
			"موعدك بعد ساعتين تقريبًا. نرجو الحضور في الوقت المحدد.\n\n"+
			"شُكرًا لاختياركم خدماتنا الطبية.",
		r.PatientName, r.CenterName, r.ClinicName, r.Date, r.StartTime,
	)
}
