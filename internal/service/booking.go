package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldosari/medbooking_bot/internal/apperror"
	"github.com/aldosari/medbooking_bot/internal/model"
	"github.com/aldosari/medbooking_bot/internal/repository"
)

// BookingStore is the data-store surface the booking service needs: the
// booking writes plus slot reads for reminder scheduling.
type BookingStore interface {
	repository.BookingStore
	GetSlot(ctx context.Context, id string) (*model.TimeSlot, error)
}

// Invalidator is notified after any write that changes availability data.
type Invalidator interface {
	InvalidateAll()
}

// BookingService creates and cancels appointments. A successful booking
// reserves the slot, records the appointment, and schedules the reminder.
type BookingService struct {
	store   BookingStore
	caches  Invalidator
	lead    time.Duration
	loc     *time.Location
	timeout time.Duration
	log     zerolog.Logger
}

func NewBookingService(store BookingStore, caches Invalidator, lead, timeout time.Duration, loc *time.Location, log zerolog.Logger) *BookingService {
	return &BookingService{
		store:   store,
		caches:  caches,
		lead:    lead,
		loc:     loc,
		timeout: timeout,
		log:     log.With().Str("component", "booking").Logger(),
	}
}

// Book reserves slotID for the given patient and returns the confirmed
// appointment. When two users race for the same slot exactly one caller
// succeeds; the other receives a slot-taken error.
func (s *BookingService) Book(ctx context.Context, slotID string, chatID int64, patientName string, patientAge int) (*model.Appointment, error) {
	slot, err := runWithTimeout(s.timeout, func() (*model.TimeSlot, error) {
		return s.store.GetSlot(ctx, slotID)
	})
	if err != nil {
		return nil, err
	}

	won, err := runWithTimeout(s.timeout, func() (bool, error) {
		return s.store.ReserveSlot(ctx, slotID)
	})
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperror.SlotTaken(slotID)
	}

	now := time.Now()
	apt := &model.Appointment{
		SlotID:      slotID,
		PatientName: patientName,
		PatientAge:  patientAge,
		ChatID:      chatID,
		Status:      model.StatusConfirmed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	apt.GenerateID()

	if err := s.store.CreateAppointment(ctx, apt); err != nil {
		// Give the slot back so it is not stranded as unavailable with
		// no appointment attached.
		if relErr := s.store.ReleaseSlot(ctx, slotID); relErr != nil {
			s.log.Error().Err(relErr).Str("slot_id", slotID).Msg("failed to release slot after booking failure")
		}
		return nil, err
	}

	if err := s.scheduleReminder(ctx, apt.ID, slot); err != nil {
		// The appointment stands; the patient just will not get the
		// advance notification.
		s.log.Error().Err(err).Str("appointment_id", apt.ID).Msg("failed to schedule reminder")
	}

	s.caches.InvalidateAll()

	s.log.Info().
		Str("appointment_id", apt.ID).
		Str("slot_id", slotID).
		Int64("chat_id", chatID).
		Msg("appointment booked")
	return apt, nil
}

func (s *BookingService) scheduleReminder(ctx context.Context, appointmentID string, slot *model.TimeSlot) error {
	start, err := slot.StartsAt(s.loc)
	if err != nil {
		return fmt.Errorf("cannot schedule reminder: %w", err)
	}

	reminder := &model.Reminder{
		AppointmentID: appointmentID,
		ReminderTime:  start.Add(-s.lead),
		IsSent:        false,
		CreatedAt:     time.Now(),
	}
	return s.store.CreateReminder(ctx, reminder)
}

// Cancel sets the appointment's status to cancelled and makes its slot
// bookable again.
func (s *BookingService) Cancel(ctx context.Context, appointmentID string) (*model.Appointment, error) {
	apt, err := runWithTimeout(s.timeout, func() (*model.Appointment, error) {
		return s.store.GetAppointment(ctx, appointmentID)
	})
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateAppointmentStatus(ctx, appointmentID, model.StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.store.ReleaseSlot(ctx, apt.SlotID); err != nil {
		return nil, err
	}

	s.caches.InvalidateAll()

	apt.Status = model.StatusCancelled
	s.log.Info().Str("appointment_id", appointmentID).Msg("appointment cancelled")
	return apt, nil
}
