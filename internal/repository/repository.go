package repository

import (
	"context"
	"time"

	"github.com/aldosari/medbooking_bot/internal/model"
)

// CatalogStore covers the read-mostly catalog lookups. Results are ordered so
// the numeric menus shown to users are stable.
type CatalogStore interface {
	ListCenters(ctx context.Context) ([]model.Center, error)
	GetCenterByName(ctx context.Context, name string) (*model.Center, error)
	ListClinics(ctx context.Context, centerID string) ([]model.Clinic, error)
	GetClinicByName(ctx context.Context, centerID, name string) (*model.Clinic, error)
	ListAvailableSlots(ctx context.Context, clinicID, date string) ([]model.TimeSlot, error)
	GetSlot(ctx context.Context, id string) (*model.TimeSlot, error)
}

// BookingStore covers appointment writes and the slot availability flips that
// go with them.
type BookingStore interface {
	CreateAppointment(ctx context.Context, apt *model.Appointment) error
	GetAppointment(ctx context.Context, id string) (*model.Appointment, error)
	ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.AppointmentDetail, error)
	UpdateAppointmentStatus(ctx context.Context, id, status string) error

	// ReserveSlot flips is_available to false only if it is still true,
	// reporting whether this caller won the flip.
	ReserveSlot(ctx context.Context, slotID string) (bool, error)
	ReleaseSlot(ctx context.Context, slotID string) error

	CreateReminder(ctx context.Context, reminder *model.Reminder) error
}

// ReminderStore covers the dispatcher's scan-and-mark cycle.
type ReminderStore interface {
	ListDueReminders(ctx context.Context, now time.Time) ([]model.DueReminder, error)
	MarkReminderSent(ctx context.Context, id string, at time.Time) error
}

// AdminStore covers the admin provisioning writes.
type AdminStore interface {
	CreateCenter(ctx context.Context, center *model.Center) error
	CreateClinic(ctx context.Context, clinic *model.Clinic) error
	CreateSlots(ctx context.Context, slots []model.TimeSlot) error
}

// Store is the full data-store surface.
type Store interface {
	CatalogStore
	BookingStore
	ReminderStore
	AdminStore
}

// AppointmentFilter narrows appointment listings. Dates are YYYY-MM-DD and
// filter on the joined slot date.
type AppointmentFilter struct {
	ChatID    *int64
	StartDate string
	EndDate   string
}
