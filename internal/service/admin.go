package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aldosari/medbooking_bot/internal/apperror"
	"github.com/aldosari/medbooking_bot/internal/model"
	"github.com/aldosari/medbooking_bot/internal/repository"
)

// AdminStore is the data-store surface the admin operations need.
type AdminStore interface {
	repository.AdminStore
	GetCenterByName(ctx context.Context, name string) (*model.Center, error)
	GetClinicByName(ctx context.Context, centerID, name string) (*model.Clinic, error)
	ListCenters(ctx context.Context) ([]model.Center, error)
	ListClinics(ctx context.Context, centerID string) ([]model.Clinic, error)
	ListAvailableSlots(ctx context.Context, clinicID, date string) ([]model.TimeSlot, error)
	ListAppointments(ctx context.Context, filter repository.AppointmentFilter) ([]model.AppointmentDetail, error)
}

// AdminService backs the admin HTTP surface: provisioning centers, clinics
// and slots, and inspecting appointments.
type AdminService struct {
	store  AdminStore
	caches Invalidator
	log    zerolog.Logger
}

func NewAdminService(store AdminStore, caches Invalidator, log zerolog.Logger) *AdminService {
	return &AdminService{
		store:  store,
		caches: caches,
		log:    log.With().Str("component", "admin").Logger(),
	}
}

func (s *AdminService) AddCenter(ctx context.Context, name, address, phone string) (*model.Center, error) {
	if name == "" {
		return nil, apperror.Validation("center name is required")
	}

	center := &model.Center{Name: name, Address: address, Phone: phone, CreatedAt: time.Now()}
	if err := s.store.CreateCenter(ctx, center); err != nil {
		return nil, err
	}

	s.caches.InvalidateAll()
	s.log.Info().Str("center", name).Msg("center created")
	return center, nil
}

func (s *AdminService) AddClinic(ctx context.Context, centerName, name, description string) (*model.Clinic, error) {
	if name == "" || centerName == "" {
		return nil, apperror.Validation("clinic and center names are required")
	}

	center, err := s.store.GetCenterByName(ctx, centerName)
	if err != nil {
		return nil, err
	}

	clinic := &model.Clinic{CenterID: center.ID, Name: name, Description: description, CreatedAt: time.Now()}
	if err := s.store.CreateClinic(ctx, clinic); err != nil {
		return nil, err
	}

	s.caches.InvalidateAll()
	s.log.Info().Str("center", centerName).Str("clinic", name).Msg("clinic created")
	return clinic, nil
}

// GenerateSlots creates back-to-back slots for one clinic and date, stepping
// from startTime by duration minutes. A trailing interval shorter than the
// duration is dropped.
func (s *AdminService) GenerateSlots(ctx context.Context, centerName, clinicName, date, startTime, endTime string, duration int) ([]model.TimeSlot, error) {
	if duration <= 0 {
		return nil, apperror.Validation("slot duration must be positive")
	}
	if _, err := time.Parse(model.DateLayout, date); err != nil {
		return nil, apperror.Validation("date must be YYYY-MM-DD")
	}

	start, err := time.Parse("15:04", startTime)
	if err != nil {
		return nil, apperror.Validation("start time must be HH:MM")
	}
	end, err := time.Parse("15:04", endTime)
	if err != nil {
		return nil, apperror.Validation("end time must be HH:MM")
	}
	if !start.Before(end) {
		return nil, apperror.Validation("start time must be before end time")
	}

	clinic, err := s.resolveClinic(ctx, centerName, clinicName)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	step := time.Duration(duration) * time.Minute

	var slots []model.TimeSlot
	for cur := start; cur.Add(step).Before(end) || cur.Add(step).Equal(end); cur = cur.Add(step) {
		slots = append(slots, model.TimeSlot{
			ClinicID:    clinic.ID,
			Date:        date,
			StartTime:   cur.Format("15:04"),
			EndTime:     cur.Add(step).Format("15:04"),
			Duration:    duration,
			IsAvailable: true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if len(slots) == 0 {
		return nil, apperror.Validation("time range is shorter than one slot")
	}

	if err := s.store.CreateSlots(ctx, slots); err != nil {
		return nil, err
	}

	s.caches.InvalidateAll()
	s.log.Info().Str("clinic", clinicName).Str("date", date).Int("count", len(slots)).Msg("slots generated")
	return slots, nil
}

func (s *AdminService) ListCenters(ctx context.Context) ([]model.Center, error) {
	return s.store.ListCenters(ctx)
}

func (s *AdminService) ListClinics(ctx context.Context, centerName string) ([]model.Clinic, error) {
	center, err := s.store.GetCenterByName(ctx, centerName)
	if err != nil {
		return nil, err
	}
	return s.store.ListClinics(ctx, center.ID)
}

func (s *AdminService) ListSlots(ctx context.Context, centerName, clinicName, date string) ([]model.TimeSlot, error) {
	clinic, err := s.resolveClinic(ctx, centerName, clinicName)
	if err != nil {
		return nil, err
	}
	return s.store.ListAvailableSlots(ctx, clinic.ID, date)
}

func (s *AdminService) ListAppointments(ctx context.Context) ([]model.AppointmentDetail, error) {
	return s.store.ListAppointments(ctx, repository.AppointmentFilter{})
}

func (s *AdminService) ListAppointmentsByRange(ctx context.Context, startDate, endDate string) ([]model.AppointmentDetail, error) {
	return s.store.ListAppointments(ctx, repository.AppointmentFilter{StartDate: startDate, EndDate: endDate})
}

func (s *AdminService) resolveClinic(ctx context.Context, centerName, clinicName string) (*model.Clinic, error) {
	center, err := s.store.GetCenterByName(ctx, centerName)
	if err != nil {
		return nil, err
	}
	return s.store.GetClinicByName(ctx, center.ID, clinicName)
}
