package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aldosari/medbooking_bot/internal/apperror"
	"github.com/aldosari/medbooking_bot/internal/model"
	"github.com/aldosari/medbooking_bot/internal/repository"
)

// fakeStore is an in-memory repository.Store used across the service tests.
// ReserveSlot performs the same compare-and-flip the real backend does, so the
// race tests exercise a faithful contention model.
type fakeStore struct {
	mu           sync.Mutex
	centers      []model.Center
	clinics      []model.Clinic
	slots        map[string]*model.TimeSlot
	appointments map[string]*model.Appointment
	reminders    map[string]*model.Reminder
	nextID       int

	listCenterCalls int
	listClinicCalls int
	listSlotCalls   int

	failCreateAppointment bool
	failCreateReminder    bool
	listErr               error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		slots:        make(map[string]*model.TimeSlot),
		appointments: make(map[string]*model.Appointment),
		reminders:    make(map[string]*model.Reminder),
	}
}

func (f *fakeStore) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeStore) addCenter(name string) model.Center {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.Center{ID: f.id("center"), Name: name}
	f.centers = append(f.centers, c)
	return c
}

func (f *fakeStore) addClinic(centerID, name string) model.Clinic {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := model.Clinic{ID: f.id("clinic"), CenterID: centerID, Name: name}
	f.clinics = append(f.clinics, c)
	return c
}

func (f *fakeStore) addSlot(clinicID, date, start, end string, available bool) model.TimeSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	s := model.TimeSlot{
		ID:          f.id("slot"),
		ClinicID:    clinicID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		Duration:    30,
		IsAvailable: available,
	}
	f.slots[s.ID] = &s
	return s
}

func (f *fakeStore) ListCenters(ctx context.Context) ([]model.Center, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCenterCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Center(nil), f.centers...), nil
}

func (f *fakeStore) GetCenterByName(ctx context.Context, name string) (*model.Center, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.centers {
		if f.centers[i].Name == name {
			c := f.centers[i]
			return &c, nil
		}
	}
	return nil, apperror.NotFound("center", nil)
}

func (f *fakeStore) ListClinics(ctx context.Context, centerID string) ([]model.Clinic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listClinicCalls++
	var out []model.Clinic
	for _, c := range f.clinics {
		if c.CenterID == centerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) GetClinicByName(ctx context.Context, centerID, name string) (*model.Clinic, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.clinics {
		if f.clinics[i].CenterID == centerID && f.clinics[i].Name == name {
			c := f.clinics[i]
			return &c, nil
		}
	}
	return nil, apperror.NotFound("clinic", nil)
}

func (f *fakeStore) ListAvailableSlots(ctx context.Context, clinicID, date string) ([]model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listSlotCalls++
	var out []model.TimeSlot
	for _, s := range f.slots {
		if s.ClinicID == clinicID && s.Date == date && s.IsAvailable {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) GetSlot(ctx context.Context, id string) (*model.TimeSlot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[id]
	if !ok {
		return nil, apperror.NotFound("time slot", nil)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) CreateAppointment(ctx context.Context, apt *model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateAppointment {
		return apperror.Unavailable("insert appointment", fmt.Errorf("write refused"))
	}
	cp := *apt
	f.appointments[apt.ID] = &cp
	return nil
}

func (f *fakeStore) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return nil, apperror.NotFound("appointment", nil)
	}
	cp := *apt
	return &cp, nil
}

func (f *fakeStore) ListAppointments(ctx context.Context, filter repository.AppointmentFilter) ([]model.AppointmentDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.AppointmentDetail
	for _, apt := range f.appointments {
		if filter.ChatID != nil && apt.ChatID != *filter.ChatID {
			continue
		}
		out = append(out, model.AppointmentDetail{
			ID:          apt.ID,
			Status:      apt.Status,
			ChatID:      apt.ChatID,
			PatientName: apt.PatientName,
			PatientAge:  apt.PatientAge,
		})
	}
	return out, nil
}

func (f *fakeStore) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	apt, ok := f.appointments[id]
	if !ok {
		return apperror.NotFound("appointment", nil)
	}
	apt.Status = status
	return nil
}

func (f *fakeStore) ReserveSlot(ctx context.Context, slotID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok || !s.IsAvailable {
		return false, nil
	}
	s.IsAvailable = false
	return true, nil
}

func (f *fakeStore) ReleaseSlot(ctx context.Context, slotID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.slots[slotID]
	if !ok {
		return apperror.NotFound("time slot", nil)
	}
	s.IsAvailable = true
	return nil
}

func (f *fakeStore) CreateReminder(ctx context.Context, reminder *model.Reminder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreateReminder {
		return apperror.Unavailable("insert reminder", fmt.Errorf("write refused"))
	}
	cp := *reminder
	if cp.ID == "" {
		cp.ID = f.id("reminder")
	}
	f.reminders[cp.ID] = &cp
	return nil
}

func (f *fakeStore) ListDueReminders(ctx context.Context, now time.Time) ([]model.DueReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []model.DueReminder
	for _, r := range f.reminders {
		if r.IsSent || r.ReminderTime.After(now) {
			continue
		}
		due := model.DueReminder{ID: r.ID}
		if apt, ok := f.appointments[r.AppointmentID]; ok {
			due.ChatID = apt.ChatID
			due.PatientName = apt.PatientName
			if s, ok := f.slots[apt.SlotID]; ok {
				due.Date = s.Date
				due.StartTime = s.StartTime
			}
		}
		out = append(out, due)
	}
	return out, nil
}

func (f *fakeStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return apperror.NotFound("reminder", nil)
	}
	r.IsSent = true
	sentAt := at
	r.SentAt = &sentAt
	return nil
}

func (f *fakeStore) CreateCenter(ctx context.Context, center *model.Center) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if center.ID == "" {
		center.ID = f.id("center")
	}
	f.centers = append(f.centers, *center)
	return nil
}

func (f *fakeStore) CreateClinic(ctx context.Context, clinic *model.Clinic) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if clinic.ID == "" {
		clinic.ID = f.id("clinic")
	}
	f.clinics = append(f.clinics, *clinic)
	return nil
}

func (f *fakeStore) CreateSlots(ctx context.Context, slots []model.TimeSlot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range slots {
		s := slots[i]
		if s.ID == "" {
			s.ID = f.id("slot")
		}
		f.slots[s.ID] = &s
	}
	return nil
}

func (f *fakeStore) slot(id string) model.TimeSlot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.slots[id]
}

func (f *fakeStore) reminderFor(appointmentID string) *model.Reminder {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if r.AppointmentID == appointmentID {
			cp := *r
			return &cp
		}
	}
	return nil
}

var _ repository.Store = (*fakeStore)(nil)
