package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/supabase-community/supabase-go"

	"github.com/aldosari/medbooking_bot/internal/apperror"
	"github.com/aldosari/medbooking_bot/internal/model"
)

// SupabaseStore implements Store against the Supabase PostgREST API.
type SupabaseStore struct {
	client *supabase.Client
	log    zerolog.Logger
}

func NewSupabaseStore(url, key string, log zerolog.Logger) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &SupabaseStore{
		client: client,
		log:    log.With().Str("component", "supabase").Logger(),
	}, nil
}

func (r *SupabaseStore) ListCenters(ctx context.Context) ([]model.Center, error) {
	data, _, err := r.client.From("medical_centers").
		Select("*", "", false).
		Order("name.asc", nil).
		Execute()
	if err != nil {
		return nil, r.classify("list centers", err)
	}

	var centers []model.Center
	if err := json.Unmarshal(data, &centers); err != nil {
		return nil, fmt.Errorf("failed to parse centers: %w", err)
	}
	return centers, nil
}

func (r *SupabaseStore) GetCenterByName(ctx context.Context, name string) (*model.Center, error) {
	data, _, err := r.client.From("medical_centers").
		Select("*", "", false).
		Eq("name", name).
		Execute()
	if err != nil {
		return nil, r.classify("get center", err)
	}

	var centers []model.Center
	if err := json.Unmarshal(data, &centers); err != nil {
		return nil, fmt.Errorf("failed to parse center: %w", err)
	}
	if len(centers) == 0 {
		return nil, apperror.NotFound("center", nil)
	}
	return &centers[0], nil
}

func (r *SupabaseStore) ListClinics(ctx context.Context, centerID string) ([]model.Clinic, error) {
	data, _, err := r.client.From("clinics").
		Select("*", "", false).
		Eq("center_id", centerID).
		Order("name.asc", nil).
		Execute()
	if err != nil {
		return nil, r.classify("list clinics", err)
	}

	var clinics []model.Clinic
	if err := json.Unmarshal(data, &clinics); err != nil {
		return nil, fmt.Errorf("failed to parse clinics: %w", err)
	}
	return clinics, nil
}

func (r *SupabaseStore) GetClinicByName(ctx context.Context, centerID, name string) (*model.Clinic, error) {
	data, _, err := r.client.From("clinics").
		Select("*", "", false).
		Eq("center_id", centerID).
		Eq("name", name).
		Execute()
	if err != nil {
		return nil, r.classify("get clinic", err)
	}

	var clinics []model.Clinic
	if err := json.Unmarshal(data, &clinics); err != nil {
		return nil, fmt.Errorf("failed to parse clinic: %w", err)
	}
	if len(clinics) == 0 {
		return nil, apperror.NotFound("clinic", nil)
	}
	return &clinics[0], nil
}

func (r *SupabaseStore) ListAvailableSlots(ctx context.Context, clinicID, date string) ([]model.TimeSlot, error) {
	data, _, err := r.client.From("time_slots").
		Select("*", "", false).
		Eq("clinic_id", clinicID).
		Eq("date", date).
		Eq("is_available", "true").
		Order("start_time.asc", nil).
		Execute()
	if err != nil {
		return nil, r.classify("list slots", err)
	}

	var slots []model.TimeSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("failed to parse slots: %w", err)
	}
	return slots, nil
}

func (r *SupabaseStore) GetSlot(ctx context.Context, id string) (*model.TimeSlot, error) {
	data, _, err := r.client.From("time_slots").
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, r.classify("get slot", err)
	}

	var slots []model.TimeSlot
	if err := json.Unmarshal(data, &slots); err != nil {
		return nil, fmt.Errorf("failed to parse slot: %w", err)
	}
	if len(slots) == 0 {
		return nil, apperror.NotFound("slot", nil)
	}
	return &slots[0], nil
}

func (r *SupabaseStore) CreateAppointment(ctx context.Context, apt *model.Appointment) error {
	data, _, err := r.client.From("appointments").Insert(apt, false, "", "", "").Execute()
	if err != nil {
		return r.classify("create appointment", err)
	}

	var created []model.Appointment
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created appointment: %w", err)
	}
	if len(created) > 0 {
		apt.ID = created[0].ID
		apt.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (r *SupabaseStore) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	data, _, err := r.client.From("appointments").
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, r.classify("get appointment", err)
	}

	var appointments []model.Appointment
	if err := json.Unmarshal(data, &appointments); err != nil {
		return nil, fmt.Errorf("failed to parse appointment: %w", err)
	}
	if len(appointments) == 0 {
		return nil, apperror.NotFound("appointment", nil)
	}
	return &appointments[0], nil
}

// appointmentRow mirrors the nested PostgREST shape of an appointment joined
// with its slot, clinic and center.
type appointmentRow struct {
	ID          string `json:"id"`
	PatientName string `json:"patient_name"`
	PatientAge  int    `json:"patient_age"`
	Status      string `json:"status"`
	ChatID      int64  `json:"chat_id"`
	Slot        struct {
		Date      string `json:"date"`
		StartTime string `json:"start_time"`
		EndTime   string `json:"end_time"`
		Clinic    struct {
			Name   string `json:"name"`
			Center struct {
				Name string `json:"name"`
			} `json:"medical_centers"`
		} `json:"clinics"`
	} `json:"time_slots"`
}

func (row appointmentRow) detail() model.AppointmentDetail {
	return model.AppointmentDetail{
		ID:          row.ID,
		Center:      row.Slot.Clinic.Center.Name,
		Clinic:      row.Slot.Clinic.Name,
		Date:        row.Slot.Date,
		Time:        row.Slot.StartTime + "-" + row.Slot.EndTime,
		Status:      row.Status,
		ChatID:      row.ChatID,
		PatientName: row.PatientName,
		PatientAge:  row.PatientAge,
	}
}

func (r *SupabaseStore) ListAppointments(ctx context.Context, filter AppointmentFilter) ([]model.AppointmentDetail, error) {
	query := r.client.From("appointments").
		Select("id, patient_name, patient_age, status, chat_id, time_slots!inner(date, start_time, end_time, clinics(name, medical_centers(name)))", "", false)

	if filter.ChatID != nil {
		query = query.Eq("chat_id", strconv.FormatInt(*filter.ChatID, 10))
	}
	if filter.StartDate != "" {
		query = query.Gte("time_slots.date", filter.StartDate)
	}
	if filter.EndDate != "" {
		query = query.Lte("time_slots.date", filter.EndDate)
	}

	data, _, err := query.Order("created_at.desc", nil).Execute()
	if err != nil {
		return nil, r.classify("list appointments", err)
	}

	var rows []appointmentRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse appointments: %w", err)
	}

	details := make([]model.AppointmentDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, row.detail())
	}
	return details, nil
}

func (r *SupabaseStore) UpdateAppointmentStatus(ctx context.Context, id, status string) error {
	_, _, err := r.client.From("appointments").
		Update(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}, "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return r.classify("update appointment", err)
	}
	return nil
}

func (r *SupabaseStore) ReserveSlot(ctx context.Context, slotID string) (bool, error) {
	// The is_available guard makes the flip conditional: when two bookings
	// race, PostgREST matches zero rows for the loser.
	_, count, err := r.client.From("time_slots").
		Update(map[string]interface{}{
			"is_available": false,
			"updated_at":   time.Now(),
		}, "", "exact").
		Eq("id", slotID).
		Eq("is_available", "true").
		Execute()
	if err != nil {
		return false, r.classify("reserve slot", err)
	}
	return count > 0, nil
}

func (r *SupabaseStore) ReleaseSlot(ctx context.Context, slotID string) error {
	_, _, err := r.client.From("time_slots").
		Update(map[string]interface{}{
			"is_available": true,
			"updated_at":   time.Now(),
		}, "", "").
		Eq("id", slotID).
		Execute()
	if err != nil {
		return r.classify("release slot", err)
	}
	return nil
}

func (r *SupabaseStore) CreateReminder(ctx context.Context, reminder *model.Reminder) error {
	data, _, err := r.client.From("appointment_reminders").Insert(reminder, false, "", "", "").Execute()
	if err != nil {
		return r.classify("create reminder", err)
	}

	var created []model.Reminder
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created reminder: %w", err)
	}
	if len(created) > 0 {
		reminder.ID = created[0].ID
	}
	return nil
}

type dueReminderRow struct {
	ID          string `json:"id"`
	Appointment struct {
		ChatID      int64  `json:"chat_id"`
		PatientName string `json:"patient_name"`
		Slot        struct {
			Date      string `json:"date"`
			StartTime string `json:"start_time"`
			Clinic    struct {
				Name   string `json:"name"`
				Center struct {
					Name string `json:"name"`
				} `json:"medical_centers"`
			} `json:"clinics"`
		} `json:"time_slots"`
	} `json:"appointments"`
}

func (r *SupabaseStore) ListDueReminders(ctx context.Context, now time.Time) ([]model.DueReminder, error) {
	data, _, err := r.client.From("appointment_reminders").
		Select("id, appointments(chat_id, patient_name, time_slots(date, start_time, clinics(name, medical_centers(name))))", "", false).
		Lte("reminder_time", now.UTC().Format(time.RFC3339)).
		Eq("is_sent", "false").
		Order("reminder_time.asc", nil).
		Execute()
	if err != nil {
		return nil, r.classify("list due reminders", err)
	}

	var rows []dueReminderRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse reminders: %w", err)
	}

	due := make([]model.DueReminder, 0, len(rows))
	for _, row := range rows {
		due = append(due, model.DueReminder{
			ID:          row.ID,
			ChatID:      row.Appointment.ChatID,
			PatientName: row.Appointment.PatientName,
			CenterName:  row.Appointment.Slot.Clinic.Center.Name,
			ClinicName:  row.Appointment.Slot.Clinic.Name,
			Date:        row.Appointment.Slot.Date,
			StartTime:   row.Appointment.Slot.StartTime,
		})
	}
	return due, nil
}

func (r *SupabaseStore) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	_, _, err := r.client.From("appointment_reminders").
		Update(map[string]interface{}{
			"is_sent": true,
			"sent_at": at,
		}, "", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return r.classify("mark reminder sent", err)
	}
	return nil
}

func (r *SupabaseStore) CreateCenter(ctx context.Context, center *model.Center) error {
	data, _, err := r.client.From("medical_centers").Insert(center, false, "", "", "").Execute()
	if err != nil {
		return r.classify("create center", err)
	}

	var created []model.Center
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created center: %w", err)
	}
	if len(created) > 0 {
		center.ID = created[0].ID
		center.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (r *SupabaseStore) CreateClinic(ctx context.Context, clinic *model.Clinic) error {
	data, _, err := r.client.From("clinics").Insert(clinic, false, "", "", "").Execute()
	if err != nil {
		return r.classify("create clinic", err)
	}

	var created []model.Clinic
	if err := json.Unmarshal(data, &created); err != nil {
		return fmt.Errorf("failed to parse created clinic: %w", err)
	}
	if len(created) > 0 {
		clinic.ID = created[0].ID
		clinic.CreatedAt = created[0].CreatedAt
	}
	return nil
}

func (r *SupabaseStore) CreateSlots(ctx context.Context, slots []model.TimeSlot) error {
	_, _, err := r.client.From("time_slots").Insert(slots, false, "", "", "").Execute()
	if err != nil {
		return r.classify("create slots", err)
	}
	return nil
}

// classify maps raw PostgREST failures onto the error taxonomy so the state
// machine can pick a specific user-facing message. Sub-kinds are logged here
// for operators.
func (r *SupabaseStore) classify(op string, err error) error {
	msg := strings.ToLower(err.Error())

	var classified *apperror.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded) ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "deadline exceeded"):
		classified = apperror.Timeout(op+" timed out", err)
	case strings.Contains(msg, "permission") ||
		strings.Contains(msg, "denied") ||
		strings.Contains(msg, "401") ||
		strings.Contains(msg, "403"):
		classified = apperror.AccessDenied(op+" was denied", err)
	default:
		classified = apperror.Unavailable(op+" failed", err)
	}

	r.log.Error().Err(err).Str("op", op).Str("kind", classified.Kind.String()).Msg("store call failed")
	return classified
}
