package model

import "time"

// Reminder schedules a one-shot notification before an appointment. Created
// atomically with the appointment; is_sent flips once and is never cleared.
type Reminder struct {
	ID            string     `json:"id,omitempty"`
	AppointmentID string     `json:"appointment_id"`
	ReminderTime  time.Time  `json:"reminder_time"`
	IsSent        bool       `json:"is_sent"`
	SentAt        *time.Time `json:"sent_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at,omitempty"`
}

// DueReminder is a reminder joined with everything needed to notify the
// patient, flattened from the nested appointment/slot/clinic/center rows.
type DueReminder struct {
	ID          string
	ChatID      int64
	PatientName string
	CenterName  string
	ClinicName  string
	Date        string
	StartTime   string
}
