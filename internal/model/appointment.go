package model

import (
	"time"

	"github.com/google/uuid"
)

// Appointment statuses.
const (
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// Appointment links a booked slot to the patient details collected during the
// conversation. One appointment per unavailable slot.
type Appointment struct {
	ID          string    `json:"id,omitempty"`
	SlotID      string    `json:"slot_id"`
	PatientName string    `json:"patient_name"`
	PatientAge  int       `json:"patient_age"`
	ChatID      int64     `json:"chat_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// GenerateID assigns a new UUID if the backend has not provided one.
func (a *Appointment) GenerateID() {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
}

// AppointmentDetail is an appointment flattened together with its slot,
// clinic and center, the shape the admin listings return.
type AppointmentDetail struct {
	ID          string `json:"id"`
	Center      string `json:"center"`
	Clinic      string `json:"clinic"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Status      string `json:"status"`
	ChatID      int64  `json:"chat_id"`
	PatientName string `json:"patient_name"`
	PatientAge  int    `json:"patient_age"`
}
