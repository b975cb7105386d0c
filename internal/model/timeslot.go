package model

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used by the time_slots table.
const DateLayout = "2006-01-02"

// TimeSlot is a bookable interval at a clinic on a specific date. Slots are
// created in bulk by the admin slot generator and flip is_available exactly
// once, at booking time.
type TimeSlot struct {
	ID          string    `json:"id,omitempty"`
	ClinicID    string    `json:"clinic_id"`
	Date        string    `json:"date"`       // YYYY-MM-DD
	StartTime   string    `json:"start_time"` // HH:MM or HH:MM:SS
	EndTime     string    `json:"end_time"`
	Duration    int       `json:"duration"` // minutes
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
}

// StartsAt resolves the slot's date and start time into an instant in loc.
func (s TimeSlot) StartsAt(loc *time.Location) (time.Time, error) {
	return ParseSlotTime(s.Date, s.StartTime, loc)
}

// TimeRange renders the slot as "start-end" the way it is shown to users.
func (s TimeSlot) TimeRange() string {
	return s.StartTime + "-" + s.EndTime
}

// ParseSlotTime combines a YYYY-MM-DD date and a clock time (with or without
// seconds) into a time.Time in loc.
func ParseSlotTime(date, clock string, loc *time.Location) (time.Time, error) {
	for _, layout := range []string{DateLayout + " 15:04:05", DateLayout + " 15:04"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse slot time %q %q", date, clock)
}
