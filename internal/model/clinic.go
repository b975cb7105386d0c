package model

import "time"

// Clinic is a department within a Center. Names are unique per center.
type Clinic struct {
	ID          string    `json:"id,omitempty"`
	CenterID    string    `json:"center_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}
