package model

import "time"

// Center is a medical facility offering one or more clinics.
type Center struct {
	ID        string    `json:"id,omitempty"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}
