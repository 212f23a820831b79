package models

import "time"

// User owns one habit catalog and its completions. CreatedAt bounds streak scans.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
