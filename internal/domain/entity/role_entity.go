package entity

import "time"

// Role represents an authorization role
// Many-to-many with User via user_roles
// Roles are read-only for the user administration API.
type Role struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
