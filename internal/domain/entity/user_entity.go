package entity

import (
	"time"
)

// User is the aggregate root for the user administration domain.
// Password holds the bcrypt hash, never the plain text.
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
