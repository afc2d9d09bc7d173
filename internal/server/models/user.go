package models

import "time"

// User is an account row. PasswordHash is a self-contained argon2id
// encoding, never the raw password.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
