// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered web account.
//
// The username is the login identity — unique store-wide. PasswordHash holds
// the bcrypt hash (never the plaintext, and never serialized to JSON — note
// the `json:"-"` tag).
//
// WHY Email string (not *string)?
// Email is optional at registration. We use the empty string as "not
// provided" rather than a nullable pointer — simpler to work with and safe
// to display.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Username     string    `json:"username"  db:"username"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
