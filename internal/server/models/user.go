// Package models defines server-side data models persisted in the database.
package models

import "time"

// User owns accounts. Salt and Verifier hold the argon2id password verifier.
type User struct {
	ID        string
	UserName  string
	Email     string
	Salt      []byte
	Verifier  []byte
	CreatedAt time.Time
}
