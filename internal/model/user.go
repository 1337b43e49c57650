// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered user account.
//
// WHY json:"-" ON PasswordHash?
// The hash must never leave the server. The "-" tag tells encoding/json to
// skip the field entirely, so even if a handler serializes a full User the
// hash cannot appear in a response body. Read paths that don't need the hash
// (profile, token resolution) additionally never SELECT the column, so the
// field is empty there — the projection excludes it, not just the encoder.
//
// WHY ID int64?
// IDs come from the database's AUTOINCREMENT primary key, which database/sql
// reports as int64 via LastInsertId(). Using int64 end to end avoids lossy
// conversions.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
