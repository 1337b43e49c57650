// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other
// languages, but without inheritance. Go favours composition over inheritance.
package model

import "time"

// SystemMessage is a named text record owned by exactly one user.
//
// The `json:"..."` tags tell Go's encoding/json package how to
// serialize/deserialize this struct to/from JSON.
//
// Invariant: (OwnerID, Name) is unique — no two messages belonging to the
// same owner share a name. The sqlite schema enforces this with a UNIQUE
// constraint; the service layer's pre-checks are advisory only.
type SystemMessage struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"user_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}
