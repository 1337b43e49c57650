// Package repository declares the storage contracts implemented by the
// sqlite subpackage. Services depend on these interfaces, never on the
// concrete database type.
package repository

import (
	"context"

	"github.com/sakif/promptstore/internal/model"
)

// UserRepository persists user credentials.
type UserRepository interface {
	// CreateUser inserts a new user and fills in ID and CreatedAt.
	// Returns apperror.ErrConflict if the username is already taken — the
	// UNIQUE constraint is the authority, not any prior read.
	CreateUser(ctx context.Context, user *model.User) error

	// GetByUsername returns the user including the password hash.
	// Only the login path may call this.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// GetByID returns the user with the password hash excluded from the
	// projection entirely (the column is never selected).
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// MessageRepository persists per-user named text records.
//
// Every read and write is scoped by owner id: a record that exists but
// belongs to a different owner is indistinguishable from one that doesn't
// exist. Ownership is existence at this layer.
type MessageRepository interface {
	// Create inserts a new message and fills in ID and CreatedAt.
	// Returns apperror.ErrConflict when (owner_id, name) already exists.
	Create(ctx context.Context, msg *model.SystemMessage) error

	// ListByOwner returns all of one owner's messages, name ascending.
	ListByOwner(ctx context.Context, ownerID int64) ([]model.SystemMessage, error)

	// Get returns the message with the given id iff it belongs to ownerID.
	Get(ctx context.Context, ownerID, id int64) (*model.SystemMessage, error)

	// ExistsByName reports whether the owner already has a message with
	// this name, ignoring excludeID (pass 0 to exclude nothing). Advisory:
	// callers must still treat a Create/Update conflict as the authority.
	ExistsByName(ctx context.Context, ownerID int64, name string, excludeID int64) (bool, error)

	// Update rewrites name and content for the owner's message and returns
	// the number of rows affected. Returns apperror.ErrConflict when the
	// new name collides with another of the owner's messages.
	Update(ctx context.Context, ownerID, id int64, name, content string) (int64, error)

	// Delete removes the owner's message and returns rows affected.
	Delete(ctx context.Context, ownerID, id int64) (int64, error)
}
