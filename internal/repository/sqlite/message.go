package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/promptstore/internal/apperror"
	"github.com/sakif/promptstore/internal/model"
	"github.com/sakif/promptstore/internal/repository"
)

// compile-time check that *DB implements repository.MessageRepository
var _ repository.MessageRepository = (*DB)(nil)

// Create inserts a new system message.
//
// The UNIQUE (user_id, name) constraint is the arbiter for duplicate names:
// under two concurrent creates with the same pair, exactly one insert
// succeeds and the other surfaces here as a Conflict.
func (db *DB) Create(ctx context.Context, msg *model.SystemMessage) error {
	msg.CreatedAt = time.Now().UTC()

	result, err := db.conn.ExecContext(ctx,
		`INSERT INTO system_messages (user_id, name, content, created_at)
		 VALUES (?, ?, ?, ?)`,
		msg.OwnerID,
		msg.Name,
		msg.Content,
		msg.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("a system message with this name already exists")
		}
		return fmt.Errorf("sqlite: inserting system message %q: %w", msg.Name, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new system message id: %w", err)
	}
	msg.ID = id

	return nil
}

// ListByOwner returns all of one owner's messages sorted by name ascending.
func (db *DB) ListByOwner(ctx context.Context, ownerID int64) ([]model.SystemMessage, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, user_id, name, content, created_at
		 FROM system_messages
		 WHERE user_id = ?
		 ORDER BY name ASC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing system messages: %w", err)
	}
	// Always close rows — a leaked Rows pins a pool connection forever.
	defer rows.Close()

	messages := make([]model.SystemMessage, 0)
	for rows.Next() {
		var m model.SystemMessage
		if err := rows.Scan(&m.ID, &m.OwnerID, &m.Name, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning system message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating system messages: %w", err)
	}

	return messages, nil
}

// Get retrieves a single message by id, scoped to its owner.
//
// The WHERE clause is a conjunction of id AND user_id: a message that exists
// but belongs to someone else is indistinguishable from one that doesn't
// exist. Ownership is existence at this layer — nothing above it can leak
// the presence of another user's records.
func (db *DB) Get(ctx context.Context, ownerID, id int64) (*model.SystemMessage, error) {
	var m model.SystemMessage

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, name, content, created_at
		 FROM system_messages
		 WHERE id = ? AND user_id = ?`,
		id, ownerID,
	).Scan(&m.ID, &m.OwnerID, &m.Name, &m.Content, &m.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("system message", id)
		}
		return nil, fmt.Errorf("sqlite: getting system message %d: %w", id, err)
	}

	return &m, nil
}

// ExistsByName reports whether ownerID already has a message named name,
// ignoring the row with id excludeID (0 excludes nothing). This backs the
// service's advisory pre-checks; it is deliberately not relied on for
// correctness under concurrency.
func (db *DB) ExistsByName(ctx context.Context, ownerID int64, name string, excludeID int64) (bool, error) {
	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM system_messages
		 WHERE user_id = ? AND name = ? AND id != ?`,
		ownerID, name, excludeID,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("sqlite: checking name %q for user %d: %w", name, ownerID, err)
	}
	return true, nil
}

// Update rewrites name and content for the owner's message and returns the
// number of rows affected. Zero affected rows means the (id, owner_id) pair
// matched nothing — the caller decides whether that is NotFound or a no-op.
func (db *DB) Update(ctx context.Context, ownerID, id int64, name, content string) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE system_messages
		 SET name = ?, content = ?
		 WHERE id = ? AND user_id = ?`,
		name, content, id, ownerID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, apperror.Conflict("another system message with this name already exists")
		}
		return 0, fmt.Errorf("sqlite: updating system message %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return affected, nil
}

// Delete removes the owner's message and returns rows affected.
func (db *DB) Delete(ctx context.Context, ownerID, id int64) (int64, error) {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM system_messages WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: deleting system message %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	return affected, nil
}
