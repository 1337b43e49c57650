// Package service — system message business logic.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/promptstore/internal/apperror"
	"github.com/sakif/promptstore/internal/logging"
	"github.com/sakif/promptstore/internal/model"
	"github.com/sakif/promptstore/internal/repository"
)

const (
	MaxMessageNameLength = 100
	MaxContentLength     = 100000 // ~100KB of text
)

// MessageService enforces per-owner name uniqueness and ownership-scoped
// CRUD over system messages.
//
// Every operation takes the owner id explicitly — the authenticated
// identity resolved by the transport layer — and nothing here can touch a
// record belonging to anyone else. A foreign record is reported as
// NotFound, never Forbidden, so the existence of other users' records is
// not leaked.
type MessageService struct {
	repo   repository.MessageRepository
	logger *slog.Logger
}

// NewMessageService creates a MessageService.
func NewMessageService(repo repository.MessageRepository, logger *slog.Logger) *MessageService {
	return &MessageService{
		repo:   repo,
		logger: logger,
	}
}

// validateNameContent applies the shared field rules for create and update.
func validateNameContent(name, content string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxMessageNameLength {
		return "", apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxMessageNameLength))
	}
	if content == "" {
		return "", apperror.ValidationFailed("content", "content is required")
	}
	if len(content) > MaxContentLength {
		return "", apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxContentLength))
	}
	return name, nil
}

// Create validates and saves a new system message for the owner.
//
// The (owner, name) collision pre-check is an advisory fast path: it gives
// the common duplicate a clean rejection before doing any write. It is NOT
// the correctness mechanism — two concurrent creates can both pass it, and
// then the store's UNIQUE constraint arbitrates, surfacing the same
// Conflict from the insert.
func (s *MessageService) Create(ctx context.Context, ownerID int64, name, content string) (*model.SystemMessage, error) {
	log := logging.FromContext(ctx, s.logger)

	name, err := validateNameContent(name, content)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByName(ctx, ownerID, name, 0)
	if err != nil {
		log.Error("failed to check message name",
			slog.Int64("user_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating system message: %w", err)
	}
	if taken {
		log.Warn("duplicate system message name",
			slog.Int64("user_id", ownerID),
			slog.String("name", name),
		)
		return nil, apperror.Conflict("a system message with this name already exists")
	}

	msg := &model.SystemMessage{
		OwnerID: ownerID,
		Name:    name,
		Content: content,
	}
	if err := s.repo.Create(ctx, msg); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Lost the race; the constraint is the authority.
			return nil, err
		}
		log.Error("failed to create system message",
			slog.Int64("user_id", ownerID),
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating system message: %w", err)
	}

	log.Info("system message created",
		slog.Int64("user_id", ownerID),
		slog.Int64("message_id", msg.ID),
		slog.String("name", msg.Name),
	)

	return msg, nil
}

// List returns all of the owner's messages, name ascending.
func (s *MessageService) List(ctx context.Context, ownerID int64) ([]model.SystemMessage, error) {
	log := logging.FromContext(ctx, s.logger)

	messages, err := s.repo.ListByOwner(ctx, ownerID)
	if err != nil {
		log.Error("failed to list system messages",
			slog.Int64("user_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing system messages: %w", err)
	}
	return messages, nil
}

// Get returns one of the owner's messages, or NotFound if the id is absent
// or belongs to another user.
func (s *MessageService) Get(ctx context.Context, ownerID, id int64) (*model.SystemMessage, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Update rewrites a message's name and content.
//
// The collision pre-check excludes the target id — renaming a message to
// its own current name is not a conflict. The update statement itself is
// scoped by (id, owner_id). When it affects zero rows there are two
// possibilities: the record is absent-or-foreign (NotFound), or the new
// values equal the old ones and the backend reported nothing changed. We
// distinguish by re-fetching: present-with-identical-values is a successful
// no-op, which keeps PUT idempotent.
//
// The final re-fetch also confirms the stored state equals the requested
// state — one extra read bought for correctness visibility.
func (s *MessageService) Update(ctx context.Context, ownerID, id int64, name, content string) (*model.SystemMessage, error) {
	log := logging.FromContext(ctx, s.logger)

	name, err := validateNameContent(name, content)
	if err != nil {
		return nil, err
	}

	taken, err := s.repo.ExistsByName(ctx, ownerID, name, id)
	if err != nil {
		log.Error("failed to check message name",
			slog.Int64("user_id", ownerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating system message: %w", err)
	}
	if taken {
		return nil, apperror.Conflict("another system message with this name already exists")
	}

	affected, err := s.repo.Update(ctx, ownerID, id, name, content)
	if err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		log.Error("failed to update system message",
			slog.Int64("user_id", ownerID),
			slog.Int64("message_id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating system message: %w", err)
	}

	updated, err := s.repo.Get(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			// Zero rows affected AND absent on re-read: no such id for this
			// owner. (affected > 0 with a vanished row would mean a
			// concurrent delete; NotFound is still the honest answer.)
			return nil, apperror.NotFound("system message", id)
		}
		return nil, fmt.Errorf("updating system message: %w", err)
	}

	if updated.Name != name || updated.Content != content {
		// Unreachable short of storage bugs: the row exists, the scoped
		// update ran, and yet the stored state is not the requested state.
		log.Error("system message update verification failed",
			slog.Int64("user_id", ownerID),
			slog.Int64("message_id", id),
			slog.Int64("rows_affected", affected),
		)
		return nil, fmt.Errorf("updating system message %d: post-update state mismatch", id)
	}

	log.Info("system message updated",
		slog.Int64("user_id", ownerID),
		slog.Int64("message_id", id),
		slog.String("name", name),
	)

	return updated, nil
}

// Delete removes one of the owner's messages.
//
// The existence check up front turns absent-or-foreign into NotFound before
// any write. After the delete executes we re-verify absence; a record still
// present afterwards is an internal error (should be unreachable short of
// storage bugs).
func (s *MessageService) Delete(ctx context.Context, ownerID, id int64) error {
	log := logging.FromContext(ctx, s.logger)

	if _, err := s.repo.Get(ctx, ownerID, id); err != nil {
		return err
	}

	if _, err := s.repo.Delete(ctx, ownerID, id); err != nil {
		log.Error("failed to delete system message",
			slog.Int64("user_id", ownerID),
			slog.Int64("message_id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting system message: %w", err)
	}

	if _, err := s.repo.Get(ctx, ownerID, id); err == nil {
		log.Error("system message still present after delete",
			slog.Int64("user_id", ownerID),
			slog.Int64("message_id", id),
		)
		return fmt.Errorf("deleting system message %d: record still present", id)
	} else if !errors.Is(err, apperror.ErrNotFound) {
		return fmt.Errorf("deleting system message: %w", err)
	}

	log.Info("system message deleted",
		slog.Int64("user_id", ownerID),
		slog.Int64("message_id", id),
	)

	return nil
}
