// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (business layer) → validates, enforces rules, orchestrates
//	Repository (data layer)  → reads/writes the database
//
// Services accept primitives and return domain errors — they have zero
// knowledge of HTTP. Handlers translate domain errors to status codes.
// Services receive repository interfaces, not concrete types, so tests can
// inject in-memory fakes.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/promptstore/internal/apperror"
	"github.com/sakif/promptstore/internal/auth"
	"github.com/sakif/promptstore/internal/logging"
	"github.com/sakif/promptstore/internal/model"
	"github.com/sakif/promptstore/internal/repository"
)

const MaxUsernameLength = 64

// invalidCredentials is the single error returned for every authentication
// failure. Unknown username and wrong password must be indistinguishable to
// the caller — a different message (or error value) per cause would hand an
// attacker a username-enumeration oracle.
var invalidCredentials = apperror.Unauthorized("invalid username or password")

// AuthService orchestrates registration, authentication, and token
// issuance/verification against the credential store and token codec.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenCodec
	passwords *auth.PasswordHasher
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenCodec,
	passwords *auth.PasswordHasher,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// Register creates a new account and returns its id.
//
// The plaintext password is hashed with argon2id before it touches the
// store, and is never logged. The username lookup before the insert is an
// advisory check only — it produces a friendlier failure for the common
// case, but the store's UNIQUE constraint is what actually arbitrates
// concurrent registrations, and its violation surfaces as the same
// Conflict.
func (s *AuthService) Register(ctx context.Context, username, password string) (int64, error) {
	log := logging.FromContext(ctx, s.logger)

	username = strings.TrimSpace(username)
	if username == "" {
		return 0, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return 0, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if password == "" {
		return 0, apperror.ValidationFailed("password", "password is required")
	}

	// Advisory duplicate check (racy by nature; the constraint backstops it).
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		log.Warn("registration attempt for existing username",
			slog.String("username", username),
		)
		return 0, apperror.Conflict("username already exists")
	} else if !errors.Is(err, apperror.ErrNotFound) {
		log.Error("failed to check username availability",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("registering user: %w", err)
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return 0, fmt.Errorf("registering user: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			// Lost the race against a concurrent registration.
			return 0, err
		}
		log.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return 0, fmt.Errorf("registering user: %w", err)
	}

	log.Info("user registered",
		slog.Int64("user_id", user.ID),
		slog.String("username", username),
	)

	return user.ID, nil
}

// Authenticate verifies a username/password pair and returns the user with
// the password hash cleared.
//
// Both failure modes — unknown username and wrong password — return the
// identical error value, so the caller (and therefore the client) cannot
// distinguish them. The true reason is logged.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	log := logging.FromContext(ctx, s.logger)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, invalidCredentials
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Warn("authentication failed: unknown username",
				slog.String("username", username),
			)
			return nil, invalidCredentials
		}
		log.Error("failed to look up user for authentication",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("authenticating user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			log.Warn("authentication failed: wrong password",
				slog.String("username", username),
			)
			return nil, invalidCredentials
		}
		// Corrupt stored hash — a storage problem, not a caller problem.
		log.Error("failed to verify password hash",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("authenticating user: %w", err)
	}

	log.Info("user authenticated",
		slog.Int64("user_id", user.ID),
		slog.String("username", username),
	)

	user.PasswordHash = ""
	return user, nil
}

// IssueToken delegates to the token codec. Split out from Authenticate so
// the login handler can report a token-signing failure (500) separately
// from bad credentials (401).
func (s *AuthService) IssueToken(userID int64) (string, error) {
	token, err := s.tokens.Issue(userID)
	if err != nil {
		s.logger.Error("failed to issue token",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", fmt.Errorf("issuing token: %w", err)
	}
	return token, nil
}

// GetUserByID returns the user (without hash) for the given id. Used by the
// profile handler after the middleware has authenticated the request.
func (s *AuthService) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.users.GetByID(ctx, id)
}

// Resolve verifies a bearer token and re-fetches the user it identifies.
//
// A valid token whose subject no longer exists (account deleted after
// issuance) resolves to Unauthorized — it is an absence, not a security
// event, and the client sees the same 401 as for any other bad token.
func (s *AuthService) Resolve(ctx context.Context, token string) (*model.User, error) {
	log := logging.FromContext(ctx, s.logger)

	userID, err := s.tokens.Verify(token)
	if err != nil {
		// Expired vs malformed vs forged matters only for the logs; the
		// middleware collapses all of them into one 401.
		return nil, apperror.Unauthorized(err.Error())
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			log.Warn("token subject no longer exists",
				slog.Int64("user_id", userID),
			)
			return nil, apperror.Unauthorized("user not found for token")
		}
		log.Error("failed to fetch user for token",
			slog.Int64("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("resolving token: %w", err)
	}

	return user, nil
}
