// Package auth provides token issuance/verification, password hashing, and
// the HTTP middleware that binds a request to an authenticated identity.
//
// AUTHENTICATION FLOW OVERVIEW:
// 1. Client POSTs credentials to /auth/login
// 2. Server verifies the password hash and issues a signed JWT access token
// 3. Client sends "Authorization: Bearer <token>" on subsequent requests
// 4. Middleware verifies the token, re-fetches the user, and passes an
//    explicit Identity to the handlers
//
// WHY JWT?
// JWT (JSON Web Token) is stateless — the server keeps no session table.
// Everything needed (subject, expiry) is inside the signed token, so a
// token cannot be revoked before its natural expiry; we keep the window
// short (1 hour) instead.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors returned by Verify. All three are surfaced identically to
// the client (401); the distinction exists so the server can log the real
// cause.
var (
	// ErrTokenExpired means the signature checked out but the expiry window
	// has passed. A token presented exactly at its expiry instant is expired.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrTokenMalformed means the token could not be parsed, or its subject
	// is not a valid integer user id.
	ErrTokenMalformed = errors.New("auth: token malformed")
	// ErrTokenInvalid means the structure parsed but the signature (or some
	// other claim) does not verify.
	ErrTokenInvalid = errors.New("auth: token invalid")
)

const issuer = "promptstore"

// TokenCodec issues and verifies signed, time-bounded identity tokens.
//
// It holds the HMAC secret used to sign and verify. The same secret must be
// used for both operations — keep it safe, rotate it periodically in
// production.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec creates a TokenCodec with the given secret and token
// lifetime. A missing or short secret is the one catastrophic
// misconfiguration this layer can detect, so it is rejected here rather
// than surfacing as a signing failure on every login.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload. It embeds jwt.RegisteredClaims which carries
// the standard fields (Issuer, Subject, ExpiresAt, IssuedAt).
//
// The "sub" claim stores the user id as a decimal string — JWT subjects are
// strings by definition, so the integer identity is converted on the way in
// and parsed back (strictly) on the way out.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs an access token for the given user id.
//
// The token embeds subject=userID, issued_at=now, expires_at=now+ttl and is
// signed with HS256 (HMAC-SHA256) — symmetric, fast, and sufficient for a
// single-service deployment where issuer and verifier share the secret.
func (c *TokenCodec) Issue(userID int64) (string, error) {
	return c.IssueWithDuration(userID, c.ttl)
}

// IssueWithDuration creates a token with a custom expiry window.
// Used in tests to mint already-expired tokens.
func (c *TokenCodec) IssueWithDuration(userID int64, d time.Duration) (string, error) {
	now := time.Now()

	cl := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cl)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a token string and returns the user id it
// encodes.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired (strictly before ExpiresAt)
//   - Issuer matches (prevents tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// Failures are classified into ErrTokenExpired / ErrTokenMalformed /
// ErrTokenInvalid so the caller can log the cause. The classification must
// never reach the client.
func (c *TokenCodec) Verify(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return 0, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return 0, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
		default:
			// Signature mismatch, wrong issuer, bad algorithm, ...
			return 0, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
		}
	}

	cl, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, ErrTokenInvalid
	}

	// The subject must be a decimal integer identity. A signed token with a
	// garbage subject is structurally broken, not forged.
	userID, err := strconv.ParseInt(cl.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: subject %q is not an integer", ErrTokenMalformed, cl.Subject)
	}

	return userID, nil
}
