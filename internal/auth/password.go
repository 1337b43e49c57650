// Package auth — password hashing utilities.
//
// WHY ARGON2ID?
// argon2id is a memory-hard password hashing function: cracking it requires
// not just CPU time but a large amount of memory per guess, which is what
// makes GPU/ASIC brute-forcing expensive. It won the Password Hashing
// Competition and is the current OWASP first choice.
//
// NEVER store passwords in plain text or with fast hashes (MD5, SHA-256).
// Those can be cracked with GPU rigs in minutes.
//
// Hash format (PHC string, everything needed to verify is embedded):
//
//	$argon2id$v=19$m=65536,t=1,p=4$<base64 salt>$<base64 key>
//
// A fresh random 16-byte salt is generated per hash, so two users with the
// same password get different hashes.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Default argon2id parameters: 64 MiB memory, 1 pass, 4 lanes, 32-byte key.
//
// PARAMETER TUNING RULE OF THUMB:
// Raise memory until hashing takes ~100–300ms on production hardware. Too
// low → cheap to crack. Too high → login is sluggish and a burst of logins
// pins the server's RAM.
const (
	defaultMemory  = 64 * 1024 // KiB
	defaultTime    = 1
	defaultThreads = 4
	saltLength     = 16
	keyLength      = 32
)

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordHasher provides argon2id hashing and verification.
//
// It's a struct (not free functions) so the parameters can be injected in
// tests — tiny memory/time settings make tests fast without changing the
// logic being tested.
type PasswordHasher struct {
	memory  uint32
	time    uint32
	threads uint8
}

// NewPasswordHasher creates a PasswordHasher with the default parameters.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{memory: defaultMemory, time: defaultTime, threads: defaultThreads}
}

// NewPasswordHasherForTest creates a hasher with minimal cost parameters.
// Do NOT use in production — 8 KiB of memory is far too weak.
func NewPasswordHasherForTest() *PasswordHasher {
	return &PasswordHasher{memory: 8, time: 1, threads: 1}
}

// Hash hashes the given plaintext password with argon2id and a random salt.
//
// The output is a self-contained PHC string — store it directly in the
// database; Verify knows how to decode it.
func (p *PasswordHasher) Hash(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext), salt, p.time, p.memory, p.threads, keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.memory,
		p.time,
		p.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)

	return encoded, nil
}

// Verify checks whether a plaintext password matches a stored hash.
//
// Returns nil on match, ErrPasswordMismatch on a wrong password, and some
// other error if the stored hash is corrupt.
//
// TIMING SAFETY:
// The derived keys are compared with subtle.ConstantTimeCompare, so an
// attacker can't learn anything from response timing about how many bytes
// matched.
//
// The parameters are read from the stored hash, not from the hasher — old
// hashes keep verifying after the defaults are raised.
func (p *PasswordHasher) Verify(hash, plaintext string) error {
	memory, time, threads, salt, key, err := decodeHash(hash)
	if err != nil {
		return err
	}

	candidate := argon2.IDKey([]byte(plaintext), salt, time, memory, threads, uint32(len(key)))

	if subtle.ConstantTimeCompare(key, candidate) != 1 {
		return ErrPasswordMismatch
	}
	return nil
}

// decodeHash splits a PHC-format argon2id string back into its parts.
func decodeHash(hash string) (memory, time uint32, threads uint8, salt, key []byte, err error) {
	parts := strings.Split(hash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return 0, 0, 0, nil, nil, errors.New("auth: malformed password hash")
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed password hash version: %w", err)
	}
	if version != argon2.Version {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: unsupported argon2 version %d", version)
	}

	var th uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &th); err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed password hash parameters: %w", err)
	}
	threads = uint8(th)

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed password hash salt: %w", err)
	}
	key, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return 0, 0, 0, nil, nil, fmt.Errorf("auth: malformed password hash key: %w", err)
	}

	return memory, time, threads, salt, key, nil
}
