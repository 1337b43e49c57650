package auth

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndVerify(t *testing.T) {
	p := NewPasswordHasherForTest()

	hash, err := p.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Errorf("Hash() = %q, want an argon2id PHC string", hash)
	}

	if err := p.Verify(hash, "correct horse battery staple"); err != nil {
		t.Errorf("Verify() with correct password: %v", err)
	}
}

func TestVerify_WrongPassword(t *testing.T) {
	p := NewPasswordHasherForTest()

	hash, err := p.Hash("right")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	err = p.Verify(hash, "wrong")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Errorf("Verify() error = %v, want ErrPasswordMismatch", err)
	}
}

func TestHash_UniqueSalts(t *testing.T) {
	p := NewPasswordHasherForTest()

	// Same password twice must produce different hashes — the salt is
	// random per call.
	h1, err := p.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	h2, err := p.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password are identical; salt is not random")
	}

	// Both must still verify.
	if err := p.Verify(h1, "pw123"); err != nil {
		t.Errorf("Verify(h1): %v", err)
	}
	if err := p.Verify(h2, "pw123"); err != nil {
		t.Errorf("Verify(h2): %v", err)
	}
}

func TestVerify_ParametersReadFromHash(t *testing.T) {
	// A hash minted with one parameter set must verify under a hasher
	// configured differently — the stored hash is self-describing.
	weak := NewPasswordHasherForTest()
	hash, err := weak.Hash("pw123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	strong := NewPasswordHasher()
	if err := strong.Verify(hash, "pw123"); err != nil {
		t.Errorf("Verify() across parameter sets: %v", err)
	}
}

func TestVerify_MalformedHash(t *testing.T) {
	p := NewPasswordHasherForTest()

	for _, hash := range []string{
		"",
		"plaintext",
		"$bcrypt$whatever",
		"$argon2id$v=19$m=8,t=1,p=1$not!base64$AAAA",
	} {
		err := p.Verify(hash, "pw123")
		if err == nil {
			t.Errorf("Verify(%q) should fail", hash)
		}
		if errors.Is(err, ErrPasswordMismatch) {
			t.Errorf("Verify(%q) = ErrPasswordMismatch, want a malformed-hash error", hash)
		}
	}
}
