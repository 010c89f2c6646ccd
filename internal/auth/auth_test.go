package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashing(t *testing.T) {
	hashers := map[string]PasswordHasher{
		"argon2": NewArgon2Hasher(),
		"bcrypt": NewBcryptHasher(bcrypt.MinCost),
	}
	for name, h := range hashers {
		t.Run(name, func(t *testing.T) {
			pwd := "super-secret"
			hash, err := h.Hash(pwd)
			if err != nil {
				t.Fatalf("hash error: %v", err)
			}
			if hash == pwd {
				t.Fatalf("hash equals plaintext")
			}
			if !h.Verify(pwd, hash) {
				t.Fatalf("check failed for correct password")
			}
			if h.Verify("wrong", hash) {
				t.Fatalf("expected failure for wrong password")
			}
			if h.Verify(pwd, "garbage") {
				t.Fatalf("expected failure for malformed hash")
			}

			again, err := h.Hash(pwd)
			if err != nil {
				t.Fatalf("hash error: %v", err)
			}
			if again == hash {
				t.Fatalf("two hashes of the same password must use different salts")
			}
		})
	}
}

func TestNewPasswordHasher(t *testing.T) {
	if _, err := NewPasswordHasher("bcrypt", 4); err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	if _, err := NewPasswordHasher("argon2", 0); err != nil {
		t.Fatalf("argon2: %v", err)
	}
	if _, err := NewPasswordHasher("md5", 0); err == nil {
		t.Fatal("expected error for unknown hasher")
	}
}

func TestJWTRoundTrip(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	id := uuid.New()

	tok, err := m.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	got, err := m.Verify(tok)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got != id {
		t.Fatalf("subject = %s, want %s", got, id)
	}
}

func TestJWTRejects(t *testing.T) {
	m := NewJWTManager("secret", time.Hour)
	id := uuid.New()
	valid, err := m.Issue(id)
	if err != nil {
		t.Fatal(err)
	}

	expired := NewJWTManager("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expiredTok, err := expired.Issue(id)
	if err != nil {
		t.Fatal(err)
	}

	otherSecret, err := NewJWTManager("other", time.Hour).Issue(id)
	if err != nil {
		t.Fatal(err)
	}

	noneTok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   id.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject: id.String(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	badSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "not-a-uuid",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrNoToken},
		{"garbage", "abc.def.ghi", ErrInvalidToken},
		{"tampered", valid + "x", ErrInvalidToken},
		{"expired", expiredTok, ErrInvalidToken},
		{"wrong secret", otherSecret, ErrInvalidToken},
		{"alg none", noneTok, ErrInvalidToken},
		{"no expiry", noExp, ErrInvalidToken},
		{"bad subject", badSubject, ErrInvalidToken},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := m.Verify(c.token)
			if !errors.Is(err, c.want) {
				t.Fatalf("err = %v, want %v", err, c.want)
			}
		})
	}
}
