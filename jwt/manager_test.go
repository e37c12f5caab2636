package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func newEdKeys(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate ed25519 key: %v", err)
	}
	return pub, priv
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	pub, priv := newEdKeys(t)
	configs := map[string]Config{
		"hs256":   {TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("secret-secret-secret-secret"), Issuer: "team"},
		"ed25519": {TTL: time.Minute, SigningMethod: MethodEd25519, PrivateKey: priv, PublicKey: pub, Issuer: "team"},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			m, err := NewManager(cfg)
			if err != nil {
				t.Fatalf("new manager: %v", err)
			}
			token, err := m.Issue("u1", "alice")
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			claims, err := m.Verify(token)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if claims.Subject != "u1" || claims.Username != "alice" || claims.ID == "" {
				t.Fatalf("unexpected claims %+v", claims)
			}
		})
	}
}

func TestVerifyRejectsWrongAlgorithm(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	claims := Claims{RegisteredClaims: gjwt.RegisteredClaims{Subject: "u1", ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("secret-secret-secret-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := m.Verify(token); err == nil {
		t.Fatal("expected wrong algorithm to be rejected")
	}
}

func TestVerifyRejectsExpiredAndForeignIssuer(t *testing.T) {
	key := []byte("secret-secret-secret-secret")
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: key, Issuer: "team"})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	tests := map[string]gjwt.RegisteredClaims{
		"expired": {
			Subject:   "u1",
			Issuer:    "team",
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		"foreign issuer": {
			Subject:   "u1",
			Issuer:    "other",
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
		"no expiry": {
			Subject: "u1",
			Issuer:  "team",
		},
		"no subject": {
			Issuer:    "team",
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	for name, rc := range tests {
		t.Run(name, func(t *testing.T) {
			token, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, Claims{RegisteredClaims: rc}).SignedString(key)
			if err != nil {
				t.Fatalf("sign: %v", err)
			}
			if _, err := m.Verify(token); err == nil {
				t.Fatal("expected verification failure")
			}
		})
	}
}

func TestNewManagerValidation(t *testing.T) {
	pub, _ := newEdKeys(t)
	tests := map[string]Config{
		"zero ttl":        {SigningMethod: MethodHS256, PrivateKey: []byte("k")},
		"negative leeway": {TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("k"), Leeway: -time.Second},
		"hs256 no key":    {TTL: time.Minute, SigningMethod: MethodHS256},
		"ed25519 no pub":  {TTL: time.Minute, SigningMethod: MethodEd25519},
		"ed25519 bad pub": {TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub[:10]},
		"unknown method":  {TTL: time.Minute, SigningMethod: "rs256", PrivateKey: []byte("k")},
	}
	for name, cfg := range tests {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestVerifyOnlyManagerCannotIssue(t *testing.T) {
	pub, _ := newEdKeys(t)
	m, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodEd25519, PublicKey: pub})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	if _, err := m.Issue("u1", "alice"); !errors.Is(err, ErrVerifyOnly) {
		t.Fatalf("expected ErrVerifyOnly, got %v", err)
	}
	if _, err := m.Issue("", "alice"); !errors.Is(err, ErrEmptySubject) {
		t.Fatalf("expected ErrEmptySubject, got %v", err)
	}
}
