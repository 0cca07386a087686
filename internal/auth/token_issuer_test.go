package auth

import (
	"errors"
	"testing"
	"time"
)

func newIssuer(secret string, clock func() time.Time) *TokenIssuer {
	return NewTokenIssuer(TokenIssuerConfig{
		SigningSecret: []byte(secret),
		Issuer:        "jot-auth",
		Audience:      "jot-api",
		TokenTTL:      30 * time.Minute,
		Clock:         clock,
	})
}

func TestIssueAndValidateRoundTrip(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newIssuer("secret", func() time.Time { return now })

	token, expiresIn, err := issuer.IssueToken("user-1")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if expiresIn != int64((30 * time.Minute).Seconds()) {
		t.Fatalf("unexpected expiry: %d", expiresIn)
	}

	subject, err := issuer.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("unexpected subject: %q", subject)
	}
}

func TestIssueTokenRequiresSubject(t *testing.T) {
	issuer := newIssuer("secret", nil)
	if _, _, err := issuer.IssueToken(""); !errors.Is(err, ErrMissingSubject) {
		t.Fatalf("expected missing subject error, got %v", err)
	}
}

func TestIssueTokenRequiresSigningSecret(t *testing.T) {
	issuer := NewTokenIssuer(TokenIssuerConfig{})
	if _, _, err := issuer.IssueToken("user-1"); !errors.Is(err, ErrMissingSigningSecret) {
		t.Fatalf("expected missing secret error, got %v", err)
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newIssuer("secret", func() time.Time { return now })

	token, _, err := issuer.IssueToken("user-1")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}

	now = now.Add(31 * time.Minute)
	if _, err := issuer.ValidateToken(token); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestValidateRejectsForeignSecret(t *testing.T) {
	now := time.Unix(1700000000, 0).UTC()
	issuer := newIssuer("secret", func() time.Time { return now })
	foreign := newIssuer("other-secret", func() time.Time { return now })

	token, _, err := foreign.IssueToken("user-1")
	if err != nil {
		t.Fatalf("unexpected issue error: %v", err)
	}
	if _, err := issuer.ValidateToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}
