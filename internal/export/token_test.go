package export

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestSigner(secret string, at time.Time) *Signer {
	s := NewSigner([]byte(secret))
	s.now = func() time.Time { return at }
	return s
}

func TestSigner_IssueRedeem_RoundTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner("topsecret", now)

	tok := s.Issue(42)
	if !strings.Contains(tok, ".") {
		t.Fatalf("token missing separator: %q", tok)
	}

	owner, err := s.Redeem(tok, time.Hour)
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if owner != 42 {
		t.Fatalf("owner = %d; want 42", owner)
	}
}

func TestSigner_Redeem_Expired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner("topsecret", issued)
	tok := s.Issue(7)

	// Forward the clock past the allowed age.
	s.now = func() time.Time { return issued.Add(2 * time.Hour) }
	if _, err := s.Redeem(tok, time.Hour); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v; want ErrExpired", err)
	}

	// Exactly at the boundary the token is still good.
	s.now = func() time.Time { return issued.Add(time.Hour) }
	if _, err := s.Redeem(tok, time.Hour); err != nil {
		t.Fatalf("boundary redeem: %v", err)
	}
}

func TestSigner_Redeem_TamperedAndMalformed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner("topsecret", now)
	tok := s.Issue(42)

	payload, mac, _ := strings.Cut(tok, ".")

	// Payload from a different owner with the original MAC.
	other := s.Issue(43)
	otherPayload, _, _ := strings.Cut(other, ".")
	cases := map[string]string{
		"swapped payload": otherPayload + "." + mac,
		"swapped mac":     payload + "." + encode("not-a-mac"),
		"no separator":    payload,
		"empty":           "",
		"bad base64":      "!!!" + "." + mac,
		"garbage":         "v1:42:123.deadbeef",
	}
	for name, tampered := range cases {
		if _, err := s.Redeem(tampered, time.Hour); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("%s: err = %v; want ErrBadSignature", name, err)
		}
	}
}

func TestSigner_Redeem_WrongSecret(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tok := newTestSigner("secret-a", now).Issue(42)

	if _, err := newTestSigner("secret-b", now).Redeem(tok, time.Hour); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("err = %v; want ErrBadSignature", err)
	}
}

func TestSigner_Redeem_RejectsNonPositiveOwner(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner("topsecret", now)

	// Hand-build structurally valid tokens with bad owners; the MAC is
	// genuine, so only the owner check can reject them.
	for _, owner := range []string{"0", "-5", "abc"} {
		payload := payloadVersion + ":" + owner + ":" + "1748779200"
		tok := encode(payload) + "." + encode(s.mac(payload))
		if _, err := s.Redeem(tok, 100*365*24*time.Hour); !errors.Is(err, ErrBadSignature) {
			t.Fatalf("owner %q: err = %v; want ErrBadSignature", owner, err)
		}
	}
}

func TestSigner_Redeem_SubSecondClock(t *testing.T) {
	// A wall clock mid-second must not age a fresh token: issued_at carries
	// whole seconds only, so the fractional part would otherwise count
	// against maxAge.
	now := time.Date(2025, 6, 1, 12, 0, 0, 700*int(time.Millisecond), time.UTC)
	s := newTestSigner("topsecret", now)
	tok := s.Issue(42)

	owner, err := s.Redeem(tok, 0)
	if err != nil {
		t.Fatalf("immediate redeem with maxAge=0: %v", err)
	}
	if owner != 42 {
		t.Fatalf("owner = %d; want 42", owner)
	}

	// One second later the zero-age grace is gone.
	s.now = func() time.Time { return now.Add(time.Second) }
	if _, err := s.Redeem(tok, 0); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v; want ErrExpired", err)
	}
}

func TestSigner_Redeem_NegativeMaxAgeClampedToZero(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := newTestSigner("topsecret", now)
	tok := s.Issue(42)

	// maxAge < 0 behaves like 0: a token redeemed in the same second passes.
	if _, err := s.Redeem(tok, -time.Hour); err != nil {
		t.Fatalf("redeem with negative maxAge: %v", err)
	}
}
