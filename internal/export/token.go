// Package export implements the signed, time-limited capability that lets a
// user fetch their own calendar through an unauthenticated link.
//
// A token binds an owner identity to an issuance time. It is stateless:
// nothing is persisted, so a token cannot be revoked before its
// configured maximum age elapses; the TTL is the only defense. The secret's
// storage and rotation live outside this package.
//
// Wire format:
//
//	base64url(v1:<owner>:<unix issued_at>) + "." + base64url(HMAC-SHA256(payload))
package export

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Redemption errors. The HTTP surface reports both identically ("invalid
// link") so a caller cannot distinguish forgery from staleness.
var (
	// ErrBadSignature is returned when the MAC does not verify or the token
	// is structurally malformed.
	ErrBadSignature = errors.New("bad token signature")

	// ErrExpired is returned when the token's issuance time is older than the
	// caller's maximum age.
	ErrExpired = errors.New("token expired")
)

// payloadVersion prefixes every payload so the format can evolve.
const payloadVersion = "v1"

// Signer issues and redeems export capability tokens using a server-held
// secret. The zero value is unusable; construct with NewSigner.
type Signer struct {
	secret []byte
	now    func() time.Time
}

// NewSigner builds a Signer over the given secret. The secret is externally
// supplied configuration, never generated here.
func NewSigner(secret []byte) *Signer {
	return &Signer{secret: secret, now: time.Now}
}

// Issue serializes {owner, issued_at=now}, signs it, and returns the opaque
// token string.
func (s *Signer) Issue(owner int64) string {
	payload := fmt.Sprintf("%s:%d:%d", payloadVersion, owner, s.now().Unix())
	return encode(payload) + "." + encode(s.mac(payload))
}

// Redeem parses and verifies a token, returning the owner identity it was
// issued for. The MAC comparison is constant time. A token older than maxAge
// fails with ErrExpired; any structural or signature problem fails with
// ErrBadSignature.
func (s *Signer) Redeem(token string, maxAge time.Duration) (int64, error) {
	payloadPart, macPart, ok := strings.Cut(token, ".")
	if !ok {
		return 0, ErrBadSignature
	}
	payload, err := decode(payloadPart)
	if err != nil {
		return 0, ErrBadSignature
	}
	gotMAC, err := decode(macPart)
	if err != nil {
		return 0, ErrBadSignature
	}
	if !hmac.Equal([]byte(gotMAC), []byte(s.mac(payload))) {
		return 0, ErrBadSignature
	}

	parts := strings.Split(payload, ":")
	if len(parts) != 3 || parts[0] != payloadVersion {
		return 0, ErrBadSignature
	}
	owner, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || owner <= 0 {
		return 0, ErrBadSignature
	}
	issuedAt, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return 0, ErrBadSignature
	}

	if maxAge < 0 {
		maxAge = 0
	}
	// issued_at is stored in whole seconds, so the age check runs at the same
	// granularity; a token redeemed within the issuance second has age zero.
	if s.now().Unix()-issuedAt > int64(maxAge/time.Second) {
		return 0, ErrExpired
	}
	return owner, nil
}

// mac computes the HMAC-SHA256 over the canonical payload.
func (s *Signer) mac(payload string) string {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(payload))
	return string(h.Sum(nil))
}

func encode(s string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(s))
}

func decode(s string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	return string(b), err
}
