package tokenx

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed reports a token that does not parse as three dot-separated
// segments with a base64url JSON payload.
var ErrMalformed = errors.New("tokenx: malformed token")

// parser decodes without verifying the signature. Authenticity is the
// remote API's job; validity here means well-formed and unexpired.
var parser = jwt.NewParser(jwt.WithJSONNumber())

// ClaimSet is the decoded payload of a token.
type ClaimSet struct {
	claims jwt.MapClaims
}

// Decode parses the payload segment of a compact token into a ClaimSet.
// The signature segment is not checked.
func Decode(token string) (ClaimSet, error) {
	if token == "" {
		return ClaimSet{}, fmt.Errorf("%w: empty string", ErrMalformed)
	}

	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return ClaimSet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return ClaimSet{claims: claims}, nil
}

// IsExpired reports whether the token's exp claim is at or before now.
// Decode failures and a missing exp claim both count as expired.
func IsExpired(token string, now time.Time) bool {
	cs, err := Decode(token)
	if err != nil {
		return true
	}

	exp, ok := cs.ExpiresAt()
	if !ok {
		return true
	}

	return !exp.After(now)
}

// IsValid reports whether the token decodes and is not expired at now.
func IsValid(token string, now time.Time) bool {
	if _, err := Decode(token); err != nil {
		return false
	}

	return !IsExpired(token, now)
}

// ExpiresAt returns the exp claim as a wall-clock time.
func (c ClaimSet) ExpiresAt() (time.Time, bool) {
	exp, err := c.claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}

	return exp.Time, true
}

// Subject returns the sub claim or empty string.
func (c ClaimSet) Subject() string {
	sub, _ := c.claims.GetSubject()
	return sub
}

// Issuer returns the iss claim or empty string.
func (c ClaimSet) Issuer() string {
	iss, _ := c.claims.GetIssuer()
	return iss
}

// Audience returns the first aud value or empty string.
func (c ClaimSet) Audience() string {
	aud, err := c.claims.GetAudience()
	if err != nil || len(aud) == 0 {
		return ""
	}

	return aud[0]
}

// Get returns a single claim as a string. Numeric and boolean claims are
// stringified; list claims yield their first element.
func (c ClaimSet) Get(name string) (string, bool) {
	v, ok := c.claims[name]
	if !ok {
		return "", false
	}

	s, ok := claimString(v)

	return s, ok
}
