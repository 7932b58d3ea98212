// Package auth inspects IGWN SciTokens before private fetches are attempted.
// The token is presented to remote services which verify it themselves; we
// only decode the claims locally to fail fast on missing read scopes or
// expiry instead of burning a network round trip
package auth

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	perr "gwdata/internal/platform/errors"
)

// ReadScopes are the scopes a token needs before we try proprietary frame
// or calibration archives
var ReadScopes = []string{"read:/ligo", "read:/virgo", "read:/kagra", "read:/frames"}

// Token is the decoded, locally-unverified view of a SciToken
type Token struct {
	Subject   string
	Issuer    string
	Scopes    []string
	ExpiresAt time.Time
}

// Parse decodes a serialized SciToken without verifying its signature
func Parse(raw string) (Token, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return Token{}, perr.Wrap(err, perr.ErrorCodeUnauthorized, "token is not a valid JWT")
	}

	var t Token
	if sub, err := claims.GetSubject(); err == nil {
		t.Subject = sub
	}
	if iss, err := claims.GetIssuer(); err == nil {
		t.Issuer = iss
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t.ExpiresAt = exp.Time
	}
	if scope, ok := claims["scope"].(string); ok {
		t.Scopes = strings.Fields(scope)
	}
	return t, nil
}

// Expired reports whether the token has an expiry in the past
func (t Token) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// HasScope reports whether the token carries the exact scope
func (t Token) HasScope(scope string) bool {
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// CheckRead validates that the token is live and carries every required read
// scope; the returned error names the first missing scope
func (t Token) CheckRead(now time.Time, scopes ...string) error {
	if t.Expired(now) {
		return perr.Unauthorizedf("token expired at %s", t.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if len(scopes) == 0 {
		scopes = ReadScopes
	}
	for _, want := range scopes {
		if !t.HasScope(want) {
			return perr.Unauthorizedf("token lacks required scope %q", want)
		}
	}
	return nil
}
