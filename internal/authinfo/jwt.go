// Package authinfo reads display claims from session tokens. Signatures are
// never checked; the values are only shown to the user.
package authinfo

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

type Claims struct {
	Subject   string
	Email     string
	ExpiresAt time.Time
}

// ParseClaims decodes the payload of a JWT-like token.
func ParseClaims(token string) (Claims, bool) {
	token = strings.TrimSpace(token)
	parts := strings.Split(token, ".")
	if len(parts) < 2 {
		return Claims{}, false
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return Claims{}, false
	}
	var payload struct {
		Sub   string  `json:"sub"`
		Email string  `json:"email"`
		Exp   float64 `json:"exp"`
	}
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return Claims{}, false
	}
	c := Claims{Subject: strings.TrimSpace(payload.Sub), Email: strings.TrimSpace(payload.Email)}
	if payload.Exp > 0 {
		c.ExpiresAt = time.Unix(int64(payload.Exp), 0).UTC()
	}
	return c, true
}

func EmailFromToken(token string) string {
	c, _ := ParseClaims(token)
	return c.Email
}

// ExpiryFromToken returns the "exp" claim when present.
func ExpiryFromToken(token string) (time.Time, bool) {
	c, ok := ParseClaims(token)
	if !ok || c.ExpiresAt.IsZero() {
		return time.Time{}, false
	}
	return c.ExpiresAt, true
}
