package authinfo

import (
	"encoding/base64"
	"encoding/json"
	"testing"
)

func sessionToken(t *testing.T, claims map[string]any) string {
	t.Helper()
	enc := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		return base64.RawURLEncoding.EncodeToString(b)
	}
	return enc(map[string]any{"alg": "HS256", "typ": "JWT"}) + "." + enc(claims) + ".sig"
}

func TestEmailFromToken(t *testing.T) {
	tok := sessionToken(t, map[string]any{"email": "dev@prisme.test"})
	if got := EmailFromToken(tok); got != "dev@prisme.test" {
		t.Fatalf("unexpected email: %q", got)
	}
	// API keys are opaque.
	if got := EmailFromToken("DemoToken"); got != "" {
		t.Fatalf("expected empty email, got %q", got)
	}
}

func TestParseClaims_SubjectAndExpiry(t *testing.T) {
	tok := sessionToken(t, map[string]any{"sub": "user-demo", "email": " dev@prisme.test ", "exp": 1767225600})
	c, ok := ParseClaims(tok)
	if !ok {
		t.Fatalf("expected claims")
	}
	if c.Subject != "user-demo" || c.Email != "dev@prisme.test" {
		t.Fatalf("unexpected claims: %#v", c)
	}
	exp, ok := ExpiryFromToken(tok)
	if !ok || exp.Unix() != 1767225600 {
		t.Fatalf("unexpected expiry: %v %v", exp, ok)
	}
	if _, ok := ExpiryFromToken(sessionToken(t, map[string]any{"sub": "user-demo"})); ok {
		t.Fatalf("expected no expiry")
	}
	if _, ok := ParseClaims("a.!!!.b"); ok {
		t.Fatalf("expected a broken payload to be rejected")
	}
}
