package backend

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func tokenWithExp(t *testing.T, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{"sub": "u-1", "role": "DOCTOR"}
	if !exp.IsZero() {
		claims["exp"] = exp.Unix()
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return s
}

func TestParseAccessClaims(t *testing.T) {
	token := tokenWithExp(t, time.Now().Add(time.Hour))

	claims, err := ParseAccessClaims(token)
	if err != nil {
		t.Fatalf("ParseAccessClaims: %v", err)
	}
	if claims.Subject != "u-1" || claims.Role != "DOCTOR" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseAccessClaims_Garbage(t *testing.T) {
	if _, err := ParseAccessClaims("not.a.jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestExpired(t *testing.T) {
	now := time.Now()

	live, _ := ParseAccessClaims(tokenWithExp(t, now.Add(time.Hour)))
	if live.Expired(now) {
		t.Error("future exp reported expired")
	}

	dead, _ := ParseAccessClaims(tokenWithExp(t, now.Add(-time.Hour)))
	if !dead.Expired(now) {
		t.Error("past exp reported live")
	}

	// No exp claim: treated as live, the backend stays authoritative.
	open, _ := ParseAccessClaims(tokenWithExp(t, time.Time{}))
	if open.Expired(now) {
		t.Error("token without exp reported expired")
	}
}
