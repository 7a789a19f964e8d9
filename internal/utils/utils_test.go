package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/iliyamo/acrux-trazabilidad/internal/model"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("secret", 42, model.RoleDirector, "sid-1", time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken: %v", err)
	}
	claims, err := ParseAccessToken("secret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	uid, _ := claims.UserID()
	if uid != 42 || claims.Rol != model.RoleDirector || claims.ID != "sid-1" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestParseAccessTokenRejects(t *testing.T) {
	good, _ := NewAccessToken("secret", 1, model.RoleAdmin, "sid", time.Hour)
	expired, _ := NewAccessToken("secret", 1, model.RoleAdmin, "sid", -time.Minute)
	badRole, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Rol: "GUEST",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	noneAlg, _ := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{Rol: model.RoleAdmin}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name, secret, raw string
	}{
		{"wrong secret", "other", good.Token},
		{"expired", "secret", expired.Token},
		{"unknown role", "secret", badRole},
		{"alg none", "secret", noneAlg},
		{"garbage", "secret", "not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseAccessToken(tt.secret, tt.raw); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ParseAccessToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("SecurePass123!", 4)
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{"valid password matches", "SecurePass123!", true},
		{"wrong password fails", "WrongPassword123!", false},
		{"empty password fails", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VerifyPassword(hash, tt.password); got != tt.want {
				t.Errorf("VerifyPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPasswordAcceptable(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", false},
		{"corta", false},
		{"12345678", true},
		{strings.Repeat("a", 72), true},
		{strings.Repeat("a", 73), false},
	}
	for _, tt := range tests {
		if got := PasswordAcceptable(tt.in); got != tt.want {
			t.Errorf("PasswordAcceptable(%d chars) = %v, want %v", len(tt.in), got, tt.want)
		}
	}
}

func TestVerifyPasswordEmptyHash(t *testing.T) {
	if VerifyPassword("", "anything") {
		t.Fatal("empty hash must never verify")
	}
}
