// Package utils provides helpers for token creation and password hashing.
package utils

import (
	"errors"  // sentinel for rejected tokens
	"fmt"     // error wrapping
	"strconv" // user id <-> subject claim
	"time"    // issue and expiry timestamps

	"github.com/golang-jwt/jwt/v5" // JWT library for signing and parsing tokens

	"github.com/iliyamo/acrux-trazabilidad/internal/model" // roles carried in the token
)

// ErrInvalidToken is returned for any token that fails signature, expiry
// or claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of an access token.  Subject carries the user id
// and ID (jti) the server session the token is bound to.  Rol is copied
// from the user record at login time.
type Claims struct {
	Rol model.Role `json:"rol"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a numeric user id.
func (c Claims) UserID() (uint64, error) {
	return strconv.ParseUint(c.Subject, 10, 64)
}

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field is sent in the Authorization header of every call to the
// API; Exp is echoed to the client in the login response.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user bound to the
// server session sessionID.  It sets sub, jti, iat and exp plus the rol
// claim, and returns the signed string with its expiration time.
func NewAccessToken(secret string, userID uint64, rol model.Role, sessionID string, ttl time.Duration) (AccessToken, error) {
	// Expiration is measured from the current UTC time.
	now := time.Now().UTC()
	exp := now.Add(ttl)
	// Every claim lives in a typed struct so parsing can validate it.
	claims := Claims{
		Rol: rol,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ID:        sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	// Sign with HS256 and the shared secret.
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, fmt.Errorf("sign access token: %w", err)
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw and returns its claims.  Only HS256 is
// accepted, exp is mandatory, and the subject and role must be well formed.
// Every failure is reported as ErrInvalidToken.
func ParseAccessToken(secret, raw string) (Claims, error) {
	var claims Claims
	// Parse into the typed claims; the options pin the algorithm and
	// require an expiry.
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return Claims{}, ErrInvalidToken
	}
	// A signed token can still carry a subject or role we do not know.
	if _, err := claims.UserID(); err != nil || !claims.Rol.Valid() {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
