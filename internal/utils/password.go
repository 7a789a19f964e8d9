package utils

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is enforced when admins create or reset accounts.
const MinPasswordLength = 8

// PasswordAcceptable reports whether plain may be stored as a new password.
func PasswordAcceptable(plain string) bool {
	return len(plain) >= MinPasswordLength && len(plain) <= 72
}

// HashPassword hashes plain with bcrypt.  Costs outside bcrypt's range fall
// back to bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword compares a stored hash with a login attempt.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
