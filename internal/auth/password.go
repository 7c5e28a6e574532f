// Package auth: password hashing.
//
// PASSWORD STORAGE:
// Passwords are hashed with bcrypt, a function built to be slow. A login
// pays for one hash; an attacker with a stolen users table pays for one hash
// per guess per account.
//
// bcrypt picks a random salt for every hash and writes it into the output,
// so two users with the same password end up with different hashes and the
// users table needs no salt column. The stored string looks like:
//
//	$2a$12$<22-char salt><31-char hash>
//	    ^^
//	    cost: 2^12 rounds
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor.
//
// TUNING:
// Aim for 200 to 300ms per hash on the production machine. Cost 12 lands
// there on current hardware. Each step up doubles the time, which also
// doubles the CPU a burst of logins costs the server.
const defaultCost = 12

// MinPasswordLength is enforced on registration and password changes.
const MinPasswordLength = 8

// ErrPasswordMismatch is returned by Verify when the password is wrong.
// Callers turn it into a 401 without saying which half of the
// credentials was wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and checks passwords with bcrypt.
//
// The cost lives on a struct instead of a package constant so tests can
// build one with bcrypt.MinCost (4). Every hash at cost 12 would add a
// quarter of a second to each test that registers a user.
type PasswordService struct {
	cost int
}

// NewPasswordService uses the production cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost is for tests in other packages. Never use a
// low cost in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the full bcrypt string, salt and cost included. Store it as
// is; Verify knows how to read it back.
//
// bcrypt only looks at the first 72 bytes of its input. Longer passwords
// are rejected here instead of being silently cut.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch
// when it does not.
//
// TIMING:
// bcrypt compares in constant time, so response times do not tell an
// attacker how close a guess was.
//
// Usage:
//
//	if err := passwords.Verify(user.PasswordHash, in.Password); err != nil {
//	    return apperror.Unauthorized("invalid username or password")
//	}
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
