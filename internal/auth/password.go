package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"github.com/MyTechPlan/oc-client/internal/config"
)

// PasswordChecker decides whether a presented password is the admin password.
type PasswordChecker interface {
	Check(presented string) bool
}

// PlainPasswordChecker compares with ==.
type PlainPasswordChecker struct {
	expected string
}

// Check implements PasswordChecker.
func (c PlainPasswordChecker) Check(presented string) bool {
	return c.expected != "" && presented == c.expected
}

// ConstantTimePasswordChecker compares digests in constant time, so neither
// content nor length of the password leaks through timing.
type ConstantTimePasswordChecker struct {
	expected [sha256.Size]byte
	set      bool
}

// Check implements PasswordChecker.
func (c ConstantTimePasswordChecker) Check(presented string) bool {
	got := sha256.Sum256([]byte(presented))
	return c.set && subtle.ConstantTimeCompare(got[:], c.expected[:]) == 1
}

// NewPasswordChecker returns the checker for mode (config.PasswordComparePlain
// or config.PasswordCompareConstantTime). An empty password never matches.
func NewPasswordChecker(mode, password string) (PasswordChecker, error) {
	switch mode {
	case config.PasswordComparePlain:
		return PlainPasswordChecker{expected: password}, nil
	case config.PasswordCompareConstantTime, "":
		return ConstantTimePasswordChecker{
			expected: sha256.Sum256([]byte(password)),
			set:      password != "",
		}, nil
	default:
		return nil, fmt.Errorf("auth: unknown password compare mode %q", mode)
	}
}
