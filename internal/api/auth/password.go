package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher wraps bcrypt with a cost fixed at startup. bcrypt embeds a
// fresh random salt and the cost factor in every hash, so stored hashes are
// self-describing.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash derives a one-way hash of the plaintext. The plaintext must never be
// logged or persisted by callers.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify recomputes the hash using the salt and cost embedded in the stored
// value and compares in constant time. A malformed stored hash verifies as
// false rather than panicking; callers surface that as a credential failure.
func (h *PasswordHasher) Verify(password, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
}
