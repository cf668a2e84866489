package services

import "golang.org/x/crypto/bcrypt"

// bcryptCost matches the cost used for link passwords at creation.
const bcryptCost = 10

// PasswordHasher abstracts the secret-hashing collaborator so the
// resolution path can be tested without paying real bcrypt cost.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Compare(plaintext, digest string) bool
}

// BcryptHasher is the production PasswordHasher backed by bcrypt.
type BcryptHasher struct{}

// NewBcryptHasher creates and returns a new instance of BcryptHasher.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{}
}

// Hash returns the bcrypt digest of the plaintext secret.
func (BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether the plaintext secret matches the digest.
func (BcryptHasher) Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
