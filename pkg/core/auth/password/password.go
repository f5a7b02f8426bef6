package password

import (
	"golang.org/x/crypto/bcrypt"
)

// Hash derives a salted bcrypt digest from a plaintext password.
func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify compares a plaintext password against the stored digest. The
// plaintext is compared directly against the digest; never re-hash the
// stored value before comparing. bcrypt's comparison is constant time.
func Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
