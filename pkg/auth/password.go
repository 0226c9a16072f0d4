package auth

import "golang.org/x/crypto/bcrypt"

// hashPassword hashes a plaintext password with bcrypt at the library's
// default cost, per SPEC_FULL.md §4.10.
func hashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// comparePassword reports whether password matches the bcrypt hash.
func comparePassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
