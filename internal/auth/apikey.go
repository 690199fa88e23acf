package auth

import "golang.org/x/crypto/bcrypt"

// HashAPIKey hashes a tenant API key for storage.
func HashAPIKey(key string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CompareAPIKey reports whether the presented key matches the stored hash.
func CompareAPIKey(hash, key string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}
