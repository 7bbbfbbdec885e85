package crypto // import "jobwatch.app/internal/crypto"

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateRandomBytes returns random bytes.
func GenerateRandomBytes(size int) []byte {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return b
}

// GenerateRandomString returns a hex-encoded random string.
func GenerateRandomString(size int) string {
	return hex.EncodeToString(GenerateRandomBytes(size))
}
