package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// MinHashSaltLength is the shortest LOG_HASH_SALT accepted by InitHashSalt.
const MinHashSaltLength = 32

var hashSalt = "unset-salt"

// InitHashSalt loads the identifier hashing salt from LOG_HASH_SALT.
// It panics when the salt is missing or shorter than MinHashSaltLength.
func InitHashSalt() {
	salt := os.Getenv("LOG_HASH_SALT")
	if len(salt) < MinHashSaltLength {
		panic(fmt.Sprintf("LOG_HASH_SALT must be set to at least %d characters", MinHashSaltLength))
	}
	hashSalt = salt
}

// UseHashSalt sets the salt directly. Used by tests and the in-process demo.
func UseHashSalt(salt string) {
	hashSalt = salt
}

// HashAccountID creates a privacy-preserving hash of an account ID.
func HashAccountID(accountID int64) string {
	data := fmt.Sprintf("%d:%s", accountID, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription redacts free text but keeps its shape for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(strings.Fields(desc)), len(desc))
}

// SanitizeText is a general-purpose sanitizer for user-provided text such as
// client names or email addresses.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}
	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}
	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
