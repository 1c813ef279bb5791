package logger

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	UseHashSalt("test-salt-for-unit-tests-minimum-32-chars")
	os.Exit(m.Run())
}

func TestHashAccountID(t *testing.T) {
	t.Run("produces consistent hash for same account", func(t *testing.T) {
		require.Equal(t, HashAccountID(12345), HashAccountID(12345))
	})

	t.Run("produces different hashes for different accounts", func(t *testing.T) {
		require.NotEqual(t, HashAccountID(12345), HashAccountID(67890))
	})

	t.Run("produces 8 character hash", func(t *testing.T) {
		require.Len(t, HashAccountID(12345), 8)
	})

	t.Run("changes hash when salt changes", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		hash1 := HashAccountID(12345)
		UseHashSalt("different-salt")
		require.NotEqual(t, hash1, HashAccountID(12345))
	})
}

func TestSanitizeDescription(t *testing.T) {
	t.Run("redacts empty description", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeDescription(""))
	})

	t.Run("shows word and character count", func(t *testing.T) {
		require.Equal(t, "<redacted: 4 words, 18 chars>", SanitizeDescription("net 30 wire only!!"))
	})
}

func TestSanitizeText(t *testing.T) {
	t.Run("redacts empty text", func(t *testing.T) {
		require.Equal(t, "<empty>", SanitizeText(""))
	})

	t.Run("shows length for short text", func(t *testing.T) {
		require.Equal(t, "<4 chars>", SanitizeText("Acme"))
	})

	t.Run("shows prefix for longer text", func(t *testing.T) {
		result := SanitizeText("billing@example.com")
		require.Contains(t, result, "bil...")
		require.Contains(t, result, "19 chars")
	})
}

func TestInitHashSalt(t *testing.T) {
	t.Run("panics when LOG_HASH_SALT is missing", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		t.Setenv("LOG_HASH_SALT", "")
		require.Panics(t, InitHashSalt)
	})

	t.Run("panics when LOG_HASH_SALT is too short", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		t.Setenv("LOG_HASH_SALT", "short")
		require.Panics(t, InitHashSalt)
	})

	t.Run("succeeds with valid LOG_HASH_SALT", func(t *testing.T) {
		originalSalt := hashSalt
		defer func() { hashSalt = originalSalt }()

		validSalt := "this-is-a-valid-salt-with-at-least-32-characters"
		t.Setenv("LOG_HASH_SALT", validSalt)

		require.NotPanics(t, InitHashSalt)
		require.Equal(t, validSalt, hashSalt)
	})
}
