package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magislabs/pricing-backend/pkg/config"
)

func passwordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func TestHashAndVerifyPassword(t *testing.T) {
	encoded, err := HashPassword("s3nh4-forte", passwordConfig())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$"))

	ok, err := VerifyPassword("s3nh4-forte", encoded)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword("senha-errada", encoded)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPassword_EmptyRejected(t *testing.T) {
	_, err := HashPassword("", passwordConfig())
	require.Error(t, err)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("mesma-senha", passwordConfig())
	require.NoError(t, err)
	second, err := HashPassword("mesma-senha", passwordConfig())
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, encoded := range []string{
		"",
		"plain-text",
		"$argon2i$v=19$m=8,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=bad,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=8,t=1,p=1$not-base64!$aGFzaA",
	} {
		_, err := VerifyPassword("whatever", encoded)
		require.ErrorIs(t, err, ErrInvalidHash, "hash %q", encoded)
	}
}
