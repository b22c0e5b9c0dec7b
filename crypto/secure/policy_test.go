package secure

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretPolicy(t *testing.T) {
	p := DefaultSecretPolicy()

	testCases := []struct {
		name   string
		secret string
		errMsg string
	}{
		{"hex secret", "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08", ""},
		{"passphrase", "Correct-Horse-Battery-Staple-2024-vaultbridge!", ""},
		{"too short", "s3cret", "at least 32 bytes"},
		{"repeated", strings.Repeat("ab", 32), "distinct"},
		{"too long", strings.Repeat("0123456789abcdef", 40), "must not exceed"},
		{"low entropy", "abcdefghabcdefghabcdefghabcdefgh", "entropy too low"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := p.Check([]byte(tc.secret))
			if tc.errMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestBinarySecretEntropy(t *testing.T) {
	secret := make([]byte, 32)
	for i := range secret {
		secret[i] = byte(i * 7)
	}
	require.NoError(t, DefaultSecretPolicy().Check(secret))
}
