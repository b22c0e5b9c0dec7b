package secure

import (
	"unicode"

	"github.com/pkg/errors"
)

// SecretPolicy defines the strength requirements of configured secrets.
type SecretPolicy struct {
	MinLength   int
	MaxLength   int
	MinDistinct int
	MinEntropy  float64
}

// DefaultSecretPolicy returns the policy deployed secrets must meet.
func DefaultSecretPolicy() SecretPolicy {
	return SecretPolicy{
		MinLength:   32,
		MaxLength:   512,
		MinDistinct: 8,
		MinEntropy:  150, // bits
	}
}

// Check validates secret against the policy.
func (p SecretPolicy) Check(secret []byte) error {
	if len(secret) < p.MinLength {
		return errors.Errorf("secret must be at least %d bytes", p.MinLength)
	}
	if p.MaxLength > 0 && len(secret) > p.MaxLength {
		return errors.Errorf("secret must not exceed %d bytes", p.MaxLength)
	}

	distinct := make(map[byte]struct{}, len(secret))
	for _, b := range secret {
		distinct[b] = struct{}{}
	}
	if len(distinct) < p.MinDistinct {
		return errors.Errorf("secret must use at least %d distinct bytes", p.MinDistinct)
	}

	if entropy := estimateEntropy(secret, distinct); entropy < p.MinEntropy {
		return errors.Errorf("secret entropy too low: %.1f bits (minimum: %.1f)", entropy, p.MinEntropy)
	}
	return nil
}

// estimateEntropy approximates entropy as length * log2(pool size), where the
// pool is the union of the character classes present.
func estimateEntropy(secret []byte, distinct map[byte]struct{}) float64 {
	var hasUpper, hasLower, hasDigit, hasSpecial, hasBinary bool
	for ch := range distinct {
		r := rune(ch)
		switch {
		case r > unicode.MaxASCII || !unicode.IsPrint(r):
			hasBinary = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	poolSize := 0
	if hasBinary {
		poolSize = 256
	} else {
		if hasLower {
			poolSize += 26
		}
		if hasUpper {
			poolSize += 26
		}
		if hasDigit {
			poolSize += 10
		}
		if hasSpecial {
			poolSize += 32
		}
	}
	if poolSize == 0 {
		return 0
	}

	bitsPerChar := 0.0
	for temp := poolSize; temp > 1; temp >>= 1 {
		bitsPerChar++
	}
	return float64(len(secret)) * bitsPerChar
}
