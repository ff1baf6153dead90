package crypto

import (
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
)

// Digest hashes data with the named algorithm.
func Digest(alg Hash, data []byte) ([]byte, error) {
	switch alg {
	case SHA256:
		sum := sha256.Sum256(data)
		return sum[:], nil
	case SHA512:
		sum := sha512.Sum512(data)
		return sum[:], nil
	default:
		return nil, fmt.Errorf("%w: digest %q", ErrUnsupportedAlgorithm, alg)
	}
}
