package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// randReader is the random source used by the provider.
// It can be overridden for testing.
var randReader io.Reader = rand.Reader

// RandomBytes returns n bytes from the cryptographically secure random source.
func RandomBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrRandomness, n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(randReader, buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRandomness, err)
	}
	return buf, nil
}
