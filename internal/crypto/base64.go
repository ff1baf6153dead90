package crypto

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// ToBase64URL encodes bytes to URL-safe base64 without padding.
func ToBase64URL(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// FromBase64URL decodes URL-safe base64. Missing padding is tolerated, up to
// two trailing '=' are accepted, and any character outside the URL-safe
// alphabet fails with ErrEncoding.
func FromBase64URL(s string) ([]byte, error) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(s, "="), "=")
	for i := 0; i < len(trimmed); i++ {
		if !isBase64URLChar(trimmed[i]) {
			return nil, fmt.Errorf("%w: invalid base64url character %q at offset %d", ErrEncoding, trimmed[i], i)
		}
	}

	data, err := base64.RawURLEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return data, nil
}

func isBase64URLChar(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}

// ToBase64 encodes bytes to standard base64 with padding.
// Use this for PEM bodies and non-URL contexts.
func ToBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// FromBase64 decodes standard base64 (with padding) to bytes.
func FromBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return data, nil
}
