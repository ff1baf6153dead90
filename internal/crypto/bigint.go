package crypto

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
)

// ToHex encodes bytes as uppercase hexadecimal.
func ToHex(data []byte) string {
	return strings.ToUpper(hex.EncodeToString(data))
}

// FromHex decodes hexadecimal of either case.
func FromHex(s string) ([]byte, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return data, nil
}

// IntToBytes returns the minimal big-endian encoding of a non-negative
// integer. Zero encodes as a single 0x00 byte.
func IntToBytes(n *big.Int) []byte {
	if n.Sign() == 0 {
		return []byte{0}
	}
	return n.Bytes()
}

// BytesToInt interprets data as an unsigned big-endian integer.
func BytesToInt(data []byte) *big.Int {
	return new(big.Int).SetBytes(data)
}

// RandomInt returns a uniformly random integer of exactly bits bits: the
// most significant bit is always set.
func RandomInt(bits int) (*big.Int, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("%w: %d-bit integer", ErrUnsupportedAlgorithm, bits)
	}

	buf, err := RandomBytes((bits + 7) / 8)
	if err != nil {
		return nil, err
	}

	// Clear excess high bits, then force the top one.
	excess := uint(len(buf)*8 - bits)
	buf[0] &= 0xff >> excess
	buf[0] |= 0x80 >> excess
	return new(big.Int).SetBytes(buf), nil
}
