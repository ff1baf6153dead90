package dh

import (
	"fmt"
	"math/big"

	"github.com/sigilchat/client-go/internal/crypto"
)

// KDF selects how a shared secret becomes key material.
type KDF string

const (
	// KDFSHA256 uses SHA-256 of the secret's minimal big-endian bytes.
	KDFSHA256 KDF = "sha256"
	// KDFHKDF uses HKDF-SHA-256 with crypto.HKDFContext as info.
	KDFHKDF KDF = "hkdf-sha256"
)

// ParseKDF maps a name to a KDF. The empty string selects KDFSHA256.
func ParseKDF(name string) (KDF, error) {
	switch KDF(name) {
	case "", KDFSHA256:
		return KDFSHA256, nil
	case KDFHKDF:
		return KDFHKDF, nil
	}
	return "", fmt.Errorf("%w: KDF %q", crypto.ErrUnsupportedAlgorithm, name)
}

// DeriveKey reduces a shared secret to a 32-byte AES key.
func DeriveKey(secret *big.Int, kdf KDF) ([]byte, error) {
	raw := crypto.IntToBytes(secret)
	switch kdf {
	case "", KDFSHA256:
		return crypto.Digest(crypto.SHA256, raw)
	case KDFHKDF:
		return crypto.DeriveKey(raw, nil, []byte(crypto.HKDFContext), crypto.AESKeySize)
	}
	return nil, fmt.Errorf("%w: KDF %q", crypto.ErrUnsupportedAlgorithm, kdf)
}
