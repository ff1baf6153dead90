package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
)

// GenerateAESKey returns a fresh random AES key of the given size in bits.
// Only 128 and 256 bit keys are supported.
func GenerateAESKey(bits int) ([]byte, error) {
	switch bits {
	case AES128KeySize * 8, AESKeySize * 8:
	default:
		return nil, fmt.Errorf("%w: AES-GCM with %d-bit key", ErrUnsupportedAlgorithm, bits)
	}
	return RandomBytes(bits / 8)
}

// ValidateAESKey checks that key is usable as AES-GCM key material.
func ValidateAESKey(key []byte) error {
	if len(key) != AESKeySize && len(key) != AES128KeySize {
		return fmt.Errorf("%w: got %d, want %d or %d", ErrInvalidKeySize, len(key), AES128KeySize, AESKeySize)
	}
	return nil
}

func newGCM(key, nonce []byte) (cipher.AEAD, error) {
	if err := ValidateAESKey(key); err != nil {
		return nil, err
	}

	if len(nonce) != AESNonceSize {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), AESNonceSize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return gcm, nil
}

// SealAES encrypts plaintext with AES-GCM.
// Returns: ciphertext || tag (16 bytes). The nonce is not included.
func SealAES(key, nonce, plaintext []byte) ([]byte, error) {
	gcm, err := newGCM(key, nonce)
	if err != nil {
		return nil, err
	}
	return gcm.Seal(nil, nonce, plaintext, nil), nil
}

// OpenAES decrypts ciphertext || tag produced by [SealAES].
// Any authentication failure is reported as ErrIntegrity.
func OpenAES(key, nonce, ciphertext []byte) ([]byte, error) {
	gcm, err := newGCM(key, nonce)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < AESTagSize {
		return nil, fmt.Errorf("%w: ciphertext shorter than tag", ErrIntegrity)
	}

	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrIntegrity
	}
	return plaintext, nil
}
