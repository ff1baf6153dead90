// Package envelope implements the compact text form of an encrypted chat
// message:
//
//	<base64url(iv)>.<base64url(ciphertext || tag)>
//
// Both segments are unpadded URL-safe base64. The IV is 12 random bytes drawn
// fresh for every message and the second segment carries the AES-GCM output
// with its 16-byte tag appended.
package envelope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sigilchat/client-go/internal/crypto"
)

// Separator splits the IV segment from the ciphertext segment.
const Separator = "."

// ErrInvalidEnvelopeFormat is returned when text does not have the
// two-segment shape or a segment cannot be decoded.
var ErrInvalidEnvelopeFormat = errors.New("invalid envelope format")

// Envelope is a parsed, still encrypted message.
type Envelope struct {
	IV         []byte
	Ciphertext []byte
}

// String returns the compact text form.
func (e Envelope) String() string {
	return crypto.ToBase64URL(e.IV) + Separator + crypto.ToBase64URL(e.Ciphertext)
}

// Parse splits and decodes the compact text form without decrypting it.
func Parse(text string) (Envelope, error) {
	if strings.Count(text, Separator) != 1 {
		return Envelope{}, fmt.Errorf("%w: want exactly one %q", ErrInvalidEnvelopeFormat, Separator)
	}

	ivPart, ctPart, _ := strings.Cut(text, Separator)
	if ivPart == "" || ctPart == "" {
		return Envelope{}, fmt.Errorf("%w: empty segment", ErrInvalidEnvelopeFormat)
	}

	iv, err := crypto.FromBase64URL(ivPart)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: iv: %w", ErrInvalidEnvelopeFormat, err)
	}
	if len(iv) != crypto.AESNonceSize {
		return Envelope{}, fmt.Errorf("%w: iv is %d bytes, want %d", ErrInvalidEnvelopeFormat, len(iv), crypto.AESNonceSize)
	}

	ct, err := crypto.FromBase64URL(ctPart)
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: ciphertext: %w", ErrInvalidEnvelopeFormat, err)
	}
	if len(ct) < crypto.AESTagSize {
		return Envelope{}, fmt.Errorf("%w: ciphertext shorter than tag", ErrInvalidEnvelopeFormat)
	}

	return Envelope{IV: iv, Ciphertext: ct}, nil
}

// Encrypt seals plaintext under key with a fresh IV.
func Encrypt(key, plaintext []byte) (string, error) {
	iv, err := crypto.RandomBytes(crypto.AESNonceSize)
	if err != nil {
		return "", err
	}

	ct, err := crypto.SealAES(key, iv, plaintext)
	if err != nil {
		return "", err
	}

	return Envelope{IV: iv, Ciphertext: ct}.String(), nil
}

// Decrypt parses text and opens it with key. Shape problems fail with
// ErrInvalidEnvelopeFormat; a wrong key or tampered content fails with
// crypto.ErrIntegrity.
func Decrypt(key []byte, text string) ([]byte, error) {
	env, err := Parse(text)
	if err != nil {
		return nil, err
	}
	return crypto.OpenAES(key, env.IV, env.Ciphertext)
}

// EncryptString is Encrypt for UTF-8 text.
func EncryptString(key []byte, plaintext string) (string, error) {
	return Encrypt(key, []byte(plaintext))
}

// DecryptString is Decrypt for UTF-8 text.
func DecryptString(key []byte, text string) (string, error) {
	plaintext, err := Decrypt(key, text)
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
