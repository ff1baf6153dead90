package keystore

import (
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"github.com/sigilchat/client-go/internal/crypto"
)

const sealedFormatVersion = 1

// ErrWrongPassphrase is returned when a sealed file cannot be opened with the
// configured passphrase or has been modified.
var ErrWrongPassphrase = errors.New("wrong passphrase or corrupted keystore")

// ScryptParams are the scrypt cost parameters for passphrase sealing.
type ScryptParams struct {
	N, R, P int
}

// DefaultScryptParams returns N=2^15, r=8, p=1.
func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: 1 << 15, R: 8, P: 1}
}

// sealedBlob is the on-disk JSON structure of a passphrase-sealed store.
type sealedBlob struct {
	V      int    `json:"v"`
	Salt   []byte `json:"salt"`
	N      int    `json:"scrypt_N"`
	R      int    `json:"scrypt_r"`
	P      int    `json:"scrypt_p"`
	Cipher []byte `json:"cipher"`
}

// seal derives a key from passphrase and a fresh salt and encrypts raw.
// The nonce is zero; a new salt on every write makes each key single-use.
func seal(passphrase string, raw []byte, params ScryptParams) ([]byte, error) {
	salt, err := crypto.RandomBytes(16)
	if err != nil {
		return nil, err
	}

	key, err := scrypt.Key([]byte(passphrase), salt, params.N, params.R, params.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	var nonce [chacha20poly1305.NonceSize]byte
	return json.Marshal(sealedBlob{
		V:      sealedFormatVersion,
		Salt:   salt,
		N:      params.N,
		R:      params.R,
		P:      params.P,
		Cipher: aead.Seal(nil, nonce[:], raw, salt),
	})
}

// unseal reverses seal.
func unseal(passphrase string, data []byte) ([]byte, error) {
	var blob sealedBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrongPassphrase, err)
	}
	if blob.V > sealedFormatVersion {
		return nil, fmt.Errorf("unsupported keystore version %d", blob.V)
	}

	key, err := scrypt.Key([]byte(passphrase), blob.Salt, blob.N, blob.R, blob.P, chacha20poly1305.KeySize)
	if err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}

	var nonce [chacha20poly1305.NonceSize]byte
	raw, err := aead.Open(nil, nonce[:], blob.Cipher, blob.Salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return raw, nil
}
