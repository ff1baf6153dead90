package crypto

import "errors"

var (
	// ErrUnsupportedAlgorithm is returned when an algorithm name, key size or
	// usage combination is not supported by the provider.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrIntegrity is returned when authenticated decryption fails. It does
	// not say whether the key, the nonce or the ciphertext was wrong.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrEncoding is returned when base64 or hex input cannot be decoded.
	ErrEncoding = errors.New("encoding error")

	// ErrUnrecognizedKeyFormat is returned when PEM input is neither SPKI nor
	// PKCS#1 RSA public key framing.
	ErrUnrecognizedKeyFormat = errors.New("unrecognized key format")

	// ErrInvalidPublicKey is returned when a recognized PEM block does not
	// contain a usable RSA public key.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrWrapFailed is returned when a key cannot be wrapped or unwrapped
	// with RSA-OAEP.
	ErrWrapFailed = errors.New("key wrap failed")

	// ErrRandomness is returned when the random source fails.
	ErrRandomness = errors.New("random source failure")
)
