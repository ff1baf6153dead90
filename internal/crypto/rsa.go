package crypto

import (
	stdcrypto "crypto"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
)

var pssOptions = &rsa.PSSOptions{SaltLength: PSSSaltLength, Hash: stdcrypto.SHA256}

// GenerateRSAKey creates an RSA keypair with public exponent 65537.
// Supported moduli are 2048, 3072 and 4096 bits.
func GenerateRSAKey(bits int) (*rsa.PrivateKey, error) {
	switch bits {
	case 2048, 3072, 4096:
	default:
		return nil, fmt.Errorf("%w: RSA-%d", ErrUnsupportedAlgorithm, bits)
	}

	key, err := rsa.GenerateKey(randReader, bits)
	if err != nil {
		return nil, fmt.Errorf("failed to generate RSA-%d key: %w", bits, err)
	}
	return key, nil
}

// WrapKey encrypts short key material for pub with RSA-OAEP-SHA256.
func WrapKey(pub *rsa.PublicKey, raw []byte) ([]byte, error) {
	if pub == nil {
		return nil, fmt.Errorf("%w: nil public key", ErrWrapFailed)
	}

	wrapped, err := rsa.EncryptOAEP(sha256.New(), randReader, pub, raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrapFailed, err)
	}
	return wrapped, nil
}

// UnwrapKey recovers key material wrapped by [WrapKey].
func UnwrapKey(priv *rsa.PrivateKey, wrapped []byte) ([]byte, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: nil private key", ErrWrapFailed)
	}

	raw, err := rsa.DecryptOAEP(sha256.New(), nil, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrapFailed, err)
	}
	return raw, nil
}

// SignPKCS1v15 signs SHA-256(msg) with RSASSA-PKCS1-v1_5.
func SignPKCS1v15(priv *rsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPKCS1v15(randReader, priv, stdcrypto.SHA256, digest[:])
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return sig, nil
}

// VerifyPKCS1v15 reports whether sig is a valid RSASSA-PKCS1-v1_5 SHA-256
// signature of msg under pub.
func VerifyPKCS1v15(pub *rsa.PublicKey, msg, sig []byte) bool {
	if pub == nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return rsa.VerifyPKCS1v15(pub, stdcrypto.SHA256, digest[:], sig) == nil
}

// SignPSS signs SHA-256(msg) with RSASSA-PSS and a 32-byte salt.
func SignPSS(priv *rsa.PrivateKey, msg []byte) ([]byte, error) {
	digest := sha256.Sum256(msg)
	sig, err := rsa.SignPSS(randReader, priv, stdcrypto.SHA256, digest[:], pssOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return sig, nil
}

// VerifyPSS reports whether sig is a valid RSASSA-PSS SHA-256 signature of
// msg under pub.
func VerifyPSS(pub *rsa.PublicKey, msg, sig []byte) bool {
	if pub == nil {
		return false
	}
	digest := sha256.Sum256(msg)
	return rsa.VerifyPSS(pub, stdcrypto.SHA256, digest[:], sig, pssOptions) == nil
}
