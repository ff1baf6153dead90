package certsim

import (
	"crypto/rsa"
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"

	"github.com/sigilchat/client-go/internal/crypto"
)

// Algorithm selects the issuer's signature scheme.
type Algorithm string

const (
	// RSAPKCS1v15 is RSASSA-PKCS1-v1_5 with SHA-256 over a 2048-bit key.
	RSAPKCS1v15 Algorithm = "RSA-PKCS1v15-SHA256"
	// RSAPSS is RSASSA-PSS with SHA-256 and a 32-byte salt.
	RSAPSS Algorithm = "RSA-PSS-SHA256"
	// MLDSA65 is the post-quantum ML-DSA-65 scheme.
	MLDSA65 Algorithm = "ML-DSA-65"
)

// ParseAlgorithm maps a name to an Algorithm. The empty string selects
// RSAPKCS1v15.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(name) {
	case "", RSAPKCS1v15:
		return RSAPKCS1v15, nil
	case RSAPSS, MLDSA65:
		return Algorithm(name), nil
	}
	return "", fmt.Errorf("%w: signature algorithm %q", crypto.ErrUnsupportedAlgorithm, name)
}

// IssuerKey is an issuer's signing key.
type IssuerKey struct {
	alg   Algorithm
	rsa   *rsa.PrivateKey
	mldsa *mldsa65.PrivateKey
	pub   *PublicKey
}

// PublicKey is the verifying half of an IssuerKey.
type PublicKey struct {
	Algorithm Algorithm

	rsa   *rsa.PublicKey
	mldsa *mldsa65.PublicKey
}

// GenerateIssuerKey creates a signing key for alg.
func GenerateIssuerKey(alg Algorithm) (*IssuerKey, error) {
	switch alg {
	case RSAPKCS1v15, RSAPSS:
		priv, err := crypto.GenerateRSAKey(crypto.RSASigningBits)
		if err != nil {
			return nil, err
		}
		return &IssuerKey{
			alg: alg,
			rsa: priv,
			pub: &PublicKey{Algorithm: alg, rsa: &priv.PublicKey},
		}, nil
	case MLDSA65:
		pub, priv, err := crypto.GenerateMLDSAKey()
		if err != nil {
			return nil, err
		}
		return &IssuerKey{
			alg:   alg,
			mldsa: priv,
			pub:   &PublicKey{Algorithm: alg, mldsa: pub},
		}, nil
	}
	return nil, fmt.Errorf("%w: signature algorithm %q", crypto.ErrUnsupportedAlgorithm, alg)
}

// Algorithm returns the key's signature scheme.
func (k *IssuerKey) Algorithm() Algorithm { return k.alg }

// Public returns the verifying key.
func (k *IssuerKey) Public() *PublicKey { return k.pub }

func (k *IssuerKey) sign(msg []byte) ([]byte, error) {
	switch k.alg {
	case RSAPKCS1v15:
		return crypto.SignPKCS1v15(k.rsa, msg)
	case RSAPSS:
		return crypto.SignPSS(k.rsa, msg)
	case MLDSA65:
		return crypto.SignMLDSA(k.mldsa, msg)
	}
	return nil, fmt.Errorf("%w: signature algorithm %q", crypto.ErrUnsupportedAlgorithm, k.alg)
}

// Encoded returns the exported public key material: SPKI DER for RSA, the
// packed key for ML-DSA.
func (p *PublicKey) Encoded() ([]byte, error) {
	switch {
	case p == nil:
		return nil, crypto.ErrInvalidPublicKey
	case p.rsa != nil:
		return crypto.MarshalPublicKeyDER(p.rsa)
	case p.mldsa != nil:
		return p.mldsa.MarshalBinary()
	}
	return nil, crypto.ErrInvalidPublicKey
}

// Fingerprint is the uppercase hex SHA-256 of Encoded.
func (p *PublicKey) Fingerprint() (string, error) {
	der, err := p.Encoded()
	if err != nil {
		return "", err
	}
	sum, err := crypto.Digest(crypto.SHA256, der)
	if err != nil {
		return "", err
	}
	return crypto.ToHex(sum), nil
}

// PEM exports an RSA public key as SPKI PEM. ML-DSA keys have no PEM form
// here and report ErrUnsupportedAlgorithm.
func (p *PublicKey) PEM() (string, error) {
	if p == nil || p.rsa == nil {
		return "", fmt.Errorf("%w: PEM export of %v key", crypto.ErrUnsupportedAlgorithm, p.algorithm())
	}
	return crypto.ExportPublicKeyPEM(p.rsa)
}

func (p *PublicKey) algorithm() Algorithm {
	if p == nil {
		return ""
	}
	return p.Algorithm
}

func (p *PublicKey) verify(msg, sig []byte) bool {
	switch p.Algorithm {
	case RSAPKCS1v15:
		return crypto.VerifyPKCS1v15(p.rsa, msg, sig)
	case RSAPSS:
		return crypto.VerifyPSS(p.rsa, msg, sig)
	case MLDSA65:
		return crypto.VerifyMLDSA(p.mldsa, msg, sig)
	}
	return false
}
