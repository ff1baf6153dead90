package crypto

import (
	"crypto/rsa"
	"crypto/x509"
	encasn1 "encoding/asn1"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"

	"go.step.sm/crypto/pemutil"
	"golang.org/x/crypto/cryptobyte"
	"golang.org/x/crypto/cryptobyte/asn1"
)

const (
	pemTypeSPKI  = "PUBLIC KEY"
	pemTypePKCS1 = "RSA PUBLIC KEY"
)

var oidRSAEncryption = encasn1.ObjectIdentifier{1, 2, 840, 113549, 1, 1, 1}

// MarshalPublicKeyDER returns the SPKI DER encoding of pub.
func MarshalPublicKeyDER(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return der, nil
}

// ExportPublicKeyPEM returns pub as SPKI PEM text with 64-character lines
// and no trailing newline.
func ExportPublicKeyPEM(pub *rsa.PublicKey) (string, error) {
	block, err := pemutil.Serialize(pub)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return strings.TrimSuffix(string(pem.EncodeToMemory(block)), "\n"), nil
}

// ParsePublicKeyPEM imports an RSA public key from SPKI or PKCS#1 PEM text.
func ParsePublicKeyPEM(text string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(text)))
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM block found", ErrUnrecognizedKeyFormat)
	}

	var der []byte
	switch block.Type {
	case pemTypeSPKI:
		der = block.Bytes
	case pemTypePKCS1:
		wrapped, err := spkiFromPKCS1(block.Bytes)
		if err != nil {
			return nil, err
		}
		der = wrapped
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnrecognizedKeyFormat, block.Type)
	}

	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}

	pub, ok := key.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: %T public key", ErrUnsupportedAlgorithm, key)
	}
	return pub, nil
}

// spkiFromPKCS1 parses RSAPublicKey ::= SEQUENCE { modulus, publicExponent }
// and rebuilds it inside a SubjectPublicKeyInfo with the rsaEncryption
// algorithm identifier and NULL parameters.
func spkiFromPKCS1(der []byte) ([]byte, error) {
	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, asn1.SEQUENCE) || !input.Empty() {
		return nil, fmt.Errorf("%w: malformed PKCS#1 sequence", ErrInvalidPublicKey)
	}

	n, e := new(big.Int), new(big.Int)
	if !seq.ReadASN1Integer(n) || !seq.ReadASN1Integer(e) || !seq.Empty() {
		return nil, fmt.Errorf("%w: malformed PKCS#1 integers", ErrInvalidPublicKey)
	}
	if n.Sign() <= 0 || e.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive PKCS#1 integer", ErrInvalidPublicKey)
	}

	var pkcs1 cryptobyte.Builder
	pkcs1.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1BigInt(n)
		b.AddASN1BigInt(e)
	})
	inner, err := pkcs1.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}

	var spki cryptobyte.Builder
	spki.AddASN1(asn1.SEQUENCE, func(b *cryptobyte.Builder) {
		b.AddASN1(asn1.SEQUENCE, func(alg *cryptobyte.Builder) {
			alg.AddASN1ObjectIdentifier(oidRSAEncryption)
			alg.AddASN1NULL()
		})
		b.AddASN1BitString(inner)
	})
	out, err := spki.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return out, nil
}
