package crypto

import (
	"fmt"

	"github.com/cloudflare/circl/sign/mldsa/mldsa65"
)

const (
	// MLDSAPublicKeySize is the size of an ML-DSA-65 public key in bytes.
	MLDSAPublicKeySize = 1952
	// MLDSASignatureSize is the size of an ML-DSA-65 signature in bytes.
	MLDSASignatureSize = 3309
)

// GenerateMLDSAKey creates an ML-DSA-65 signing keypair.
func GenerateMLDSAKey() (*mldsa65.PublicKey, *mldsa65.PrivateKey, error) {
	pub, priv, err := mldsa65.GenerateKey(randReader)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate ML-DSA-65 key: %w", err)
	}
	return pub, priv, nil
}

// SignMLDSA signs msg with ML-DSA-65 using the randomized variant and an
// empty context string.
func SignMLDSA(priv *mldsa65.PrivateKey, msg []byte) ([]byte, error) {
	sig := make([]byte, MLDSASignatureSize)
	if err := mldsa65.SignTo(priv, msg, nil, true, sig); err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	return sig, nil
}

// VerifyMLDSA reports whether sig is a valid ML-DSA-65 signature of msg.
// Malformed signatures and keys report false.
func VerifyMLDSA(pub *mldsa65.PublicKey, msg, sig []byte) bool {
	if pub == nil || len(sig) != MLDSASignatureSize {
		return false
	}
	return mldsa65.Verify(pub, msg, nil, sig)
}

// ParseMLDSAPublicKey unpacks a raw ML-DSA-65 public key.
func ParseMLDSAPublicKey(data []byte) (*mldsa65.PublicKey, error) {
	if len(data) != MLDSAPublicKeySize {
		return nil, fmt.Errorf("%w: ML-DSA-65 key of %d bytes", ErrInvalidPublicKey, len(data))
	}
	var pub mldsa65.PublicKey
	if err := pub.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPublicKey, err)
	}
	return &pub, nil
}
