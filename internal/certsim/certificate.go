package certsim

import (
	"github.com/sigilchat/client-go/internal/crypto"
)

// Certificate is a record together with the issuer's signature over its
// canonical form.
type Certificate struct {
	Record

	Algorithm Algorithm
	Signature []byte

	// Fingerprint is the published fingerprint of the keypair that produced
	// Signature, which is the issuer's key, not one belonging to the subject.
	// It lets a reader pick the matching public key and does not take part
	// in verification.
	Fingerprint string
}

// SignatureBase64 returns the signature in standard base64.
func (c *Certificate) SignatureBase64() string {
	return crypto.ToBase64(c.Signature)
}

// Issue signs r with key.
func Issue(r Record, key *IssuerKey) (*Certificate, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}
	msg, err := r.Canonical()
	if err != nil {
		return nil, err
	}
	sig, err := key.sign(msg)
	if err != nil {
		return nil, err
	}
	fp, err := key.Public().Fingerprint()
	if err != nil {
		return nil, err
	}
	return &Certificate{
		Record:      r,
		Algorithm:   key.Algorithm(),
		Signature:   sig,
		Fingerprint: fp,
	}, nil
}

// Verify recomputes the canonical form of c's record and checks the
// signature against pub. Any malformed input reports false.
func Verify(c *Certificate, pub *PublicKey) bool {
	if c == nil || pub == nil || len(c.Signature) == 0 {
		return false
	}
	if c.Algorithm != pub.Algorithm {
		return false
	}
	msg, err := c.Record.Canonical()
	if err != nil {
		return false
	}
	return pub.verify(msg, c.Signature)
}
