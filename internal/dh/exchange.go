package dh

import (
	"fmt"
	"math/big"

	"github.com/sigilchat/client-go/internal/crypto"
	"github.com/sigilchat/client-go/internal/envelope"
)

// Step is one line of an exchange transcript.
type Step struct {
	Title  string
	Detail string
}

// Transcript records a complete exchange between two parties followed by
// one encrypted message from the first party to the second.
type Transcript struct {
	Group          string
	KDF            KDF
	Steps          []Step
	Agreed         bool
	KeyFingerprint string
	Envelope       string
	Decrypted      string
}

// Exchange runs the two-party protocol in one process.
type Exchange struct {
	Group *Group
	KDF   KDF
	Alice *Party
	Bob   *Party
}

// NewExchange samples fresh exponents for two named parties.
func NewExchange(g *Group, kdf KDF, alice, bob string) (*Exchange, error) {
	a, err := g.NewParty(alice)
	if err != nil {
		return nil, err
	}
	b, err := g.NewParty(bob)
	if err != nil {
		return nil, err
	}
	return &Exchange{Group: g, KDF: kdf, Alice: a, Bob: b}, nil
}

// Run exchanges public values, checks that both sides computed the same
// secret, derives keys on both sides and sends message from Alice to Bob.
func (e *Exchange) Run(message string) (*Transcript, error) {
	t := &Transcript{Group: e.Group.String(), KDF: e.KDF}
	t.add("Public parameters", e.Group.String())
	t.add(e.Alice.Name+" publishes A = g^a mod p", abbreviate(e.Alice.Public))
	t.add(e.Bob.Name+" publishes B = g^b mod p", abbreviate(e.Bob.Public))

	sA, err := e.Alice.SharedSecret(e.Bob.Public)
	if err != nil {
		return nil, err
	}
	sB, err := e.Bob.SharedSecret(e.Alice.Public)
	if err != nil {
		return nil, err
	}
	t.add(e.Alice.Name+" computes sA = B^a mod p", abbreviate(sA))
	t.add(e.Bob.Name+" computes sB = A^b mod p", abbreviate(sB))

	t.Agreed = sA.Cmp(sB) == 0
	if !t.Agreed {
		return t, ErrSecretMismatch
	}
	t.add("Agreement", "sA == sB")

	keyA, err := DeriveKey(sA, e.KDF)
	if err != nil {
		return nil, err
	}
	keyB, err := DeriveKey(sB, e.KDF)
	if err != nil {
		return nil, err
	}
	sA.SetInt64(0)
	sB.SetInt64(0)

	fp, err := crypto.Digest(crypto.SHA256, keyA)
	if err != nil {
		return nil, err
	}
	t.KeyFingerprint = crypto.ToHex(fp[:8])
	t.add("Key derivation ("+string(e.KDF)+")", "fingerprint "+t.KeyFingerprint)

	t.Envelope, err = envelope.EncryptString(keyA, message)
	if err != nil {
		return nil, err
	}
	t.add(e.Alice.Name+" encrypts with AES-256-GCM", t.Envelope)

	t.Decrypted, err = envelope.DecryptString(keyB, t.Envelope)
	if err != nil {
		return nil, fmt.Errorf("%s cannot decrypt: %w", e.Bob.Name, err)
	}
	t.add(e.Bob.Name+" decrypts", t.Decrypted)
	return t, nil
}

func (t *Transcript) add(title, detail string) {
	t.Steps = append(t.Steps, Step{Title: title, Detail: detail})
}

func abbreviate(n *big.Int) string {
	hex := crypto.ToHex(crypto.IntToBytes(n))
	if len(hex) <= 32 {
		return hex
	}
	return fmt.Sprintf("%s…%s (%d bits)", hex[:16], hex[len(hex)-16:], n.BitLen())
}
