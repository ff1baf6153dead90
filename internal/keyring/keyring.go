// Package keyring owns the session's RSA keypair used for wrapping chat
// session keys. A Keyring is an explicit context value: callers create one
// per signed-in session, pass it to whatever needs it and drop it on sign-out.
// The private key is never serialized.
package keyring

import (
	"context"
	"crypto/rsa"
	"sync"

	"github.com/sigilchat/client-go/internal/crypto"
)

// KeyPair is an immutable RSA keypair together with its exported public PEM.
type KeyPair struct {
	private   *rsa.PrivateKey
	publicPEM string
}

// Public returns the public half.
func (kp *KeyPair) Public() *rsa.PublicKey { return &kp.private.PublicKey }

// PublicPEM returns the SPKI PEM text for publication.
func (kp *KeyPair) PublicPEM() string { return kp.publicPEM }

// Bits returns the modulus size.
func (kp *KeyPair) Bits() int { return kp.private.N.BitLen() }

// Option configures a Keyring.
type Option func(*Keyring)

// WithModulusBits sets the RSA modulus size used when the keypair is
// generated. The default is 4096.
func WithModulusBits(bits int) Option {
	return func(k *Keyring) { k.bits = bits }
}

// Keyring lazily generates and then holds one keypair.
type Keyring struct {
	bits int

	mu   sync.Mutex
	pair *KeyPair
}

// New returns an empty Keyring. No key is generated until [Keyring.Ensure].
func New(opts ...Option) *Keyring {
	k := &Keyring{bits: crypto.RSAWrapBits}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Ensure returns the session keypair, generating it on first use.
// Concurrent callers block until the single generation finishes.
func (k *Keyring) Ensure(ctx context.Context) (*KeyPair, error) {
	k.mu.Lock()
	defer k.mu.Unlock()

	if k.pair != nil {
		return k.pair, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	priv, err := crypto.GenerateRSAKey(k.bits)
	if err != nil {
		return nil, err
	}
	publicPEM, err := crypto.ExportPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		return nil, err
	}

	k.pair = &KeyPair{private: priv, publicPEM: publicPEM}
	return k.pair, nil
}

// Loaded reports whether a keypair has been generated.
func (k *Keyring) Loaded() bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.pair != nil
}

// PublicPEM ensures the keypair and returns its public PEM.
func (k *Keyring) PublicPEM(ctx context.Context) (string, error) {
	kp, err := k.Ensure(ctx)
	if err != nil {
		return "", err
	}
	return kp.PublicPEM(), nil
}

// Unwrap decrypts key material wrapped for this session's public key.
func (k *Keyring) Unwrap(ctx context.Context, wrapped []byte) ([]byte, error) {
	kp, err := k.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return crypto.UnwrapKey(kp.private, wrapped)
}

// Forget discards the keypair. Material wrapped for it becomes unrecoverable.
func (k *Keyring) Forget() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pair = nil
}

// ImportForeignPublicKey parses another user's published PEM, accepting SPKI
// and PKCS#1 framing.
func ImportForeignPublicKey(pem string) (*rsa.PublicKey, error) {
	return crypto.ParsePublicKeyPEM(pem)
}

// WrapFor encrypts raw key material for a foreign public key.
func WrapFor(pub *rsa.PublicKey, raw []byte) ([]byte, error) {
	return crypto.WrapKey(pub, raw)
}

// WrapForPEM imports pem and wraps raw for it.
func WrapForPEM(pem string, raw []byte) ([]byte, error) {
	pub, err := ImportForeignPublicKey(pem)
	if err != nil {
		return nil, err
	}
	return WrapFor(pub, raw)
}
