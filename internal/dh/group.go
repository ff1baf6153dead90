// Package dh is a finite-field Diffie-Hellman engine over the RFC 3526
// 1536-bit MODP group, used by the key-exchange demonstration.
package dh

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/sigilchat/client-go/internal/crypto"
)

// ExponentBits is the size of private exponents. The top bit is always set.
const ExponentBits = 256

// rfc3526Group5Hex is the 1536-bit MODP prime from RFC 3526, section 2.
const rfc3526Group5Hex = "" +
	"FFFFFFFFFFFFFFFFC90FDAA22168C234C4C6628B80DC1CD1" +
	"29024E088A67CC74020BBEA63B139B22514A08798E3404DD" +
	"EF9519B3CD3A431B302B0A6DF25F14374FE1356D6D51C245" +
	"E485B576625E7EC6F44C42E9A637ED6B0BFF5CB6F406B7ED" +
	"EE386BFB5A899FA5AE9F24117C4B1FE649286651ECE45B3D" +
	"C2007CB8A163BF0598DA48361C55D39A69163FA8FD24CF5F" +
	"83655D23DCA3AD961C62F356208552BB9ED529077096966D" +
	"670C354E4ABC9804F1746C08CA237327FFFFFFFFFFFFFFFF"

var (
	// ErrInvalidPublicValue is returned when a peer's public value is
	// outside [2, p-2].
	ErrInvalidPublicValue = errors.New("invalid DH public value")

	// ErrInvalidExponent is returned for a non-positive private exponent.
	ErrInvalidExponent = errors.New("invalid DH exponent")

	// ErrSecretMismatch is returned when the two parties of an exchange
	// computed different shared secrets.
	ErrSecretMismatch = errors.New("shared secrets differ")
)

// Group holds the public parameters shared by all parties.
type Group struct {
	Name string
	P    *big.Int
	G    *big.Int
}

// RFC3526Group5 returns the 1536-bit MODP group with generator 2.
func RFC3526Group5() *Group {
	p, ok := new(big.Int).SetString(rfc3526Group5Hex, 16)
	if !ok {
		panic("dh: malformed RFC 3526 prime")
	}
	return &Group{Name: "modp1536", P: p, G: big.NewInt(2)}
}

// NewGroup returns a custom group. It exists for closed-form checks with
// small moduli; production code uses RFC3526Group5.
func NewGroup(name string, p, g *big.Int) (*Group, error) {
	if p == nil || g == nil || p.Cmp(big.NewInt(3)) < 0 {
		return nil, fmt.Errorf("%w: modulus must be at least 3", crypto.ErrUnsupportedAlgorithm)
	}
	if g.Cmp(big.NewInt(1)) <= 0 || g.Cmp(p) >= 0 {
		return nil, fmt.Errorf("%w: generator outside (1, p)", crypto.ErrUnsupportedAlgorithm)
	}
	return &Group{Name: name, P: new(big.Int).Set(p), G: new(big.Int).Set(g)}, nil
}

// Bits returns the modulus size.
func (g *Group) Bits() int { return g.P.BitLen() }

// String abbreviates the modulus for display.
func (g *Group) String() string {
	hex := strings.ToUpper(g.P.Text(16))
	if len(hex) > 24 {
		hex = hex[:12] + "…" + hex[len(hex)-12:]
	}
	return fmt.Sprintf("%s (%d-bit, g=%s, p=%s)", g.Name, g.Bits(), g.G, hex)
}

// ModExp computes base^exp mod m by square-and-multiply, walking the
// exponent's bits from least to most significant. exp must be non-negative
// and m positive. No intermediate exceeds m².
func ModExp(base, exp, m *big.Int) *big.Int {
	result := big.NewInt(1)
	b := new(big.Int).Mod(base, m)

	for i := 0; i < exp.BitLen(); i++ {
		if exp.Bit(i) == 1 {
			result.Mul(result, b)
			result.Mod(result, m)
		}
		b.Mul(b, b)
		b.Mod(b, m)
	}
	return result.Mod(result, m)
}

// validPublic reports whether y lies in [2, p-2].
func (g *Group) validPublic(y *big.Int) bool {
	if y == nil || y.Cmp(big.NewInt(2)) < 0 {
		return false
	}
	return y.Cmp(new(big.Int).Sub(g.P, big.NewInt(2))) <= 0
}
