package dh

import (
	"fmt"
	"math/big"

	"github.com/sigilchat/client-go/internal/crypto"
)

// Party is one side of an exchange. The private exponent never leaves it.
type Party struct {
	Name   string
	Public *big.Int

	group   *Group
	private *big.Int
}

// NewParty samples a fresh ExponentBits-bit private exponent.
func (g *Group) NewParty(name string) (*Party, error) {
	x, err := crypto.RandomInt(ExponentBits)
	if err != nil {
		return nil, err
	}
	return g.PartyFromExponent(name, x)
}

// PartyFromExponent builds a party with a chosen private exponent.
func (g *Group) PartyFromExponent(name string, x *big.Int) (*Party, error) {
	if x == nil || x.Sign() <= 0 {
		return nil, ErrInvalidExponent
	}
	return &Party{
		Name:    name,
		Public:  ModExp(g.G, x, g.P),
		group:   g,
		private: new(big.Int).Set(x),
	}, nil
}

// SharedSecret computes peer^x mod p.
func (p *Party) SharedSecret(peer *big.Int) (*big.Int, error) {
	if !p.group.validPublic(peer) {
		return nil, fmt.Errorf("%w: from peer of %s", ErrInvalidPublicValue, p.Name)
	}
	return ModExp(peer, p.private, p.group.P), nil
}

// DeriveSessionKey computes the shared secret with peer and reduces it to a
// symmetric key. The secret itself is not returned.
func (p *Party) DeriveSessionKey(peer *big.Int, kdf KDF) ([]byte, error) {
	secret, err := p.SharedSecret(peer)
	if err != nil {
		return nil, err
	}
	return DeriveKey(secret, kdf)
}
