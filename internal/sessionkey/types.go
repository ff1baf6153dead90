package sessionkey

import (
	"context"
	"errors"

	"github.com/sigilchat/client-go/internal/api"
)

var (
	// ErrKeyDistributionUnavailable is returned when the key-distribution
	// service cannot be reached and the deterministic fallback is disabled.
	ErrKeyDistributionUnavailable = errors.New("key distribution unavailable")

	// ErrEmptyChatID is returned when the chat id is empty.
	ErrEmptyChatID = errors.New("chat id is required")
)

// Source tells where a resolved key came from.
type Source string

const (
	SourceCache     Source = "cache"
	SourceLocal     Source = "local"
	SourceRemote    Source = "remote"
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// Participant is a chat member. PublicKeyPEM is empty when the member has
// not published a key; such members are skipped during distribution.
type Participant struct {
	UserID       string
	PublicKeyPEM string
}

// KeyService is the remote key-distribution service.
type KeyService interface {
	GetChatKey(ctx context.Context, chatID string) (wrapped string, found bool, err error)
	ExchangeKeys(ctx context.Context, chatID string, items []api.KeyExchangeItem) error
}

// Unwrapper recovers key material wrapped for the session keypair.
type Unwrapper interface {
	Unwrap(ctx context.Context, wrapped []byte) ([]byte, error)
}

// DistributionFailure records why a participant did not receive a copy.
type DistributionFailure struct {
	UserID string
	Err    error
}

// DistributionResult reports the per-participant outcome of distributing a
// freshly generated key.
type DistributionResult struct {
	// Succeeded lists participants whose wrapped copy the service accepted.
	Succeeded []string
	// Failed lists participants whose copy could not be wrapped or submitted.
	Failed []DistributionFailure
	// Skipped lists participants without a published public key.
	Skipped []string
}

// Partial reports whether at least one participant with a public key did
// not receive a copy.
func (r *DistributionResult) Partial() bool {
	return r != nil && len(r.Failed) > 0
}

// Resolution is the outcome of resolving a chat session key.
type Resolution struct {
	Key    []byte
	Source Source
	// Distribution is set only when Source is SourceGenerated.
	Distribution *DistributionResult
}
