package keystore

import (
	"context"
	"errors"
	"fmt"

	"github.com/sigilchat/client-go/internal/crypto"
)

// ChatKeyPrefix is prepended to the chat id to form the store entry name.
const ChatKeyPrefix = "chat:aes:"

// ErrClosed is returned when a closed store is used.
var ErrClosed = errors.New("keystore closed")

// Store is a durable string key/value store.
type Store interface {
	// Get returns the value stored under name; ok is false when absent.
	Get(ctx context.Context, name string) (value string, ok bool, err error)
	// Put stores value under name, replacing any previous value.
	Put(ctx context.Context, name, value string) error
	// Delete removes name. Deleting a missing entry is not an error.
	Delete(ctx context.Context, name string) error
	// Close releases resources held by the store.
	Close() error
}

// ChatKeyName returns the entry name for chatID.
func ChatKeyName(chatID string) string {
	return ChatKeyPrefix + chatID
}

// LoadChatKey returns the raw session key stored for chatID. A value that is
// not valid base64url fails with crypto.ErrEncoding.
func LoadChatKey(ctx context.Context, s Store, chatID string) ([]byte, bool, error) {
	value, ok, err := s.Get(ctx, ChatKeyName(chatID))
	if err != nil || !ok {
		return nil, false, err
	}

	raw, err := crypto.FromBase64URL(value)
	if err != nil {
		return nil, false, fmt.Errorf("stored key for chat %q: %w", chatID, err)
	}
	return raw, true, nil
}

// SaveChatKey stores the raw session key for chatID.
func SaveChatKey(ctx context.Context, s Store, chatID string, raw []byte) error {
	return s.Put(ctx, ChatKeyName(chatID), crypto.ToBase64URL(raw))
}

// DeleteChatKey removes the stored session key for chatID.
func DeleteChatKey(ctx context.Context, s Store, chatID string) error {
	return s.Delete(ctx, ChatKeyName(chatID))
}
