package sigilchat

import (
	"github.com/sigilchat/client-go/internal/keystore"
)

// KeyStore is a durable name/value store for chat session keys. Entries are
// named "chat:aes:<chatId>" and hold the raw key in unpadded base64url.
type KeyStore = keystore.Store

// NewMemoryKeyStore returns a store that lives as long as the process.
func NewMemoryKeyStore() KeyStore {
	return keystore.NewMemoryStore()
}

// OpenFileKeyStore opens a JSON file store at path. A non-empty passphrase
// seals the file with scrypt and ChaCha20-Poly1305.
func OpenFileKeyStore(path, passphrase string) (KeyStore, error) {
	var opts []keystore.FileOption
	if passphrase != "" {
		opts = append(opts, keystore.WithPassphrase(passphrase))
	}
	s, err := keystore.OpenFileStore(path, opts...)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// OpenSQLiteKeyStore opens or creates a SQLite store at path.
func OpenSQLiteKeyStore(path string) (KeyStore, error) {
	s, err := keystore.OpenSQLiteStore(path)
	if err != nil {
		return nil, err
	}
	return s, nil
}
