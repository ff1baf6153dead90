package keystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists entries as a JSON object in a single file. Every Put
// and Delete rewrites the file through a temp file and rename.
type FileStore struct {
	path       string
	passphrase string
	params     ScryptParams

	mu      sync.Mutex
	entries map[string]string
	closed  bool
}

// FileOption configures a FileStore.
type FileOption func(*FileStore)

// WithPassphrase seals the file with a passphrase-derived key.
func WithPassphrase(passphrase string) FileOption {
	return func(s *FileStore) { s.passphrase = passphrase }
}

// WithScryptParams overrides the scrypt cost used for sealing.
func WithScryptParams(params ScryptParams) FileOption {
	return func(s *FileStore) { s.params = params }
}

// OpenFileStore loads path, creating its directory if needed. A missing file
// is an empty store.
func OpenFileStore(path string, opts ...FileOption) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		params:  DefaultScryptParams(),
		entries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read keystore: %w", err)
	}

	if s.passphrase != "" {
		if data, err = unseal(s.passphrase, data); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("decode keystore: %w", err)
	}
	if s.entries == nil {
		s.entries = make(map[string]string)
	}
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Get(_ context.Context, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", false, ErrClosed
	}
	v, ok := s.entries[name]
	return v, ok, nil
}

func (s *FileStore) Put(_ context.Context, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prev, had := s.entries[name]
	s.entries[name] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.entries[name] = prev
		} else {
			delete(s.entries, name)
		}
		return err
	}
	return nil
}

func (s *FileStore) Delete(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	prev, had := s.entries[name]
	if !had {
		return nil
	}
	delete(s.entries, name)
	if err := s.flushLocked(); err != nil {
		s.entries[name] = prev
		return err
	}
	return nil
}

func (s *FileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *FileStore) flushLocked() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}
	if s.passphrase != "" {
		if data, err = seal(s.passphrase, data, s.params); err != nil {
			return err
		}
	}
	return writeFile(s.path, data, 0o600)
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) error {
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
