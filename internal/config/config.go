// Package config loads process-level settings for the command-line client
// from .env files and SIGILCHAT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/sigilchat/client-go/internal/keystore"
)

// Environment variable names.
const (
	EnvAPIURL     = "SIGILCHAT_API_URL"
	EnvToken      = "SIGILCHAT_TOKEN"
	EnvHome       = "SIGILCHAT_HOME"
	EnvStore      = "SIGILCHAT_STORE"
	EnvPassphrase = "SIGILCHAT_PASSPHRASE"
	EnvLogLevel   = "SIGILCHAT_LOG_LEVEL"
	EnvKeyBits    = "SIGILCHAT_KEY_BITS"
	EnvFallback   = "SIGILCHAT_FALLBACK"
)

// Defaults.
const (
	DefaultAPIURL  = "http://localhost:8080/api"
	DefaultHomeDir = ".sigilchat"
	DefaultKeyBits = 4096
)

// ErrInvalidConfig is returned for values that cannot be parsed.
var ErrInvalidConfig = errors.New("invalid configuration")

// StoreKind selects the durable local key store.
type StoreKind string

const (
	StoreFile   StoreKind = "file"
	StoreSQLite StoreKind = "sqlite"
	StoreMemory StoreKind = "memory"
)

// Config holds resolved settings.
type Config struct {
	APIURL     string
	Token      string
	Home       string
	Store      StoreKind
	Passphrase string
	LogLevel   logrus.Level
	KeyBits    int
	Fallback   bool
}

// Load reads the given .env files, ignoring missing ones, and then the
// process environment. Variables already set in the environment win over
// file values.
func Load(files ...string) (*Config, error) {
	fileVars := make(map[string]string)
	for _, f := range files {
		vars, err := godotenv.Read(f)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, f, err)
		}
		for k, v := range vars {
			fileVars[k] = v
		}
	}

	return FromLookup(func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	})
}

// FromLookup builds a Config from an arbitrary variable source.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		APIURL:     get(EnvAPIURL, DefaultAPIURL),
		Token:      get(EnvToken, ""),
		Passphrase: get(EnvPassphrase, ""),
	}

	cfg.Home = get(EnvHome, "")
	if cfg.Home == "" {
		dir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("%w: cannot determine home directory: %w", ErrInvalidConfig, err)
		}
		cfg.Home = filepath.Join(dir, DefaultHomeDir)
	}

	switch kind := StoreKind(strings.ToLower(get(EnvStore, string(StoreFile)))); kind {
	case StoreFile, StoreSQLite, StoreMemory:
		cfg.Store = kind
	default:
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvStore, kind)
	}

	level, err := logrus.ParseLevel(get(EnvLogLevel, "warn"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvLogLevel, err)
	}
	cfg.LogLevel = level

	bits, err := strconv.Atoi(get(EnvKeyBits, strconv.Itoa(DefaultKeyBits)))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, EnvKeyBits, err)
	}
	cfg.KeyBits = bits

	switch v := strings.ToLower(get(EnvFallback, "on")); v {
	case "on", "true", "1", "yes":
		cfg.Fallback = true
	case "off", "false", "0", "no":
		cfg.Fallback = false
	default:
		return nil, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvFallback, v)
	}

	return cfg, nil
}

// StorePath returns the backing file of the configured store, or "" for
// the memory store.
func (c *Config) StorePath() string {
	switch c.Store {
	case StoreFile:
		return filepath.Join(c.Home, "keys.json")
	case StoreSQLite:
		return filepath.Join(c.Home, "keys.db")
	}
	return ""
}

// OpenStore opens the configured durable local store.
func (c *Config) OpenStore() (keystore.Store, error) {
	switch c.Store {
	case StoreMemory:
		return keystore.NewMemoryStore(), nil
	case StoreSQLite:
		if err := os.MkdirAll(c.Home, 0o700); err != nil {
			return nil, fmt.Errorf("create keystore dir: %w", err)
		}
		s, err := keystore.OpenSQLiteStore(c.StorePath())
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		var opts []keystore.FileOption
		if c.Passphrase != "" {
			opts = append(opts, keystore.WithPassphrase(c.Passphrase))
		}
		s, err := keystore.OpenFileStore(c.StorePath(), opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Logger returns a text logger on stderr at the configured level.
func (c *Config) Logger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(c.LogLevel)
	return l
}
