package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/sigilchat/client-go/internal/keystore"
)

func lookupMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := FromLookup(lookupMap(map[string]string{EnvHome: "/tmp/sc"}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Errorf("APIURL = %q", cfg.APIURL)
	}
	if cfg.Store != StoreFile || cfg.StorePath() != filepath.Join("/tmp/sc", "keys.json") {
		t.Errorf("Store = %q, path %q", cfg.Store, cfg.StorePath())
	}
	if cfg.LogLevel != logrus.WarnLevel || cfg.KeyBits != DefaultKeyBits || !cfg.Fallback {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestFromLookup_Values(t *testing.T) {
	t.Parallel()

	cfg, err := FromLookup(lookupMap(map[string]string{
		EnvAPIURL:   "https://keys.example.com/api",
		EnvToken:    "u1",
		EnvHome:     "/srv/sc",
		EnvStore:    "SQLite",
		EnvLogLevel: "debug",
		EnvKeyBits:  "2048",
		EnvFallback: "off",
	}))
	if err != nil {
		t.Fatalf("FromLookup() error = %v", err)
	}
	want := Config{
		APIURL:   "https://keys.example.com/api",
		Token:    "u1",
		Home:     "/srv/sc",
		Store:    StoreSQLite,
		LogLevel: logrus.DebugLevel,
		KeyBits:  2048,
		Fallback: false,
	}
	if *cfg != want {
		t.Errorf("cfg = %+v, want %+v", *cfg, want)
	}
	if cfg.StorePath() != filepath.Join("/srv/sc", "keys.db") {
		t.Errorf("StorePath() = %q", cfg.StorePath())
	}
}

func TestFromLookup_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		EnvStore:    "redis",
		EnvLogLevel: "loud",
		EnvKeyBits:  "many",
		EnvFallback: "maybe",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Parallel()
			_, err := FromLookup(lookupMap(map[string]string{EnvHome: "/tmp", key: value}))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("FromLookup(%s=%q) error = %v, want ErrInvalidConfig", key, value, err)
			}
		})
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "SIGILCHAT_HOME=" + dir + "\nSIGILCHAT_STORE=memory\nSIGILCHAT_TOKEN=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvToken, "from-env")

	cfg, err := Load(filepath.Join(dir, "missing.env"), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Home != dir || cfg.Store != StoreMemory {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Token != "from-env" {
		t.Errorf("Token = %q, want environment to win", cfg.Token)
	}
}

func TestOpenStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, kind := range []StoreKind{StoreMemory, StoreFile, StoreSQLite} {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()
			cfg := &Config{Home: filepath.Join(t.TempDir(), "home"), Store: kind, Passphrase: "pw"}

			s, err := cfg.OpenStore()
			if err != nil {
				t.Fatalf("OpenStore() error = %v", err)
			}
			defer s.Close()

			if err := keystore.SaveChatKey(ctx, s, "c1", []byte("0123456789abcdef")); err != nil {
				t.Fatalf("SaveChatKey() error = %v", err)
			}
			got, ok, err := keystore.LoadChatKey(ctx, s, "c1")
			if err != nil || !ok || string(got) != "0123456789abcdef" {
				t.Errorf("LoadChatKey() = (%q, %v, %v)", got, ok, err)
			}
		})
	}
}
