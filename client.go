package sigilchat

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/sigilchat/client-go/internal/api"
	"github.com/sigilchat/client-go/internal/envelope"
	"github.com/sigilchat/client-go/internal/keyring"
	"github.com/sigilchat/client-go/internal/keystore"
	"github.com/sigilchat/client-go/internal/metrics"
	"github.com/sigilchat/client-go/internal/sessionkey"
)

// UnreadablePlaceholder is shown instead of a message that cannot be
// decrypted. It is never a valid plaintext of an empty message.
const UnreadablePlaceholder = "🔒 Encrypted message (could not be decrypted)"

// Participant is a chat member. Members without a PublicKeyPEM do not
// receive a wrapped copy of new session keys.
type Participant = sessionkey.Participant

// User is a key-distribution directory entry.
type User = api.User

// Resolution is a resolved chat session key and where it came from.
type Resolution = sessionkey.Resolution

// DistributionResult reports which participants received a new session key.
type DistributionResult = sessionkey.DistributionResult

// Source tells where a resolved session key came from.
type Source = sessionkey.Source

// Session key sources.
const (
	SourceCache     = sessionkey.SourceCache
	SourceLocal     = sessionkey.SourceLocal
	SourceRemote    = sessionkey.SourceRemote
	SourceGenerated = sessionkey.SourceGenerated
	SourceFallback  = sessionkey.SourceFallback
)

// Message is an opened envelope. When Unreadable is set, Text holds
// UnreadablePlaceholder and Err the reason.
type Message struct {
	Text       string
	Unreadable bool
	Err        error
}

// ComposerState tells a UI whether sending is possible in a chat.
type ComposerState struct {
	Enabled bool
	Status  string
	Source  Source
	Err     error
}

// Client is the end-to-end encryption client. It is safe for concurrent use.
type Client struct {
	apiClient *api.Client
	keyring   *keyring.Keyring
	sessions  *sessionkey.Manager
	store     keystore.Store
	ownsStore bool
	logger    logrus.FieldLogger

	mu     sync.RWMutex
	closed bool
}

// New creates a client. No network call is made and no keypair is
// generated until first needed.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	switch cfg.modulusBits {
	case 2048, 3072, 4096:
	default:
		return nil, fmt.Errorf("%w: %d-bit RSA", ErrUnsupportedAlgorithm, cfg.modulusBits)
	}

	logger := cfg.logger
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	apiOpts := []api.Option{api.WithLogger(logger)}
	if cfg.token != "" {
		apiOpts = append(apiOpts, api.WithToken(cfg.token))
	}
	if cfg.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(cfg.httpClient))
	}
	if cfg.timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(cfg.timeout))
	}
	if cfg.retries >= 0 {
		apiOpts = append(apiOpts, api.WithRetries(cfg.retries))
	}
	apiClient, err := api.New(cfg.baseURL, apiOpts...)
	if err != nil {
		return nil, err
	}

	c := &Client{
		apiClient: apiClient,
		keyring:   keyring.New(keyring.WithModulusBits(cfg.modulusBits)),
		store:     cfg.store,
		logger:    logger,
	}
	if c.store == nil {
		c.store = keystore.NewMemoryStore()
		c.ownsStore = true
	}

	var m *metrics.Metrics
	if cfg.registerer != nil {
		m = metrics.New(cfg.registerer)
	}

	sessOpts := []sessionkey.Option{
		sessionkey.WithStore(c.store),
		sessionkey.WithLogger(logger),
		sessionkey.WithMetrics(m),
		sessionkey.WithResolveTimeout(cfg.resolveTimeout),
	}
	if !cfg.fallback {
		sessOpts = append(sessOpts, sessionkey.WithoutDeterministicFallback())
	}
	c.sessions = sessionkey.New(c.keyring, apiClient, sessOpts...)

	return c, nil
}

// BaseURL returns the key-distribution service URL.
func (c *Client) BaseURL() string {
	return c.apiClient.BaseURL()
}

// PublicKeyPEM returns the session's public key, generating the keypair on
// first use.
func (c *Client) PublicKeyPEM(ctx context.Context) (string, error) {
	if err := c.checkClosed(); err != nil {
		return "", err
	}
	return c.keyring.PublicPEM(ctx)
}

// PublishPublicKey ensures the session keypair and publishes its public half
// so other participants can wrap session keys for it.
func (c *Client) PublishPublicKey(ctx context.Context) error {
	pem, err := c.PublicKeyPEM(ctx)
	if err != nil {
		return err
	}
	if err := c.apiClient.PublishPublicKey(ctx, pem); err != nil {
		return fmt.Errorf("publish public key: %w", err)
	}
	c.logger.Debug("public key published")
	return nil
}

// Users returns the key-distribution directory.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return c.apiClient.ListUsers(ctx)
}

// Participants looks up userIDs in the directory. Unknown users are returned
// without a public key.
func (c *Client) Participants(ctx context.Context, userIDs ...string) ([]Participant, error) {
	users, err := c.Users(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]string, len(users))
	for _, u := range users {
		byID[u.ID] = u.PublicKeyPEM
	}
	out := make([]Participant, 0, len(userIDs))
	for _, id := range userIDs {
		out = append(out, Participant{UserID: id, PublicKeyPEM: byID[id]})
	}
	return out, nil
}

// ChatKey resolves the session key for chatID.
func (c *Client) ChatKey(ctx context.Context, chatID string, participants []Participant) (*Resolution, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return c.sessions.Resolve(ctx, chatID, participants)
}

// Rotate replaces the session key for chatID with a fresh one and
// distributes it. Messages sealed under the previous key stop opening.
func (c *Client) Rotate(ctx context.Context, chatID string, participants []Participant) (*Resolution, error) {
	if err := c.checkClosed(); err != nil {
		return nil, err
	}
	return c.sessions.Rotate(ctx, chatID, participants)
}

// EncryptMessage seals text under the chat's session key.
func (c *Client) EncryptMessage(ctx context.Context, chatID string, participants []Participant, text string) (string, error) {
	res, err := c.ChatKey(ctx, chatID, participants)
	if err != nil {
		return "", err
	}
	return envelope.EncryptString(res.Key, text)
}

// DecryptMessage opens an envelope sealed under the chat's session key.
func (c *Client) DecryptMessage(ctx context.Context, chatID string, participants []Participant, env string) (string, error) {
	res, err := c.ChatKey(ctx, chatID, participants)
	if err != nil {
		return "", err
	}
	return envelope.DecryptString(res.Key, env)
}

// OpenMessage is DecryptMessage for display: it never fails, and marks the
// message unreadable instead.
func (c *Client) OpenMessage(ctx context.Context, chatID string, participants []Participant, env string) Message {
	text, err := c.DecryptMessage(ctx, chatID, participants, env)
	if err != nil {
		c.logger.WithField("chat_id", chatID).WithError(err).Debug("message unreadable")
		return Message{Text: UnreadablePlaceholder, Unreadable: true, Err: err}
	}
	return Message{Text: text}
}

// Composer reports whether messages can be sent in chatID. Sending is
// disabled when no session key can be resolved.
func (c *Client) Composer(ctx context.Context, chatID string, participants []Participant) ComposerState {
	res, err := c.ChatKey(ctx, chatID, participants)
	if err != nil {
		return ComposerState{Status: "Secure session unavailable", Err: err}
	}
	if res.Source == SourceFallback {
		return ComposerState{
			Enabled: true,
			Status:  "Using a development fallback key; messages are not confidential",
			Source:  res.Source,
		}
	}
	return ComposerState{Enabled: true, Status: "End-to-end encrypted", Source: res.Source}
}

// ImportChatKey installs raw key material for chatID in the local store and
// the session cache, replacing any previous key. The key must be 128 or 256
// bits.
func (c *Client) ImportChatKey(ctx context.Context, chatID string, raw []byte) error {
	if err := c.checkClosed(); err != nil {
		return err
	}
	if chatID == "" {
		return ErrEmptyChatID
	}
	return c.sessions.Import(ctx, chatID, raw)
}

// Close discards the keypair and cached session keys. A key store created
// by the client is closed; one passed with WithKeyStore is not.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.sessions.ForgetAll()
	c.keyring.Forget()
	if c.ownsStore {
		return c.store.Close()
	}
	return nil
}

func (c *Client) checkClosed() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClientClosed
	}
	return nil
}
