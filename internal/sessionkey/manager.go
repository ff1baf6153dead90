package sessionkey

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/sigilchat/client-go/internal/api"
	"github.com/sigilchat/client-go/internal/apierrors"
	"github.com/sigilchat/client-go/internal/crypto"
	"github.com/sigilchat/client-go/internal/keyring"
	"github.com/sigilchat/client-go/internal/keystore"
	"github.com/sigilchat/client-go/internal/metrics"
)

// DefaultResolveTimeout bounds one shared resolution attempt.
const DefaultResolveTimeout = 30 * time.Second

// maxStaleRetries bounds how often a flight restarts after the key for its
// chat was rotated, imported or forgotten underneath it.
const maxStaleRetries = 3

var errNoKeyring = errors.New("no keyring configured")

// Manager resolves and caches chat session keys. It is safe for concurrent use.
type Manager struct {
	keys     Unwrapper
	service  KeyService
	store    keystore.Store
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	fallback bool
	timeout  time.Duration

	mu    sync.RWMutex
	cache map[string][]byte
	gens  map[string]uint64
	epoch uint64

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex

	group singleflight.Group
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore sets the durable local store.
func WithStore(store keystore.Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithLogger sets the logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mt }
}

// WithoutDeterministicFallback makes resolution fail with
// ErrKeyDistributionUnavailable instead of deriving a fallback key.
func WithoutDeterministicFallback() Option {
	return func(m *Manager) { m.fallback = false }
}

// WithResolveTimeout bounds each shared resolution attempt.
func WithResolveTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.timeout = d
		}
	}
}

// New returns a Manager. service may be nil for offline use, in which case
// the service is treated as unavailable.
func New(keys Unwrapper, service KeyService, opts ...Option) *Manager {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	m := &Manager{
		keys:     keys,
		service:  service,
		logger:   discard,
		fallback: true,
		timeout:  DefaultResolveTimeout,
		cache:    make(map[string][]byte),
		gens:     make(map[string]uint64),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolve returns the session key for chatID, following the order described
// in the package documentation. participants is only consulted when a new
// key must be generated or the fallback key derived.
func (m *Manager) Resolve(ctx context.Context, chatID string, participants []Participant) (*Resolution, error) {
	if chatID == "" {
		return nil, ErrEmptyChatID
	}

	if key, ok := m.Cached(chatID); ok {
		m.metrics.ObserveResolution(string(SourceCache))
		return &Resolution{Key: key, Source: SourceCache}, nil
	}

	participants = slices.Clone(participants)
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan(chatID, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(detached, m.timeout)
		defer cancel()
		return m.resolve(rctx, chatID, participants)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneResolution(res.Val.(*Resolution)), nil
	}
}

// Rotate discards the current key for chatID and generates, distributes and
// stores a new one. Envelopes sealed under the old key no longer open.
func (m *Manager) Rotate(ctx context.Context, chatID string, participants []Participant) (*Resolution, error) {
	if chatID == "" {
		return nil, ErrEmptyChatID
	}

	participants = slices.Clone(participants)
	detached := context.WithoutCancel(ctx)
	ch := m.group.DoChan("rotate\x00"+chatID, func() (interface{}, error) {
		rctx, cancel := context.WithTimeout(detached, m.timeout)
		defer cancel()

		unlock := m.lockChat(chatID)
		defer unlock()
		m.Forget(chatID)
		return m.generate(rctx, chatID, participants)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return cloneResolution(res.Val.(*Resolution)), nil
	}
}

// Cached returns a copy of the in-memory key for chatID.
func (m *Manager) Cached(chatID string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.cache[chatID]
	if !ok {
		return nil, false
	}
	return slices.Clone(key), true
}

// Forget drops chatID from the in-memory cache. The local store is untouched.
// Resolutions already in flight for chatID do not repopulate the cache.
func (m *Manager) Forget(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.cache, chatID)
	m.gens[chatID]++
}

// ForgetAll empties the in-memory cache, as on sign-out.
func (m *Manager) ForgetAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.cache)
	m.epoch++
}

// Import installs key as the session key for chatID in the local store and
// the cache, replacing whatever a concurrent resolution would have stored.
func (m *Manager) Import(ctx context.Context, chatID string, key []byte) error {
	if chatID == "" {
		return ErrEmptyChatID
	}
	if err := crypto.ValidateAESKey(key); err != nil {
		return err
	}

	unlock := m.lockChat(chatID)
	defer unlock()

	m.Forget(chatID)
	if m.store != nil {
		if err := keystore.SaveChatKey(ctx, m.store, chatID, key); err != nil {
			return err
		}
	}
	m.remember(chatID, key)
	return nil
}

func (m *Manager) resolve(ctx context.Context, chatID string, participants []Participant) (*Resolution, error) {
	log := m.logger.WithField("chat_id", chatID)

	for attempt := 0; ; attempt++ {
		res, err := m.resolveOnce(ctx, log, chatID, participants)
		if !errors.Is(err, errStale) {
			return res, err
		}
		if attempt >= maxStaleRetries {
			m.metrics.ObserveResolutionError()
			return nil, fmt.Errorf("resolve session key for chat %q: key kept changing", chatID)
		}
		log.Debug("session key changed during resolution, retrying")
	}
}

var errStale = errors.New("session key changed during resolution")

func (m *Manager) resolveOnce(ctx context.Context, log logrus.FieldLogger, chatID string, participants []Participant) (*Resolution, error) {
	// A previous flight, a rotation or an import may have filled the cache
	// since the caller checked it.
	if key, ok := m.Cached(chatID); ok {
		m.metrics.ObserveResolution(string(SourceCache))
		return &Resolution{Key: key, Source: SourceCache}, nil
	}
	gen := m.generation(chatID)

	if key, ok := m.loadLocal(ctx, log, chatID); ok {
		unlock, current, err := m.claim(chatID, gen)
		if err != nil || current != nil {
			return m.current(log, current, err)
		}
		defer unlock()
		m.remember(chatID, key)
		return m.resolved(log, &Resolution{Key: key, Source: SourceLocal}), nil
	}

	unavailable := m.service == nil
	if m.service != nil {
		wrapped, found, err := m.service.GetChatKey(ctx, chatID)
		switch {
		case err != nil && (apierrors.IsUnavailable(err) || errors.Is(err, context.DeadlineExceeded)):
			log.WithError(err).Warn("key distribution service unavailable")
			unavailable = true
		case err != nil:
			m.metrics.ObserveResolutionError()
			return nil, fmt.Errorf("fetch session key for chat %q: %w", chatID, err)
		case found:
			key, err := m.unwrapRemote(ctx, wrapped)
			if err == nil {
				unlock, current, err := m.claim(chatID, gen)
				if err != nil || current != nil {
					return m.current(log, current, err)
				}
				defer unlock()
				m.persist(ctx, log, chatID, key)
				m.remember(chatID, key)
				return m.resolved(log, &Resolution{Key: key, Source: SourceRemote}), nil
			}
			log.WithError(err).Warn("cannot unwrap remote session key, generating a new one")
		}
	}

	if unavailable {
		if !m.fallback {
			m.metrics.ObserveResolutionError()
			return nil, fmt.Errorf("%w: chat %q", ErrKeyDistributionUnavailable, chatID)
		}
		log.Warn("using deterministic fallback session key")
		key := FallbackKey(chatID, participantIDs(participants))
		return m.resolved(log, &Resolution{Key: key, Source: SourceFallback}), nil
	}

	unlock, current, err := m.claim(chatID, gen)
	if err != nil || current != nil {
		return m.current(log, current, err)
	}
	defer unlock()
	return m.generate(ctx, chatID, participants)
}

// claim takes the chat lock before a write. When another writer committed a
// key since gen was read, claim releases the lock and returns that key; when
// the key was dropped instead, it returns errStale.
func (m *Manager) claim(chatID string, gen uint64) (unlock func(), current []byte, err error) {
	unlock = m.lockChat(chatID)
	if key, ok := m.Cached(chatID); ok {
		unlock()
		return nil, key, nil
	}
	if m.generation(chatID) != gen {
		unlock()
		return nil, nil, errStale
	}
	return unlock, nil, nil
}

func (m *Manager) current(log logrus.FieldLogger, key []byte, err error) (*Resolution, error) {
	if err != nil {
		return nil, err
	}
	return m.resolved(log, &Resolution{Key: key, Source: SourceCache}), nil
}

// lockChat serializes writes of the session key for chatID. Lookups run
// outside it.
func (m *Manager) lockChat(chatID string) (unlock func()) {
	m.locksMu.Lock()
	l, ok := m.locks[chatID]
	if !ok {
		l = new(sync.Mutex)
		m.locks[chatID] = l
	}
	m.locksMu.Unlock()

	l.Lock()
	return l.Unlock
}

// generation changes whenever the cached key for chatID is dropped.
func (m *Manager) generation(chatID string) uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch + m.gens[chatID]
}

// generate must be called with the chat lock held.
func (m *Manager) generate(ctx context.Context, chatID string, participants []Participant) (*Resolution, error) {
	log := m.logger.WithField("chat_id", chatID)

	key, err := crypto.GenerateAESKey(crypto.AESKeySize * 8)
	if err != nil {
		m.metrics.ObserveResolutionError()
		return nil, fmt.Errorf("generate session key for chat %q: %w", chatID, err)
	}

	dist := m.distribute(ctx, log, chatID, key, participants)
	m.persist(ctx, log, chatID, key)
	m.remember(chatID, key)

	return m.resolved(log, &Resolution{Key: key, Source: SourceGenerated, Distribution: dist}), nil
}

func (m *Manager) distribute(ctx context.Context, log logrus.FieldLogger, chatID string, key []byte, participants []Participant) *DistributionResult {
	result := &DistributionResult{}
	seen := make(map[string]bool, len(participants))

	var items []api.KeyExchangeItem
	for _, p := range participants {
		if p.UserID == "" || seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true

		if p.PublicKeyPEM == "" {
			result.Skipped = append(result.Skipped, p.UserID)
			continue
		}

		wrapped, err := keyring.WrapForPEM(p.PublicKeyPEM, key)
		if err != nil {
			log.WithError(err).WithField("user_id", p.UserID).Warn("cannot wrap session key for participant")
			result.Failed = append(result.Failed, DistributionFailure{UserID: p.UserID, Err: err})
			continue
		}
		items = append(items, api.KeyExchangeItem{UserID: p.UserID, EncAESKeyB64: crypto.ToBase64URL(wrapped)})
	}

	if len(items) > 0 {
		var err error
		if m.service == nil {
			err = ErrKeyDistributionUnavailable
		} else {
			err = m.service.ExchangeKeys(ctx, chatID, items)
		}

		if err != nil {
			log.WithError(err).Warn("failed to submit wrapped session keys")
			for _, item := range items {
				result.Failed = append(result.Failed, DistributionFailure{UserID: item.UserID, Err: err})
			}
		} else {
			for _, item := range items {
				result.Succeeded = append(result.Succeeded, item.UserID)
			}
		}
	}

	m.metrics.ObserveDistribution(len(result.Succeeded), len(result.Failed), len(result.Skipped))
	return result
}

func (m *Manager) loadLocal(ctx context.Context, log logrus.FieldLogger, chatID string) ([]byte, bool) {
	if m.store == nil {
		return nil, false
	}

	key, ok, err := keystore.LoadChatKey(ctx, m.store, chatID)
	if err != nil {
		log.WithError(err).Warn("local key store read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if err := crypto.ValidateAESKey(key); err != nil {
		log.WithError(err).Warn("ignoring malformed local session key")
		return nil, false
	}
	return key, true
}

func (m *Manager) unwrapRemote(ctx context.Context, wrappedB64 string) ([]byte, error) {
	if m.keys == nil {
		return nil, errNoKeyring
	}

	wrapped, err := crypto.FromBase64URL(wrappedB64)
	if err != nil {
		std, stdErr := crypto.FromBase64(wrappedB64)
		if stdErr != nil {
			return nil, err
		}
		wrapped = std
	}

	key, err := m.keys.Unwrap(ctx, wrapped)
	if err != nil {
		return nil, err
	}
	if err := crypto.ValidateAESKey(key); err != nil {
		return nil, err
	}
	return key, nil
}

func (m *Manager) persist(ctx context.Context, log logrus.FieldLogger, chatID string, key []byte) {
	if m.store == nil {
		return
	}
	if err := keystore.SaveChatKey(ctx, m.store, chatID, key); err != nil {
		log.WithError(err).Warn("local key store write failed")
	}
}

func (m *Manager) remember(chatID string, key []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache[chatID] = slices.Clone(key)
}

func (m *Manager) resolved(log logrus.FieldLogger, r *Resolution) *Resolution {
	log.WithField("source", r.Source).Debug("session key resolved")
	m.metrics.ObserveResolution(string(r.Source))
	return r
}

func cloneResolution(r *Resolution) *Resolution {
	out := *r
	out.Key = slices.Clone(r.Key)
	return &out
}

// IsUnavailable reports whether err means key distribution is unavailable.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrKeyDistributionUnavailable) || apierrors.IsUnavailable(err)
}
