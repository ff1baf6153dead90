package keyserver

import (
	"encoding/json"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/sigilchat/client-go/internal/api"
	"github.com/sigilchat/client-go/internal/crypto"
	"github.com/sigilchat/client-go/internal/metrics"
)

// DefaultPrefix is the path prefix under which the API is served.
const DefaultPrefix = "/api"

// Server holds users, their public keys and wrapped chat keys in memory.
type Server struct {
	mu       sync.RWMutex
	users    map[string]api.User
	chatKeys map[string]map[string]string // chatID -> userID -> wrapped key

	prefix   string
	logger   logrus.FieldLogger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	chaos    *chaos

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithPrefix serves the API under prefix instead of DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Server) { s.prefix = strings.TrimSuffix(prefix, "/") }
}

// WithLogger sets the access and event logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records per-route request counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithMetricsEndpoint exposes g at GET /metrics.
func WithMetricsEndpoint(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// WithUsers seeds the directory.
func WithUsers(users ...api.User) Option {
	return func(s *Server) {
		for _, u := range users {
			s.users[u.ID] = u
		}
	}
}

// New returns a server with an empty key table.
func New(opts ...Option) *Server {
	s := &Server{
		users:    make(map[string]api.User),
		chatKeys: make(map[string]map[string]string),
		prefix:   DefaultPrefix,
		chaos:    &chaos{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = l
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+s.prefix+"/keys/public", s.handlePublishKey)
	mux.HandleFunc("GET "+s.prefix+"/keys/chat/{chatId}", s.handleGetChatKey)
	mux.HandleFunc("POST "+s.prefix+"/keys/exchange", s.handleExchange)
	mux.HandleFunc("GET "+s.prefix+"/users", s.handleListUsers)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	s.handler = s.accessLog(s.chaos.middleware(mux))
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// WrappedKey returns the wrapped chat key stored for userID.
func (s *Server) WrappedKey(chatID, userID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.chatKeys[chatID][userID]
	return k, ok
}

// Users returns the directory sorted by ID.
func (s *Server) Users() []api.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]api.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b api.User) int { return strings.Compare(a.ID, b.ID) })
	return out
}

func (s *Server) handlePublishKey(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req api.PublishKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := crypto.ParsePublicKeyPEM(req.PublicKeyPEM); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	u := s.users[caller]
	u.ID = caller
	u.PublicKeyPEM = req.PublicKeyPEM
	s.users[caller] = u
	s.mu.Unlock()

	s.logger.WithField("user_id", caller).Info("public key published")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetChatKey(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	wrapped, _ := s.WrappedKey(r.PathValue("chatId"), caller)
	writeJSON(w, http.StatusOK, api.ChatKeyResponse{EncAESKeyB64: wrapped})
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	caller, ok := s.authenticate(w, r)
	if !ok {
		return
	}
	var req api.KeyExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatID == "" {
		writeError(w, http.StatusBadRequest, "chatId is required")
		return
	}
	for _, item := range req.Items {
		if item.UserID == "" || item.EncAESKeyB64 == "" {
			writeError(w, http.StatusBadRequest, "every item needs userId and encAesKeyB64")
			return
		}
	}

	s.mu.Lock()
	keys := s.chatKeys[req.ChatID]
	if keys == nil {
		keys = make(map[string]string)
		s.chatKeys[req.ChatID] = keys
	}
	for _, item := range req.Items {
		keys[item.UserID] = item.EncAESKeyB64
	}
	s.mu.Unlock()

	s.logger.WithFields(logrus.Fields{
		"chat_id": req.ChatID,
		"user_id": caller,
		"items":   len(req.Items),
	}).Info("chat key distributed")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Users())
}

func (s *Server) authenticate(w http.ResponseWriter, r *http.Request) (string, bool) {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	token = strings.TrimSpace(token)
	if !ok || token == "" {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
