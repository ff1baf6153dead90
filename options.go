package sigilchat

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/sigilchat/client-go/internal/crypto"
	"github.com/sigilchat/client-go/internal/keystore"
)

const defaultBaseURL = "http://localhost:8080/api"

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL        string
	token          string
	httpClient     *http.Client
	timeout        time.Duration
	retries        int
	store          keystore.Store
	logger         logrus.FieldLogger
	registerer     prometheus.Registerer
	modulusBits    int
	fallback       bool
	resolveTimeout time.Duration
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		baseURL:     defaultBaseURL,
		retries:     -1,
		modulusBits: crypto.RSAWrapBits,
		fallback:    true,
	}
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the API base URL.
// Default: http://localhost:8080/api
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *clientConfig) {
		c.token = token
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithRetries sets the number of retries for API calls. Zero disables
// retries.
func WithRetries(count int) Option {
	return func(c *clientConfig) {
		c.retries = count
	}
}

// WithKeyStore sets the durable store for chat session keys. The client does
// not close a store passed this way. Default: an in-memory store.
func WithKeyStore(store KeyStore) Option {
	return func(c *clientConfig) {
		c.store = store
	}
}

// WithLogger sets the logger. Default: logs are discarded.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithMetrics registers session key counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *clientConfig) {
		c.registerer = reg
	}
}

// WithModulusBits sets the RSA modulus size of the session keypair.
// Accepted values are 2048, 3072 and 4096. Default: 4096
func WithModulusBits(bits int) Option {
	return func(c *clientConfig) {
		c.modulusBits = bits
	}
}

// WithoutDeterministicFallback makes key resolution fail with
// ErrKeyDistributionUnavailable when the key-distribution service is
// unreachable, instead of deriving a predictable fallback key.
func WithoutDeterministicFallback() Option {
	return func(c *clientConfig) {
		c.fallback = false
	}
}

// WithResolveTimeout bounds one shared session key resolution, including
// generation and distribution. Default: 30 seconds
func WithResolveTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.resolveTimeout = timeout
	}
}
