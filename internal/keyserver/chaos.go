package keyserver

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"
)

// ChaosConfig injects faults into API responses so clients can exercise
// their degraded paths against a live server.
type ChaosConfig struct {
	// Enabled is the master switch.
	Enabled bool
	// Latency delays every response.
	Latency time.Duration
	// ErrorRate is the probability, 0.0-1.0, of answering with ErrorStatus.
	ErrorRate float64
	// ErrorStatus is the injected status code (default: 503).
	ErrorStatus int
	// Blackhole closes the connection without a response.
	Blackhole bool
}

type chaos struct {
	mu  sync.RWMutex
	cfg ChaosConfig
}

// SetChaos replaces the fault injection configuration.
func (s *Server) SetChaos(cfg ChaosConfig) {
	if cfg.ErrorStatus == 0 {
		cfg.ErrorStatus = http.StatusServiceUnavailable
	}
	s.chaos.mu.Lock()
	s.chaos.cfg = cfg
	s.chaos.mu.Unlock()
}

// DisableChaos turns fault injection off.
func (s *Server) DisableChaos() {
	s.SetChaos(ChaosConfig{})
}

func (c *chaos) config() ChaosConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cfg
}

func (c *chaos) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cfg := c.config()
		if !cfg.Enabled {
			next.ServeHTTP(w, r)
			return
		}

		if cfg.Latency > 0 {
			select {
			case <-time.After(cfg.Latency):
			case <-r.Context().Done():
				return
			}
		}
		if cfg.Blackhole {
			if conn, _, err := http.NewResponseController(w).Hijack(); err == nil {
				conn.Close()
				return
			}
			panic(http.ErrAbortHandler)
		}
		if cfg.ErrorRate > 0 && rand.Float64() < cfg.ErrorRate {
			writeError(w, cfg.ErrorStatus, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}
