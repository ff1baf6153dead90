package keyserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sigilchat/client-go/internal/api"
	"github.com/sigilchat/client-go/internal/apierrors"
	"github.com/sigilchat/client-go/internal/crypto"
	"github.com/sigilchat/client-go/internal/metrics"
)

var testPEM = sync.OnceValue(func() string {
	priv, err := crypto.GenerateRSAKey(2048)
	if err != nil {
		panic(err)
	}
	pem, err := crypto.ExportPublicKeyPEM(&priv.PublicKey)
	if err != nil {
		panic(err)
	}
	return pem
})

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts...)
	ts := httptest.NewServer(s)
	t.Cleanup(ts.Close)
	return s, ts
}

func clientFor(t *testing.T, ts *httptest.Server, userID string) *api.Client {
	t.Helper()
	opts := []api.Option{api.WithRetries(0)}
	if userID != "" {
		opts = append(opts, api.WithToken(userID))
	}
	c, err := api.New(ts.URL+DefaultPrefix, opts...)
	if err != nil {
		t.Fatalf("api.New() error = %v", err)
	}
	return c
}

func TestPublishAndListUsers(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t, WithUsers(api.User{ID: "u2", Name: "Bea", Email: "bea@example.com"}))
	ctx := context.Background()

	if err := clientFor(t, ts, "u1").PublishPublicKey(ctx, testPEM()); err != nil {
		t.Fatalf("PublishPublicKey() error = %v", err)
	}

	users, err := clientFor(t, ts, "").ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 || users[0].ID != "u1" || users[1].ID != "u2" {
		t.Fatalf("ListUsers() = %+v", users)
	}
	if users[0].PublicKeyPEM != testPEM() {
		t.Error("u1 PublicKeyPEM not stored")
	}
	if users[1].PublicKeyPEM != "" || users[1].Name != "Bea" {
		t.Errorf("u2 = %+v", users[1])
	}
}

func TestPublish_RejectsBadPEM(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)

	err := clientFor(t, ts, "u1").PublishPublicKey(context.Background(), "-----BEGIN CERTIFICATE-----\nAAAA\n-----END CERTIFICATE-----")
	if !errors.Is(err, apierrors.ErrBadRequest) {
		t.Fatalf("PublishPublicKey() error = %v, want ErrBadRequest", err)
	}
}

func TestExchangeAndGetChatKey(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)
	ctx := context.Background()

	items := []api.KeyExchangeItem{
		{UserID: "u1", EncAESKeyB64: "wrapped-for-u1"},
		{UserID: "u2", EncAESKeyB64: "wrapped-for-u2"},
	}
	if err := clientFor(t, ts, "u1").ExchangeKeys(ctx, "chat 1", items); err != nil {
		t.Fatalf("ExchangeKeys() error = %v", err)
	}

	got, found, err := clientFor(t, ts, "u2").GetChatKey(ctx, "chat 1")
	if err != nil || !found || got != "wrapped-for-u2" {
		t.Fatalf("GetChatKey(u2) = (%q, %v, %v)", got, found, err)
	}

	_, found, err = clientFor(t, ts, "u3").GetChatKey(ctx, "chat 1")
	if err != nil || found {
		t.Fatalf("GetChatKey(u3) = (found %v, %v), want not found", found, err)
	}

	if k, ok := s.WrappedKey("chat 1", "u1"); !ok || k != "wrapped-for-u1" {
		t.Errorf("WrappedKey(u1) = (%q, %v)", k, ok)
	}

	// A later exchange replaces earlier copies.
	if err := clientFor(t, ts, "u2").ExchangeKeys(ctx, "chat 1", items[:1]); err != nil {
		t.Fatalf("ExchangeKeys() error = %v", err)
	}
	if err := clientFor(t, ts, "u2").ExchangeKeys(ctx, "chat 1", []api.KeyExchangeItem{{UserID: "u1", EncAESKeyB64: "rotated"}}); err != nil {
		t.Fatalf("ExchangeKeys() error = %v", err)
	}
	if k, _ := s.WrappedKey("chat 1", "u1"); k != "rotated" {
		t.Errorf("WrappedKey(u1) after rotation = %q", k)
	}
}

func TestExchange_Validation(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	ctx := context.Background()
	c := clientFor(t, ts, "u1")

	if err := c.ExchangeKeys(ctx, "", nil); !errors.Is(err, apierrors.ErrBadRequest) {
		t.Errorf("ExchangeKeys(empty chat) error = %v, want ErrBadRequest", err)
	}
	if err := c.ExchangeKeys(ctx, "c1", []api.KeyExchangeItem{{UserID: "u2"}}); !errors.Is(err, apierrors.ErrBadRequest) {
		t.Errorf("ExchangeKeys(empty key) error = %v, want ErrBadRequest", err)
	}
}

func TestRequiresBearer(t *testing.T) {
	t.Parallel()
	_, ts := newTestServer(t)
	c := clientFor(t, ts, "")

	_, _, err := c.GetChatKey(context.Background(), "c1")
	if !errors.Is(err, apierrors.ErrUnauthorized) {
		t.Fatalf("GetChatKey() error = %v, want ErrUnauthorized", err)
	}
	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "missing bearer token" || apiErr.RequestID == "" {
		t.Errorf("APIError = %+v", apiErr)
	}
}

func TestChaos(t *testing.T) {
	t.Parallel()
	s, ts := newTestServer(t)
	ctx := context.Background()
	c := clientFor(t, ts, "u1")

	s.SetChaos(ChaosConfig{Enabled: true, ErrorRate: 1})
	_, _, err := c.GetChatKey(ctx, "c1")
	if !apierrors.IsUnavailable(err) {
		t.Fatalf("GetChatKey() under chaos error = %v, want unavailable", err)
	}

	s.SetChaos(ChaosConfig{Enabled: true, Blackhole: true})
	_, _, err = c.GetChatKey(ctx, "c1")
	var netErr *apierrors.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("GetChatKey() under blackhole error = %v, want NetworkError", err)
	}

	s.SetChaos(ChaosConfig{Enabled: true, Latency: 200 * time.Millisecond})
	short, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, _, err = c.GetChatKey(short, "c1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("GetChatKey() with latency error = %v, want DeadlineExceeded", err)
	}

	s.DisableChaos()
	if _, _, err = c.GetChatKey(ctx, "c1"); err != nil {
		t.Fatalf("GetChatKey() after DisableChaos error = %v", err)
	}
}

func TestMetrics(t *testing.T) {
	t.Parallel()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	_, ts := newTestServer(t, WithMetrics(m), WithMetricsEndpoint(reg))
	ctx := context.Background()

	_, _, _ = clientFor(t, ts, "u1").GetChatKey(ctx, "c1")
	_, _, _ = clientFor(t, ts, "").GetChatKey(ctx, "c1")

	route := "GET /api/keys/chat/{chatId}"
	if got := testutil.ToFloat64(m.ServerRequests.WithLabelValues(route, "200")); got != 1 {
		t.Errorf("requests{200} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ServerRequests.WithLabelValues(route, "401")); got != 1 {
		t.Errorf("requests{401} = %v, want 1", got)
	}

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	_, _ = io.Copy(buf, resp.Body)
	if !strings.Contains(buf.String(), "sigilchat_keyserver_requests_total") {
		t.Error("/metrics does not expose request counter")
	}
}
