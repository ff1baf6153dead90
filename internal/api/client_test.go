package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sigilchat/client-go/internal/apierrors"
)

func fastRetry(n int) Option {
	return WithRetryConfig(&RetryConfig{
		MaxRetries: n,
		BaseDelay:  time.Millisecond,
		MaxDelay:   5 * time.Millisecond,
		Multiplier: 2.0,
	})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(server.URL+"/api", append([]Option{WithToken("u1"), fastRetry(2)}, opts...)...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return client
}

func TestNew_RequiresBaseURL(t *testing.T) {
	t.Parallel()

	if _, err := New(""); !errors.Is(err, ErrMissingBaseURL) {
		t.Errorf("New() error = %v, want ErrMissingBaseURL", err)
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	client, err := New("http://localhost:8080/api/")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if client.BaseURL() != "http://localhost:8080/api" {
		t.Errorf("BaseURL() = %q, trailing slash not trimmed", client.BaseURL())
	}
	if client.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, DefaultTimeout)
	}
	if client.retry.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", client.retry.MaxRetries)
	}
}

func TestClient_Headers(t *testing.T) {
	t.Parallel()

	var gotAuth, gotID, gotType string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotID = r.Header.Get(RequestIDHeader)
		gotType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.PublishPublicKey(context.Background(), "PEM"); err != nil {
		t.Fatalf("PublishPublicKey() error = %v", err)
	}
	if gotAuth != "Bearer u1" {
		t.Errorf("Authorization = %q, want %q", gotAuth, "Bearer u1")
	}
	if len(gotID) != 36 {
		t.Errorf("%s = %q, want a UUID", RequestIDHeader, gotID)
	}
	if gotType != "application/json" {
		t.Errorf("Content-Type = %q", gotType)
	}
}

func TestGetChatKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		status    int
		body      string
		wantKey   string
		wantFound bool
		wantErr   error
	}{
		{"present", 200, `{"encAesKeyB64":"d3JhcHBlZA"}`, "d3JhcHBlZA", true, nil},
		{"absent field", 200, `{}`, "", false, nil},
		{"not found", 404, `{"error":"no key"}`, "", false, nil},
		{"unauthorized", 401, `{"error":"bad token"}`, "", false, apierrors.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.EscapedPath() != "/api/keys/chat/c%201" {
					t.Errorf("request = %s %s", r.Method, r.URL.EscapedPath())
				}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			key, found, err := client.GetChatKey(context.Background(), "c 1")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("GetChatKey() error = %v, want %v", err, tt.wantErr)
			}
			if key != tt.wantKey || found != tt.wantFound {
				t.Errorf("GetChatKey() = (%q, %v), want (%q, %v)", key, found, tt.wantKey, tt.wantFound)
			}
		})
	}
}

func TestExchangeKeys_Body(t *testing.T) {
	t.Parallel()

	var got KeyExchangeRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/keys/exchange" {
			t.Errorf("request = %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	})

	items := []KeyExchangeItem{{UserID: "u1", EncAESKeyB64: "abc"}}
	if err := client.ExchangeKeys(context.Background(), "c1", items); err != nil {
		t.Fatalf("ExchangeKeys() error = %v", err)
	}
	if got.ChatID != "c1" || len(got.Items) != 1 || got.Items[0].UserID != "u1" || got.Items[0].EncAESKeyB64 != "abc" {
		t.Errorf("server received %+v", got)
	}
}

func TestListUsers(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":"u1","name":"Alice","email":"a@x","publicKeyPem":"PEM"},{"id":"u2","email":"b@x"}]`))
	})

	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("len(users) = %d, want 2", len(users))
	}
	if users[0].PublicKeyPEM != "PEM" || users[1].PublicKeyPEM != "" {
		t.Errorf("users = %+v", users)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"encAesKeyB64":"k"}`))
	})

	key, found, err := client.GetChatKey(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetChatKey() error = %v", err)
	}
	if !found || key != "k" {
		t.Errorf("GetChatKey() = (%q, %v)", key, found)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_RetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set(RequestIDHeader, "srv-1")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	err := client.PublishPublicKey(context.Background(), "PEM")

	var apiErr *apierrors.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadGateway || apiErr.Message != "upstream down" || apiErr.RequestID != "srv-1" {
		t.Errorf("APIError = %+v", apiErr)
	}
	if !apierrors.IsUnavailable(err) {
		t.Error("IsUnavailable() = false for 502")
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestClient_NetworkError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, err := New(url, fastRetry(1))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	_, _, err = client.GetChatKey(context.Background(), "c1")

	var netErr *apierrors.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("error = %v, want *NetworkError", err)
	}
	if netErr.Attempt != 2 {
		t.Errorf("Attempt = %d, want 2", netErr.Attempt)
	}
	if !apierrors.IsUnavailable(err) {
		t.Error("IsUnavailable() = false for network error")
	}
}

func TestClient_ContextCanceled(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithRetryConfig(&RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, Multiplier: 1}))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := client.GetChatKey(ctx, "c1")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("GetChatKey() error = %v, want context.DeadlineExceeded", err)
	}
}
