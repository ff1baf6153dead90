package sigilchat

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []struct {
		name string
		err  error
	}{
		{"ErrClientClosed", ErrClientClosed},
		{"ErrEmptyChatID", ErrEmptyChatID},
		{"ErrUnsupportedAlgorithm", ErrUnsupportedAlgorithm},
		{"ErrIntegrity", ErrIntegrity},
		{"ErrInvalidEnvelopeFormat", ErrInvalidEnvelopeFormat},
		{"ErrUnrecognizedKeyFormat", ErrUnrecognizedKeyFormat},
		{"ErrInvalidKeySize", ErrInvalidKeySize},
		{"ErrKeyDistributionUnavailable", ErrKeyDistributionUnavailable},
		{"ErrEncoding", ErrEncoding},
		{"ErrUnauthorized", ErrUnauthorized},
		{"ErrForbidden", ErrForbidden},
		{"ErrNotFound", ErrNotFound},
		{"ErrRateLimited", ErrRateLimited},
	}

	seen := make(map[error]string)
	for _, s := range sentinels {
		t.Run(s.name, func(t *testing.T) {
			if s.err == nil {
				t.Fatal("sentinel error is nil")
			}
			if s.err.Error() == "" {
				t.Error("sentinel error has empty message")
			}
		})
		if other, ok := seen[s.err]; ok {
			t.Errorf("%s and %s are the same error", s.name, other)
		}
		seen[s.err] = s.name
	}
}

func TestAPIError_Is(t *testing.T) {
	tests := []struct {
		status int
		target error
		want   bool
	}{
		{401, ErrUnauthorized, true},
		{403, ErrForbidden, true},
		{404, ErrNotFound, true},
		{429, ErrRateLimited, true},
		{500, ErrUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d", tt.status), func(t *testing.T) {
			err := fmt.Errorf("wrapped: %w", &APIError{StatusCode: tt.status})
			if got := errors.Is(err, tt.target); got != tt.want {
				t.Errorf("errors.Is(%d, %v) = %v, want %v", tt.status, tt.target, got, tt.want)
			}
		})
	}
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"network", &NetworkError{Err: errors.New("connection refused")}, true},
		{"503", &APIError{StatusCode: 503}, true},
		{"429", &APIError{StatusCode: 429}, true},
		{"401", &APIError{StatusCode: 401}, false},
		{"integrity", ErrIntegrity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUnavailable(tt.err); got != tt.want {
				t.Errorf("IsUnavailable() = %v, want %v", got, tt.want)
			}
		})
	}
}
