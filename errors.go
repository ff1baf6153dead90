package sigilchat

import (
	"errors"

	"github.com/sigilchat/client-go/internal/apierrors"
	"github.com/sigilchat/client-go/internal/crypto"
	"github.com/sigilchat/client-go/internal/envelope"
	"github.com/sigilchat/client-go/internal/sessionkey"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrClientClosed is returned when operations are attempted on a closed client.
	ErrClientClosed = errors.New("client has been closed")

	// ErrEmptyChatID is returned when a chat id is empty.
	ErrEmptyChatID = sessionkey.ErrEmptyChatID

	// ErrUnsupportedAlgorithm is returned for key generation parameters the
	// crypto provider rejects.
	ErrUnsupportedAlgorithm = crypto.ErrUnsupportedAlgorithm

	// ErrIntegrity is returned when an envelope fails authentication: wrong
	// key, corruption or tampering.
	ErrIntegrity = crypto.ErrIntegrity

	// ErrInvalidEnvelopeFormat is returned for malformed envelope strings.
	ErrInvalidEnvelopeFormat = envelope.ErrInvalidEnvelopeFormat

	// ErrUnrecognizedKeyFormat is returned for PEM text that is neither SPKI
	// nor PKCS#1.
	ErrUnrecognizedKeyFormat = crypto.ErrUnrecognizedKeyFormat

	// ErrInvalidKeySize is returned for symmetric keys that are not 128 or
	// 256 bits.
	ErrInvalidKeySize = crypto.ErrInvalidKeySize

	// ErrKeyDistributionUnavailable is returned when the key-distribution
	// service is unreachable and the deterministic fallback is disabled.
	ErrKeyDistributionUnavailable = sessionkey.ErrKeyDistributionUnavailable

	// ErrEncoding is returned for malformed base64 or base64url input.
	ErrEncoding = crypto.ErrEncoding

	// ErrUnauthorized is returned when the token is missing or rejected.
	ErrUnauthorized = apierrors.ErrUnauthorized

	// ErrForbidden is returned when the caller may not access a resource.
	ErrForbidden = apierrors.ErrForbidden

	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = apierrors.ErrNotFound

	// ErrRateLimited is returned when the API rate limit is exceeded.
	ErrRateLimited = apierrors.ErrRateLimited
)

// APIError represents an HTTP error from the key-distribution service.
type APIError = apierrors.APIError

// NetworkError represents a network-level failure.
type NetworkError = apierrors.NetworkError

// IsUnavailable reports whether err means the key-distribution service
// could not be reached or is temporarily failing.
func IsUnavailable(err error) bool {
	return apierrors.IsUnavailable(err)
}
