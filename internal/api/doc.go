// Package api provides the HTTP client for the sigilchat key-distribution
// service. It handles bearer authentication, JSON request/response
// serialization, request correlation ids and automatic retry with
// exponential backoff for transient failures.
//
// # Endpoints
//
//   - GET  /keys/chat/{chatId}: the caller's wrapped copy of a chat session key.
//   - POST /keys/exchange: wrapped copies of a new session key, one per participant.
//   - POST /keys/public: the caller's own public key PEM.
//   - GET  /users: the user directory with published public keys.
//
// # Retry Behavior
//
// By default, requests are retried up to 2 times for network failures and
// these HTTP status codes:
//
//   - 408 Request Timeout
//   - 429 Too Many Requests
//   - 500 Internal Server Error
//   - 502 Bad Gateway
//   - 503 Service Unavailable
//   - 504 Gateway Timeout
//
// # Error Handling
//
// Non-2xx responses are returned as [apierrors.APIError] and transport
// failures as [apierrors.NetworkError]. Use errors.Is with the apierrors
// sentinels, or [apierrors.IsUnavailable] to decide whether a fallback path
// applies.
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use.
package api
