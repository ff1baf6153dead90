package api

// ChatKeyResponse is the GET /keys/chat/{chatId} response. EncAESKeyB64 is
// empty when no wrapped copy exists for the caller.
type ChatKeyResponse struct {
	EncAESKeyB64 string `json:"encAesKeyB64,omitempty"`
}

// KeyExchangeItem is one participant's wrapped copy of a session key.
type KeyExchangeItem struct {
	UserID       string `json:"userId"`
	EncAESKeyB64 string `json:"encAesKeyB64"`
}

// KeyExchangeRequest is the POST /keys/exchange request.
type KeyExchangeRequest struct {
	ChatID string            `json:"chatId"`
	Items  []KeyExchangeItem `json:"items"`
}

// PublishKeyRequest is the POST /keys/public request.
type PublishKeyRequest struct {
	PublicKeyPEM string `json:"publicKeyPem"`
}

// User is a directory entry. PublicKeyPEM is empty for users who have not
// published a key yet.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	PublicKeyPEM string `json:"publicKeyPem,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}
