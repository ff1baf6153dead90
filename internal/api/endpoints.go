package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/sigilchat/client-go/internal/apierrors"
)

// GetChatKey fetches the caller's wrapped copy of the session key for chatID.
// found is false when the service has no copy for the caller, including a
// 404 response.
func (c *Client) GetChatKey(ctx context.Context, chatID string) (wrapped string, found bool, err error) {
	var result ChatKeyResponse
	err = c.do(ctx, http.MethodGet, "/keys/chat/"+url.PathEscape(chatID), nil, &result)
	if errors.Is(err, apierrors.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return result.EncAESKeyB64, result.EncAESKeyB64 != "", nil
}

// ExchangeKeys submits wrapped copies of a chat session key.
func (c *Client) ExchangeKeys(ctx context.Context, chatID string, items []KeyExchangeItem) error {
	if items == nil {
		items = []KeyExchangeItem{}
	}
	return c.do(ctx, http.MethodPost, "/keys/exchange", KeyExchangeRequest{ChatID: chatID, Items: items}, nil)
}

// PublishPublicKey stores or replaces the caller's public key.
func (c *Client) PublishPublicKey(ctx context.Context, publicKeyPEM string) error {
	return c.do(ctx, http.MethodPost, "/keys/public", PublishKeyRequest{PublicKeyPEM: publicKeyPEM}, nil)
}

// ListUsers returns the user directory.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := c.do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}
