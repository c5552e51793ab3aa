package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apperrors "github.com/mikesassatelli/offroad-parks-sub001/pkg/errors"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/httpclient"
	"github.com/mikesassatelli/offroad-parks-sub001/pkg/middleware"
)

// SessionClient resolves opaque session tokens by asking the identity
// provider's introspection endpoint.
type SessionClient struct {
	client *httpclient.CircuitBreakerClient
	url    string
	logger *slog.Logger
}

// NewSessionClient creates a client for the introspection endpoint at url.
func NewSessionClient(client *httpclient.CircuitBreakerClient, url string, logger *slog.Logger) *SessionClient {
	return &SessionClient{client: client, url: url, logger: logger}
}

type introspectResponse struct {
	Data *struct {
		UserID string `json:"user_id"`
		Role   string `json:"role"`
	} `json:"data"`
}

// Validate satisfies middleware.TokenValidator. An unreachable provider or
// an open circuit yields SERVICE_UNAVAILABLE rather than 401.
func (c *SessionClient) Validate(ctx context.Context, token string) (*middleware.Claims, error) {
	resp, err := c.client.Get(ctx, c.url, http.Header{
		"Authorization": {"Bearer " + token},
		"Accept":        {"application/json"},
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.logger.WarnContext(ctx, "session introspection failed", slog.String("error", err.Error()))
		return nil, apperrors.Unavailable("identity provider unavailable")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, "identity provider")
	}
	defer func() { _ = resp.Body.Close() }()

	var body introspectResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode introspection response: %w", err)
	}
	if body.Data == nil {
		return nil, apperrors.Unauthenticated("session not found")
	}
	return toMiddlewareClaims(body.Data.UserID, body.Data.Role)
}
