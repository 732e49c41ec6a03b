// Package token performs the authorization code and refresh token exchanges against the token endpoint.
package token

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const couldNotRetrieveToken = "could not retrieve token"

// Client exchanges codes and refresh tokens for sessions.
// Every error it returns is an *oauth2.AuthError. It never retries.
type Client struct {
	transport Transport
	urls      *endpoints.Builder
	nowFunc   func() time.Time
	logger    zerolog.Logger
}

type ClientOption func(*Client)

// WithNowFunc sets the clock used to turn expires_in into an absolute expiry (primarily for testing)
func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates an exchange client. A nil urls builder targets the production host.
func NewClient(transport Transport, urls *endpoints.Builder, options ...ClientOption) *Client {
	if urls == nil {
		urls = endpoints.New("")
	}
	c := &Client{
		transport: transport,
		urls:      urls,
		nowFunc:   time.Now,
		logger:    log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// ExchangeAuthorizationCode redeems an authorization code.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, redirectURL, code string) (*oauth2.Session, error) {
	body, err := encodeForm(NewAuthorizationCodeRequest(clientID, clientSecret, redirectURL, code))
	if err != nil {
		return nil, oauth2.NewAuthError(oauth2.ErrorCodeClientError, err.Error())
	}
	return c.requestToken(ctx, oauth2.AuthorizationCodeGrant, body)
}

// RefreshAccessToken redeems a refresh token. Empty scopes keep the scopes of the original grant.
func (c *Client) RefreshAccessToken(ctx context.Context, clientID, clientSecret, redirectURL, refreshToken string, scopes []string) (*oauth2.Session, error) {
	body, err := encodeForm(NewRefreshTokenRequest(clientID, clientSecret, redirectURL, refreshToken, scope.Serialize(scopes)))
	if err != nil {
		return nil, oauth2.NewAuthError(oauth2.ErrorCodeClientError, err.Error())
	}
	return c.requestToken(ctx, oauth2.RefreshTokenGrant, body)
}

func (c *Client) requestToken(ctx context.Context, grant oauth2.GrantType, body string) (*oauth2.Session, error) {
	logger := c.logger.With().Str("op", uuid.NewString()).Str("grant_type", string(grant)).Logger()
	logger.Debug().Msg("token request")

	status, respBody, err := c.transport.PostForm(ctx, c.urls.TokenURL(), body)
	if err != nil {
		logger.Err(err).Msg("token request failed")
		return nil, oauth2.NewAuthError(oauth2.ErrorCodeClientError, err.Error())
	}
	receivedAt := c.nowFunc()

	if len(bytes.TrimSpace(respBody)) == 0 {
		logger.Warn().Int("status", status).Msg("empty token response")
		return nil, oauth2.NewAuthError(oauth2.ErrorCodeServerError, couldNotRetrieveToken)
	}

	tr, err := parseTokenResponse(respBody)
	if err != nil {
		logger.Err(err).Int("status", status).Msg("unreadable token response")
		return nil, oauth2.NewAuthError(oauth2.ErrorCodeServerError, err.Error())
	}
	if tr.HasError() {
		logger.Debug().Int("status", status).Str("error", tr.Error).Msg("token request rejected")
		return nil, tr.AuthError()
	}

	logger.Debug().Int("status", status).Str("scope", tr.Scope).Msg("token request succeeded")
	return tr.Session(receivedAt), nil
}

// parseTokenResponse decodes body, which must be a JSON object.
func parseTokenResponse(body []byte) (*oauth2.TokenResponse, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	values, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("token response is not a JSON object")
	}
	return oauth2.TokenResponseFromMap(values)
}
