package auth

import (
	"context"
	"net/http"

	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/pkg/errors"
	xoauth2 "golang.org/x/oauth2"
)

type tokenSource struct {
	ctx    context.Context
	client *Client
}

// Token returns the current access token, running Initialize when the session is missing or expired.
func (ts *tokenSource) Token() (*xoauth2.Token, error) {
	if s := ts.client.Session(); s.IsValid(ts.client.nowFunc()) {
		return s.Token(), nil
	}

	result, err := ts.client.Initialize(ts.ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "[tokenSource.Token]")
	}
	if result.Status != oauth2.StatusConnected {
		if result.Error != nil {
			return nil, result.Error
		}
		return nil, errors.Wrapf(liveerrors.ErrSessionNotFound, "[tokenSource.Token] status %s", result.Status)
	}
	return result.Session.Token(), nil
}

// TokenSource adapts the client to golang.org/x/oauth2. Tokens are reused until they expire.
func (c *Client) TokenSource(ctx context.Context) xoauth2.TokenSource {
	return xoauth2.ReuseTokenSource(c.Session().Token(), &tokenSource{ctx: ctx, client: c})
}

// HTTPClient returns an http client that sends the access token as a bearer token.
func (c *Client) HTTPClient(ctx context.Context) *http.Client {
	return xoauth2.NewClient(ctx, c.TokenSource(ctx))
}
