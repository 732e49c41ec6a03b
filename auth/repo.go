package auth

import (
	"context"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/refresh"
)

// TokenStore persists the refresh token record (desktop file, web database, ...).
type TokenStore = refresh.Repo

// ConsentUI navigates the user through the authorize page and returns the final redirect url.
type ConsentUI interface {
	Show(ctx context.Context, authorizeURL string) (finalRedirectURL string, err error)
}

// ConsentUIFunc adapts a function to ConsentUI.
type ConsentUIFunc func(ctx context.Context, authorizeURL string) (string, error)

func (f ConsentUIFunc) Show(ctx context.Context, authorizeURL string) (string, error) {
	return f(ctx, authorizeURL)
}

// StateStore persists the login state for the web variant, usually in a cookie.
// Load returns (nil, nil) when nothing is stored.
type StateStore interface {
	Load(ctx context.Context) (*oauth2.LoginResult, error)
	Save(ctx context.Context, result *oauth2.LoginResult) error
	Clear(ctx context.Context) error
}

// TokenExchanger redeems codes and refresh tokens. Errors are *oauth2.AuthError.
type TokenExchanger interface {
	ExchangeAuthorizationCode(ctx context.Context, clientID, clientSecret, redirectURL, code string) (*oauth2.Session, error)
	RefreshAccessToken(ctx context.Context, clientID, clientSecret, redirectURL, refreshToken string, scopes []string) (*oauth2.Session, error)
}

var _ TokenExchanger = (*token.Client)(nil)
