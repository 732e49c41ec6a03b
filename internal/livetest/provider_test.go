package livetest_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/internal/livetest"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/sessions"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/refresh"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "000000004802B729"
	testClientSecret = "KpY3J8mEXAMPLEsecret"
	testRedirectURL  = "https://www.foo.com/callback"
)

var offlineScopes = []string{scope.SignIn, scope.Basic, scope.OfflineAccess}

func setupProvider(t *testing.T) *livetest.Provider {
	t.Helper()
	p := livetest.NewProvider(testClientID, testClientSecret)
	t.Cleanup(p.Close)
	return p
}

func newClient(t *testing.T, p *livetest.Provider, store auth.TokenStore, options ...auth.ClientOption) *auth.Client {
	t.Helper()
	opts := []auth.ClientOption{
		auth.WithEndpoints(p.Endpoints()),
		auth.WithConsentUI(p.ConsentUI()),
		auth.WithTokenStore(store),
	}
	client, err := auth.NewClient(auth.Config{
		ClientID:     testClientID,
		ClientSecret: testClientSecret,
		RedirectURL:  testRedirectURL,
		Scopes:       offlineScopes,
	}, p.NewExchanger(), append(opts, options...)...)
	require.NoError(t, err)
	return client
}

func TestDesktopFlow(t *testing.T) {
	ctx := context.Background()
	p := setupProvider(t)
	store, err := refresh.NewFileStore(filepath.Join(t.TempDir(), "client.token"), "passphrase")
	require.NoError(t, err)

	first := newClient(t, p, store)
	result, err := first.Login(ctx, nil, "desktop state")
	require.NoError(t, err)
	require.Equal(t, oauth2.StatusConnected, result.Status)
	require.Equal(t, "desktop state", result.AppState)
	require.Equal(t, offlineScopes, result.Session.Scopes)
	require.NotEmpty(t, result.Session.RefreshToken)

	userID, err := first.UserID()
	require.NoError(t, err)
	require.Equal(t, livetest.DefaultUserID, userID)

	t.Run("next start restores the session from the refresh token", func(t *testing.T) {
		requests := p.TokenRequests()
		second := newClient(t, p, store)
		restored, err := second.Initialize(ctx, []string{scope.SignIn})
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusConnected, restored.Status)
		require.NotEqual(t, result.Session.AccessToken, restored.Session.AccessToken)
		require.Equal(t, requests+1, p.TokenRequests())
	})

	t.Run("a revoked refresh token signs the user out", func(t *testing.T) {
		p.RevokeRefreshTokens()
		third := newClient(t, p, store)
		revoked, err := third.Initialize(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusNotConnected, revoked.Status)
		require.Equal(t, oauth2.ErrorCodeInvalidGrant, revoked.Error.Code)

		record, err := store.RetrieveRefreshToken(ctx)
		require.NoError(t, err)
		require.Nil(t, record)
	})
}

func TestWebFlow(t *testing.T) {
	ctx := context.Background()
	p := setupProvider(t)
	store, err := refresh.NewSQLiteStore(filepath.Join(t.TempDir(), "tokens.db"), testClientID)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	codec := sessions.NewCodec([]byte("cookie-hash-key-0123456789abcdef"), nil)

	// callback request: the code arrives on the redirect url
	code := p.IssueCode(livetest.DefaultUserID, offlineScopes...)
	rec := httptest.NewRecorder()
	callback := newClient(t, p, store, auth.WithStateStore(sessions.NewCookieStore(rec, httptest.NewRequest(http.MethodGet, "/callback?code="+code, nil), sessions.WithCodec(codec))))
	session, err := callback.ExchangeAuthCode(ctx, code, "")
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	t.Run("later requests read the cookie without a token request", func(t *testing.T) {
		requests := p.TokenRequests()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(cookies[0])
		client := newClient(t, p, store, auth.WithStateStore(sessions.NewCookieStore(httptest.NewRecorder(), req, sessions.WithCodec(codec))))

		result, err := client.Initialize(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusConnected, result.Status)
		require.Equal(t, session.AccessToken, result.Session.AccessToken)
		require.Equal(t, requests, p.TokenRequests())
	})

	t.Run("without the cookie the database refresh token is used", func(t *testing.T) {
		requests := p.TokenRequests()
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		client := newClient(t, p, store, auth.WithStateStore(sessions.NewCookieStore(httptest.NewRecorder(), req, sessions.WithCodec(codec))))

		result, err := client.Initialize(ctx, nil)
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusConnected, result.Status)
		require.Equal(t, requests+1, p.TokenRequests())
	})
}

func TestReducedScopeRetry(t *testing.T) {
	ctx := context.Background()
	p := setupProvider(t)
	store := refresh.NewMemoryStore()
	require.NoError(t, store.SaveRefreshToken(ctx, &oauth2.RefreshTokenInfo{
		RefreshToken: p.IssueRefreshToken(livetest.DefaultUserID, scope.SignIn, scope.OfflineAccess),
		UserID:       livetest.DefaultUserID,
	}))

	client := newClient(t, p, store)
	result, err := client.Initialize(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, oauth2.StatusConnected, result.Status)
	require.Equal(t, []string{scope.SignIn}, result.Session.Scopes)
	require.Equal(t, 2, p.TokenRequests(), "rejected wide refresh, then sign-in only")

	record, err := store.RetrieveRefreshToken(ctx)
	require.NoError(t, err)
	require.Equal(t, result.Session.RefreshToken, record.RefreshToken, "old refresh token carried forward")
}

func TestConsentOutcomes(t *testing.T) {
	ctx := context.Background()

	t.Run("declined", func(t *testing.T) {
		p := setupProvider(t)
		p.DenyConsent(true)
		result, err := newClient(t, p, refresh.NewMemoryStore()).Login(ctx, nil, "s")
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusNotConnected, result.Status)
		require.Zero(t, p.TokenRequests())
	})

	t.Run("scopes not granted", func(t *testing.T) {
		p := setupProvider(t)
		p.LimitScopes(scope.SignIn, scope.OfflineAccess)
		result, err := newClient(t, p, refresh.NewMemoryStore()).Login(ctx, []string{scope.SignIn, scope.Emails}, "")
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusNotConnected, result.Status)
		require.Nil(t, result.Session)
	})

	t.Run("another user", func(t *testing.T) {
		p := setupProvider(t)
		client := newClient(t, p, refresh.NewMemoryStore())
		_, err := client.Login(ctx, nil, "")
		require.NoError(t, err)

		_, err = client.ExchangeAuthCode(ctx, p.IssueCode("someone-else", offlineScopes...), "s2")
		authErr, ok := oauth2.AsAuthError(err)
		require.True(t, ok)
		require.Equal(t, oauth2.ErrorCodeInvalidRequest, authErr.Code)
		require.Equal(t, "s2", authErr.AppState)

		userID, err := client.UserID()
		require.NoError(t, err)
		require.Equal(t, livetest.DefaultUserID, userID)
	})
}
