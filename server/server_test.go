package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/internal/config"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/internal/livetest"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/server"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "000000004802B729"
	testClientSecret = "KpY3J8mEXAMPLEsecret"
	testRedirectURL  = "http://localhost:8080/callback"
)

// testFixture holds all test dependencies
type testFixture struct {
	provider *livetest.Provider
	server   *server.Server
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	p := livetest.NewProvider(testClientID, testClientSecret)
	t.Cleanup(p.Close)

	t.Setenv("ENV", "TEST")
	t.Setenv("LIVE_CLIENT_ID", testClientID)
	t.Setenv("LIVE_CLIENT_SECRET", testClientSecret)
	t.Setenv("LIVE_REDIRECT_URL", testRedirectURL)
	t.Setenv("LIVE_AUTH_HOST", p.URL())
	t.Setenv("LIVE_TOKEN_STORE", "memory")
	t.Setenv("LIVE_COOKIE_HASH_KEY", "cookie-hash-key-0123456789abcdef")

	s, err := server.New(config.New(), server.WithExchanger(p.NewExchanger()))
	require.NoError(t, err)
	return &testFixture{provider: p, server: s}
}

func (f *testFixture) do(t *testing.T, target string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.server.ServeHTTP(rec, req)
	return rec.Result()
}

func cookieNamed(t *testing.T, resp *http.Response, name string) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	require.Failf(t, "missing cookie", "no %s cookie in response", name)
	return nil
}

// login walks /login, the provider's consent page and /callback, returning the auth cookie.
func (f *testFixture) login(t *testing.T) *http.Cookie {
	t.Helper()
	resp := f.do(t, "/login")
	require.Equal(t, http.StatusFound, resp.StatusCode)
	stateCookie := cookieNamed(t, resp, "wl_login_state")
	authorizeURL := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(authorizeURL, f.provider.URL()+"/oauth20_authorize.srf?client_id="+testClientID))

	final, err := f.provider.ConsentUI().Show(context.Background(), authorizeURL)
	require.NoError(t, err)
	u, err := url.Parse(final)
	require.NoError(t, err)

	resp = f.do(t, u.RequestURI(), stateCookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
	return cookieNamed(t, resp, "wl_auth")
}

func TestWebDemo(t *testing.T) {
	f := setupTestFixture(t)

	resp := f.do(t, "/me")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	authCookie := f.login(t)
	require.True(t, authCookie.HttpOnly)
	require.NotContains(t, authCookie.Value, "access_token", "cookie is signed")

	t.Run("session", func(t *testing.T) {
		resp := f.do(t, "/me", authCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

		var me struct {
			UserID string   `json:"user_id"`
			Scopes []string `json:"scopes"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&me))
		require.Equal(t, livetest.DefaultUserID, me.UserID)
		require.Equal(t, []string{"wl.signin", "wl.basic", "wl.offline_access"}, me.Scopes)
	})

	t.Run("index", func(t *testing.T) {
		resp := f.do(t, "/", authCookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "SAMEORIGIN", resp.Header.Get("X-Frame-Options"))
	})

	t.Run("logout", func(t *testing.T) {
		resp := f.do(t, "/logout", authCookie)
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, f.provider.URL()+"/oauth20_logout.srf?client_id="+testClientID+"&redirect_uri=http%3A%2F%2Flocalhost%3A8080%2Fcallback", resp.Header.Get("Location"))
		require.Negative(t, cookieNamed(t, resp, "wl_auth").MaxAge)

		resp = f.do(t, "/me")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode, "refresh token was deleted too")
	})
}

func TestCallback(t *testing.T) {
	t.Run("state must match the login cookie", func(t *testing.T) {
		f := setupTestFixture(t)
		resp := f.do(t, "/callback?code=abc&state=appstate%3Dforged", &http.Cookie{Name: "wl_login_state", Value: "expected"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Zero(t, f.provider.TokenRequests())
	})

	t.Run("declined consent returns home", func(t *testing.T) {
		f := setupTestFixture(t)
		resp := f.do(t, "/callback?error=access_denied&state=appstate%3Ds1", &http.Cookie{Name: "wl_login_state", Value: "s1"})
		require.Equal(t, http.StatusFound, resp.StatusCode)
		require.Equal(t, "/", resp.Header.Get("Location"))
	})

	t.Run("provider errors are reported", func(t *testing.T) {
		f := setupTestFixture(t)
		resp := f.do(t, "/callback?code=unknown&state=appstate%3Ds1", &http.Cookie{Name: "wl_login_state", Value: "s1"})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, 1, f.provider.TokenRequests())
	})
}
