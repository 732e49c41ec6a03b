package config_test

import (
	"testing"
	"time"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	for _, v := range []string{"PORT", "APP_NAME", "ENV", "LIVE_SCOPES", "LIVE_HTTP_TIMEOUT", "LIVE_TOKEN_STORE", "LIVE_COOKIE_NAME", "LIVE_COOKIE_HASH_KEY"} {
		t.Setenv(v, "")
	}
	c := config.New()

	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "DEV", c.GetEnv())
	require.Equal(t, []string{"wl.signin", "wl.basic", "wl.offline_access"}, c.GetScopes())
	require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	require.Equal(t, "memory", c.GetTokenStore())
	require.Equal(t, "wl_auth", c.GetCookieName())
	require.Nil(t, c.GetCookieHashKey())
	require.False(t, c.GetSecureCookies())
}

func TestOverrides(t *testing.T) {
	t.Setenv("PORT", ":9000")
	t.Setenv("ENV", "PROD")
	t.Setenv("LIVE_CLIENT_ID", "000000004802B729")
	t.Setenv("LIVE_SCOPES", "wl.signin,wl.emails wl.signin")
	t.Setenv("LIVE_COOKIE_HASH_KEY", "hash-key")
	c := config.New()

	require.Equal(t, ":9000", c.GetPort())
	require.Equal(t, "000000004802B729", c.GetClientID())
	require.Equal(t, []string{"wl.signin", "wl.emails"}, c.GetScopes())
	require.Equal(t, []byte("hash-key"), c.GetCookieHashKey())
	require.True(t, c.GetSecureCookies())

	t.Run("timeouts", func(t *testing.T) {
		t.Setenv("LIVE_HTTP_TIMEOUT", "5s")
		require.Equal(t, 5*time.Second, c.GetHTTPTimeout())
		t.Setenv("LIVE_HTTP_TIMEOUT", "12")
		require.Equal(t, 12*time.Second, c.GetHTTPTimeout())
		t.Setenv("LIVE_HTTP_TIMEOUT", "soon")
		require.Equal(t, 30*time.Second, c.GetHTTPTimeout())
	})
}
