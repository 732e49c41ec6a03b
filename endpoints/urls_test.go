package endpoints_test

import (
	"testing"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "000000004802B729"
)

func TestAuthorizeURL(t *testing.T) {
	b := endpoints.New("")

	t.Run("default parameters", func(t *testing.T) {
		got := b.AuthorizeURL(endpoints.AuthorizeParams{
			ClientID:    testClientID,
			RedirectURL: "https://www.foo.com",
			Scopes:      []string{"wl.signin", "wl.basic"},
			Locale:      "en-US",
		})
		require.Equal(t,
			"https://login.live.com/oauth20_authorize.srf?client_id=000000004802B729&redirect_uri=https%3A%2F%2Fwww.foo.com&scope=wl.signin%20wl.basic&response_type=code&display=page&locale=en-US&state=",
			got)
	})

	t.Run("state is wrapped and theme appended last", func(t *testing.T) {
		got := b.AuthorizeURL(endpoints.AuthorizeParams{
			ClientID:    testClientID,
			RedirectURL: "https://www.foo.com",
			Scopes:      []string{"wl.signin"},
			Display:     oauth2.TouchDisplay,
			Theme:       oauth2.DarkTheme,
			Locale:      "fr-FR",
			State:       "a b&c",
		})
		require.Equal(t,
			"https://login.live.com/oauth20_authorize.srf?client_id=000000004802B729&redirect_uri=https%3A%2F%2Fwww.foo.com&scope=wl.signin&response_type=code&display=touch&locale=fr-FR&state=appstate%3Da%2520b%2526c&theme=dark",
			got)
	})

	t.Run("none theme is omitted", func(t *testing.T) {
		got := b.AuthorizeURL(endpoints.AuthorizeParams{ClientID: testClientID, Theme: oauth2.NoTheme})
		require.NotContains(t, got, "theme=")
	})
}

func TestLogoutAndTokenURL(t *testing.T) {
	b := endpoints.New("")
	require.Equal(t,
		"https://login.live.com/oauth20_logout.srf?client_id=000000004802B729&redirect_uri=http%3A%2F%2Fwww.foo.com%2Fcallback",
		b.LogoutURLFor(testClientID, "http://www.foo.com/callback"))
	require.Equal(t, "https://login.live.com/oauth20_logout.srf", b.LogoutURL())
	require.Equal(t, "https://login.live.com/oauth20_logout.srf", b.LogoutURLFor("", "http://www.foo.com/callback"))
	require.Equal(t, "https://login.live.com/oauth20_token.srf", b.TokenURL())
	require.Equal(t, "https://login.live.com/oauth20_desktop.srf", b.DesktopRedirectURL())
}

func TestHostOverride(t *testing.T) {
	require.Equal(t, "https://login.live-int.com/oauth20_token.srf", endpoints.New("login.live-int.com").TokenURL())
	require.Equal(t, "http://127.0.0.1:9000/oauth20_token.srf", endpoints.New("http://127.0.0.1:9000/").TokenURL())
	require.Equal(t, "https://login.live.com", endpoints.New("  ").Base())
}

func TestDecodeAppRequestStates(t *testing.T) {
	t.Run("decodes values and skips malformed entries", func(t *testing.T) {
		states := endpoints.DecodeAppRequestStates("appstate=a%20b%26c&broken&x=1=2&other=v")
		require.Equal(t, map[string]string{"appstate": "a b&c", "other": "v"}, states)
	})

	t.Run("empty input", func(t *testing.T) {
		require.Empty(t, endpoints.DecodeAppRequestStates(""))
	})

	t.Run("round trip through encode", func(t *testing.T) {
		require.Equal(t, "x=1&y=2 z", endpoints.AppStateFrom(endpoints.EncodeAppRequestState("x=1&y=2 z")))
	})
}
