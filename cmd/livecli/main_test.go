package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/internal/livetest"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "000000004802B729"
	testClientSecret = "KpY3J8mEXAMPLEsecret"
)

func TestTerminalConsent(t *testing.T) {
	var out bytes.Buffer
	ui := terminalConsent(strings.NewReader("  https://login.live.com/oauth20_desktop.srf?code=abc \n"), &out)

	final, err := ui.Show(context.Background(), "https://login.live.com/oauth20_authorize.srf?client_id=x")
	require.NoError(t, err)
	require.Equal(t, "https://login.live.com/oauth20_desktop.srf?code=abc", final)
	require.Contains(t, out.String(), "oauth20_authorize.srf?client_id=x")

	_, err = terminalConsent(strings.NewReader(""), &out).Show(context.Background(), "u")
	require.Error(t, err)
}

// consentInput answers the prompt with the redirect the provider would send the browser to.
func consentInput(t *testing.T, p *livetest.Provider) string {
	t.Helper()
	code := p.IssueCode(livetest.DefaultUserID, "wl.signin", "wl.basic", "wl.offline_access")
	return p.Endpoints().DesktopRedirectURL() + "?code=" + code + "\n"
}

func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(strings.NewReader(input), &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI(t *testing.T) {
	p := livetest.NewProvider(testClientID, testClientSecret)
	t.Cleanup(p.Close)
	t.Setenv("LIVE_CLIENT_ID", testClientID)
	t.Setenv("LIVE_CLIENT_SECRET", testClientSecret)
	t.Setenv("LIVE_REDIRECT_URL", "")
	t.Setenv("LIVE_TOKEN_PASSPHRASE", "passphrase")
	t.Setenv("APP_NAME", "cli")
	folder := t.TempDir()
	flags := []string{"--host", p.URL(), "--folder", folder}

	out, err := runCLI(t, consentInput(t, p), append([]string{"login", "--state", "s1"}, flags...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Open this url in a browser")
	require.Contains(t, out, "status:  connected")
	require.Contains(t, out, "user:    "+livetest.DefaultUserID)
	require.Contains(t, out, "state:   s1")

	t.Run("status uses the stored refresh token", func(t *testing.T) {
		requests := p.TokenRequests()
		out, err := runCLI(t, "", append([]string{"status"}, flags...)...)
		require.NoError(t, err)
		require.Contains(t, out, "status:  connected")
		require.Equal(t, requests+1, p.TokenRequests())
	})

	t.Run("token", func(t *testing.T) {
		out, err := runCLI(t, "", append([]string{"token"}, flags...)...)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(out, "EwA"))
	})

	t.Run("logout", func(t *testing.T) {
		out, err := runCLI(t, "", append([]string{"logout"}, flags...)...)
		require.NoError(t, err)
		require.Contains(t, out, p.URL()+"/oauth20_logout.srf?client_id="+testClientID)

		out, err = runCLI(t, "", append([]string{"status"}, flags...)...)
		require.NoError(t, err)
		require.Contains(t, out, "status:  notConnected")
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := runCLI(t, "", append([]string{"status", "--store", "registry"}, flags...)...)
		require.Error(t, err)
	})
}
