package config

import (
	"time"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
)

const (
	clientIDVar        = "LIVE_CLIENT_ID"
	clientSecretVar    = "LIVE_CLIENT_SECRET"
	redirectURLVar     = "LIVE_REDIRECT_URL"
	authHostVar        = "LIVE_AUTH_HOST"
	scopesVar          = "LIVE_SCOPES"
	httpTimeoutVar     = "LIVE_HTTP_TIMEOUT"
	tokenStoreVar      = "LIVE_TOKEN_STORE"
	tokenPassphraseVar = "LIVE_TOKEN_PASSPHRASE"
)

// LiveConfig holds the application registration and where refresh tokens are kept.
type LiveConfig interface {
	GetClientID() string
	GetClientSecret() string
	GetRedirectURL() string
	GetAuthHost() string
	GetScopes() []string
	GetHTTPTimeout() time.Duration
	GetTokenStore() string
	GetTokenPassphrase() string
}

type Live struct{}

var _ LiveConfig = Live{}

func (Live) GetClientID() string {
	return GetEnv(clientIDVar, "")
}

// GetClientSecret is empty for public clients.
func (Live) GetClientSecret() string {
	return GetEnv(clientSecretVar, "")
}

func (Live) GetRedirectURL() string {
	return GetEnv(redirectURLVar, "http://localhost:8080/callback")
}

// GetAuthHost returns the authorization server, empty for login.live.com.
func (Live) GetAuthHost() string {
	return GetEnv(authHostVar, "")
}

// GetScopes reads a space or comma separated list.
func (Live) GetScopes() []string {
	return scope.Normalize(scope.Parse(GetEnv(scopesVar, "wl.signin wl.basic wl.offline_access")))
}

func (Live) GetHTTPTimeout() time.Duration {
	return GetEnvDuration(httpTimeoutVar, 30*time.Second)
}

// GetTokenStore returns memory, file or sqlite.
func (Live) GetTokenStore() string {
	return GetEnv(tokenStoreVar, "memory")
}

func (Live) GetTokenPassphrase() string {
	return GetEnv(tokenPassphraseVar, "")
}
