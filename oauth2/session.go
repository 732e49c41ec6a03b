package oauth2

import (
	"time"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
	xoauth2 "golang.org/x/oauth2"
)

// Session is the credential set of an authenticated user.
// It is produced by a successful token endpoint response and owned by the auth client afterwards.
type Session struct {
	// AccessToken is the opaque bearer token sent to the REST API.
	// Usage: "Authorization: Bearer <access_token>"
	AccessToken string

	// AuthenticationToken is the signed JWT identifying the user.
	// Only present: when the provider returned one (wl.signin)
	AuthenticationToken string

	// RefreshToken is the long-lived credential used to renew AccessToken.
	// Only present: when wl.offline_access was granted
	RefreshToken string

	// Scopes granted to the session. Order is preserved for serialisation.
	Scopes []string

	// ExpiresAt is the absolute expiry time of AccessToken.
	ExpiresAt time.Time
}

// IsValid reports whether the access token is present and expires strictly after now.
func (s *Session) IsValid(now time.Time) bool {
	if s == nil {
		return false
	}
	return s.AccessToken != "" && s.ExpiresAt.After(now)
}

// HasScopes reports whether every requested scope was granted to the session.
func (s *Session) HasScopes(requested []string) bool {
	if s == nil {
		return len(requested) == 0
	}
	return scope.IsSubsetOf(requested, s.Scopes)
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Scopes = append([]string(nil), s.Scopes...)
	return &c
}

// Token converts the session to a golang.org/x/oauth2 token so it can be used with
// oauth2.StaticTokenSource and oauth2.NewClient.
func (s *Session) Token() *xoauth2.Token {
	if s == nil {
		return nil
	}
	t := &xoauth2.Token{
		AccessToken:  s.AccessToken,
		TokenType:    "bearer",
		RefreshToken: s.RefreshToken,
		Expiry:       s.ExpiresAt,
	}
	if s.AuthenticationToken != "" {
		t = t.WithExtra(map[string]any{"authentication_token": s.AuthenticationToken})
	}
	return t
}

// LoginResult is the outcome of an authentication operation.
type LoginResult struct {
	Status   LoginStatus
	Session  *Session   // present iff Status == StatusConnected
	Error    *AuthError // optional, a NotConnected result may carry no error
	AppState string     // opaque caller state round-tripped through the flow
}

// NewConnectedResult builds a Connected result for session.
func NewConnectedResult(session *Session, appState string) *LoginResult {
	return &LoginResult{Status: StatusConnected, Session: session, AppState: appState}
}

// NewNotConnectedResult builds a NotConnected result with an optional error.
func NewNotConnectedResult(err *AuthError, appState string) *LoginResult {
	return &LoginResult{Status: StatusNotConnected, Error: err, AppState: appState}
}

// RefreshTokenInfo is the record persisted by refresh token stores.
type RefreshTokenInfo struct {
	RefreshToken string
	UserID       string
}
