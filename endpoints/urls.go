// Package endpoints builds the Live Connect authorize, token and logout URLs.
package endpoints

import (
	"net/url"
	"strings"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
)

const (
	// DefaultHost is the production consent and token host.
	DefaultHost = "login.live.com"

	authorizePath = "/oauth20_authorize.srf"
	tokenPath     = "/oauth20_token.srf"
	logoutPath    = "/oauth20_logout.srf"
	desktopPath   = "/oauth20_desktop.srf"

	appStateKey = "appstate"
)

// Builder constructs provider URLs against a fixed base.
// The zero value is not usable, construct one with New.
type Builder struct {
	base string
}

// New returns a Builder for host. An empty host selects DefaultHost.
// host may be a bare host name (https is assumed) or a base URL such as "http://127.0.0.1:8080"
// for test and integration environments.
func New(host string) *Builder {
	host = strings.TrimSpace(host)
	switch {
	case host == "":
		host = "https://" + DefaultHost
	case !strings.Contains(host, "://"):
		host = "https://" + host
	}
	return &Builder{base: strings.TrimRight(host, "/")}
}

// Base returns the scheme and host every URL is built on.
func (b *Builder) Base() string {
	return b.base
}

// AuthorizeParams are the inputs of the consent page URL.
type AuthorizeParams struct {
	ClientID     string
	RedirectURL  string
	Scopes       []string
	ResponseType oauth2.ResponseType // defaults to "code"
	Display      oauth2.DisplayType  // defaults to "page"
	Theme        oauth2.ThemeType    // omitted when empty or "none"
	Locale       string
	State        string // opaque application state, wrapped as appstate=<state>
}

// AuthorizeURL returns the consent page URL. Parameters are always emitted in the order
// client_id, redirect_uri, scope, response_type, display, locale, state and finally theme.
func (b *Builder) AuthorizeURL(p AuthorizeParams) string {
	responseType := p.ResponseType
	if responseType == "" {
		responseType = oauth2.CodeResponseType
	}
	display := p.Display
	if display == "" {
		display = oauth2.PageDisplay
	}

	var state string
	if p.State != "" {
		state = EncodeAppRequestState(p.State)
	}

	q := newOrderedQuery()
	q.add("client_id", p.ClientID)
	q.add("redirect_uri", p.RedirectURL)
	q.add("scope", scope.Serialize(p.Scopes))
	q.add("response_type", string(responseType))
	q.add("display", string(display))
	q.add("locale", p.Locale)
	q.add("state", state)
	if p.Theme != "" && p.Theme != oauth2.NoTheme {
		q.add("theme", string(p.Theme))
	}
	return b.base + authorizePath + "?" + q.encode()
}

// TokenURL returns the token endpoint.
func (b *Builder) TokenURL() string {
	return b.base + tokenPath
}

// DesktopRedirectURL returns the provider's redirect page for clients without a web server of their own.
func (b *Builder) DesktopRedirectURL() string {
	return b.base + desktopPath
}

// LogoutURL returns the bare logout endpoint.
func (b *Builder) LogoutURL() string {
	return b.base + logoutPath
}

// LogoutURLFor returns the logout endpoint that redirects back to redirectURL.
// Without a clientID it is identical to LogoutURL.
func (b *Builder) LogoutURLFor(clientID, redirectURL string) string {
	if clientID == "" {
		return b.LogoutURL()
	}
	q := newOrderedQuery()
	q.add("client_id", clientID)
	q.add("redirect_uri", redirectURL)
	return b.base + logoutPath + "?" + q.encode()
}

// EncodeAppRequestState wraps appState so it survives a round trip through the provider's state parameter.
func EncodeAppRequestState(appState string) string {
	return appStateKey + "=" + Escape(appState)
}

// DecodeAppRequestStates splits a returned state value into its key/value pairs.
// Entries that are not exactly key=value are skipped.
func DecodeAppRequestStates(clientState string) map[string]string {
	states := make(map[string]string)
	if clientState == "" {
		return states
	}
	for _, entry := range strings.Split(clientState, "&") {
		parts := strings.Split(entry, "=")
		if len(parts) != 2 {
			continue
		}
		value, err := url.PathUnescape(parts[1])
		if err != nil {
			value = parts[1]
		}
		states[parts[0]] = value
	}
	return states
}

// AppStateFrom extracts the application state from a returned state value.
func AppStateFrom(clientState string) string {
	return DecodeAppRequestStates(clientState)[appStateKey]
}

// Escape percent-encodes s as a URI component. Spaces become %20.
func Escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

type orderedQuery struct {
	parts []string
}

func newOrderedQuery() *orderedQuery {
	return &orderedQuery{}
}

func (q *orderedQuery) add(key, value string) {
	q.parts = append(q.parts, key+"="+Escape(value))
}

func (q *orderedQuery) encode() string {
	return strings.Join(q.parts, "&")
}
