package oauth2

// ResponseType represents the OAuth 2.0 response type.
// Determines what is returned from the authorization endpoint.
type ResponseType string

const (
	// CodeResponseType indicates the authorization code flow.
	// Used in: Authorization Code Flow (web apps, desktop apps with a redirect page)
	// Returns an authorization code that must be exchanged for tokens at the token endpoint.
	// Example: /oauth20_authorize.srf?client_id=...&response_type=code
	CodeResponseType ResponseType = "code"

	// TokenResponseType indicates the implicit flow.
	// Used in: Browser-only clients that cannot keep a client secret
	// Returns the access token directly in the redirect fragment.
	TokenResponseType ResponseType = "token"
)

// GrantType represents the OAuth 2.0 grant type used at the token endpoint.
// Determines what credentials are required to obtain tokens.
type GrantType string

const (
	// AuthorizationCodeGrant exchanges an authorization code for tokens.
	// Used in: Standard Authorization Code Flow
	// Token request includes: client_id, redirect_uri, client_secret (optional), code
	// Returns: access_token, authentication_token, refresh_token (with wl.offline_access)
	AuthorizationCodeGrant GrantType = "authorization_code"

	// RefreshTokenGrant exchanges a refresh token for new tokens.
	// Used in: Token refresh flow (get new access token without re-prompting the user)
	// Token request includes: client_id, redirect_uri, client_secret (optional), refresh_token, scope (optional)
	// Returns: new access_token, authentication_token and possibly a rotated refresh_token
	RefreshTokenGrant GrantType = "refresh_token"
)

// DisplayType controls how the consent page is rendered by the provider.
type DisplayType string

const (
	// PageDisplay renders a full page consent screen. This is the default.
	PageDisplay DisplayType = "page"

	// PopupDisplay renders a consent screen sized for a popup window.
	PopupDisplay DisplayType = "popup"

	// TouchDisplay renders a consent screen for touch devices.
	TouchDisplay DisplayType = "touch"

	// NoneDisplay asks the provider not to render any UI.
	// The request fails if the user has not already consented.
	NoneDisplay DisplayType = "none"
)

// ThemeType selects the color theme of the consent page.
type ThemeType string

const (
	// NoTheme omits the theme parameter entirely.
	NoTheme ThemeType = "none"

	// DarkTheme asks the provider for a dark consent page.
	DarkTheme ThemeType = "dark"

	// LightTheme asks the provider for a light consent page.
	LightTheme ThemeType = "light"
)

// LoginStatus is the connection state reported by every authentication operation.
type LoginStatus int

const (
	// StatusUnknown means no operation has completed yet.
	StatusUnknown LoginStatus = iota

	// StatusConnected means a valid session with the requested scopes is available.
	StatusConnected

	// StatusNotConnected means there is no usable session for the caller.
	// This includes the user declining consent and a session that lacks requested scopes.
	StatusNotConnected

	// StatusExpired means a session existed but its access token expired and could not be renewed.
	StatusExpired
)

func (s LoginStatus) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusNotConnected:
		return "notConnected"
	case StatusExpired:
		return "expired"
	}
	return "unknown"
}

// ParseLoginStatus is the inverse of LoginStatus.String. Unrecognised values map to StatusUnknown.
func ParseLoginStatus(s string) LoginStatus {
	switch s {
	case "connected":
		return StatusConnected
	case "notConnected":
		return StatusNotConnected
	case "expired":
		return StatusExpired
	}
	return StatusUnknown
}
