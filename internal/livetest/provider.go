// Package livetest runs an in-process authorization server that speaks the Live Connect
// authorize and token endpoints, for tests and local demos.
package livetest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/jwt"
	"github.com/pkg/errors"
)

const (
	contentTypeJSON = "application/json"
	authorizePath   = "/oauth20_authorize.srf"
	tokenPath       = "/oauth20_token.srf"
	logoutPath      = "/oauth20_logout.srf"

	// DefaultUserID is the user that consents when no other user was selected.
	DefaultUserID = "8c8ce076ca27823f"
)

type grant struct {
	userID string
	scopes []string
}

// Provider is a fake authorization server. Codes are single use; refresh tokens stay valid until revoked.
type Provider struct {
	server       *httptest.Server
	clientID     string
	clientSecret string
	creator      *jwt.Creator
	lifetime     time.Duration

	lock          sync.Mutex
	user          string
	deny          bool
	grantable     []string // nil grants everything requested
	codes         map[string]grant
	refreshTokens map[string]grant
	tokenRequests int
}

// NewProvider starts a provider for one client registration. Authentication tokens are signed
// with clientSecret, so a verifier built from the same secret accepts them.
func NewProvider(clientID, clientSecret string) *Provider {
	p := &Provider{
		clientID:      clientID,
		clientSecret:  clientSecret,
		creator:       jwt.NewCreator(clientSecret, 0),
		lifetime:      time.Hour,
		user:          DefaultUserID,
		codes:         make(map[string]grant),
		refreshTokens: make(map[string]grant),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+authorizePath, p.Authorize())
	mux.HandleFunc("POST "+tokenPath, p.Token())
	mux.HandleFunc("GET "+logoutPath, p.Logout())
	p.server = httptest.NewServer(mux)
	return p
}

// URL is the provider's base url, suitable for endpoints.New.
func (p *Provider) URL() string {
	return p.server.URL
}

// Endpoints builds urls against the provider.
func (p *Provider) Endpoints() *endpoints.Builder {
	return endpoints.New(p.server.URL)
}

func (p *Provider) Close() {
	p.server.Close()
}

// SignInAs selects the user that consents on the authorize page.
func (p *Provider) SignInAs(userID string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.user = userID
}

// DenyConsent makes the authorize page answer access_denied.
func (p *Provider) DenyConsent(deny bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.deny = deny
}

// LimitScopes caps what any later grant can contain.
func (p *Provider) LimitScopes(scopes ...string) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.grantable = scopes
}

// IssueCode registers an authorization code as if userID had consented to scopes.
func (p *Provider) IssueCode(userID string, scopes ...string) string {
	p.lock.Lock()
	defer p.lock.Unlock()
	code := "M" + uuid.NewString()
	p.codes[code] = grant{userID: userID, scopes: scopes}
	return code
}

// IssueRefreshToken registers a refresh token for userID.
func (p *Provider) IssueRefreshToken(userID string, scopes ...string) string {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.newRefreshToken(grant{userID: userID, scopes: scopes})
}

// RevokeRefreshTokens makes every refresh token answer invalid_grant.
func (p *Provider) RevokeRefreshTokens() {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.refreshTokens = make(map[string]grant)
}

// TokenRequests returns how many requests reached the token endpoint.
func (p *Provider) TokenRequests() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.tokenRequests
}

// ConsentUI follows the authorize url without a browser and returns the redirect it ends on.
func (p *Provider) ConsentUI() auth.ConsentUI {
	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return auth.ConsentUIFunc(func(ctx context.Context, authorizeURL string) (string, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, authorizeURL, nil)
		if err != nil {
			return "", errors.Wrap(err, "[Provider.ConsentUI]")
		}
		resp, err := client.Do(req)
		if err != nil {
			return "", errors.Wrap(err, "[Provider.ConsentUI]")
		}
		defer resp.Body.Close()
		location := resp.Header.Get("Location")
		if location == "" {
			return "", errors.Errorf("[Provider.ConsentUI] authorize page answered %d without a redirect", resp.StatusCode)
		}
		return location, nil
	})
}

// Authorize consents on behalf of the selected user and redirects back with a code.
func (p *Provider) Authorize() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		redirect, err := url.Parse(q.Get("redirect_uri"))
		if err != nil || !redirect.IsAbs() {
			http.Error(w, "invalid redirect_uri", http.StatusBadRequest)
			return
		}

		values := redirect.Query()
		p.lock.Lock()
		switch {
		case q.Get("client_id") != p.clientID:
			values.Set("error", "unauthorized_client")
			values.Set("error_description", "The client does not exist.")
		case p.deny:
			values.Set("error", oauth2.ErrorCodeAccessDenied)
			values.Set("error_description", "The user has denied access to the scope requested by the client application.")
		default:
			code := "M" + uuid.NewString()
			p.codes[code] = grant{userID: p.user, scopes: scope.Parse(q.Get("scope"))}
			values.Set("code", code)
		}
		p.lock.Unlock()

		if state := q.Get("state"); state != "" {
			values.Set("state", state)
		}
		redirect.RawQuery = values.Encode()
		http.Redirect(w, r, redirect.String(), http.StatusFound)
	}
}

// Token redeems codes and refresh tokens.
func (p *Provider) Token() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p.lock.Lock()
		defer p.lock.Unlock()
		p.tokenRequests++

		if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			writeJSONError(w, oauth2.ErrorCodeInvalidRequest, "The request body must be form encoded.", http.StatusBadRequest)
			return
		}
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, oauth2.ErrorCodeInvalidRequest, "Failed to parse form data", http.StatusBadRequest)
			return
		}
		if r.PostForm.Get("client_id") != p.clientID {
			writeJSONError(w, "unauthorized_client", "The client does not exist.", http.StatusBadRequest)
			return
		}
		if secret := r.PostForm.Get("client_secret"); secret != "" && secret != p.clientSecret {
			writeJSONError(w, "invalid_client", "The client secret is incorrect.", http.StatusUnauthorized)
			return
		}

		var g grant
		var ok bool
		switch oauth2.GrantType(r.PostForm.Get("grant_type")) {
		case oauth2.AuthorizationCodeGrant:
			code := r.PostForm.Get("code")
			if g, ok = p.codes[code]; !ok {
				writeJSONError(w, oauth2.ErrorCodeInvalidGrant, "The provided value for the 'code' parameter is not valid.", http.StatusBadRequest)
				return
			}
			delete(p.codes, code)
		case oauth2.RefreshTokenGrant:
			if g, ok = p.refreshTokens[r.PostForm.Get("refresh_token")]; !ok {
				writeJSONError(w, oauth2.ErrorCodeInvalidGrant, "The provided value for the input parameter 'refresh_token' is not valid.", http.StatusBadRequest)
				return
			}
			if requested := scope.Parse(r.PostForm.Get("scope")); len(requested) > 0 {
				if !scope.IsSubsetOf(requested, g.scopes) {
					writeJSONError(w, oauth2.ErrorCodeInvalidScope, "The requested scope exceeds the original grant.", http.StatusBadRequest)
					return
				}
				g.scopes = requested
			}
		default:
			writeJSONError(w, "unsupported_grant_type", "The grant type is not supported.", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Pragma", "no-cache")
		_ = json.NewEncoder(w).Encode(p.tokenResponse(p.limit(g)))
	}
}

// Logout redirects to redirect_uri, or answers 200 without one.
func (p *Provider) Logout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if redirect := r.URL.Query().Get("redirect_uri"); redirect != "" {
			http.Redirect(w, r, redirect, http.StatusFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}
}

func (p *Provider) limit(g grant) grant {
	if p.grantable == nil {
		return g
	}
	var scopes []string
	for _, s := range g.scopes {
		if scope.IsSubsetOf([]string{s}, p.grantable) {
			scopes = append(scopes, s)
		}
	}
	return grant{userID: g.userID, scopes: scopes}
}

func (p *Provider) tokenResponse(g grant) map[string]any {
	resp := map[string]any{
		"token_type":   "bearer",
		"access_token": "EwA" + uuid.NewString(),
		"expires_in":   int(p.lifetime / time.Second),
		"scope":        scope.Serialize(g.scopes),
	}
	if scope.IsSubsetOf([]string{scope.SignIn}, g.scopes) {
		if raw, err := p.creator.CreateAuthenticationToken(g.userID, p.clientID, p.lifetime); err == nil {
			resp["authentication_token"] = raw
		}
	}
	if scope.IsSubsetOf([]string{scope.OfflineAccess}, g.scopes) {
		resp["refresh_token"] = p.newRefreshToken(g)
	}
	return resp
}

// newRefreshToken must be called with the lock held.
func (p *Provider) newRefreshToken(g grant) string {
	rt := "MCf" + uuid.NewString()
	p.refreshTokens[rt] = g
	return rt
}

func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}

// NewExchanger returns a token client pointed at the provider over real HTTP.
func (p *Provider) NewExchanger() *token.Client {
	return token.NewClient(token.NewHTTPTransport(token.WithHTTPClient(p.server.Client())), p.Endpoints())
}
