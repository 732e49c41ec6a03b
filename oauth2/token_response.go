package oauth2

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
)

// TokenResponse represents the response from the provider's token endpoint.
// It is populated from the decoded JSON object by explicit field lookups (see TokenResponseFromMap).
type TokenResponse struct {
	// AccessToken is the opaque bearer token used to access the REST API.
	// Required on success. Its absence is a provider contract violation and is not validated here.
	AccessToken string

	// AuthenticationToken is the signed JWT carrying the user id ("uid" claim).
	// Only present: when wl.signin was granted
	AuthenticationToken *string

	// RefreshToken is the long-lived credential.
	// Only present: when wl.offline_access was granted
	RefreshToken *string

	// ExpiresIn is the lifetime in seconds of the access token.
	// The provider sends either a JSON number or a numeric string; both are accepted.
	ExpiresIn *int

	// Scope is the space or comma separated list of granted scopes.
	Scope string

	// Error is the provider error code. When set no other field is meaningful.
	// Example: "invalid_grant"
	Error string

	// ErrorDescription is the optional human readable text accompanying Error.
	ErrorDescription string
}

// TokenResponseFromMap builds a TokenResponse from a decoded JSON object.
func TokenResponseFromMap(values map[string]any) (*TokenResponse, error) {
	tr := &TokenResponse{
		AccessToken:      stringValue(values, "access_token"),
		Scope:            scopeValue(values, "scope"),
		Error:            stringValue(values, "error"),
		ErrorDescription: stringValue(values, "error_description"),
	}
	if tr.HasError() {
		return tr, nil
	}
	tr.AuthenticationToken = optionalString(values, "authentication_token")
	tr.RefreshToken = optionalString(values, "refresh_token")
	if raw, ok := values["expires_in"]; ok && raw != nil {
		expiresIn, err := parseExpiresIn(raw)
		if err != nil {
			return nil, err
		}
		tr.ExpiresIn = &expiresIn
	}
	return tr, nil
}

// HasError reports whether the provider returned an error payload.
func (tr *TokenResponse) HasError() bool {
	return tr.Error != ""
}

// AuthError converts an error payload into an AuthError.
func (tr *TokenResponse) AuthError() *AuthError {
	return NewAuthError(tr.Error, tr.ErrorDescription)
}

// Session converts a successful response into a Session, with expiry measured from receivedAt.
func (tr *TokenResponse) Session(receivedAt time.Time) *Session {
	s := &Session{
		AccessToken:         tr.AccessToken,
		AuthenticationToken: stringOrEmpty(tr.AuthenticationToken),
		RefreshToken:        stringOrEmpty(tr.RefreshToken),
		Scopes:              scope.Parse(tr.Scope),
		ExpiresAt:           receivedAt,
	}
	if tr.ExpiresIn != nil {
		s.ExpiresAt = receivedAt.Add(time.Duration(*tr.ExpiresIn) * time.Second)
	}
	return s
}

func stringValue(values map[string]any, key string) string {
	v, _ := values[key].(string)
	return v
}

// optionalString returns nil when key is missing, empty or not a string.
func optionalString(values map[string]any, key string) *string {
	v, ok := values[key].(string)
	if !ok || v == "" {
		return nil
	}
	return &v
}

func stringOrEmpty(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// scopeValue accepts the scope either as a delimited string or as a JSON array.
func scopeValue(values map[string]any, key string) string {
	switch v := values[key].(type) {
	case string:
		return v
	case []any:
		scopes := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				scopes = append(scopes, s)
			}
		}
		return scope.Serialize(scopes)
	}
	return ""
}

func parseExpiresIn(raw any) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("expires_in is not an integer: %v", v)
		}
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("expires_in is not an integer: %s", v)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("expires_in is not numeric: %q", v)
		}
		return n, nil
	}
	return 0, fmt.Errorf("expires_in has unexpected type %T", raw)
}
