package token

import (
	"github.com/google/go-querystring/query"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
)

// AuthorizationCodeRequest is the form body of the authorization code grant.
type AuthorizationCodeRequest struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	ClientSecret string `url:"client_secret,omitempty"` // confidential clients only
	Code         string `url:"code"`
	GrantType    string `url:"grant_type"`
}

// RefreshTokenRequest is the form body of the refresh token grant.
type RefreshTokenRequest struct {
	ClientID     string `url:"client_id"`
	RedirectURI  string `url:"redirect_uri"`
	ClientSecret string `url:"client_secret,omitempty"`
	RefreshToken string `url:"refresh_token"`
	GrantType    string `url:"grant_type"`

	// Space separated scopes. Omitted to keep the scopes of the original grant.
	Scope string `url:"scope,omitempty"`
}

func NewAuthorizationCodeRequest(clientID, clientSecret, redirectURL, code string) AuthorizationCodeRequest {
	return AuthorizationCodeRequest{
		ClientID:     clientID,
		RedirectURI:  redirectURL,
		ClientSecret: clientSecret,
		Code:         code,
		GrantType:    string(oauth2.AuthorizationCodeGrant),
	}
}

func NewRefreshTokenRequest(clientID, clientSecret, redirectURL, refreshToken, scope string) RefreshTokenRequest {
	return RefreshTokenRequest{
		ClientID:     clientID,
		RedirectURI:  redirectURL,
		ClientSecret: clientSecret,
		RefreshToken: refreshToken,
		GrantType:    string(oauth2.RefreshTokenGrant),
		Scope:        scope,
	}
}

// encodeForm encodes a tagged request struct as an x-www-form-urlencoded body.
func encodeForm(req any) (string, error) {
	vals, err := query.Values(req)
	if err != nil {
		return "", err
	}
	return vals.Encode(), nil
}
