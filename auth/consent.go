package auth

import (
	"net/url"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	"github.com/pkg/errors"
)

// Redirect is what the provider appended to the redirect url at the end of the consent flow.
type Redirect struct {
	Code             string
	Error            string
	ErrorDescription string
	AppState         string
	States           map[string]string // decoded state parameter
}

// ParseRedirect reads the query of the final redirect url. Parameters in the fragment
// (token response type) are used for keys the query does not carry.
func ParseRedirect(raw string) (*Redirect, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidRedirect, err.Error())
	}
	values := u.Query()
	if u.Fragment != "" {
		if fragment, err := url.ParseQuery(u.Fragment); err == nil {
			for key, v := range fragment {
				if _, ok := values[key]; !ok {
					values[key] = v
				}
			}
		}
	}

	state := values.Get("state")
	return &Redirect{
		Code:             values.Get("code"),
		Error:            values.Get("error"),
		ErrorDescription: values.Get("error_description"),
		AppState:         endpoints.AppStateFrom(state),
		States:           endpoints.DecodeAppRequestStates(state),
	}, nil
}
