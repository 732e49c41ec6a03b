package auth

import (
	"net/url"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/pkg/errors"
)

// Config describes the application registration.
type Config struct {
	ClientID     string
	ClientSecret string   // empty for public (desktop) clients
	RedirectURL  string   // must match the registration
	Scopes       []string // used when an operation is given no scopes

	Display oauth2.DisplayType
	Theme   oauth2.ThemeType
	Locale  string
}

// Validate checks the fields the flows cannot work without.
func (c Config) Validate() error {
	if c.ClientID == "" {
		return ErrMissingClientID
	}
	if c.RedirectURL == "" {
		return nil
	}
	u, err := url.Parse(c.RedirectURL)
	if err != nil {
		return errors.Wrap(ErrInvalidRedirect, err.Error())
	}
	if !u.IsAbs() || u.Host == "" {
		return errors.Wrapf(ErrInvalidRedirect, "%q is not absolute", c.RedirectURL)
	}
	if u.Fragment != "" {
		return errors.Wrapf(ErrInvalidRedirect, "%q has a fragment", c.RedirectURL)
	}
	return nil
}
