// Package sessions keeps the web login state in a cookie.
package sessions

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
	"github.com/pkg/errors"
)

// Cookie sub-keys, in the order they are written.
const (
	KeyAccessToken         = "access_token"
	KeyAuthenticationToken = "authentication_token"
	KeyRefreshToken        = "refresh_token"
	KeyScope               = "scope"
	KeyExpiresIn           = "expires_in"
	KeyExpires             = "expires"
	KeyStatus              = "status"
	KeyError               = "error"
	KeyErrorDescription    = "error_description"
	KeyRequestTime         = "request_ts"
)

// State is the decoded cookie.
type State struct {
	Result      *oauth2.LoginResult
	RequestTime time.Time // when the state was written, zero if the cookie had no request_ts
}

// Encode writes result as key=value pairs joined by '&', each value escaped on its own.
// expires_in is counted from requestTime. Empty values are left out.
func Encode(result *oauth2.LoginResult, requestTime time.Time) string {
	if result == nil {
		result = &oauth2.LoginResult{}
	}

	var parts []string
	add := func(key, value string) {
		if value != "" {
			parts = append(parts, key+"="+endpoints.Escape(value))
		}
	}

	if s := result.Session; s != nil {
		add(KeyAccessToken, s.AccessToken)
		add(KeyAuthenticationToken, s.AuthenticationToken)
		add(KeyRefreshToken, s.RefreshToken)
		add(KeyScope, scope.Serialize(s.Scopes))
		if !s.ExpiresAt.IsZero() {
			expiresIn := int64(s.ExpiresAt.Sub(requestTime) / time.Second)
			if expiresIn < 0 {
				expiresIn = 0
			}
			add(KeyExpiresIn, strconv.FormatInt(expiresIn, 10))
			add(KeyExpires, strconv.FormatInt(s.ExpiresAt.Unix(), 10))
		}
	}
	add(KeyStatus, result.Status.String())
	if result.Error != nil {
		add(KeyError, result.Error.Code)
		add(KeyErrorDescription, result.Error.Description)
	}
	if !requestTime.IsZero() {
		add(KeyRequestTime, strconv.FormatInt(requestTime.Unix(), 10))
	}
	return strings.Join(parts, "&")
}

// Decode parses a value written by Encode. Unknown keys are ignored.
// A session is only rebuilt when the cookie carries an access token.
func Decode(value string) (*State, error) {
	values := make(map[string]string)
	for _, entry := range strings.Split(value, "&") {
		if entry == "" {
			continue
		}
		key, raw, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, errors.Wrapf(liveerrors.ErrInvalidState, "[Decode] malformed entry %q", entry)
		}
		v, err := url.PathUnescape(raw)
		if err != nil {
			return nil, errors.Wrapf(liveerrors.ErrInvalidState, "[Decode] %s: %v", key, err)
		}
		values[key] = v
	}

	state := &State{Result: &oauth2.LoginResult{Status: oauth2.ParseLoginStatus(values[KeyStatus])}}
	if raw := values[KeyRequestTime]; raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, errors.Wrapf(liveerrors.ErrInvalidState, "[Decode] %s: %v", KeyRequestTime, err)
		}
		state.RequestTime = time.Unix(ts, 0).UTC()
	}

	if code := values[KeyError]; code != "" {
		state.Result.Error = oauth2.NewAuthError(code, values[KeyErrorDescription])
	}

	if values[KeyAccessToken] == "" {
		return state, nil
	}
	expiresAt, err := expiry(values, state.RequestTime)
	if err != nil {
		return nil, err
	}
	state.Result.Session = &oauth2.Session{
		AccessToken:         values[KeyAccessToken],
		AuthenticationToken: values[KeyAuthenticationToken],
		RefreshToken:        values[KeyRefreshToken],
		Scopes:              scope.Parse(values[KeyScope]),
		ExpiresAt:           expiresAt,
	}
	return state, nil
}

// expiry prefers the absolute expires value and falls back to request_ts + expires_in.
func expiry(values map[string]string, requestTime time.Time) (time.Time, error) {
	if raw := values[KeyExpires]; raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, errors.Wrapf(liveerrors.ErrInvalidState, "[Decode] %s: %v", KeyExpires, err)
		}
		return time.Unix(ts, 0).UTC(), nil
	}
	if raw := values[KeyExpiresIn]; raw != "" && !requestTime.IsZero() {
		seconds, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return time.Time{}, errors.Wrapf(liveerrors.ErrInvalidState, "[Decode] %s: %v", KeyExpiresIn, err)
		}
		return requestTime.Add(time.Duration(seconds) * time.Second), nil
	}
	return time.Time{}, nil
}
