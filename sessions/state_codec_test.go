package sessions_test

import (
	"testing"
	"time"

	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/sessions"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

func connectedResult() *oauth2.LoginResult {
	return oauth2.NewConnectedResult(&oauth2.Session{
		AccessToken:         "EwA=+/x",
		AuthenticationToken: "eyJ.eyJ.sig",
		RefreshToken:        "rt 1",
		Scopes:              []string{"wl.signin", "wl.basic"},
		ExpiresAt:           testNow.Add(time.Hour),
	}, "")
}

func TestEncode(t *testing.T) {
	t.Run("connected", func(t *testing.T) {
		require.Equal(t,
			"access_token=EwA%3D%2B%2Fx&authentication_token=eyJ.eyJ.sig&refresh_token=rt%201&scope=wl.signin%20wl.basic"+
				"&expires_in=3600&expires=1792069200&status=connected&request_ts=1792065600",
			sessions.Encode(connectedResult(), testNow))
	})

	t.Run("not connected with error", func(t *testing.T) {
		result := oauth2.NewNotConnectedResult(oauth2.NewAuthError("invalid_grant", "token expired"), "")
		require.Equal(t,
			"status=notConnected&error=invalid_grant&error_description=token%20expired",
			sessions.Encode(result, time.Time{}))
	})

	t.Run("expired session has no negative lifetime", func(t *testing.T) {
		value := sessions.Encode(connectedResult(), testNow.Add(2*time.Hour))
		require.Contains(t, value, "&expires_in=0&")
	})
}

func TestDecode(t *testing.T) {
	t.Run("reverses encode", func(t *testing.T) {
		state, err := sessions.Decode(sessions.Encode(connectedResult(), testNow))
		require.NoError(t, err)
		require.Equal(t, testNow, state.RequestTime)
		require.Equal(t, connectedResult(), state.Result)
	})

	t.Run("expires_in counted from request_ts", func(t *testing.T) {
		state, err := sessions.Decode("access_token=at&expires_in=60&status=connected&request_ts=1792065600")
		require.NoError(t, err)
		require.Equal(t, testNow.Add(time.Minute), state.Result.Session.ExpiresAt)
	})

	t.Run("error only", func(t *testing.T) {
		state, err := sessions.Decode("status=notConnected&error=access_denied")
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusNotConnected, state.Result.Status)
		require.Nil(t, state.Result.Session)
		require.Equal(t, "access_denied", state.Result.Error.Code)
		require.True(t, state.RequestTime.IsZero())
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		state, err := sessions.Decode("foo=bar&status=expired")
		require.NoError(t, err)
		require.Equal(t, oauth2.StatusExpired, state.Result.Status)
	})

	for name, value := range map[string]string{
		"no separator":   "access_token",
		"bad escape":     "access_token=%zz",
		"bad expires":    "access_token=at&expires=soon",
		"bad request_ts": "request_ts=yesterday",
		"bad expires_in": "access_token=at&expires_in=x&request_ts=1",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := sessions.Decode(value)
			require.ErrorIs(t, err, liveerrors.ErrInvalidState)
		})
	}
}
