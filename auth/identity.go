package auth

import (
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/jwt"
)

// checkIdentity makes sure next belongs to the same user as the current session and the stored
// refresh token record. It returns the uid of next, or "" when it cannot be determined.
// Without a verifier nothing is checked.
func (c *Client) checkIdentity(next, current *oauth2.Session, record *oauth2.RefreshTokenInfo) (string, error) {
	if c.verifier == nil || next == nil || next.AuthenticationToken == "" {
		return "", nil
	}

	userID, err := c.verifier.UserID(next.AuthenticationToken)
	if err != nil {
		c.logger.Err(err).Msg("new authentication token failed verification")
		return "", oauth2.NewAuthError(oauth2.ErrorCodeInvalidRequest, "the authentication token could not be verified")
	}

	if current != nil && current.AuthenticationToken != "" {
		currentID, err := c.verifier.UserID(current.AuthenticationToken)
		if err == nil && currentID != userID {
			c.logger.Warn().Msg("new session belongs to a different user than the current session")
			return "", oauth2.NewAuthError(oauth2.ErrorCodeInvalidRequest, "the new session belongs to a different user")
		}
	}
	if record != nil && record.UserID != "" && record.UserID != userID {
		c.logger.Warn().Msg("new session belongs to a different user than the stored refresh token")
		return "", oauth2.NewAuthError(oauth2.ErrorCodeInvalidRequest, "the new session belongs to a different user")
	}
	return userID, nil
}

// userIDOf returns the uid claim of session's authentication token, verified when a verifier is configured.
func (c *Client) userIDOf(session *oauth2.Session) (string, error) {
	if session == nil || session.AuthenticationToken == "" {
		return "", nil
	}
	if c.verifier != nil {
		return c.verifier.UserID(session.AuthenticationToken)
	}
	t, err := jwt.ParseUnverified(session.AuthenticationToken)
	if err != nil {
		return "", err
	}
	return t.Claims.UserID, nil
}
