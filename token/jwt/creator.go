package jwt

import (
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Creator mints authentication tokens in the Live Connect format.
// Providers and test harnesses use it; clients only ever verify.
type Creator struct {
	signer Signer
}

// NewCreator creates a Creator signing with secret under keyID.
func NewCreator(secret string, keyID int) *Creator {
	return &Creator{
		signer: NewHMACSigner(secret, keyID),
	}
}

// CreateAuthenticationToken creates a token for userID that expires after lifetime.
func (c *Creator) CreateAuthenticationToken(userID, clientID string, lifetime time.Duration) (string, error) {
	return c.Create(Claims{
		UserID:             userID,
		ExpirationUnixTime: NowTimeFunc().Add(lifetime).Unix(),
		Issuer:             "urn:windows:liveid",
		Audience:           clientID,
		Version:            "1",
		ClientIdentifier:   clientID,
		AppID:              clientID,
	})
}

// Create signs claims. Empty string claims are omitted.
func (c *Creator) Create(claims Claims) (string, error) {
	mapClaims := jwtlib.MapClaims{
		ClaimExpiration: claims.ExpirationUnixTime,
	}
	for key, value := range map[string]string{
		ClaimUserID:           claims.UserID,
		ClaimIssuer:           claims.Issuer,
		ClaimAudience:         claims.Audience,
		ClaimVersion:          claims.Version,
		ClaimClientIdentifier: claims.ClientIdentifier,
		ClaimAppID:            claims.AppID,
	} {
		if value != "" {
			mapClaims[key] = value
		}
	}

	token, err := c.signer.Sign(mapClaims)
	if err != nil {
		return "", fmt.Errorf("failed to create authentication token: %w", err)
	}
	return token, nil
}
