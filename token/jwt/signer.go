package jwt

import (
	"crypto/sha256"
	"fmt"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// signingKeySuffix is appended to the application secret before hashing it into the HMAC key.
const signingKeySuffix = "JWTSig"

// Signer is an interface for signing and verifying authentication tokens
type Signer interface {
	// Sign creates a signed token from claims
	Sign(claims jwtlib.MapClaims) (string, error)

	// GetVerificationKey returns the key used to check the signature of token
	GetVerificationKey(token *jwtlib.Token) (any, error)

	// GetSigningMethod returns the JWT signing method used
	GetSigningMethod() jwtlib.SigningMethod
}

// HMACSigner implements Signer with HMAC-SHA256 keyed by SigningKey(secret).
type HMACSigner struct {
	keyID int
	key   []byte
}

var _ Signer = (*HMACSigner)(nil)

// NewHMACSigner creates a signer for secret, stamping keyID into the token envelope.
func NewHMACSigner(secret string, keyID int) *HMACSigner {
	return &HMACSigner{
		keyID: keyID,
		key:   SigningKey(secret),
	}
}

// SigningKey derives the HMAC key from an application secret: SHA256(secret + "JWTSig").
func SigningKey(secret string) []byte {
	sum := sha256.Sum256([]byte(secret + signingKeySuffix))
	return sum[:]
}

func (h *HMACSigner) Sign(claims jwtlib.MapClaims) (string, error) {
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	token.Header["typ"] = TypeJWT
	token.Header["kid"] = h.keyID
	signedToken, err := token.SignedString(h.key)
	if err != nil {
		return "", fmt.Errorf("failed to sign token with HMAC: %w", err)
	}
	return signedToken, nil
}

func (h *HMACSigner) GetVerificationKey(token *jwtlib.Token) (any, error) {
	if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return h.key, nil
}

func (h *HMACSigner) GetSigningMethod() jwtlib.SigningMethod {
	return jwtlib.SigningMethodHS256
}
