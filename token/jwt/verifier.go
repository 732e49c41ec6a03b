// Package jwt verifies and creates the HS256 authentication tokens issued by Live Connect.
package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// Envelope values accepted by the verifier.
const (
	TypeJWT        = "JWT"
	AlgorithmHS256 = "HS256"
)

// Claim names used by Live Connect authentication tokens.
const (
	ClaimUserID           = "uid"
	ClaimExpiration       = "exp"
	ClaimIssuer           = "iss"
	ClaimAudience         = "aud"
	ClaimVersion          = "ver"
	ClaimClientIdentifier = "urn:microsoft:appuri:appid"
	ClaimAppID            = "urn:microsoft:appid"
)

// ErrInvalidFormat is wrapped by every verification failure.
var ErrInvalidFormat = errors.New("invalid token format")

// Envelope is the decoded token header.
type Envelope struct {
	Type      string
	Algorithm string
	KeyID     int
}

// Claims is the decoded token payload.
type Claims struct {
	UserID             string
	ExpirationUnixTime int64
	Issuer             string
	Audience           string
	Version            string
	ClientIdentifier   string
	AppID              string
}

// ExpiresAt returns the expiration as a time.
func (c Claims) ExpiresAt() time.Time {
	return time.Unix(c.ExpirationUnixTime, 0).UTC()
}

// IsExpired reports whether the expiration lies before the current UTC time.
// Verify does not check expiry, callers decide how to treat an expired token.
func (c Claims) IsExpired() bool {
	return c.ExpirationUnixTime < NowTimeFunc().UTC().Unix()
}

// Token is a verified authentication token.
type Token struct {
	Raw      string
	Envelope Envelope
	Claims   Claims
}

// Verifier checks token envelopes and signatures against one secret or a set of secrets keyed by key id.
type Verifier struct {
	signer  *HMACSigner         // single secret mode, key id ignored
	signers map[int]*HMACSigner // keyed mode
	parser  *jwtlib.Parser
}

// NewVerifier creates a verifier for a single application secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{
		signer: NewHMACSigner(secret, 0),
		parser: newParser(),
	}
}

// NewKeyedVerifier creates a verifier that selects the secret by the envelope's key id.
func NewKeyedVerifier(secrets map[int]string) *Verifier {
	signers := make(map[int]*HMACSigner, len(secrets))
	for keyID, secret := range secrets {
		signers[keyID] = NewHMACSigner(secret, keyID)
	}
	return &Verifier{
		signers: signers,
		parser:  newParser(),
	}
}

func newParser() *jwtlib.Parser {
	return jwtlib.NewParser(
		jwtlib.WithValidMethods([]string{AlgorithmHS256}),
		jwtlib.WithStrictDecoding(),
		jwtlib.WithPaddingAllowed(),
		jwtlib.WithoutClaimsValidation(),
	)
}

// KeyIDs returns the key ids known to a keyed verifier, sorted.
func (v *Verifier) KeyIDs() []int {
	ids := make([]int, 0, len(v.signers))
	for id := range v.signers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Verify parses raw, validates its envelope and signature, and returns the decoded token.
func (v *Verifier) Verify(raw string) (*Token, error) {
	if raw == "" {
		return nil, formatError("token is empty")
	}
	segments := strings.Split(raw, ".")
	if len(segments) != 3 {
		return nil, formatError("expected 3 segments, got %d", len(segments))
	}
	for i, segment := range segments {
		if segment == "" {
			return nil, formatError("segment %d is empty", i+1)
		}
	}

	var envelope Envelope
	parsed, err := v.parser.Parse(raw, func(t *jwtlib.Token) (any, error) {
		env, err := parseEnvelope(t.Header)
		if err != nil {
			return nil, err
		}
		envelope = env
		signer, err := v.signerFor(env.KeyID)
		if err != nil {
			return nil, err
		}
		return signer.GetVerificationKey(t)
	})
	if err != nil {
		return nil, formatError("%v", err)
	}
	// envelope and claims may arrive padded; the signature must match its unpadded encoding exactly
	if !parsed.Valid || base64.RawURLEncoding.EncodeToString(parsed.Signature) != segments[2] {
		return nil, formatError("signature is invalid")
	}

	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, formatError("error extracting claims from token")
	}

	return &Token{
		Raw:      raw,
		Envelope: envelope,
		Claims:   claimsFromMap(mapClaims),
	}, nil
}

// UserID verifies raw and returns its uid claim.
func (v *Verifier) UserID(raw string) (string, error) {
	t, err := v.Verify(raw)
	if err != nil {
		return "", err
	}
	return t.Claims.UserID, nil
}

// ParseUnverified decodes raw without checking its signature.
// Only for clients that hold no secret; the result must not be used to make trust decisions.
func ParseUnverified(raw string) (*Token, error) {
	parsed, _, err := jwtlib.NewParser().ParseUnverified(raw, jwtlib.MapClaims{})
	if err != nil {
		return nil, formatError("%v", err)
	}
	envelope, err := parseEnvelope(parsed.Header)
	if err != nil {
		return nil, formatError("%v", err)
	}
	mapClaims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, formatError("error extracting claims from token")
	}
	return &Token{Raw: raw, Envelope: envelope, Claims: claimsFromMap(mapClaims)}, nil
}

func (v *Verifier) signerFor(keyID int) (*HMACSigner, error) {
	if v.signers == nil {
		return v.signer, nil
	}
	signer, ok := v.signers[keyID]
	if !ok {
		return nil, fmt.Errorf("no secret for key id %d", keyID)
	}
	return signer, nil
}

func parseEnvelope(header map[string]any) (Envelope, error) {
	typ, _ := header["typ"].(string)
	alg, _ := header["alg"].(string)
	if typ != TypeJWT {
		return Envelope{}, fmt.Errorf("unsupported token type %q", typ)
	}
	if alg != AlgorithmHS256 {
		return Envelope{}, fmt.Errorf("unsupported algorithm %q", alg)
	}
	keyID, err := intValue(header["kid"])
	if err != nil {
		return Envelope{}, fmt.Errorf("invalid key id: %w", err)
	}
	return Envelope{Type: typ, Algorithm: alg, KeyID: keyID}, nil
}

func claimsFromMap(claims jwtlib.MapClaims) Claims {
	str := func(key string) string {
		s, _ := claims[key].(string)
		return s
	}
	exp, _ := intValue(claims[ClaimExpiration])
	return Claims{
		UserID:             str(ClaimUserID),
		ExpirationUnixTime: int64(exp),
		Issuer:             str(ClaimIssuer),
		Audience:           str(ClaimAudience),
		Version:            str(ClaimVersion),
		ClientIdentifier:   str(ClaimClientIdentifier),
		AppID:              str(ClaimAppID),
	}
}

// intValue accepts the numeric forms a JSON decoder produces plus numeric strings.
// A missing value is treated as 0.
func intValue(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case float64:
		return int(n), nil
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case string:
		return strconv.Atoi(n)
	}
	return 0, fmt.Errorf("unexpected type %T", v)
}

func formatError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFormat, fmt.Sprintf(format, args...))
}
