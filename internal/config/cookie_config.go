package config

const (
	cookieNameVar     = "LIVE_COOKIE_NAME"
	cookieHashKeyVar  = "LIVE_COOKIE_HASH_KEY"
	cookieBlockKeyVar = "LIVE_COOKIE_BLOCK_KEY"
)

// CookieConfig configures the web auth state cookie.
type CookieConfig interface {
	GetCookieName() string
	GetCookieHashKey() []byte
	GetCookieBlockKey() []byte
	GetSecureCookies() bool
}

type Cookie struct{}

var _ CookieConfig = Cookie{}

func (Cookie) GetCookieName() string {
	return GetEnv(cookieNameVar, "wl_auth")
}

// GetCookieHashKey returns nil when cookies are not signed.
func (Cookie) GetCookieHashKey() []byte {
	return bytesOrNil(GetEnv(cookieHashKeyVar, ""))
}

// GetCookieBlockKey returns nil when cookies are not encrypted. It must be 16, 24 or 32 bytes.
func (Cookie) GetCookieBlockKey() []byte {
	return bytesOrNil(GetEnv(cookieBlockKeyVar, ""))
}

// GetSecureCookies is true outside development.
func (Cookie) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() != "DEV"
}

func bytesOrNil(s string) []byte {
	if s == "" {
		return nil
	}
	return []byte(s)
}
