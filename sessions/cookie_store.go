package sessions

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/pkg/errors"
)

// DefaultCookieName is the name of the auth state cookie.
const DefaultCookieName = "wl_auth"

var _ auth.StateStore = (*CookieStore)(nil)

// CookieStore keeps the login state of one request in a cookie.
// Create one per request; it is not meant to be shared.
type CookieStore struct {
	w       http.ResponseWriter
	r       *http.Request
	name    string
	path    string
	secure  bool
	codec   *securecookie.SecureCookie
	nowFunc func() time.Time

	written bool
	value   string // last value written during this request, "" after Clear
}

type CookieOption func(*CookieStore)

func WithCookieName(name string) CookieOption {
	return func(cs *CookieStore) {
		if name != "" {
			cs.name = name
		}
	}
}

func WithCookiePath(path string) CookieOption {
	return func(cs *CookieStore) {
		cs.path = path
	}
}

// WithSecure marks the cookie Secure.
func WithSecure(secure bool) CookieOption {
	return func(cs *CookieStore) {
		cs.secure = secure
	}
}

// WithCodec signs (and with a block key, encrypts) the cookie value.
func WithCodec(codec *securecookie.SecureCookie) CookieOption {
	return func(cs *CookieStore) {
		cs.codec = codec
	}
}

// WithNowFunc sets the clock used for request_ts (primarily for testing)
func WithNowFunc(now func() time.Time) CookieOption {
	return func(cs *CookieStore) {
		cs.nowFunc = now
	}
}

// NewCodec returns a securecookie codec, or nil when hashKey is empty.
// blockKey may be empty for signing only; otherwise it must be 16, 24 or 32 bytes.
func NewCodec(hashKey, blockKey []byte) *securecookie.SecureCookie {
	if len(hashKey) == 0 {
		return nil
	}
	if len(blockKey) == 0 {
		blockKey = nil
	}
	return securecookie.New(hashKey, blockKey)
}

func NewCookieStore(w http.ResponseWriter, r *http.Request, options ...CookieOption) *CookieStore {
	cs := &CookieStore{
		w:       w,
		r:       r,
		name:    DefaultCookieName,
		path:    "/",
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(cs)
	}
	return cs
}

// Load returns the stored result, or nil when there is no cookie.
func (cs *CookieStore) Load(_ context.Context) (*oauth2.LoginResult, error) {
	state, err := cs.LoadState()
	if err != nil || state == nil {
		return nil, err
	}
	return state.Result, nil
}

// LoadState is Load including the time the state was written.
func (cs *CookieStore) LoadState() (*State, error) {
	value, err := cs.read()
	if err != nil || value == "" {
		return nil, err
	}
	return Decode(value)
}

func (cs *CookieStore) Save(_ context.Context, result *oauth2.LoginResult) error {
	value := Encode(result, cs.nowFunc().UTC())
	cookieValue := value
	if cs.codec != nil {
		encoded, err := cs.codec.Encode(cs.name, value)
		if err != nil {
			return errors.Wrap(err, "[CookieStore.Save] failed to encode cookie")
		}
		cookieValue = encoded
	}

	http.SetCookie(cs.w, cs.cookie(cookieValue, 0))
	cs.written, cs.value = true, value
	return nil
}

// Clear expires the cookie. It is safe to call when there is none.
func (cs *CookieStore) Clear(_ context.Context) error {
	http.SetCookie(cs.w, cs.cookie("", -1))
	cs.written, cs.value = true, ""
	return nil
}

func (cs *CookieStore) read() (string, error) {
	if cs.written {
		return cs.value, nil
	}
	c, err := cs.r.Cookie(cs.name)
	if errors.Is(err, http.ErrNoCookie) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "[CookieStore.read]")
	}
	if cs.codec == nil {
		return c.Value, nil
	}

	var value string
	if err := cs.codec.Decode(cs.name, c.Value, &value); err != nil {
		return "", errors.Wrapf(liveerrors.ErrInvalidState, "[CookieStore.read] %v", err)
	}
	return value, nil
}

func (cs *CookieStore) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     cs.name,
		Value:    value,
		Path:     cs.path,
		MaxAge:   maxAge,
		Secure:   cs.secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}
