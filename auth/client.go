// Package auth owns the login state of one application instance and drives the
// authorization code and refresh token flows.
package auth

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	liveerrors "github.com/liveservices/LiveSDK-for-Windows-sub001/internal/errors"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/scope"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/jwt"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SessionChangedHandler is called once per operation that changed the session or status.
// session is nil unless status is StatusConnected.
type SessionChangedHandler func(status oauth2.LoginStatus, session *oauth2.Session)

// Client is the session state machine of one application instance.
//
// Initialize, ExchangeAuthCode and Login are single flight: while one of them runs, the
// others fail immediately with ErrOperationPending. They block on the token endpoint
// round trip, which is the only network call they make.
type Client struct {
	config     Config
	exchanger  TokenExchanger
	urls       *endpoints.Builder
	tokenStore TokenStore // optional
	consentUI  ConsentUI  // optional, required by Login
	stateStore StateStore // optional, web variant
	verifier   *jwt.Verifier
	nowFunc    func() time.Time
	logger     zerolog.Logger
	onChange   SessionChangedHandler

	pending atomic.Bool

	lock    sync.RWMutex
	session *oauth2.Session
	status  oauth2.LoginStatus
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*Client)

func WithTokenStore(store TokenStore) ClientOption {
	return func(c *Client) {
		c.tokenStore = store
	}
}

func WithConsentUI(ui ConsentUI) ClientOption {
	return func(c *Client) {
		c.consentUI = ui
	}
}

func WithStateStore(store StateStore) ClientOption {
	return func(c *Client) {
		c.stateStore = store
	}
}

// WithVerifier sets the verifier used for identity continuity checks.
// By default a verifier is derived from the client secret; public clients have none.
func WithVerifier(verifier *jwt.Verifier) ClientOption {
	return func(c *Client) {
		c.verifier = verifier
	}
}

// WithNowFunc sets the now time function (primarily for testing)
func WithNowFunc(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowFunc = now
	}
}

func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithSessionChangedHandler(handler SessionChangedHandler) ClientOption {
	return func(c *Client) {
		c.onChange = handler
	}
}

// WithEndpoints sets the builder for the authorize and logout urls.
func WithEndpoints(urls *endpoints.Builder) ClientOption {
	return func(c *Client) {
		c.urls = urls
	}
}

// NewClient initializes a Client for the registration in config.
func NewClient(config Config, exchanger TokenExchanger, options ...ClientOption) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "[NewClient] invalid config")
	}
	if exchanger == nil {
		return nil, errors.Wrap(ErrMissingExchanger, "[NewClient]")
	}

	c := &Client{
		config:    config,
		exchanger: exchanger,
		urls:      endpoints.New(""),
		nowFunc:   time.Now,
		logger:    log.Logger,
		status:    oauth2.StatusUnknown,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.verifier == nil && config.ClientSecret != "" {
		c.verifier = jwt.NewVerifier(config.ClientSecret)
	}
	return c, nil
}

// outcome is the state an operation settles on before it is committed.
type outcome struct {
	result  *oauth2.LoginResult
	session *oauth2.Session // newly obtained session, also when the result was downgraded
	userID  string          // owner of session, for the refresh token record
	persist bool            // session carries new tokens
	clear   bool            // persisted state must be erased
}

// Initialize restores the session from memory or persisted state, refreshing it when needed.
// When scopes are given and the session was not granted all of them the result is NotConnected.
func (c *Client) Initialize(ctx context.Context, scopes []string) (*oauth2.LoginResult, error) {
	if !c.begin() {
		return nil, ErrOperationPending
	}
	defer c.end()

	c.logger.Debug().Strs("scopes", scopes).Msg("initialize")
	out, err := c.resolve(ctx, scopes)
	if err != nil {
		c.logger.Err(err).Msg("initialize failed")
		return nil, err
	}
	return c.commit(ctx, out), nil
}

// ExchangeAuthCode redeems the code returned to the redirect url and makes the result the current session.
// Failures are *oauth2.AuthError values carrying appState.
func (c *Client) ExchangeAuthCode(ctx context.Context, code, appState string) (*oauth2.Session, error) {
	if !c.begin() {
		return nil, ErrOperationPending
	}
	defer c.end()

	out, err := c.exchangeCode(ctx, code, appState, nil, false)
	if err != nil {
		c.logger.Err(err).Msg("exchange auth code failed")
		return nil, err
	}
	return c.commit(ctx, out).Session, nil
}

// Login returns the current session when one can be restored silently, otherwise it shows the
// consent page and exchanges the returned code. A user declining consent gives a NotConnected result.
func (c *Client) Login(ctx context.Context, scopes []string, appState string) (*oauth2.LoginResult, error) {
	if !c.begin() {
		return nil, ErrOperationPending
	}
	defer c.end()

	out, err := c.resolve(ctx, scopes)
	var stale *outcome // persisted state to erase in the same commit as the consent outcome
	switch {
	case err != nil:
		c.logger.Err(err).Msg("silent login failed, falling back to consent")
	case out.result.Status == oauth2.StatusConnected:
		out.result.AppState = appState
		return c.commit(ctx, out), nil
	case out.clear:
		stale = out
	}
	fail := func(err error) (*oauth2.LoginResult, error) {
		if stale != nil {
			c.commit(ctx, stale)
		}
		return nil, err
	}

	if c.consentUI == nil {
		return fail(ErrNoConsentUI)
	}
	finalURL, err := c.consentUI.Show(ctx, c.AuthorizeURL(scopes, appState))
	if err != nil {
		return fail(oauth2.NewAuthError(oauth2.ErrorCodeClientError, err.Error()).WithAppState(appState))
	}
	redirect, err := ParseRedirect(finalURL)
	if err != nil {
		return fail(oauth2.NewAuthError(oauth2.ErrorCodeClientError, err.Error()).WithAppState(appState))
	}
	if redirect.AppState != "" {
		appState = redirect.AppState
	}

	switch {
	case redirect.Error == oauth2.ErrorCodeAccessDenied:
		c.logger.Debug().Msg("consent declined")
		return c.commit(ctx, &outcome{result: oauth2.NewNotConnectedResult(nil, appState), clear: stale != nil}), nil
	case redirect.Error != "":
		return fail(oauth2.NewAuthError(redirect.Error, redirect.ErrorDescription).WithAppState(appState))
	case redirect.Code == "":
		return fail(oauth2.NewAuthError(oauth2.ErrorCodeServerError, "the redirect carried neither a code nor an error").WithAppState(appState))
	}

	exchanged, err := c.exchangeCode(ctx, redirect.Code, appState, scopes, stale != nil)
	if err != nil {
		return fail(err)
	}
	return c.commit(ctx, exchanged), nil
}

// ClearSession drops the session and erases persisted state. It is safe to call repeatedly.
func (c *Client) ClearSession(ctx context.Context) error {
	c.lock.Lock()
	c.session = nil
	c.status = oauth2.StatusNotConnected
	c.lock.Unlock()

	err := c.erase(ctx)
	c.notify(oauth2.StatusNotConnected, nil)
	return err
}

// Session returns a copy of the current session, or nil.
func (c *Client) Session() *oauth2.Session {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.session.Clone()
}

func (c *Client) Status() oauth2.LoginStatus {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.status
}

// AuthorizeURL returns the consent page url. Empty scopes fall back to the configured ones.
func (c *Client) AuthorizeURL(scopes []string, appState string) string {
	return c.urls.AuthorizeURL(endpoints.AuthorizeParams{
		ClientID:    c.config.ClientID,
		RedirectURL: c.config.RedirectURL,
		Scopes:      c.scopesOrDefault(scopes),
		Display:     c.config.Display,
		Theme:       c.config.Theme,
		Locale:      c.config.Locale,
		State:       appState,
	})
}

func (c *Client) LogoutURL() string {
	return c.urls.LogoutURLFor(c.config.ClientID, c.config.RedirectURL)
}

// UserID returns the uid claim of the current session's authentication token.
// An expired authentication token gives a session_expired AuthError.
func (c *Client) UserID() (string, error) {
	s := c.Session()
	if s == nil {
		return "", errors.Wrap(liveerrors.ErrSessionNotFound, "[Client.UserID]")
	}
	if s.AuthenticationToken == "" {
		return "", errors.Wrap(liveerrors.ErrNotFound, "[Client.UserID] session has no authentication token")
	}

	var t *jwt.Token
	var err error
	if c.verifier != nil {
		t, err = c.verifier.Verify(s.AuthenticationToken)
	} else {
		t, err = jwt.ParseUnverified(s.AuthenticationToken)
	}
	if err != nil {
		return "", errors.Wrap(err, "[Client.UserID]")
	}
	if t.Claims.ExpirationUnixTime < c.nowFunc().UTC().Unix() {
		return "", oauth2.NewAuthError(oauth2.ErrorCodeSessionExpired, "the authentication token has expired")
	}
	return t.Claims.UserID, nil
}

func (c *Client) begin() bool {
	return c.pending.CompareAndSwap(false, true)
}

func (c *Client) end() {
	c.pending.Store(false)
}

func (c *Client) currentSession() *oauth2.Session {
	c.lock.RLock()
	defer c.lock.RUnlock()
	return c.session
}

func (c *Client) scopesOrDefault(scopes []string) []string {
	if n := scope.Normalize(scopes); len(n) > 0 {
		return n
	}
	return scope.Normalize(c.config.Scopes)
}

// resolve works out the session without user interaction.
func (c *Client) resolve(ctx context.Context, scopes []string) (*outcome, error) {
	now := c.nowFunc()
	current := c.currentSession()

	var out *outcome
	var err error
	switch {
	case current != nil && current.IsValid(now):
		out = &outcome{result: oauth2.NewConnectedResult(current, ""), session: current}
	case current != nil && current.RefreshToken != "":
		out, err = c.refresh(ctx, current.RefreshToken, current, nil, scopes)
	case current != nil:
		out = &outcome{result: &oauth2.LoginResult{Status: oauth2.StatusExpired}}
	default:
		out, err = c.loadPersisted(ctx, scopes)
	}
	if err != nil {
		return nil, err
	}

	c.validateScopes(out, scopes)
	return out, nil
}

// loadPersisted restores state from the state store, then from the token store.
// A session found in the state store is the identity a refreshed session must match.
func (c *Client) loadPersisted(ctx context.Context, scopes []string) (*outcome, error) {
	corrupt := false
	var baseline *oauth2.Session
	if c.stateStore != nil {
		persisted, err := c.stateStore.Load(ctx)
		switch {
		case err != nil:
			c.logger.Err(err).Msg("ignoring unreadable session state")
			corrupt = true
		case persisted != nil && persisted.Session != nil:
			s := persisted.Session
			if persisted.Status == oauth2.StatusConnected && s.IsValid(c.nowFunc()) {
				return &outcome{result: oauth2.NewConnectedResult(s, ""), session: s}, nil
			}
			if s.RefreshToken != "" {
				return c.refresh(ctx, s.RefreshToken, s, nil, scopes)
			}
			baseline = s
		}
	}

	if c.tokenStore != nil {
		record, err := c.tokenStore.RetrieveRefreshToken(ctx)
		if err != nil {
			c.logger.Err(err).Msg("failed to retrieve refresh token")
		} else if record != nil && record.RefreshToken != "" {
			return c.refresh(ctx, record.RefreshToken, baseline, record, scopes)
		}
	}
	return &outcome{result: oauth2.NewNotConnectedResult(nil, ""), clear: corrupt}, nil
}

// refresh redeems refreshToken. A rejection of a scope set wider than sign-in is retried once
// with sign-in only; a rejection that remains ends in NotConnected with persisted state erased.
// The new session must belong to the same user as baseline and record.
func (c *Client) refresh(ctx context.Context, refreshToken string, baseline *oauth2.Session, record *oauth2.RefreshTokenInfo, scopes []string) (*outcome, error) {
	requested := c.scopesOrDefault(scopes)
	session, err := c.exchanger.RefreshAccessToken(ctx, c.config.ClientID, c.config.ClientSecret, c.config.RedirectURL, refreshToken, requested)
	if err != nil && isRejection(err) && len(requested) > 0 && !scope.IsBaseline(requested) {
		c.logger.Debug().Err(err).Msg("refresh rejected, retrying with the sign-in scope only")
		session, err = c.exchanger.RefreshAccessToken(ctx, c.config.ClientID, c.config.ClientSecret, c.config.RedirectURL, refreshToken, []string{scope.SignIn})
	}
	if err != nil {
		if authErr, ok := oauth2.AsAuthError(err); ok && isRejection(err) {
			c.logger.Debug().Str("error", authErr.Code).Msg("refresh token rejected, clearing session")
			return &outcome{result: oauth2.NewNotConnectedResult(authErr, ""), clear: true}, nil
		}
		return nil, err
	}

	if session.RefreshToken == "" {
		session.RefreshToken = refreshToken
	}
	if record == nil {
		record = c.storedRecord(ctx)
	}
	userID, err := c.checkIdentity(session, baseline, record)
	if err != nil {
		return nil, err
	}
	return &outcome{result: oauth2.NewConnectedResult(session, ""), session: session, userID: userID, persist: true}, nil
}

// exchangeCode redeems code. With stale set the persisted state is being discarded, so it is
// neither checked against nor kept.
func (c *Client) exchangeCode(ctx context.Context, code, appState string, scopes []string, stale bool) (*outcome, error) {
	session, err := c.exchanger.ExchangeAuthorizationCode(ctx, c.config.ClientID, c.config.ClientSecret, c.config.RedirectURL, code)
	if err != nil {
		return nil, withAppState(err, appState)
	}

	var baseline *oauth2.Session
	var record *oauth2.RefreshTokenInfo
	if !stale {
		baseline, record = c.identityBaseline(ctx), c.storedRecord(ctx)
	}
	userID, err := c.checkIdentity(session, baseline, record)
	if err != nil {
		return nil, withAppState(err, appState)
	}

	out := &outcome{result: oauth2.NewConnectedResult(session, appState), session: session, userID: userID, persist: true, clear: stale}
	c.validateScopes(out, scopes)
	return out, nil
}

// identityBaseline returns the cached session, or the session held by the state store when nothing is cached.
func (c *Client) identityBaseline(ctx context.Context) *oauth2.Session {
	if current := c.currentSession(); current != nil {
		return current
	}
	if c.stateStore == nil {
		return nil
	}
	persisted, err := c.stateStore.Load(ctx)
	if err != nil || persisted == nil {
		return nil
	}
	return persisted.Session
}

// validateScopes downgrades a connected result whose session lacks any requested scope.
func (c *Client) validateScopes(out *outcome, scopes []string) {
	requested := scope.Normalize(scopes)
	if len(requested) == 0 || out.result.Status != oauth2.StatusConnected {
		return
	}
	if out.result.Session.HasScopes(requested) {
		return
	}
	c.logger.Debug().Strs("requested", requested).Strs("granted", out.result.Session.Scopes).Msg("session lacks requested scopes")
	out.result = oauth2.NewNotConnectedResult(nil, out.result.AppState)
}

func (c *Client) storedRecord(ctx context.Context) *oauth2.RefreshTokenInfo {
	if c.tokenStore == nil {
		return nil
	}
	record, err := c.tokenStore.RetrieveRefreshToken(ctx)
	if err != nil {
		c.logger.Err(err).Msg("failed to retrieve refresh token record")
		return nil
	}
	return record
}

// commit makes out the current state, persists it and notifies once if anything changed.
func (c *Client) commit(ctx context.Context, out *outcome) *oauth2.LoginResult {
	result := out.result

	c.lock.Lock()
	changed := c.status != result.Status || c.session != result.Session
	c.session = result.Session
	c.status = result.Status
	c.lock.Unlock()

	c.persist(ctx, out)
	if changed {
		c.notify(result.Status, result.Session)
	}

	return &oauth2.LoginResult{
		Status:   result.Status,
		Session:  result.Session.Clone(),
		Error:    result.Error,
		AppState: result.AppState,
	}
}

// persist writes out's session. When out also clears, the new state overwrites the old
// and a refresh token record the new session cannot replace is deleted.
func (c *Client) persist(ctx context.Context, out *outcome) {
	if !out.persist {
		if out.clear {
			_ = c.erase(ctx)
		}
		return
	}

	if c.stateStore != nil {
		if err := c.stateStore.Save(ctx, out.result); err != nil {
			c.logger.Err(err).Msg("failed to save session state")
		}
	}
	if c.tokenStore != nil && out.session != nil && out.session.RefreshToken != "" {
		userID := out.userID
		if userID == "" {
			userID, _ = c.userIDOf(out.session)
		}
		info := &oauth2.RefreshTokenInfo{RefreshToken: out.session.RefreshToken, UserID: userID}
		if err := c.tokenStore.SaveRefreshToken(ctx, info); err != nil {
			c.logger.Err(err).Msg("failed to save refresh token")
		}
	} else if c.tokenStore != nil && out.clear {
		if err := c.tokenStore.DeleteRefreshToken(ctx); err != nil {
			c.logger.Err(err).Msg("failed to delete refresh token")
		}
	}
}

func (c *Client) erase(ctx context.Context) error {
	var first error
	if c.stateStore != nil {
		if err := c.stateStore.Clear(ctx); err != nil {
			c.logger.Err(err).Msg("failed to clear session state")
			first = errors.Wrap(err, "[Client.erase] state store")
		}
	}
	if c.tokenStore != nil {
		if err := c.tokenStore.DeleteRefreshToken(ctx); err != nil {
			c.logger.Err(err).Msg("failed to delete refresh token")
			if first == nil {
				first = errors.Wrap(err, "[Client.erase] token store")
			}
		}
	}
	return first
}

func (c *Client) notify(status oauth2.LoginStatus, session *oauth2.Session) {
	if c.onChange != nil {
		c.onChange(status, session.Clone())
	}
}

// isRejection reports whether the provider refused the grant itself, as opposed to a transport or server failure.
func isRejection(err error) bool {
	return oauth2.IsAuthErrorCode(err, oauth2.ErrorCodeInvalidGrant) ||
		oauth2.IsAuthErrorCode(err, oauth2.ErrorCodeAccessDenied) ||
		oauth2.IsAuthErrorCode(err, oauth2.ErrorCodeInvalidScope)
}

func withAppState(err error, appState string) error {
	if authErr, ok := oauth2.AsAuthError(err); ok {
		return authErr.WithAppState(appState)
	}
	return oauth2.NewAuthError(oauth2.ErrorCodeClientError, err.Error()).WithAppState(appState)
}
