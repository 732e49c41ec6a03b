// Package server is the web demo: it signs users in with the authorization code flow and keeps
// their login state in a cookie.
package server

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/securecookie"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/endpoints"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/internal/config"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/sessions"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/token/refresh"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env        string // Environment (e.g., "DEV", "PROD")
	mux        *http.ServeMux
	routes     []string
	config     config.Config
	urls       *endpoints.Builder
	exchanger  auth.TokenExchanger
	tokenStore auth.TokenStore
	codec      *securecookie.SecureCookie
	logger     zerolog.Logger
}

type ServerOption func(*Server)

// WithExchanger replaces the HTTP token client (primarily for testing)
func WithExchanger(exchanger auth.TokenExchanger) ServerOption {
	return func(s *Server) {
		s.exchanger = exchanger
	}
}

func WithTokenStore(store auth.TokenStore) ServerOption {
	return func(s *Server) {
		s.tokenStore = store
	}
}

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

func New(c config.Config, options ...ServerOption) (*Server, error) {
	s := &Server{
		env:    c.GetEnv(),
		mux:    http.NewServeMux(),
		config: c,
		urls:   endpoints.New(c.GetAuthHost()),
		codec:  sessions.NewCodec(c.GetCookieHashKey(), c.GetCookieBlockKey()),
		logger: log.Logger,
	}
	for _, opt := range options {
		opt(s)
	}

	if s.exchanger == nil {
		transport := token.NewHTTPTransport(token.WithTimeout(c.GetHTTPTimeout()))
		s.exchanger = token.NewClient(transport, s.urls, token.WithLogger(s.logger))
	}
	if s.tokenStore == nil {
		store, err := openTokenStore(c)
		if err != nil {
			return nil, fmt.Errorf("[Server New] failed to open the token store: %w", err)
		}
		s.tokenStore = store
	}
	if err := s.authConfig().Validate(); err != nil {
		return nil, fmt.Errorf("[Server New] invalid client registration: %w", err)
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func openTokenStore(c config.Config) (auth.TokenStore, error) {
	kind := c.GetTokenStore()
	if kind != refresh.KindMemory {
		if err := os.MkdirAll(c.GetDataFolder(), 0o700); err != nil {
			return nil, errors.Wrap(err, "[openTokenStore] failed to create the data folder")
		}
	}
	return refresh.Open(kind, c.GetDataFolder(), c.GetClientID(), c.GetTokenPassphrase())
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) authConfig() auth.Config {
	return auth.Config{
		ClientID:     s.config.GetClientID(),
		ClientSecret: s.config.GetClientSecret(),
		RedirectURL:  s.config.GetRedirectURL(),
		Scopes:       s.config.GetScopes(),
	}
}

// authClient builds the session state machine for one request; its state lives in the request's cookie.
func (s *Server) authClient(w http.ResponseWriter, r *http.Request) (*auth.Client, error) {
	store := sessions.NewCookieStore(w, r,
		sessions.WithCookieName(s.config.GetCookieName()),
		sessions.WithCodec(s.codec),
		sessions.WithSecure(s.config.GetSecureCookies()),
	)
	return auth.NewClient(s.authConfig(), s.exchanger,
		auth.WithEndpoints(s.urls),
		auth.WithTokenStore(s.tokenStore),
		auth.WithStateStore(store),
		auth.WithLogger(s.logger),
	)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	s.logger.Info().Msgf("[%-19s] %s", displayMethod, path)
}
