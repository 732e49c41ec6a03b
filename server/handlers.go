package server

import (
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/auth"
	"github.com/liveservices/LiveSDK-for-Windows-sub001/oauth2"
)

const (
	contentTypeJSON = "application/json"
	contentTypeHTML = "text/html; charset=utf-8"
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>{{.AppName}}</title></head>
<body>
<h1>{{.AppName}}</h1>
<p>Status: {{.Status}}</p>
{{if .UserID}}<p>Signed in as {{.UserID}} ({{.Scopes}})</p>
<p><a href="/me">Session</a> | <a href="/logout">Sign out</a></p>
{{else}}<p><a href="/login">Sign in</a></p>{{end}}
{{if .Error}}<p>Error: {{.Error}}</p>{{end}}
</body>
</html>
`))

// IndexHandler restores the session from the cookie or the refresh token and shows it.
func (s *Server) IndexHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.authClient(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		data := map[string]any{
			"AppName": s.config.GetAppName(),
			"Status":  oauth2.StatusNotConnected.String(),
		}
		result, err := client.Initialize(r.Context(), nil)
		switch {
		case err != nil:
			s.logger.Err(err).Msg("failed to restore session")
			data["Error"] = err.Error()
		case result.Status == oauth2.StatusConnected:
			data["Status"] = result.Status.String()
			data["Scopes"] = result.Session.Scopes
			if userID, err := client.UserID(); err == nil {
				data["UserID"] = userID
			}
		default:
			data["Status"] = result.Status.String()
			if result.Error != nil {
				data["Error"] = result.Error.Error()
			}
		}

		w.Header().Set("Content-Type", contentTypeHTML)
		_ = indexTemplate.Execute(w, data)
	}
}

// LoginHandler sends the browser to the consent page with a fresh app state.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.authClient(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		appState := uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     loginStateCookie,
			Value:    appState,
			Path:     RouteCallback,
			MaxAge:   int((10 * time.Minute) / time.Second),
			Secure:   s.config.GetSecureCookies(),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, client.AuthorizeURL(nil, appState), http.StatusFound)
	}
}

// CallbackHandler redeems the code on the redirect url.
func (s *Server) CallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect, err := auth.ParseRedirect(r.URL.String())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		expected, err := r.Cookie(loginStateCookie)
		if err != nil || expected.Value == "" || expected.Value != redirect.AppState {
			http.Error(w, "unexpected login state", http.StatusBadRequest)
			return
		}
		http.SetCookie(w, &http.Cookie{Name: loginStateCookie, Path: RouteCallback, MaxAge: -1})

		switch {
		case redirect.Error == oauth2.ErrorCodeAccessDenied:
			http.Redirect(w, r, RouteIndex, http.StatusFound)
			return
		case redirect.Error != "":
			http.Error(w, oauth2.NewAuthError(redirect.Error, redirect.ErrorDescription).Error(), http.StatusBadRequest)
			return
		case redirect.Code == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		client, err := s.authClient(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if _, err := client.ExchangeAuthCode(r.Context(), redirect.Code, redirect.AppState); err != nil {
			s.logger.Err(err).Msg("code exchange failed")
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Redirect(w, r, RouteIndex, http.StatusFound)
	}
}

type meResponse struct {
	UserID    string    `json:"user_id,omitempty"`
	Scopes    []string  `json:"scopes"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MeHandler describes the current session without exposing its tokens.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.authClient(w, r)
		if err != nil {
			writeJSONError(w, oauth2.ErrorCodeServerError, err.Error(), http.StatusInternalServerError)
			return
		}
		result, err := client.Initialize(r.Context(), nil)
		if err != nil {
			writeJSONError(w, oauth2.ErrorCodeServerError, err.Error(), http.StatusBadGateway)
			return
		}
		if result.Status != oauth2.StatusConnected {
			writeJSONError(w, oauth2.ErrorCodeSessionExpired, "not signed in", http.StatusUnauthorized)
			return
		}

		resp := meResponse{Scopes: result.Session.Scopes, ExpiresAt: result.Session.ExpiresAt}
		resp.UserID, _ = client.UserID()
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// LogoutHandler drops the session and signs the user out at the provider.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := s.authClient(w, r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if err := client.ClearSession(r.Context()); err != nil {
			s.logger.Err(err).Msg("failed to clear session")
		}
		http.Redirect(w, r, client.LogoutURL(), http.StatusFound)
	}
}

// writeJSONError writes an OAuth2 style error response
func writeJSONError(w http.ResponseWriter, errorCode, description string, statusCode int) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             errorCode,
		"error_description": description,
	})
}
