package server

// Route path constants
const (
	RouteIndex    = "/"
	RouteLogin    = "/login"
	RouteCallback = "/callback"
	RouteMe       = "/me"
	RouteLogout   = "/logout"
)

// loginStateCookie holds the app state of a pending login until the callback.
const loginStateCookie = "wl_login_state"
