// Package guard decides what to do with a page request given the
// current session state. The decision logic is a pure function over a
// small state struct so every combination can be tested directly; the
// HTTP wiring that acts on a decision lives with the handlers.
package guard

// State is everything the guard is allowed to look at: whether the
// session is authenticated, whether session resolution is still in
// flight, and the requested path.
type State struct {
	Authenticated bool
	Loading       bool
	Path          string
}

// Decision is the guard's verdict for one request.
type Decision int

const (
	// Render serves the requested page.
	Render Decision = iota
	// RenderLoading serves a neutral loading page; the session state
	// is not yet known, so neither redirect may fire.
	RenderLoading
	// RedirectToLogin sends an unauthenticated visitor to /login.
	RedirectToLogin
	// RedirectToHome bounces an already-signed-in visitor off /login.
	RedirectToHome
)

// String returns the decision name for logs.
func (d Decision) String() string {
	switch d {
	case Render:
		return "render"
	case RenderLoading:
		return "render_loading"
	case RedirectToLogin:
		return "redirect_to_login"
	case RedirectToHome:
		return "redirect_to_home"
	}
	return "unknown"
}

// LoginPath is the only public page; everything else requires a
// session.
const LoginPath = "/login"

// HomePath is where authenticated visitors land.
const HomePath = "/"

// Decide maps a session state and path to exactly one decision. Total
// over its inputs and evaluated in a fixed order:
//
//  1. Loading wins over everything. While the session is still being
//     resolved no redirect may fire, in either direction, or a slow
//     Redis round trip would bounce signed-in users to /login.
//  2. An authenticated visitor on /login is sent home.
//  3. An unauthenticated visitor anywhere else is sent to /login.
//  4. Otherwise the page renders.
func Decide(s State) Decision {
	if s.Loading {
		return RenderLoading
	}
	if s.Path == LoginPath {
		if s.Authenticated {
			return RedirectToHome
		}
		return Render
	}
	if !s.Authenticated {
		return RedirectToLogin
	}
	return Render
}
