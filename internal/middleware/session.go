package middleware

import (
	"context"
	"net/http"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/internal/services"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/rs/zerolog/log"
)

type contextKey string

// SessionKey is the context key under which the resolved session is
// stored.
const SessionKey contextKey = "session"

// sessionUnresolvedKey marks requests whose session state could not be
// determined (store unreachable). The route guard treats these as
// still loading instead of bouncing the user to /login.
const sessionUnresolvedKey contextKey = "session_unresolved"

// ResolveSession loads the session behind the request's cookie and
// stores it in the context. Every request gets a session object, even
// an unauthenticated one; deciding what an unauthenticated session may
// do is RequireSession's and the route guard's job, not this
// middleware's. A Redis failure degrades to an unauthenticated session
// rather than a 500, so the login page stays reachable during an
// outage.
func ResolveSession(sessions *services.SessionService, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var sid string
			if cookie, err := r.Cookie(cookieName); err == nil {
				sid = cookie.Value
			}

			ctx := r.Context()
			session, err := sessions.Resolve(ctx, sid)
			if err != nil {
				log.Error().
					Err(err).
					Str("request_id", utils.GetRequestID(ctx)).
					Msg("Session resolution failed")
				session = &models.Session{ID: sid}
				ctx = context.WithValue(ctx, sessionUnresolvedKey, true)
			}

			ctx = context.WithValue(ctx, SessionKey, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects requests whose session is not authenticated.
// Mounted on the /api subtree; page routes use the route guard
// instead, which redirects rather than rejects.
func RequireSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := GetSession(r.Context())
			if !session.Authenticated() {
				utils.RespondWithError(w, r, http.StatusUnauthorized, "Sign in to continue")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SessionUnresolved reports whether session resolution failed for this
// request, leaving its real state unknown.
func SessionUnresolved(ctx context.Context) bool {
	unresolved, _ := ctx.Value(sessionUnresolvedKey).(bool)
	return unresolved
}

// GetSession returns the session stored by ResolveSession. Safe to
// call on any request: when the middleware never ran it returns an
// empty, unauthenticated session.
func GetSession(ctx context.Context) *models.Session {
	if session, ok := ctx.Value(SessionKey).(*models.Session); ok && session != nil {
		return session
	}
	return &models.Session{}
}
