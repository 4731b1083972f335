// Package handlers wires the console's HTTP surface: the /api JSON
// endpoints consumed by the dashboard, the guard-gated page routes,
// and the health and metrics endpoints.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/internal/services"
	"github.com/GrandGaleTechnologies/docops-console/internal/upstream"
	"github.com/GrandGaleTechnologies/docops-console/pkg/config"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// SessionManager is the slice of the session service the auth handler
// uses.
type SessionManager interface {
	Login(ctx context.Context, creds upstream.Credentials, deviceInfo, ipAddress string) (*models.Session, error)
	Logout(ctx context.Context, sid string) error
	UpdateUser(ctx context.Context, sid string, user *models.AuthUser) error
	ListSessions(ctx context.Context, userID int64) ([]models.Session, error)
	RevokeSession(ctx context.Context, sid string) error
}

// ProfileAPI covers the platform profile endpoints the handler proxies
// directly.
type ProfileAPI interface {
	Me(ctx context.Context, token string) (*models.AuthUser, error)
	Register(ctx context.Context, reg upstream.Registration) (*upstream.LoginResult, error)
}

// CachePurger empties the query cache when a session ends.
type CachePurger interface {
	PurgeAll(ctx context.Context)
}

// AuthHandler serves login, logout, profile and session-management
// endpoints.
type AuthHandler struct {
	sessions SessionManager
	profile  ProfileAPI
	purger   CachePurger
	session  config.SessionConfig
	isProd   bool
}

// NewAuthHandler creates an auth handler.
func NewAuthHandler(sessions SessionManager, profile ProfileAPI, purger CachePurger, sessionCfg config.SessionConfig, isProd bool) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		profile:  profile,
		purger:   purger,
		session:  sessionCfg,
		isProd:   isProd,
	}
}

// sessionResponse is what the dashboard reads on boot to decide which
// page to show.
type sessionResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *models.AuthUser `json:"user,omitempty"`
}

// Session reports the current session state. Never an error: an
// unauthenticated browser gets {"authenticated": false}, not a 401,
// because the dashboard needs the answer either way.
//
// GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	utils.RespondWithJSON(w, r, http.StatusOK, sessionResponse{
		Authenticated: session.Authenticated(),
		User:          session.User,
	})
}

// Login exchanges credentials for a console session. On success the
// session cookie is set and the user returned; the tokens stay
// server-side.
//
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds upstream.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	creds.Email = strings.TrimSpace(creds.Email)
	if creds.Email == "" || creds.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	// If the browser already holds a session, end it first so a
	// re-login never leaves an orphaned session behind.
	if old := middleware.GetSession(r.Context()); old.ID != "" {
		if err := h.sessions.Logout(r.Context(), old.ID); err != nil {
			log.Warn().Err(err).Str("session_id", old.ID).Msg("Failed to end previous session")
		}
	}

	session, err := h.sessions.Login(r.Context(), creds,
		services.ExtractDeviceInfo(r.UserAgent()), utils.ExtractClientIP(r))
	if err != nil {
		middleware.IncrementLoginAttempts("failure")
		respondUpstreamError(w, r, err)
		return
	}
	middleware.IncrementLoginAttempts("success")

	utils.SetSessionCookie(w, h.session.CookieName, session.ID,
		time.Now().Add(h.session.Expiry), h.isProd)
	utils.RespondWithJSON(w, r, http.StatusOK, sessionResponse{
		Authenticated: true,
		User:          session.User,
	})
}

// Register proxies account creation to the platform. No session is
// created; the dashboard sends the user to the login form afterwards.
//
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var reg upstream.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(reg.Email) == "" || reg.Password == "" {
		utils.RespondWithError(w, r, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.profile.Register(r.Context(), reg)
	if err != nil {
		respondUpstreamError(w, r, err)
		return
	}

	// Sessions are only minted through the login flow; the token pair
	// returned here is not adopted.
	utils.RespondWithJSON(w, r, http.StatusCreated, result.User)
}

// Logout ends the session. Always succeeds from the browser's point of
// view: state is cleared, the cookie dropped and the query cache
// purged even if the platform rejects the token.
//
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	if session.ID != "" {
		if err := h.sessions.Logout(r.Context(), session.ID); err != nil {
			log.Error().Err(err).Str("session_id", session.ID).Msg("Logout failed")
			utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to end session")
			return
		}
	}

	h.purger.PurgeAll(r.Context())
	utils.ClearSessionCookie(w, h.session.CookieName)
	utils.RespondWithMessage(w, r, http.StatusOK, "Logged out successfully")
}

// Me fetches the fresh profile from the platform and refreshes the
// stored projection. A platform 401 here means the token died behind
// our back; the session is ended so the guard stops treating the
// browser as signed in.
//
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	user, err := h.profile.Me(r.Context(), session.AccessToken)
	if err != nil {
		if upstream.IsUnauthorized(err) {
			if logoutErr := h.sessions.Logout(r.Context(), session.ID); logoutErr != nil {
				log.Warn().Err(logoutErr).Str("session_id", session.ID).Msg("Failed to end rejected session")
			}
			utils.ClearSessionCookie(w, h.session.CookieName)
		}
		respondUpstreamError(w, r, err)
		return
	}

	if err := h.sessions.UpdateUser(r.Context(), session.ID, user); err != nil {
		log.Warn().Err(err).Str("session_id", session.ID).Msg("Failed to refresh stored user")
	}

	utils.RespondWithJSON(w, r, http.StatusOK, user)
}

// ListSessions returns the user's active console sessions for the
// signed-in devices view.
//
// GET /api/auth/sessions
func (h *AuthHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	sessions, err := h.sessions.ListSessions(r.Context(), session.User.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list sessions")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	utils.RespondWithJSON(w, r, http.StatusOK, map[string]any{
		"sessions": sessions,
		"current":  session.ID,
	})
}

// RevokeSession signs out one of the user's other browsers. Only
// sessions belonging to the caller can be revoked.
//
// DELETE /api/auth/sessions/{sid}
func (h *AuthHandler) RevokeSession(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())
	sid := chi.URLParam(r, "sid")

	owned, err := h.sessions.ListSessions(r.Context(), session.User.ID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list sessions")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to revoke session")
		return
	}
	found := false
	for _, s := range owned {
		if s.ID == sid {
			found = true
			break
		}
	}
	if !found {
		utils.RespondWithError(w, r, http.StatusNotFound, "Session not found")
		return
	}

	if err := h.sessions.RevokeSession(r.Context(), sid); err != nil {
		log.Error().Err(err).Str("session_id", sid).Msg("Failed to revoke session")
		utils.RespondWithError(w, r, http.StatusInternalServerError, "Failed to revoke session")
		return
	}

	if sid == session.ID {
		utils.ClearSessionCookie(w, h.session.CookieName)
	}
	utils.RespondWithMessage(w, r, http.StatusOK, "Session revoked")
}

// respondUpstreamError maps an upstream failure to a console response.
// Platform business errors keep their own status and message; anything
// else (network faults, malformed bodies) becomes a 502 with the
// normalized message.
func respondUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadGateway

	var apiErr *upstream.APIError
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode >= 400 {
			status = apiErr.StatusCode
		} else {
			// Business error inside a 2xx envelope.
			status = http.StatusBadRequest
		}
	}

	utils.RespondWithError(w, r, status, upstream.ErrorMessage(err))
}
