// Package services holds the console's business logic: session
// lifecycle against the platform auth endpoints, and cached read
// models over the platform's project, integration, sync and dashboard
// resources.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/database"
	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/internal/upstream"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/mileusna/useragent"
	"github.com/rs/zerolog/log"
)

// SessionStore defines the session persistence operations the service
// needs. Implemented by database.RedisDB; abstracted for testing.
type SessionStore interface {
	SetSessionState(ctx context.Context, sid string, state database.SessionState, expiry time.Duration) error
	GetSessionState(ctx context.Context, sid string) (*database.SessionState, error)
	SetSessionTokens(ctx context.Context, sid, accessToken, refreshToken string) error
	SetSessionUser(ctx context.Context, sid, userJSON string) error
	DeleteSessionState(ctx context.Context, sid string) error
	ListUserSessions(ctx context.Context, userID string) (map[string]*database.SessionState, error)
}

// AuthAPI is the slice of the platform client the session service
// uses.
type AuthAPI interface {
	Login(ctx context.Context, creds upstream.Credentials) (*upstream.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Refresh(ctx context.Context, refreshToken string) (*upstream.TokenPair, error)
}

// refreshLeeway is how long before access-token expiry a refresh is
// attempted. Wide enough to cover clock skew against the platform.
const refreshLeeway = 2 * time.Minute

// SessionService owns the console session lifecycle. One session per
// browser context, identified by an opaque cookie value; the durable
// state behind it (tokens plus a cached user projection) lives in
// Redis. The platform remains the authority on whether a token is
// actually valid; the console only decides whether a session LOOKS
// authenticated, which is what the route guard needs.
type SessionService struct {
	store  SessionStore
	api    AuthAPI
	expiry time.Duration
}

// NewSessionService creates a session service.
//
// Example:
//
//	sessionSvc := services.NewSessionService(redisDB, platformClient, cfg.Session.Expiry)
func NewSessionService(store SessionStore, api AuthAPI, expiry time.Duration) *SessionService {
	return &SessionService{
		store:  store,
		api:    api,
		expiry: expiry,
	}
}

// Resolve loads the session behind a cookie value. The result is
// always usable:
//
//   - no sid, unknown sid, or expired sid: an unauthenticated session
//   - stored token and user both present: an authenticated session
//   - malformed stored user JSON: the state is wiped and an
//     unauthenticated session returned, never an error; a corrupt
//     entry must behave exactly like a signed-out browser
//
// When the stored access token is close to expiry and a refresh token
// is available, Resolve rotates the pair first. A failed rotation is
// logged and the old token kept; the next upstream call surfaces the
// real rejection.
func (s *SessionService) Resolve(ctx context.Context, sid string) (*models.Session, error) {
	if sid == "" {
		return &models.Session{}, nil
	}

	state, err := s.store.GetSessionState(ctx, sid)
	if err != nil {
		if errors.Is(err, database.ErrSessionNotFound) {
			return &models.Session{ID: sid}, nil
		}
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	if state.AuthToken == "" || state.AuthUser == "" {
		return &models.Session{ID: sid}, nil
	}

	var user models.AuthUser
	if err := json.Unmarshal([]byte(state.AuthUser), &user); err != nil {
		log.Warn().
			Err(err).
			Str("session_id", sid).
			Msg("Stored session user is malformed, clearing session")
		if delErr := s.store.DeleteSessionState(ctx, sid); delErr != nil {
			log.Error().Err(delErr).Str("session_id", sid).Msg("Failed to clear malformed session")
		}
		return &models.Session{ID: sid}, nil
	}

	if state.AuthRefreshToken != "" && tokenNearExpiry(state.AuthToken, time.Now()) {
		if rotated, err := s.refreshTokens(ctx, sid, state.AuthRefreshToken); err != nil {
			log.Warn().Err(err).Str("session_id", sid).Msg("Token refresh failed, keeping current token")
		} else {
			state.AuthToken = rotated.AccessToken
			state.AuthRefreshToken = rotated.RefreshToken
		}
	}

	return &models.Session{
		ID:           sid,
		User:         &user,
		AccessToken:  state.AuthToken,
		RefreshToken: state.AuthRefreshToken,
		DeviceInfo:   state.DeviceInfo,
		IPAddress:    state.IPAddress,
		CreatedAt:    state.CreatedAt,
	}, nil
}

// Login authenticates against the platform and, only on success,
// creates a new session with a fresh id. A failed login leaves no
// state behind and any prior session untouched, so retrying with a
// typo'd password costs nothing.
func (s *SessionService) Login(ctx context.Context, creds upstream.Credentials, deviceInfo, ipAddress string) (*models.Session, error) {
	result, err := s.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}
	if result.User == nil || result.Tokens.AccessToken == "" {
		return nil, fmt.Errorf("login succeeded but response is missing user or tokens")
	}

	userJSON, err := json.Marshal(result.User)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize user: %w", err)
	}

	sid := uuid.New().String()
	now := time.Now()

	err = s.store.SetSessionState(ctx, sid, database.SessionState{
		AuthToken:        result.Tokens.AccessToken,
		AuthRefreshToken: result.Tokens.RefreshToken,
		AuthUser:         string(userJSON),
		UserID:           strconv.FormatInt(result.User.ID, 10),
		DeviceInfo:       deviceInfo,
		IPAddress:        ipAddress,
		CreatedAt:        now,
	}, s.expiry)
	if err != nil {
		return nil, fmt.Errorf("failed to persist session: %w", err)
	}

	log.Info().
		Str("session_id", sid).
		Int64("user_id", result.User.ID).
		Str("device", deviceInfo).
		Msg("Session created")

	return &models.Session{
		ID:           sid,
		User:         result.User,
		AccessToken:  result.Tokens.AccessToken,
		RefreshToken: result.Tokens.RefreshToken,
		DeviceInfo:   deviceInfo,
		IPAddress:    ipAddress,
		CreatedAt:    now,
	}, nil
}

// Logout ends a session. The platform logout is best effort: a dead
// or rejecting platform must never trap a user in a signed-in browser,
// so the local state is cleared regardless and the upstream failure
// only logged.
func (s *SessionService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}

	state, err := s.store.GetSessionState(ctx, sid)
	if err == nil && state.AuthToken != "" {
		if err := s.api.Logout(ctx, state.AuthToken); err != nil {
			log.Warn().
				Err(err).
				Str("session_id", sid).
				Msg("Upstream logout failed, clearing local session anyway")
		}
	}

	if err := s.store.DeleteSessionState(ctx, sid); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}

	log.Info().Str("session_id", sid).Msg("Session ended")
	return nil
}

// UpdateUser replaces the stored user projection for a session,
// leaving tokens untouched. Called after every successful profile
// fetch so the cached projection tracks the platform's copy.
func (s *SessionService) UpdateUser(ctx context.Context, sid string, user *models.AuthUser) error {
	userJSON, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to serialize user: %w", err)
	}
	if err := s.store.SetSessionUser(ctx, sid, string(userJSON)); err != nil {
		return fmt.Errorf("failed to update session user: %w", err)
	}
	return nil
}

// ListSessions returns the active sessions for a user, for the
// "signed-in devices" view. Tokens are never included.
func (s *SessionService) ListSessions(ctx context.Context, userID int64) ([]models.Session, error) {
	states, err := s.store.ListUserSessions(ctx, strconv.FormatInt(userID, 10))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	sessions := make([]models.Session, 0, len(states))
	for sid, state := range states {
		sessions = append(sessions, models.Session{
			ID:         sid,
			DeviceInfo: state.DeviceInfo,
			IPAddress:  state.IPAddress,
			CreatedAt:  state.CreatedAt,
		})
	}
	return sessions, nil
}

// RevokeSession deletes one of a user's sessions by id. Used by the
// devices view to sign out a single browser.
func (s *SessionService) RevokeSession(ctx context.Context, sid string) error {
	if err := s.store.DeleteSessionState(ctx, sid); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	log.Info().Str("session_id", sid).Msg("Session revoked")
	return nil
}

func (s *SessionService) refreshTokens(ctx context.Context, sid, refreshToken string) (*upstream.TokenPair, error) {
	tokens, err := s.api.Refresh(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetSessionTokens(ctx, sid, tokens.AccessToken, tokens.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to persist rotated tokens: %w", err)
	}
	log.Debug().Str("session_id", sid).Msg("Access token rotated")
	return tokens, nil
}

// tokenNearExpiry inspects the access token's exp claim without
// verifying the signature; the platform signed it and only the
// platform can verify it, the console just needs the timestamp. Tokens
// without a readable exp claim are never considered near expiry.
func tokenNearExpiry(tokenString string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return now.Add(refreshLeeway).After(exp.Time)
}

// ExtractDeviceInfo turns a User-Agent header into a short display
// string for the devices view, like "Chrome 128.0 · Windows 11 ·
// Desktop".
func ExtractDeviceInfo(userAgent string) string {
	if userAgent == "" {
		return "Unknown Device"
	}

	ua := useragent.Parse(userAgent)

	var parts []string
	if ua.Name != "" {
		browser := ua.Name
		if ua.Version != "" {
			browser += " " + ua.Version
		}
		parts = append(parts, browser)
	}
	if ua.OS != "" {
		os := ua.OS
		if ua.OSVersion != "" {
			os += " " + ua.OSVersion
		}
		parts = append(parts, os)
	}
	if ua.Mobile {
		parts = append(parts, "Mobile")
	} else if ua.Tablet {
		parts = append(parts, "Tablet")
	} else if ua.Desktop {
		parts = append(parts, "Desktop")
	}

	if len(parts) == 0 {
		if len(userAgent) > 100 {
			return userAgent[:100] + "..."
		}
		return userAgent
	}

	return strings.Join(parts, " · ")
}
