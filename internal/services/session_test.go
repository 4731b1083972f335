package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/database"
	"github.com/GrandGaleTechnologies/docops-console/internal/testutil"
	"github.com/GrandGaleTechnologies/docops-console/internal/upstream"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthAPI counts calls and returns scripted results.
type fakeAuthAPI struct {
	loginResult  *upstream.LoginResult
	loginErr     error
	logoutErr    error
	refreshPair  *upstream.TokenPair
	refreshErr   error
	loginCalls   int
	logoutCalls  int
	refreshCalls int
}

func (f *fakeAuthAPI) Login(ctx context.Context, creds upstream.Credentials) (*upstream.LoginResult, error) {
	f.loginCalls++
	return f.loginResult, f.loginErr
}

func (f *fakeAuthAPI) Logout(ctx context.Context, token string) error {
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAuthAPI) Refresh(ctx context.Context, refreshToken string) (*upstream.TokenPair, error) {
	f.refreshCalls++
	return f.refreshPair, f.refreshErr
}

func setupSessionService(t *testing.T, api *fakeAuthAPI) (*SessionService, *database.RedisDB) {
	t.Helper()

	mr, cleanup := testutil.SetupMiniRedis(t)
	t.Cleanup(cleanup)

	db := testutil.NewTestRedisDB(t, mr)
	t.Cleanup(func() { db.Close() })

	return NewSessionService(db, api, time.Hour), db
}

// signedToken builds a syntactically valid JWT expiring at the given
// time. The signature key is irrelevant; only the exp claim is read.
func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return signed
}

func TestSessionResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("empty sid is unauthenticated", func(t *testing.T) {
		svc, _ := setupSessionService(t, &fakeAuthAPI{})

		session, err := svc.Resolve(ctx, "")
		require.NoError(t, err)
		assert.False(t, session.Authenticated())
	})

	t.Run("unknown sid is unauthenticated", func(t *testing.T) {
		svc, _ := setupSessionService(t, &fakeAuthAPI{})

		session, err := svc.Resolve(ctx, "sid-unknown")
		require.NoError(t, err)
		assert.False(t, session.Authenticated())
	})

	t.Run("stored token and user make an authenticated session without upstream calls", func(t *testing.T) {
		api := &fakeAuthAPI{}
		svc, db := setupSessionService(t, api)

		token := signedToken(t, time.Now().Add(time.Hour))
		require.NoError(t, db.SetSessionState(ctx, "sid-1", database.SessionState{
			AuthToken:        token,
			AuthRefreshToken: "ref-1",
			AuthUser:         `{"id":7,"email":"ops@docops.dev","full_name":"Ops Admin"}`,
			UserID:           "7",
			CreatedAt:        time.Now(),
		}, time.Hour))

		session, err := svc.Resolve(ctx, "sid-1")
		require.NoError(t, err)
		assert.True(t, session.Authenticated())
		assert.Equal(t, int64(7), session.User.ID)
		assert.Equal(t, token, session.AccessToken)
		assert.Zero(t, api.loginCalls)
		assert.Zero(t, api.refreshCalls)
	})

	t.Run("missing user means unauthenticated", func(t *testing.T) {
		svc, db := setupSessionService(t, &fakeAuthAPI{})

		require.NoError(t, db.SetSessionState(ctx, "sid-2", database.SessionState{
			AuthToken: "acc-1",
			CreatedAt: time.Now(),
		}, time.Hour))

		session, err := svc.Resolve(ctx, "sid-2")
		require.NoError(t, err)
		assert.False(t, session.Authenticated())
	})

	t.Run("malformed stored user clears the session", func(t *testing.T) {
		svc, db := setupSessionService(t, &fakeAuthAPI{})

		require.NoError(t, db.SetSessionState(ctx, "sid-3", database.SessionState{
			AuthToken:        "acc-1",
			AuthRefreshToken: "ref-1",
			AuthUser:         `{"id": not-json`,
			CreatedAt:        time.Now(),
		}, time.Hour))

		session, err := svc.Resolve(ctx, "sid-3")
		require.NoError(t, err)
		assert.False(t, session.Authenticated())

		// All stored state is gone, not just the user.
		_, err = db.GetSessionState(ctx, "sid-3")
		assert.ErrorIs(t, err, database.ErrSessionNotFound)
	})

	t.Run("near expiry token is rotated", func(t *testing.T) {
		api := &fakeAuthAPI{
			refreshPair: &upstream.TokenPair{AccessToken: "acc-new", RefreshToken: "ref-new"},
		}
		svc, db := setupSessionService(t, api)

		require.NoError(t, db.SetSessionState(ctx, "sid-4", database.SessionState{
			AuthToken:        signedToken(t, time.Now().Add(30*time.Second)),
			AuthRefreshToken: "ref-old",
			AuthUser:         `{"id":7,"email":"ops@docops.dev"}`,
			CreatedAt:        time.Now(),
		}, time.Hour))

		session, err := svc.Resolve(ctx, "sid-4")
		require.NoError(t, err)
		assert.Equal(t, 1, api.refreshCalls)
		assert.Equal(t, "acc-new", session.AccessToken)

		state, err := db.GetSessionState(ctx, "sid-4")
		require.NoError(t, err)
		assert.Equal(t, "acc-new", state.AuthToken)
		assert.Equal(t, "ref-new", state.AuthRefreshToken)
	})

	t.Run("failed rotation keeps the old token", func(t *testing.T) {
		api := &fakeAuthAPI{refreshErr: errors.New("upstream down")}
		svc, db := setupSessionService(t, api)

		oldToken := signedToken(t, time.Now().Add(30*time.Second))
		require.NoError(t, db.SetSessionState(ctx, "sid-5", database.SessionState{
			AuthToken:        oldToken,
			AuthRefreshToken: "ref-old",
			AuthUser:         `{"id":7,"email":"ops@docops.dev"}`,
			CreatedAt:        time.Now(),
		}, time.Hour))

		session, err := svc.Resolve(ctx, "sid-5")
		require.NoError(t, err)
		assert.True(t, session.Authenticated())
		assert.Equal(t, oldToken, session.AccessToken)
	})
}

func TestSessionLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("success persists tokens and user together", func(t *testing.T) {
		api := &fakeAuthAPI{
			loginResult: &upstream.LoginResult{
				User:   testutil.TestAuthUser(),
				Tokens: upstream.TokenPair{AccessToken: "acc-1", RefreshToken: "ref-1"},
			},
		}
		svc, db := setupSessionService(t, api)

		session, err := svc.Login(ctx, upstream.Credentials{Email: "ops@docops.dev", Password: "pw"},
			"Chrome 128 · Windows 11 · Desktop", "203.0.113.42")
		require.NoError(t, err)
		assert.True(t, session.Authenticated())
		require.NotEmpty(t, session.ID)

		state, err := db.GetSessionState(ctx, session.ID)
		require.NoError(t, err)
		assert.Equal(t, "acc-1", state.AuthToken)
		assert.Equal(t, "ref-1", state.AuthRefreshToken)
		assert.Contains(t, state.AuthUser, "ops@docops.dev")
		assert.Equal(t, "7", state.UserID)
		assert.Equal(t, "Chrome 128 · Windows 11 · Desktop", state.DeviceInfo)
	})

	t.Run("failure leaves no state behind", func(t *testing.T) {
		api := &fakeAuthAPI{
			loginErr: &upstream.APIError{Msg: "Invalid email or password", StatusCode: 401},
		}
		svc, db := setupSessionService(t, api)

		_, err := svc.Login(ctx, upstream.Credentials{Email: "x", Password: "y"}, "", "")
		require.Error(t, err)
		assert.Equal(t, "Invalid email or password", upstream.ErrorMessage(err))

		sessions, err := db.ListUserSessions(ctx, "7")
		require.NoError(t, err)
		assert.Empty(t, sessions)
	})
}

func TestSessionLogout(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T, db *database.RedisDB, sid string) {
		t.Helper()
		require.NoError(t, db.SetSessionState(ctx, sid, database.SessionState{
			AuthToken:        "acc-1",
			AuthRefreshToken: "ref-1",
			AuthUser:         `{"id":7}`,
			CreatedAt:        time.Now(),
		}, time.Hour))
	}

	t.Run("clears state and notifies upstream", func(t *testing.T) {
		api := &fakeAuthAPI{}
		svc, db := setupSessionService(t, api)
		seed(t, db, "sid-1")

		require.NoError(t, svc.Logout(ctx, "sid-1"))
		assert.Equal(t, 1, api.logoutCalls)

		_, err := db.GetSessionState(ctx, "sid-1")
		assert.ErrorIs(t, err, database.ErrSessionNotFound)
	})

	t.Run("clears state even when upstream rejects", func(t *testing.T) {
		api := &fakeAuthAPI{logoutErr: &upstream.APIError{Msg: "token revoked", StatusCode: 401}}
		svc, db := setupSessionService(t, api)
		seed(t, db, "sid-2")

		require.NoError(t, svc.Logout(ctx, "sid-2"))

		_, err := db.GetSessionState(ctx, "sid-2")
		assert.ErrorIs(t, err, database.ErrSessionNotFound)
	})

	t.Run("logout of unknown sid is a no-op", func(t *testing.T) {
		api := &fakeAuthAPI{}
		svc, _ := setupSessionService(t, api)

		require.NoError(t, svc.Logout(ctx, "sid-gone"))
		assert.Zero(t, api.logoutCalls)
	})
}

func TestSessionUpdateUser(t *testing.T) {
	ctx := context.Background()
	svc, db := setupSessionService(t, &fakeAuthAPI{})

	require.NoError(t, db.SetSessionState(ctx, "sid-1", database.SessionState{
		AuthToken:        "acc-1",
		AuthRefreshToken: "ref-1",
		AuthUser:         `{"id":7,"email":"ops@docops.dev"}`,
		CreatedAt:        time.Now(),
	}, time.Hour))

	user := testutil.TestAuthUser()
	user.FullName = "Renamed Admin"
	require.NoError(t, svc.UpdateUser(ctx, "sid-1", user))

	state, err := db.GetSessionState(ctx, "sid-1")
	require.NoError(t, err)
	assert.Contains(t, state.AuthUser, "Renamed Admin")
	assert.Equal(t, "acc-1", state.AuthToken)
	assert.Equal(t, "ref-1", state.AuthRefreshToken)
}

func TestTokenNearExpiry(t *testing.T) {
	now := time.Now()

	t.Run("expired token", func(t *testing.T) {
		assert.True(t, tokenNearExpiry(signedToken(t, now.Add(-time.Minute)), now))
	})

	t.Run("token inside leeway", func(t *testing.T) {
		assert.True(t, tokenNearExpiry(signedToken(t, now.Add(refreshLeeway/2)), now))
	})

	t.Run("fresh token", func(t *testing.T) {
		assert.False(t, tokenNearExpiry(signedToken(t, now.Add(time.Hour)), now))
	})

	t.Run("opaque token is never near expiry", func(t *testing.T) {
		assert.False(t, tokenNearExpiry("not-a-jwt", now))
	})
}

func TestExtractDeviceInfo(t *testing.T) {
	t.Run("desktop browser", func(t *testing.T) {
		ua := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/128.0.0.0 Safari/537.36"
		info := ExtractDeviceInfo(ua)
		assert.Contains(t, info, "Chrome")
		assert.Contains(t, info, "Desktop")
	})

	t.Run("empty user agent", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", ExtractDeviceInfo(""))
	})
}
