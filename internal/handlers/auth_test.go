package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/GrandGaleTechnologies/docops-console/internal/testutil"
	"github.com/GrandGaleTechnologies/docops-console/pkg/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogin(t *testing.T) {
	t.Run("success sets the session cookie and returns the user", func(t *testing.T) {
		c := setupConsole(t)
		cookie := c.signIn(t)

		assert.NotEmpty(t, cookie.Value)
		assert.True(t, cookie.HttpOnly)

		// The session is durable: a follow-up request sees it.
		rec := c.do(t, http.MethodGet, "/api/auth/session", nil, cookie)
		var body sessionResponse
		testutil.ParseJSONResponse(t, rec, &body)
		assert.True(t, body.Authenticated)
		require.NotNil(t, body.User)
		assert.Equal(t, "ops@docops.dev", body.User.Email)
	})

	t.Run("platform rejection surfaces the platform message", func(t *testing.T) {
		c := setupConsole(t)
		c.platform.HandleJSON("POST /users/login", http.StatusUnauthorized, `{
			"status": "error",
			"error": {"msg": "Invalid email or password", "loc": "body"},
			"data": null
		}`)

		rec := c.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "x@y.z", "password": "wrong"}, nil)

		testutil.AssertStatusCode(t, rec, http.StatusUnauthorized)
		var body utils.ErrorResponse
		testutil.ParseJSONResponse(t, rec, &body)
		assert.Equal(t, "Invalid email or password", body.Message)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("missing credentials rejected before any upstream call", func(t *testing.T) {
		c := setupConsole(t)

		rec := c.do(t, http.MethodPost, "/api/auth/login",
			map[string]string{"email": "", "password": ""}, nil)

		testutil.AssertStatusCode(t, rec, http.StatusBadRequest)
	})
}

func TestRegister(t *testing.T) {
	t.Run("returns the new profile without a session cookie", func(t *testing.T) {
		c := setupConsole(t)
		c.platform.HandleJSON("POST /users/register", http.StatusCreated, `{
			"status": "success",
			"data": {
				"user": {"id": 9, "email": "new@docops.dev", "full_name": "New User"},
				"tokens": {"access_token": "acc-9", "refresh_token": "ref-9"}
			}
		}`)

		rec := c.do(t, http.MethodPost, "/api/auth/register",
			map[string]string{"email": "new@docops.dev", "full_name": "New User", "password": "s3cret"}, nil)

		testutil.AssertStatusCode(t, rec, http.StatusCreated)
		var user models.AuthUser
		testutil.ParseJSONResponse(t, rec, &user)
		assert.Equal(t, "new@docops.dev", user.Email)
		assert.Empty(t, rec.Result().Cookies())
	})

	t.Run("missing credentials rejected before any upstream call", func(t *testing.T) {
		c := setupConsole(t)

		rec := c.do(t, http.MethodPost, "/api/auth/register",
			map[string]string{"email": "new@docops.dev"}, nil)

		testutil.AssertStatusCode(t, rec, http.StatusBadRequest)
	})
}

func TestSessionEndpoint(t *testing.T) {
	t.Run("anonymous browser gets authenticated false, not an error", func(t *testing.T) {
		c := setupConsole(t)

		rec := c.do(t, http.MethodGet, "/api/auth/session", nil, nil)

		testutil.AssertStatusCode(t, rec, http.StatusOK)
		var body sessionResponse
		testutil.ParseJSONResponse(t, rec, &body)
		assert.False(t, body.Authenticated)
		assert.Nil(t, body.User)
	})
}

func TestLogout(t *testing.T) {
	t.Run("clears session state cookie and cache", func(t *testing.T) {
		c := setupConsole(t)
		cookie := c.signIn(t)
		c.platform.HandleJSON("POST /users/logout", http.StatusOK, `{"status": "success", "error": null, "data": null}`)

		// Warm the query cache.
		require.NoError(t, c.redis.Client().Set(context.Background(), "query:projects:list:x", "cached", 0).Err())

		rec := c.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
		testutil.AssertStatusCode(t, rec, http.StatusOK)

		cleared := testutil.AssertCookie(t, rec, testCookieName)
		assert.Less(t, cleared.MaxAge, 0)

		// Session gone.
		after := c.do(t, http.MethodGet, "/api/auth/session", nil, cookie)
		var body sessionResponse
		testutil.ParseJSONResponse(t, after, &body)
		assert.False(t, body.Authenticated)

		// Query cache purged.
		exists, err := c.redis.Client().Exists(context.Background(), "query:projects:list:x").Result()
		require.NoError(t, err)
		assert.Zero(t, exists)
	})

	t.Run("succeeds even when the platform rejects the token", func(t *testing.T) {
		c := setupConsole(t)
		cookie := c.signIn(t)
		c.platform.HandleJSON("POST /users/logout", http.StatusUnauthorized, `{
			"status": "error",
			"error": {"msg": "token revoked", "loc": ""},
			"data": null
		}`)

		rec := c.do(t, http.MethodPost, "/api/auth/logout", nil, cookie)
		testutil.AssertStatusCode(t, rec, http.StatusOK)

		after := c.do(t, http.MethodGet, "/api/auth/session", nil, cookie)
		var body sessionResponse
		testutil.ParseJSONResponse(t, after, &body)
		assert.False(t, body.Authenticated)
	})
}

func TestMe(t *testing.T) {
	t.Run("refreshes the stored user projection", func(t *testing.T) {
		c := setupConsole(t)
		cookie := c.signIn(t)
		c.platform.HandleJSON("GET /users/me", http.StatusOK, `{
			"status": "success",
			"error": null,
			"data": {"id": 7, "email": "ops@docops.dev", "full_name": "Renamed Admin"}
		}`)

		rec := c.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
		testutil.AssertStatusCode(t, rec, http.StatusOK)

		var user models.AuthUser
		testutil.ParseJSONResponse(t, rec, &user)
		assert.Equal(t, "Renamed Admin", user.FullName)

		// The stored projection was updated too.
		after := c.do(t, http.MethodGet, "/api/auth/session", nil, cookie)
		var body sessionResponse
		testutil.ParseJSONResponse(t, after, &body)
		require.NotNil(t, body.User)
		assert.Equal(t, "Renamed Admin", body.User.FullName)
	})

	t.Run("platform 401 ends the session", func(t *testing.T) {
		c := setupConsole(t)
		cookie := c.signIn(t)
		c.platform.HandleJSON("GET /users/me", http.StatusUnauthorized, `{
			"status": "error",
			"error": {"msg": "token expired", "loc": ""},
			"data": null
		}`)
		c.platform.HandleJSON("POST /users/logout", http.StatusUnauthorized, `{
			"status": "error",
			"error": {"msg": "token expired", "loc": ""},
			"data": null
		}`)

		rec := c.do(t, http.MethodGet, "/api/auth/me", nil, cookie)
		testutil.AssertStatusCode(t, rec, http.StatusUnauthorized)

		after := c.do(t, http.MethodGet, "/api/auth/session", nil, cookie)
		var body sessionResponse
		testutil.ParseJSONResponse(t, after, &body)
		assert.False(t, body.Authenticated)
	})

	t.Run("requires a session", func(t *testing.T) {
		c := setupConsole(t)

		rec := c.do(t, http.MethodGet, "/api/auth/me", nil, nil)
		testutil.AssertStatusCode(t, rec, http.StatusUnauthorized)
	})
}

func TestListAndRevokeSessions(t *testing.T) {
	c := setupConsole(t)
	cookie := c.signIn(t)

	rec := c.do(t, http.MethodGet, "/api/auth/sessions", nil, cookie)
	testutil.AssertStatusCode(t, rec, http.StatusOK)

	var body struct {
		Sessions []models.Session `json:"sessions"`
		Current  string           `json:"current"`
	}
	testutil.ParseJSONResponse(t, rec, &body)
	require.Len(t, body.Sessions, 1)
	assert.Equal(t, cookie.Value, body.Current)

	t.Run("cannot revoke a session that is not yours", func(t *testing.T) {
		rec := c.do(t, http.MethodDelete, "/api/auth/sessions/some-other-sid", nil, cookie)
		testutil.AssertStatusCode(t, rec, http.StatusNotFound)
	})

	t.Run("revoking the current session clears the cookie", func(t *testing.T) {
		rec := c.do(t, http.MethodDelete, "/api/auth/sessions/"+cookie.Value, nil, cookie)
		testutil.AssertStatusCode(t, rec, http.StatusOK)

		cleared := testutil.AssertCookie(t, rec, testCookieName)
		assert.Less(t, cleared.MaxAge, 0)
	})
}
