package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GrandGaleTechnologies/docops-console/internal/database"
	"github.com/GrandGaleTechnologies/docops-console/internal/middleware"
	"github.com/GrandGaleTechnologies/docops-console/internal/services"
	"github.com/GrandGaleTechnologies/docops-console/internal/testutil"
	"github.com/GrandGaleTechnologies/docops-console/internal/upstream"
	"github.com/GrandGaleTechnologies/docops-console/pkg/cache"
	"github.com/GrandGaleTechnologies/docops-console/pkg/config"
	"github.com/go-chi/chi/v5"
)

const testCookieName = "docops_sid"

// console bundles a fully wired router over miniredis and a stub
// platform, the closest thing to the deployed topology a unit test can
// get.
type console struct {
	router   chi.Router
	platform *testutil.StubPlatform
	redis    *database.RedisDB
	sessions *services.SessionService
}

func setupConsole(t *testing.T) *console {
	t.Helper()

	mr, cleanup := testutil.SetupMiniRedis(t)
	t.Cleanup(cleanup)

	redisDB := testutil.NewTestRedisDB(t, mr)
	t.Cleanup(func() { redisDB.Close() })

	platform := testutil.NewStubPlatform(t)
	client := upstream.NewClient(&http.Client{Timeout: 5 * time.Second}, platform.URL())

	cfg := &config.Config{
		Server:  config.ServerConfig{Port: "8080", Environment: "test"},
		Session: config.SessionConfig{CookieName: testCookieName, Expiry: time.Hour},
		Cache: config.CacheConfig{
			ResourceTTL:  30 * time.Second,
			DashboardTTL: time.Minute,
			Enabled:      true,
		},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 100, WindowDuration: time.Minute},
	}

	queryCache := cache.New(redisDB.Client(), true)
	inv := services.NewInvalidator(queryCache)
	sessions := services.NewSessionService(redisDB, client, cfg.Session.Expiry)
	projects := services.NewProjectService(client, queryCache, inv, cfg.Cache.ResourceTTL)
	integrations := services.NewIntegrationService(client, queryCache, inv, cfg.Cache.ResourceTTL)
	syncs := services.NewSyncService(client, queryCache, inv, cfg.Cache.ResourceTTL)
	dashboard := services.NewDashboardService(client, queryCache, cfg.Cache.DashboardTTL)

	router := NewRouter(Deps{
		Config:       cfg,
		Sessions:     sessions,
		Auth:         NewAuthHandler(sessions, client, inv, cfg.Session, false),
		Projects:     NewProjectsHandler(projects, projects),
		Integrations: NewIntegrationsHandler(integrations),
		Syncs:        NewSyncsHandler(syncs),
		Dashboard:    NewDashboardHandler(dashboard),
		Health:       NewHealthHandler(redisDB),
		Pages:        NewPagesHandler(),
		RateLimiter:  middleware.NewRateLimiter(redisDB, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowDuration),
	})

	return &console{
		router:   router,
		platform: platform,
		redis:    redisDB,
		sessions: sessions,
	}
}

// signIn performs a real login against the stub platform and returns
// the session cookie.
func (c *console) signIn(t *testing.T) *http.Cookie {
	t.Helper()

	c.platform.HandleJSON("POST /users/login", http.StatusOK, `{
		"status": "success",
		"error": null,
		"data": {
			"user": {"id": 7, "email": "ops@docops.dev", "full_name": "Ops Admin"},
			"tokens": {"access_token": "acc-1", "refresh_token": "ref-1"}
		}
	}`)

	req := testutil.MakeRequest(t, http.MethodPost, "/api/auth/login",
		map[string]string{"email": "ops@docops.dev", "password": "pw"})
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)

	testutil.AssertStatusCode(t, rec, http.StatusOK)
	return testutil.AssertCookie(t, rec, testCookieName)
}

// do runs a request through the router, optionally with a session
// cookie.
func (c *console) do(t *testing.T, method, path string, body interface{}, cookie *http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	req := testutil.MakeRequest(t, method, path, body)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}
