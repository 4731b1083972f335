package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/GrandGaleTechnologies/docops-console/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupStub starts a stub platform server and returns a client aimed
// at it plus the recorded last request.
func setupStub(t *testing.T, handler http.HandlerFunc) (*Client, *lastRequest) {
	t.Helper()

	last := &lastRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		last.method = r.Method
		last.path = r.URL.Path
		last.query = r.URL.Query().Encode()
		last.auth = r.Header.Get("Authorization")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return NewClient(srv.Client(), srv.URL), last
}

type lastRequest struct {
	method string
	path   string
	query  string
	auth   string
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

func TestClientLogin(t *testing.T) {
	t.Run("success decodes user and tokens", func(t *testing.T) {
		client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{
				"status": "success",
				"error": null,
				"data": {
					"user": {"id": 7, "email": "ops@docops.dev", "full_name": "Ops Admin"},
					"tokens": {"access_token": "acc-1", "refresh_token": "ref-1"}
				}
			}`)
		})

		result, err := client.Login(context.Background(), Credentials{Email: "ops@docops.dev", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, http.MethodPost, last.method)
		assert.Equal(t, "/users/login", last.path)
		assert.Empty(t, last.auth)
		assert.Equal(t, int64(7), result.User.ID)
		assert.Equal(t, "acc-1", result.Tokens.AccessToken)
		assert.Equal(t, "ref-1", result.Tokens.RefreshToken)
	})

	t.Run("error envelope surfaces platform message", func(t *testing.T) {
		client, _ := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusUnauthorized, `{
				"status": "error",
				"error": {"msg": "Invalid email or password", "loc": "body"},
				"data": null
			}`)
		})

		_, err := client.Login(context.Background(), Credentials{Email: "x", Password: "y"})
		require.Error(t, err)
		assert.True(t, IsAPIError(err))
		assert.True(t, IsUnauthorized(err))
		assert.Equal(t, "Invalid email or password", ErrorMessage(err))
	})

	t.Run("error status inside 200 body still fails", func(t *testing.T) {
		client, _ := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{
				"status": "error",
				"error": {"msg": "Account disabled", "loc": ""},
				"data": null
			}`)
		})

		_, err := client.Login(context.Background(), Credentials{Email: "x", Password: "y"})
		require.Error(t, err)
		assert.Equal(t, "Account disabled", ErrorMessage(err))
	})
}

func TestClientMe(t *testing.T) {
	client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"status": "success",
			"error": null,
			"data": {"id": 7, "email": "ops@docops.dev", "full_name": "Ops Admin"}
		}`)
	})

	user, err := client.Me(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, "Bearer acc-1", last.auth)
	assert.Equal(t, "ops@docops.dev", user.Email)
}

func TestClientListProjects(t *testing.T) {
	t.Run("serializes only set params and validates the page", func(t *testing.T) {
		client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{
				"msg": "success",
				"data": {
					"data": [
						{"id": 1, "name": "Bridge Scans", "status": "active"},
						{"id": 2, "name": "Site Survey", "status": "pending"}
					],
					"meta": {
						"total_no_items": 5, "total_no_pages": 3, "page": 1,
						"size": 2, "count": 2,
						"has_next_page": true, "has_prev_page": false
					}
				}
			}`)
		})

		autoSync := true
		page, err := client.ListProjects(context.Background(), "tok", models.ProjectListParams{
			Query:    "bridge",
			AutoSync: &autoSync,
			Page:     1,
			Size:     2,
		})
		require.NoError(t, err)
		assert.Equal(t, "/projects", last.path)
		assert.Equal(t, "auto_sync=true&page=1&query=bridge&size=2", last.query)
		assert.Len(t, page.Data, 2)
		assert.True(t, page.Meta.HasNextPage)
	})

	t.Run("rejects a page whose count disagrees with its data", func(t *testing.T) {
		client, _ := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{
				"msg": "success",
				"data": {
					"data": [{"id": 1, "name": "Bridge Scans", "status": "active"}],
					"meta": {
						"total_no_items": 1, "total_no_pages": 1, "page": 1,
						"size": 10, "count": 2,
						"has_next_page": false, "has_prev_page": false
					}
				}
			}`)
		})

		_, err := client.ListProjects(context.Background(), "tok", models.ProjectListParams{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "inconsistent page")
	})
}

func TestClientUpdateProjectStatus(t *testing.T) {
	client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"msg": "success",
			"data": {"id": 4, "name": "Site Survey", "status": "inactive"}
		}`)
	})

	project, err := client.UpdateProjectStatus(context.Background(), "tok", 4, models.ProjectInactive)
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, last.method)
	assert.Equal(t, "/projects/4/status", last.path)
	assert.Equal(t, "status=inactive", last.query)
	assert.Equal(t, models.ProjectInactive, project.Status)
}

func TestClientMsgEnvelopeFailure(t *testing.T) {
	client, _ := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"msg": "project has no integrations", "data": null}`)
	})

	_, err := client.ListProjectIntegrations(context.Background(), "tok", 9)
	require.Error(t, err)
	assert.True(t, IsAPIError(err))
	assert.Equal(t, "project has no integrations", ErrorMessage(err))
}

func TestClientCreateProjectIntegration(t *testing.T) {
	client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{
			"msg": "success",
			"data": {"id": 11, "project_id": 9, "integration_type": "acc", "enabled": true}
		}`)
	})

	integration, err := client.CreateProjectIntegration(context.Background(), "tok", 9,
		models.IntegrationACC, map[string]any{"account_id": "a-1"})
	require.NoError(t, err)
	assert.Equal(t, "/integrations/project/9/integrate", last.path)
	assert.Equal(t, "integration=acc", last.query)
	assert.Equal(t, models.IntegrationACC, integration.IntegrationType)
}

func TestClientDashboardPeriods(t *testing.T) {
	t.Run("chart widens day to week", func(t *testing.T) {
		client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"msg": "success", "data": {"period": "week", "period_data": []}}`)
		})

		_, err := client.Chart(context.Background(), "tok", models.PeriodDay)
		require.NoError(t, err)
		assert.Equal(t, "/dashboard/chart", last.path)
		assert.Equal(t, "period=week", last.query)
	})

	t.Run("chart passes month through", func(t *testing.T) {
		client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"msg": "success", "data": {"period": "month", "period_data": []}}`)
		})

		_, err := client.Chart(context.Background(), "tok", models.PeriodMonth)
		require.NoError(t, err)
		assert.Equal(t, "period=month", last.query)
	})

	t.Run("stats sends day unchanged", func(t *testing.T) {
		client, last := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, `{"msg": "success", "data": {"period": "day", "projects": 3}}`)
		})

		stats, err := client.Stats(context.Background(), "tok", models.PeriodDay)
		require.NoError(t, err)
		assert.Equal(t, "/dashboard/stats", last.path)
		assert.Equal(t, "period=day", last.query)
		assert.Equal(t, int64(3), stats.Projects)
	})
}

func TestClientRetry(t *testing.T) {
	t.Run("get retries transient server faults", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				// Close the connection without a response.
				hj, ok := w.(http.Hijacker)
				require.True(t, ok)
				conn, _, err := hj.Hijack()
				require.NoError(t, err)
				conn.Close()
				return
			}
			writeJSON(w, http.StatusOK, `{
				"msg": "success",
				"data": {"id": 3, "project_id": 1, "status": "success"}
			}`)
		})

		sync, err := client.GetSync(context.Background(), "tok", 3)
		require.NoError(t, err)
		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, models.SyncSuccess, sync.Status)
	})

	t.Run("get does not retry platform errors", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			writeJSON(w, http.StatusNotFound, `{"msg": "sync not found", "data": null}`)
		})

		_, err := client.GetSync(context.Background(), "tok", 99)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
		assert.Equal(t, "sync not found", ErrorMessage(err))
	})

	t.Run("writes are never retried", func(t *testing.T) {
		var calls atomic.Int32
		client, _ := setupStub(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusBadGateway)
		})

		_, err := client.TriggerSync(context.Background(), "tok", 3)
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})
}
