package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vrsandeep/jobrelay/internal/api"
	"github.com/vrsandeep/jobrelay/internal/models"
	"github.com/vrsandeep/jobrelay/internal/testutil"
)

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body), rr.Body.String())
	return body
}

func TestHandlePublishStatus(t *testing.T) {
	server, app := testutil.SetupTestServer(t)
	router := server.Router()

	testCases := []struct {
		name      string
		body      string
		wantCode  int
		wantError string
	}{
		{"Empty object", `{}`, http.StatusBadRequest, "Missing required field: jobId"},
		{"Empty body", ``, http.StatusBadRequest, "Missing required field: jobId"},
		{"Missing status and title", `{"jobId":"j1"}`, http.StatusBadRequest, "Missing required fields: status, title"},
		{"Missing title", `{"jobId":"j1","status":"processing"}`, http.StatusBadRequest, "Missing required fields: status, title"},
		{"Malformed JSON", `{"jobId":`, http.StatusBadRequest, "Invalid request payload"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(t, router, "POST", "/status", tc.body)
			assert.Equal(t, tc.wantCode, rr.Code)
			assert.Equal(t, map[string]any{"error": tc.wantError}, decodeBody(t, rr))
		})
	}

	t.Run("No client connected", func(t *testing.T) {
		rr := doRequest(t, router, "POST", "/status", `{"jobId":"j1","status":"processing","title":"Step 1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
		assert.Equal(t, map[string]any{
			"success":   true,
			"delivered": false,
			"reason":    "No client connected for this jobId",
		}, decodeBody(t, rr))
	})

	t.Run("Delivered to subscriber", func(t *testing.T) {
		sub, err := app.Relay().Subscribe("j1")
		require.NoError(t, err)
		defer app.Relay().Unsubscribe(sub)
		<-sub.Frames()

		rr := doRequest(t, router, "POST", "/status", `{"jobId":"j1","status":"processing","title":"Step 1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, map[string]any{"success": true, "delivered": true}, decodeBody(t, rr))

		var event models.StatusEvent
		require.NoError(t, json.Unmarshal((<-sub.Frames()).Data, &event))
		assert.Equal(t, models.EventStatusUpdate, event.Type)
		assert.Equal(t, "Step 1", event.Title)
		assert.Equal(t, "", event.Subtitle)
		assert.NotEmpty(t, event.Timestamp)
	})
}

func TestHandlePublishCompletion(t *testing.T) {
	server, app := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("Missing job id", func(t *testing.T) {
		rr := doRequest(t, router, "POST", "/complete", `{"title":"Done"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, map[string]any{"error": "Missing required field: jobId"}, decodeBody(t, rr))
	})

	t.Run("Job id only without subscriber", func(t *testing.T) {
		rr := doRequest(t, router, "POST", "/complete", `{"jobId":"j1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		body := decodeBody(t, rr)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, false, body["delivered"])
	})

	t.Run("Job id only with subscriber gets fallbacks", func(t *testing.T) {
		sub, err := app.Relay().Subscribe("j1")
		require.NoError(t, err)
		defer app.Relay().Unsubscribe(sub)
		<-sub.Frames()

		rr := doRequest(t, router, "POST", "/complete", `{"jobId":"j1"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, map[string]any{"success": true, "delivered": true}, decodeBody(t, rr))

		var event map[string]any
		require.NoError(t, json.Unmarshal((<-sub.Frames()).Data, &event))
		assert.Equal(t, "job_complete", event["type"])
		assert.Equal(t, "complete", event["status"])
		assert.Equal(t, "Job Finished", event["title"])
		assert.Equal(t, "Analysis complete", event["subtitle"])
		assert.Nil(t, event["filesUrl"])
		assert.Contains(t, event, "filesUrl")
		assert.Equal(t, map[string]any{}, event["details"])
	})
}

func TestHandleHealthAndJobs(t *testing.T) {
	server, app := testutil.SetupTestServer(t)
	router := server.Router()

	rr := doRequest(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"status": "ok", "activeJobs": float64(0), "jobs": []any{}}, decodeBody(t, rr))

	rr = doRequest(t, router, "GET", "/jobs", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"count": float64(0), "jobs": []any{}}, decodeBody(t, rr))

	_, err := app.Relay().Subscribe("a")
	require.NoError(t, err)
	_, err = app.Relay().Subscribe("b")
	require.NoError(t, err)

	rr = doRequest(t, router, "GET", "/health", "")
	var health models.HealthReport
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 2, health.ActiveJobs)
	assert.ElementsMatch(t, []string{"a", "b"}, health.Jobs)

	rr = doRequest(t, router, "GET", "/jobs", "")
	var list models.JobList
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.ElementsMatch(t, []string{"a", "b"}, list.Jobs)
}

func TestHandleEventsMissingJobID(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	router := server.Router()

	for _, path := range []string{"/events", "/ws"} {
		rr := doRequest(t, router, "GET", path, "")
		assert.Equal(t, http.StatusBadRequest, rr.Code, path)
		assert.Equal(t, map[string]any{"error": "Missing jobId query parameter"}, decodeBody(t, rr))
	}
}

func TestCORS(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	router := server.Router()

	t.Run("Simple request", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/status", nil)
		req.Header.Set("Origin", "https://workflow.example.com")
		req.Header.Set("Access-Control-Request-Method", "POST")
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)
		assert.Less(t, rr.Code, 300)
		assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rr.Header().Get("Access-Control-Allow-Methods"), "POST")
	})
}

func TestStaticFrontend(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rof-app.html"), []byte("<h1>ROF</h1>"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log('hi')"), 0644))

	cfg := testutil.TestConfig()
	cfg.StaticDir = dir
	router := api.NewServer(testutil.SetupTestApp(t, cfg)).Router()

	rr := doRequest(t, router, "GET", "/", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "<h1>ROF</h1>", rr.Body.String())

	rr = doRequest(t, router, "GET", "/app.js", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "console.log('hi')", rr.Body.String())

	rr = doRequest(t, router, "GET", "/missing.css", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	// API routes still win over the file server.
	rr = doRequest(t, router, "GET", "/health", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestNoFrontendByDefault(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	rr := doRequest(t, server.Router(), "GET", "/", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleGetVersion(t *testing.T) {
	server, _ := testutil.SetupTestServer(t)
	rr := doRequest(t, server.Router(), "GET", "/version", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, map[string]any{"version": "test"}, decodeBody(t, rr))
}
