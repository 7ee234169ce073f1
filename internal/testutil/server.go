// A shared test server setup utility, which simplifies all API tests.

package testutil

import (
	"net/http/httptest"
	"testing"

	"github.com/vrsandeep/jobrelay/internal/api"
	"github.com/vrsandeep/jobrelay/internal/config"
	"github.com/vrsandeep/jobrelay/internal/core"
)

// TestConfig returns the defaults config.Load would produce, without
// touching the file system or the environment.
func TestConfig() *config.Config {
	cfg := &config.Config{Port: 0, IndexFile: "rof-app.html", ShutdownTimeout: 1}
	cfg.Stream.BufferSize = 16
	cfg.Stream.KeepaliveInterval = 30
	cfg.CORS.AllowedOrigins = []string{"*"}
	return cfg
}

// SetupTestApp builds a core.App around cfg, or TestConfig when cfg is nil.
func SetupTestApp(t *testing.T, cfg *config.Config) *core.App {
	t.Helper()
	if cfg == nil {
		cfg = TestConfig()
	}
	app := core.NewWithConfig(cfg, "test")
	t.Cleanup(app.Close)
	return app
}

// SetupTestServer initializes a core.App and api.Server for handler tests.
func SetupTestServer(t *testing.T) (*api.Server, *core.App) {
	t.Helper()
	app := SetupTestApp(t, nil)
	return api.NewServer(app), app
}

// StartHTTPServer serves the full router on a loopback listener, for tests
// that need real streaming connections.
func StartHTTPServer(t *testing.T) (*httptest.Server, *core.App) {
	t.Helper()
	server, app := SetupTestServer(t)
	ts := httptest.NewServer(server.Router())
	// Close the relay first so open streams end and ts.Close does not block.
	t.Cleanup(ts.Close)
	t.Cleanup(app.Close)
	return ts, app
}
