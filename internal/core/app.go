package core

import (
	"fmt"
	"log"

	"github.com/go-co-op/gocron"
	"github.com/vrsandeep/jobrelay/internal/config"
	"github.com/vrsandeep/jobrelay/internal/jobs"
	"github.com/vrsandeep/jobrelay/internal/relay"
)

// App holds the components shared by the HTTP server and the scheduler.
type App struct {
	config    *config.Config
	relay     *relay.Relay
	scheduler *gocron.Scheduler
	version   string
}

// New loads the configuration from config.yml and the environment and
// builds an App around it.
func New(version string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	app := NewWithConfig(cfg, version)
	log.Println("Core application setup complete.")
	return app, nil
}

// NewWithConfig builds an App with an empty registry. Background jobs are
// not started until Start is called.
func NewWithConfig(cfg *config.Config, version string) *App {
	return &App{
		config:  cfg,
		relay:   relay.New(relay.WithBufferSize(cfg.Stream.BufferSize)),
		version: version,
	}
}

func (a *App) Config() *config.Config { return a.config }
func (a *App) Relay() *relay.Relay     { return a.relay }
func (a *App) Version() string         { return a.version }

// Start launches the maintenance scheduler.
func (a *App) Start() {
	if a.scheduler == nil {
		a.scheduler = jobs.StartJobs(a)
	}
}

// Close stops the scheduler and releases every open subscription.
func (a *App) Close() {
	if a.scheduler != nil {
		a.scheduler.Stop()
		a.scheduler = nil
	}
	a.relay.Close()
}
