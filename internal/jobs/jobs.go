// Package jobs runs the relay's periodic maintenance work.
package jobs

import (
	"log"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/vrsandeep/jobrelay/internal/config"
	"github.com/vrsandeep/jobrelay/internal/relay"
)

const (
	HeartbeatJob      = "heartbeat"
	RegistryReportJob = "registry-report"
)

// JobContext provides the dependencies the scheduled jobs need.
// The core.App struct implements this interface.
type JobContext interface {
	Config() *config.Config
	Relay() *relay.Relay
}

// StartJobs starts the background job scheduler. Call Stop on the
// returned scheduler during shutdown.
func StartJobs(app JobContext) *gocron.Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()

	startHeartbeatJob(s, app)
	startRegistryReportJob(s, app)

	log.Println("Starting background job scheduler...")
	s.StartAsync()
	return s
}

func startHeartbeatJob(s *gocron.Scheduler, app JobContext) {
	interval := app.Config().Stream.KeepaliveInterval
	if interval <= 0 {
		log.Println("Keepalive interval is 0, stream heartbeats are disabled.")
		return
	}

	log.Printf("Scheduling job: '%s' to run every %d seconds.", HeartbeatJob, interval)
	_, err := s.Every(interval).Seconds().Tag(HeartbeatJob).Do(func() {
		app.Relay().Heartbeat()
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", HeartbeatJob, err)
	}
}

func startRegistryReportJob(s *gocron.Scheduler, app JobContext) {
	_, err := s.Every(1).Minutes().Tag(RegistryReportJob).Do(func() {
		jobs := app.Relay().ListActiveJobs()
		if len(jobs) > 0 {
			log.Printf("Active jobs: %d %v", len(jobs), jobs)
		}
	})
	if err != nil {
		log.Printf("Error scheduling '%s' job: %v", RegistryReportJob, err)
	}
}
