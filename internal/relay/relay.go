// Package relay routes job updates from the automation workflow to the one
// push channel currently subscribed for that job.
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/vrsandeep/jobrelay/internal/models"
)

const (
	connectedMessage  = "Connected to status updates"
	noClientReason    = "No client connected for this jobId"
	defaultTitle      = "Job Finished"
	defaultSubtitle   = "Analysis complete"
	defaultBufferSize = 16
	timestampLayout   = "2006-01-02T15:04:05.000Z07:00"
)

var emptyDetails = json.RawMessage(`{}`)

// Relay owns the jobId -> subscription registry.
type Relay struct {
	mu         sync.Mutex
	subs       map[string]*Subscription
	bufferSize int
	now        func() time.Time
}

// Option customizes a Relay at construction time.
type Option func(*Relay)

// WithBufferSize sets how many frames may wait for a slow peer before the
// subscription is treated as dead.
func WithBufferSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.bufferSize = n
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

func New(opts ...Option) *Relay {
	r := &Relay{
		subs:       make(map[string]*Subscription),
		bufferSize: defaultBufferSize,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Subscribe registers a new push channel for jobID. A subscription already
// registered for the same job is released and replaced.
func (r *Relay) Subscribe(jobID string) (*Subscription, error) {
	if jobID == "" {
		return nil, invalid("Missing jobId query parameter")
	}

	data, err := json.Marshal(models.ConnectedEvent{
		Type:    models.EventConnected,
		JobID:   jobID,
		Message: connectedMessage,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode connected event: %w", err)
	}

	sub := newSubscription(jobID, r.bufferSize, r.now())
	sub.enqueue(Frame{Data: data})

	r.mu.Lock()
	old := r.subs[jobID]
	r.subs[jobID] = sub
	active := len(r.subs)
	r.mu.Unlock()

	if old != nil {
		old.release()
		log.Printf("Replaced subscriber %s for job %s", old.ID, jobID)
	}
	log.Printf("Client connected for job %s. Active jobs: %d", jobID, active)
	return sub, nil
}

// Unsubscribe releases sub and drops its registry entry, unless a newer
// subscription has taken the job over in the meantime. Safe to call twice.
func (r *Relay) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	sub.release()

	r.mu.Lock()
	current, ok := r.subs[sub.JobID]
	removed := ok && current == sub
	if removed {
		delete(r.subs, sub.JobID)
	}
	active := len(r.subs)
	r.mu.Unlock()

	if removed {
		log.Printf("Client disconnected for job %s. Active jobs: %d", sub.JobID, active)
	}
}

// PublishStatus forwards an intermediate status update to the job's subscriber.
func (r *Relay) PublishStatus(u models.StatusUpdate) (models.DeliveryResult, error) {
	if u.JobID == "" {
		return models.DeliveryResult{}, invalid("Missing required field: jobId")
	}
	if u.Status == "" || u.Title == "" {
		return models.DeliveryResult{}, invalid("Missing required fields: status, title")
	}

	event := models.StatusEvent{
		Type:      models.EventStatusUpdate,
		JobID:     u.JobID,
		Status:    u.Status,
		Title:     u.Title,
		Subtitle:  u.Subtitle,
		Timestamp: r.timestamp(),
	}
	result, err := r.deliver(u.JobID, event)
	if err == nil && result.Delivered {
		log.Printf("Sent status to job %s: %s", u.JobID, u.Title)
	}
	return result, err
}

// PublishCompletion forwards the terminal update for a job. The subscription
// stays registered; closing the stream is up to the subscriber.
func (r *Relay) PublishCompletion(u models.CompletionUpdate) (models.DeliveryResult, error) {
	if u.JobID == "" {
		return models.DeliveryResult{}, invalid("Missing required field: jobId")
	}

	event := models.CompletionEvent{
		Type:      models.EventJobComplete,
		JobID:     u.JobID,
		Status:    "complete",
		Title:     orDefault(u.Title, defaultTitle),
		Subtitle:  orDefault(u.Subtitle, defaultSubtitle),
		Details:   normalizeDetails(u.Details),
		Timestamp: r.timestamp(),
	}
	if u.FilesURL != "" {
		filesURL := u.FilesURL
		event.FilesURL = &filesURL
	}

	result, err := r.deliver(u.JobID, event)
	if err == nil && result.Delivered {
		if u.FilesURL != "" {
			log.Printf("Job %s complete: %s (files: %s)", u.JobID, event.Title, u.FilesURL)
		} else {
			log.Printf("Job %s complete: %s", u.JobID, event.Title)
		}
	}
	return result, err
}

// ListActiveJobs returns the subscribed job IDs in no particular order.
func (r *Relay) ListActiveJobs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	jobs := make([]string, 0, len(r.subs))
	for jobID := range r.subs {
		jobs = append(jobs, jobID)
	}
	return jobs
}

func (r *Relay) Health() models.HealthReport {
	jobs := r.ListActiveJobs()
	return models.HealthReport{
		Status:     "ok",
		ActiveJobs: len(jobs),
		Jobs:       jobs,
	}
}

// Heartbeat queues a keepalive frame on every subscription. Subscriptions
// that cannot take it are dropped as dead.
func (r *Relay) Heartbeat() {
	for _, sub := range r.snapshot() {
		if !sub.enqueue(Frame{Keepalive: true}) {
			log.Printf("Subscriber for job %s is not draining, dropping it", sub.JobID)
			r.Unsubscribe(sub)
		}
	}
}

// Close releases every subscription. Streams still open will end.
func (r *Relay) Close() {
	r.mu.Lock()
	subs := r.subs
	r.subs = make(map[string]*Subscription)
	r.mu.Unlock()

	for _, sub := range subs {
		sub.release()
	}
}

func (r *Relay) deliver(jobID string, event any) (models.DeliveryResult, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return models.DeliveryResult{}, fmt.Errorf("failed to encode event for job %s: %w", jobID, err)
	}

	r.mu.Lock()
	sub := r.subs[jobID]
	r.mu.Unlock()

	if sub == nil {
		log.Printf("No client connected for job %s", jobID)
		return models.DeliveryResult{Success: true, Reason: noClientReason}, nil
	}
	if !sub.enqueue(Frame{Data: data}) {
		// A stalled or already released channel counts as a disconnect.
		log.Printf("Subscriber for job %s stopped receiving, dropping it", jobID)
		r.Unsubscribe(sub)
		return models.DeliveryResult{Success: true, Reason: noClientReason}, nil
	}
	return models.DeliveryResult{Success: true, Delivered: true}, nil
}

func (r *Relay) snapshot() []*Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	subs := make([]*Subscription, 0, len(r.subs))
	for _, sub := range r.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (r *Relay) timestamp() string {
	return r.now().UTC().Format(timestampLayout)
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// normalizeDetails maps the falsy JSON literals a workflow may send for
// "no details" to an empty object.
func normalizeDetails(raw json.RawMessage) json.RawMessage {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`:
		return emptyDetails
	}
	return raw
}
