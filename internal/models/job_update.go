package models

import "encoding/json"

// StatusUpdate is the body the automation workflow posts to /status.
type StatusUpdate struct {
	JobID    string `json:"jobId"`
	Status   string `json:"status"` // e.g. "processing", "complete", "error"
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

// CompletionUpdate is the body the automation workflow posts to /complete.
// Every field except JobID is optional.
type CompletionUpdate struct {
	JobID    string          `json:"jobId"`
	Title    string          `json:"title,omitempty"`
	Subtitle string          `json:"subtitle,omitempty"`
	FilesURL string          `json:"filesUrl,omitempty"`
	Details  json.RawMessage `json:"details,omitempty"`
}

type EventType string

const (
	EventConnected    EventType = "connected"
	EventStatusUpdate EventType = "status_update"
	EventJobComplete  EventType = "job_complete"
)

// ConnectedEvent is always the first event written on a new push channel.
type ConnectedEvent struct {
	Type    EventType `json:"type"`
	JobID   string    `json:"jobId"`
	Message string    `json:"message"`
}

type StatusEvent struct {
	Type      EventType `json:"type"`
	JobID     string    `json:"jobId"`
	Status    string    `json:"status"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle"`
	Timestamp string    `json:"timestamp"`
}

type CompletionEvent struct {
	Type      EventType       `json:"type"`
	JobID     string          `json:"jobId"`
	Status    string          `json:"status"`
	Title     string          `json:"title"`
	Subtitle  string          `json:"subtitle"`
	FilesURL  *string         `json:"filesUrl"` // null when the workflow sent no link
	Details   json.RawMessage `json:"details"`
	Timestamp string          `json:"timestamp"`
}
