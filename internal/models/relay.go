package models

// DeliveryResult is returned to the publisher for every accepted update.
// Delivered is false when no subscriber was connected for the job.
type DeliveryResult struct {
	Success   bool   `json:"success"`
	Delivered bool   `json:"delivered"`
	Reason    string `json:"reason,omitempty"`
}

type HealthReport struct {
	Status     string   `json:"status"`
	ActiveJobs int      `json:"activeJobs"`
	Jobs       []string `json:"jobs"`
}

type JobList struct {
	Count int      `json:"count"`
	Jobs  []string `json:"jobs"`
}
