package domain

import "time"

// BatchJob is a non-interactive pipeline run request.
type BatchJob struct {
	JobID      string    `json:"job_id"`
	Filename   string    `json:"filename"`
	StorageKey string    `json:"storage_key"`
	Engine     string    `json:"engine,omitempty"`
	Fields     []string  `json:"fields,omitempty"`
	Review     bool      `json:"review"`
	CreatedAt  time.Time `json:"created_at"`
}
