package types

import "time"

// JobType represents the type of background job
type JobType string

const (
	JobTypeDecode JobType = "decode"
	JobTypeExport JobType = "export"
)

// JobStatus represents the current status of a background job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// Job represents a one-shot decode or export task in the queue. Decode jobs
// install a freshly decoded source into their session on success; export
// jobs append a new clip.
type Job struct {
	ID          string     `json:"id"`
	Type        JobType    `json:"type"`
	Status      JobStatus  `json:"status"`
	SessionID   string     `json:"sessionId"`
	Filename    string     `json:"filename,omitempty"` // original upload name (decode)
	ClipID      string     `json:"clipId,omitempty"`   // produced clip (export)
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}
