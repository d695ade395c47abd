package model

import (
	"encoding/json"
	"time"
)

const (
	JobTypeSubmissionJudging = "submission_judging"

	JobStatusQueued     = "Queued"
	JobStatusProcessing = "Processing" // Worker picked it up
	JobStatusCompleted  = "Completed"  // Verdict persisted
	JobStatusFailed     = "Failed"     // Attempts exhausted or unrecoverable error
)

// JudgeJob is the durable record behind one queued judge call. The Redis list
// carries only job IDs; this row holds the audit/retry state.
type JudgeJob struct {
	ID           string          `json:"id"`
	SubmissionID string          `json:"submission_id"`
	JobType      string          `json:"job_type"`
	Payload      json.RawMessage `json:"-"` // Not directly exposed; internal use
	Status       string          `json:"status"`
	Attempts     int             `json:"attempts"`
	LastError    *string         `json:"last_error,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// SubmissionJudgingPayload is stored in JudgeJob.Payload.
type SubmissionJudgingPayload struct {
	SubmissionID string `json:"submission_id"`
}
