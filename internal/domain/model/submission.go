package model

import "time"

type SubmissionStatus string

const (
	// StatusSubmitted is the pre-judgment state. The literal "DISERAHKAN" is
	// what the existing frontend matches on, so it stays untranslated.
	StatusSubmitted         SubmissionStatus = "DISERAHKAN"
	StatusAccepted          SubmissionStatus = "ACCEPTED"
	StatusWrongAnswer       SubmissionStatus = "WRONG_ANSWER"
	StatusTimeLimitExceeded SubmissionStatus = "TIME_LIMIT_EXCEEDED"
	StatusRuntimeError      SubmissionStatus = "RUNTIME_ERROR"
	StatusCompilationError  SubmissionStatus = "COMPILATION_ERROR"
	// StatusJudgeUnavailable is the terminal state for submissions whose judge
	// call failed after all retry attempts. Nothing stays DISERAHKAN forever.
	StatusJudgeUnavailable SubmissionStatus = "JUDGE_UNAVAILABLE"
)

// IsTerminal reports whether no further status transition is possible.
func (s SubmissionStatus) IsTerminal() bool {
	return s != StatusSubmitted
}

// Submission is one attempt by a participant to solve a problem. Rows are
// immutable history: a new attempt is a new row, and the only in-place write
// is the single verdict update performed when the judge result arrives.
type Submission struct {
	ID            string           `json:"id"`
	ParticipantID string           `json:"participant_id"`
	ProblemID     string           `json:"problem_id"`
	LanguageID    string           `json:"language_id"`
	Code          string           `json:"code"` // Might omit from general listings
	Status        SubmissionStatus `json:"status"`
	Score         int              `json:"score"` // 0..100
	Verdict       *Verdict         `json:"verdict,omitempty"`
	// SubmittedAt is provisional at creation; the verdict processor overwrites
	// it with the judge's judged_at once judgment completes.
	SubmittedAt     time.Time        `json:"submitted_at"`
	CreatedAt       time.Time        `json:"created_at"`
	TestCaseResults []TestCaseResult `json:"test_case_results,omitempty"`
	LanguageSlug    *string          `json:"language_slug,omitempty"` // For display
}

// TestCaseResult is the observed outcome of one test case of one submission.
// Created in case order by the verdict processor, never for a compile error,
// never mutated afterward.
type TestCaseResult struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submission_id"`
	TestCaseID   string    `json:"test_case_id"`
	CaseNumber   int       `json:"case_number"`
	Status       Verdict   `json:"status"` // Per-case verdict (AC/WA/TLE/RTE)
	ActualOutput *string   `json:"actual_output,omitempty"`
	TimeMs       *int      `json:"time_ms,omitempty"`
	MemoryKb     *int      `json:"memory_kb,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// SubmissionStats is derived, never persisted: a pure function of one
// participant's submission list for one problem.
type SubmissionStats struct {
	TotalSubmission        int         `json:"total_submission"`
	LatestSubmission       *Submission `json:"latest_submission"`
	HighestScore           int         `json:"highest_score"`
	HighestScoreSubmission *Submission `json:"highest_score_submission"`
}
