package model

// ScoreboardCell is one (participant, problem) entry of an assignment
// scoreboard. A participant with no submissions for the problem still gets a
// cell: Attempted=false, Score=0, Attempts=0.
type ScoreboardCell struct {
	ProblemID string           `json:"problem_id"`
	Score     int              `json:"score"`
	MaxScore  int              `json:"max_score"`
	Status    SubmissionStatus `json:"status,omitempty"`
	Attempts  int              `json:"attempts"`
	Attempted bool             `json:"attempted"`
}

type ScoreboardRow struct {
	ParticipantID string           `json:"participant_id"`
	Username      string           `json:"username"`
	Cells         []ScoreboardCell `json:"cells"`
	TotalScore    int              `json:"total_score"`
	TotalMaxScore int              `json:"total_max_score"`
}

type Scoreboard struct {
	AssignmentID  string          `json:"assignment_id"`
	TotalStudents int             `json:"total_students"`
	TotalProblems int             `json:"total_problems"`
	AverageScore  float64         `json:"average_score"`
	Rows          []ScoreboardRow `json:"rows"`
}
