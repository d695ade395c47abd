package model

import (
	"time"
)

// Problem (soal) is one gradable coding exercise within an assignment.
type Problem struct {
	ID            string            `json:"id"`
	AssignmentID  string            `json:"assignment_id"`
	Title         string            `json:"title"`
	Slug          string            `json:"slug"`
	Description   string            `json:"description"`
	TimeLimitMs   int               `json:"time_limit_ms"`
	MemoryLimitKb int               `json:"memory_limit_kb"`
	ScoreWeight   int               `json:"score_weight"` // bobot nilai relative to other problems
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Examples      []ExampleTestCase `json:"examples,omitempty"`   // Public test cases
	TestCases     []TestCase        `json:"test_cases,omitempty"` // Hidden test cases (lecturer only view)
}

type TestCase struct { // Hidden test cases
	ID             string    `json:"id"`
	ProblemID      string    `json:"problem_id"`
	Input          string    `json:"input"`
	ExpectedOutput string    `json:"expected_output"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExampleTestCase is shown to students and also merged into the grading pool
// after the hidden cases.
type ExampleTestCase struct {
	ID             string    `json:"id"`
	ProblemID      string    `json:"problem_id"`
	Input          string    `json:"input"`
	ExpectedOutput string    `json:"expected_output"`
	Explanation    *string   `json:"explanation,omitempty"`
	SortOrder      int       `json:"sort_order"`
	CreatedAt      time.Time `json:"created_at"`
}
