// Package judge is the adapter for the external code-execution service. It
// builds the judge payload, posts it, and parses the verdict response; it
// never runs code itself.
package judge

import "time"

// Request is the body of POST {JUDGE_API_URL}/v2/judge.
type Request struct {
	Code          string            `json:"code"`
	Language      string            `json:"language"`
	TestCases     []RequestTestCase `json:"test_cases"`
	TimeLimitMs   int               `json:"time_limit_ms"`
	MemoryLimitKb int               `json:"memory_limit_kb"`
}

type RequestTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// Response is the judge's verdict for one submission.
type Response struct {
	Verdict      string       `json:"verdict"` // AC|WA|TLE|RTE|CE
	Score        int          `json:"score"`
	TotalCases   int          `json:"total_cases"`
	PassedCases  int          `json:"passed_cases"`
	TotalTimeMs  int          `json:"total_time_ms"`
	MaxTimeMs    int          `json:"max_time_ms"`
	AvgTimeMs    float64      `json:"avg_time_ms"`
	MaxMemoryKb  int          `json:"max_memory_kb"`
	TestResults  []TestResult `json:"test_results"`
	ErrorMessage string       `json:"error_message,omitempty"`
	JudgedAt     time.Time    `json:"judged_at"`
}

// TestResult is the judge's outcome for one test case, in the order the
// cases were sent.
type TestResult struct {
	CaseNumber     int    `json:"case_number"`
	Verdict        string `json:"verdict"`
	TimeMs         int    `json:"time_ms"`
	MemoryKb       int    `json:"memory_kb"`
	InputData      string `json:"input_data"`
	ExpectedOutput string `json:"expected_output"`
	ActualOutput   string `json:"actual_output"`
	ErrorMessage   string `json:"error_message,omitempty"`
}
