package judge

import (
	"strings"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/platform/config"
)

// Conservative ceilings used when a problem carries no limits of its own and
// no override is configured.
const (
	FallbackTimeLimitMs   = 10000
	FallbackMemoryLimitKb = 655360
)

func defaultTimeLimitMs() int {
	if cfg := config.AppConfig; cfg != nil && cfg.DefaultTimeLimitMs > 0 {
		return cfg.DefaultTimeLimitMs
	}
	return FallbackTimeLimitMs
}

func defaultMemoryLimitKb() int {
	if cfg := config.AppConfig; cfg != nil && cfg.DefaultMemoryLimitKb > 0 {
		return cfg.DefaultMemoryLimitKb
	}
	return FallbackMemoryLimitKb
}

// languageAliases normalizes the names the judge understands. Anything not
// listed passes through lower-cased as-is; the judge rejects what it cannot
// run, so an unknown name is not an error here.
var languageAliases = map[string]string{
	"c":      "c",
	"cpp":    "cpp",
	"c++":    "cpp",
	"java":   "java",
	"python": "python",
}

// NormalizeLanguage maps a language slug to the judge's canonical name.
func NormalizeLanguage(name string) string {
	lower := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := languageAliases[lower]; ok {
		return canonical
	}
	return lower
}

// MergeTestCases builds the grading pool: hidden cases first, then public
// examples. Order matters because results are matched back by position.
func MergeTestCases(hidden []model.TestCase, examples []model.ExampleTestCase) []RequestTestCase {
	merged := make([]RequestTestCase, 0, len(hidden)+len(examples))
	for _, tc := range hidden {
		merged = append(merged, RequestTestCase{Input: tc.Input, ExpectedOutput: tc.ExpectedOutput})
	}
	for _, ex := range examples {
		merged = append(merged, RequestTestCase{Input: ex.Input, ExpectedOutput: ex.ExpectedOutput})
	}
	return merged
}

// BuildRequest assembles the judge payload for one submission. An empty
// merged pool is a hard error: a request is never sent with zero cases.
func BuildRequest(problem *model.Problem, hidden []model.TestCase, examples []model.ExampleTestCase, code, language string) (*Request, error) {
	testCases := MergeTestCases(hidden, examples)
	if len(testCases) == 0 {
		return nil, common.Errorf("problem %s: %w", problem.ID, common.ErrTestCaseNotFound)
	}

	timeLimit := problem.TimeLimitMs
	if timeLimit <= 0 {
		timeLimit = defaultTimeLimitMs()
	}
	memoryLimit := problem.MemoryLimitKb
	if memoryLimit <= 0 {
		memoryLimit = defaultMemoryLimitKb()
	}

	return &Request{
		Code:          code,
		Language:      NormalizeLanguage(language),
		TestCases:     testCases,
		TimeLimitMs:   timeLimit,
		MemoryLimitKb: memoryLimit,
	}, nil
}
