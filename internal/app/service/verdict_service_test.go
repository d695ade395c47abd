package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository/repotest"
	"praktikum_core/internal/judge"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type verdictFixture struct {
	svc      *VerdictService
	subRepo  *repotest.FakeSubmissionRepo
	probRepo *repotest.FakeProblemRepo
}

// newVerdictFixture seeds one pending submission against a problem with two
// hidden cases and one example, the standard three-case grading pool.
func newVerdictFixture(t *testing.T) *verdictFixture {
	t.Helper()

	probRepo := repotest.NewFakeProblemRepo()
	probRepo.Problems["prob-1"] = &model.Problem{ID: "prob-1", AssignmentID: "asg-1", Title: "Sum"}
	probRepo.TestCases["prob-1"] = []model.TestCase{
		{ID: "tc-1", ProblemID: "prob-1", SortOrder: 1},
		{ID: "tc-2", ProblemID: "prob-1", SortOrder: 2},
	}
	probRepo.Examples["prob-1"] = []model.ExampleTestCase{
		{ID: "ex-1", ProblemID: "prob-1", SortOrder: 1},
	}

	subRepo := repotest.NewFakeSubmissionRepo()
	subRepo.Submissions["sub-1"] = &model.Submission{
		ID:            "sub-1",
		ParticipantID: "part-1",
		ProblemID:     "prob-1",
		Status:        model.StatusSubmitted,
		SubmittedAt:   time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	return &verdictFixture{
		svc:      NewVerdictService(subRepo, probRepo, repotest.StubDB()),
		subRepo:  subRepo,
		probRepo: probRepo,
	}
}

func threeCaseResponse(verdict string, perCase []string, passed int, judgedAt time.Time) *judge.Response {
	resp := &judge.Response{
		Verdict:     verdict,
		TotalCases:  3,
		PassedCases: passed,
		JudgedAt:    judgedAt,
	}
	for i, v := range perCase {
		resp.TestResults = append(resp.TestResults, judge.TestResult{
			CaseNumber:   i + 1,
			Verdict:      v,
			TimeMs:       10 * (i + 1),
			MemoryKb:     1024,
			ActualOutput: "out",
		})
	}
	return resp
}

func TestProcessResponseAccepted(t *testing.T) {
	f := newVerdictFixture(t)
	judgedAt := time.Date(2026, 3, 1, 10, 0, 5, 0, time.UTC)

	resp := threeCaseResponse("AC", []string{"AC", "AC", "AC"}, 3, judgedAt)
	require.NoError(t, f.svc.ProcessResponse(context.Background(), "sub-1", resp))

	sub := f.subRepo.Submissions["sub-1"]
	assert.Equal(t, model.StatusAccepted, sub.Status)
	assert.Equal(t, 100, sub.Score)
	require.NotNil(t, sub.Verdict)
	assert.Equal(t, model.VerdictAccepted, *sub.Verdict)
	// The provisional creation time is replaced by the judge's timestamp.
	assert.True(t, sub.SubmittedAt.Equal(judgedAt))

	results := f.subRepo.Results["sub-1"]
	require.Len(t, results, 3)
	// Zipped by position: hidden cases first, then the example.
	assert.Equal(t, "tc-1", results[0].TestCaseID)
	assert.Equal(t, "tc-2", results[1].TestCaseID)
	assert.Equal(t, "ex-1", results[2].TestCaseID)
	assert.Equal(t, 1, results[0].CaseNumber)
	assert.Equal(t, 3, results[2].CaseNumber)
	assert.Equal(t, model.VerdictAccepted, results[0].Status)
}

func TestProcessResponsePartialWrongAnswer(t *testing.T) {
	f := newVerdictFixture(t)

	resp := threeCaseResponse("WA", []string{"AC", "WA", "WA"}, 1, time.Now())
	require.NoError(t, f.svc.ProcessResponse(context.Background(), "sub-1", resp))

	sub := f.subRepo.Submissions["sub-1"]
	assert.Equal(t, model.StatusWrongAnswer, sub.Status)
	assert.Equal(t, 33, sub.Score) // round(1/3*100)

	results := f.subRepo.Results["sub-1"]
	require.Len(t, results, 3)
	assert.Equal(t, model.VerdictAccepted, results[0].Status)
	assert.Equal(t, model.VerdictWrongAnswer, results[1].Status)
}

func TestProcessResponseCompileError(t *testing.T) {
	f := newVerdictFixture(t)

	resp := &judge.Response{
		Verdict:      "CE",
		TotalCases:   3,
		PassedCases:  0,
		ErrorMessage: "syntax error",
		JudgedAt:     time.Now(),
	}
	require.NoError(t, f.svc.ProcessResponse(context.Background(), "sub-1", resp))

	sub := f.subRepo.Submissions["sub-1"]
	assert.Equal(t, model.StatusCompilationError, sub.Status)
	assert.Equal(t, 0, sub.Score)
	// No cases ran, so no per-case rows exist.
	assert.Empty(t, f.subRepo.Results["sub-1"])
}

func TestProcessResponseResultMismatch(t *testing.T) {
	f := newVerdictFixture(t)

	// Two results for a three-case pool.
	resp := threeCaseResponse("WA", []string{"AC", "WA"}, 1, time.Now())
	err := f.svc.ProcessResponse(context.Background(), "sub-1", resp)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrResultMismatch))

	// Nothing persisted: the submission is still pending.
	sub := f.subRepo.Submissions["sub-1"]
	assert.Equal(t, model.StatusSubmitted, sub.Status)
	assert.Empty(t, f.subRepo.Results["sub-1"])
}

func TestProcessResponseIdempotent(t *testing.T) {
	f := newVerdictFixture(t)

	first := threeCaseResponse("AC", []string{"AC", "AC", "AC"}, 3, time.Now())
	require.NoError(t, f.svc.ProcessResponse(context.Background(), "sub-1", first))

	// A duplicate delivery must be a no-op, not a second write.
	second := threeCaseResponse("WA", []string{"WA", "WA", "WA"}, 0, time.Now())
	require.NoError(t, f.svc.ProcessResponse(context.Background(), "sub-1", second))

	sub := f.subRepo.Submissions["sub-1"]
	assert.Equal(t, model.StatusAccepted, sub.Status)
	assert.Equal(t, 100, sub.Score)
	assert.Len(t, f.subRepo.Results["sub-1"], 3)
}

func TestProcessResponseUnknownVerdict(t *testing.T) {
	f := newVerdictFixture(t)

	resp := &judge.Response{Verdict: "MLE", TotalCases: 3, JudgedAt: time.Now()}
	err := f.svc.ProcessResponse(context.Background(), "sub-1", resp)
	require.Error(t, err)

	assert.Equal(t, model.StatusSubmitted, f.subRepo.Submissions["sub-1"].Status)
}

func TestProcessResponseNormalizesVerdictCase(t *testing.T) {
	f := newVerdictFixture(t)

	resp := threeCaseResponse(" ac ", []string{"AC", "AC", "AC"}, 3, time.Now())
	require.NoError(t, f.svc.ProcessResponse(context.Background(), "sub-1", resp))
	assert.Equal(t, model.StatusAccepted, f.subRepo.Submissions["sub-1"].Status)
}

func TestMarkJudgeUnavailable(t *testing.T) {
	f := newVerdictFixture(t)

	require.NoError(t, f.svc.MarkJudgeUnavailable(context.Background(), "sub-1"))
	assert.Equal(t, model.StatusJudgeUnavailable, f.subRepo.Submissions["sub-1"].Status)
}

func TestComputeScore(t *testing.T) {
	cases := []struct {
		passed, total, want int
	}{
		{3, 3, 100},
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{1, 6, 17},
		{0, 0, 0}, // degenerate tally guards against division by zero
		{5, 0, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ComputeScore(tc.passed, tc.total), "%d/%d", tc.passed, tc.total)
	}
}
