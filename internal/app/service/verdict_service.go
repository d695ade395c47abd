package service

import (
	"context"
	"database/sql"
	"log"
	"math"
	"strings"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository"
	"praktikum_core/internal/judge"

	"github.com/google/uuid"
)

// VerdictService turns a judge response into the one and only mutation a
// submission ever receives: status, score and verdict are written together
// with the per-test-case result rows in a single transaction.
type VerdictService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	db             *sql.DB
}

func NewVerdictService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	db *sql.DB,
) *VerdictService {
	return &VerdictService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		db:             db,
	}
}

// ComputeScore is the judge-tally-based score: round(passed/total*100). The
// judge's own counts are the source of truth; nothing is re-derived from the
// per-case results.
func ComputeScore(passedCases, totalCases int) int {
	if totalCases <= 0 {
		return 0
	}
	return int(math.Round(float64(passedCases) / float64(totalCases) * 100))
}

// ProcessResponse applies a judge response to a pending submission.
//
// The per-case rows are zipped against the merged case list (hidden first,
// then examples) by position, exactly the order the request builder sent
// them in. A length mismatch is an internal-consistency error and nothing is
// persisted.
func (s *VerdictService) ProcessResponse(ctx context.Context, submissionID string, resp *judge.Response) error {
	verdict := model.Verdict(strings.ToUpper(strings.TrimSpace(resp.Verdict)))
	status, err := model.StatusForVerdict(verdict)
	if err != nil {
		return common.Errorf("judge response for submission %s: %w", submissionID, err)
	}

	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return common.Errorf("submission %s not found: %w", submissionID, err)
	}
	if submission.Status.IsTerminal() {
		log.Printf("WARN: Submission %s already judged (status: %s). Ignoring response.", submissionID, submission.Status)
		return nil // Idempotency
	}

	var results []model.TestCaseResult
	if verdict.RunsTestCases() {
		results, err = s.zipResults(ctx, submission, resp)
		if err != nil {
			return err
		}
	}

	score := ComputeScore(resp.PassedCases, resp.TotalCases)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return common.Errorf("failed to begin verdict transaction: %w", err)
	}
	defer tx.Rollback()

	// The creation timestamp was provisional; the judge's judged_at is the
	// authoritative submission time.
	if err := s.submissionRepo.ApplyVerdict(ctx, tx, submissionID, status, score, verdict, resp.JudgedAt); err != nil {
		return common.Errorf("failed to apply verdict to submission %s: %w", submissionID, err)
	}

	if len(results) > 0 {
		if err := s.submissionRepo.CreateTestCaseResults(ctx, tx, results); err != nil {
			return common.Errorf("failed to store test case results for %s: %w", submissionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return common.Errorf("failed to commit verdict for submission %s: %w", submissionID, err)
	}

	log.Printf("Submission %s judged: verdict %s, status %s, score %d (%d/%d cases).",
		submissionID, verdict, status, score, resp.PassedCases, resp.TotalCases)
	return nil
}

// MarkJudgeUnavailable is the terminal transition for submissions whose judge
// call failed after every retry attempt.
func (s *VerdictService) MarkJudgeUnavailable(ctx context.Context, submissionID string) error {
	if err := s.submissionRepo.UpdateSubmissionStatus(ctx, nil, submissionID, model.StatusJudgeUnavailable); err != nil {
		return common.Errorf("failed to mark submission %s judge-unavailable: %w", submissionID, err)
	}
	log.Printf("Submission %s marked %s.", submissionID, model.StatusJudgeUnavailable)
	return nil
}

func (s *VerdictService) zipResults(ctx context.Context, submission *model.Submission, resp *judge.Response) ([]model.TestCaseResult, error) {
	hidden, err := s.problemRepo.GetTestCasesByProblemID(ctx, submission.ProblemID)
	if err != nil {
		return nil, common.Errorf("failed to fetch test cases for problem %s: %w", submission.ProblemID, err)
	}
	examples, err := s.problemRepo.GetExamplesByProblemID(ctx, submission.ProblemID)
	if err != nil {
		return nil, common.Errorf("failed to fetch example cases for problem %s: %w", submission.ProblemID, err)
	}

	// Same order as the request builder: hidden cases, then examples.
	caseIDs := make([]string, 0, len(hidden)+len(examples))
	for _, tc := range hidden {
		caseIDs = append(caseIDs, tc.ID)
	}
	for _, ex := range examples {
		caseIDs = append(caseIDs, ex.ID)
	}

	if len(resp.TestResults) != len(caseIDs) {
		return nil, common.Errorf("judge returned %d results for %d cases (submission %s): %w",
			len(resp.TestResults), len(caseIDs), submission.ID, common.ErrResultMismatch)
	}

	results := make([]model.TestCaseResult, 0, len(caseIDs))
	for i, res := range resp.TestResults {
		res := res
		results = append(results, model.TestCaseResult{
			ID:           uuid.NewString(),
			SubmissionID: submission.ID,
			TestCaseID:   caseIDs[i],
			CaseNumber:   i + 1,
			Status:       model.Verdict(strings.ToUpper(strings.TrimSpace(res.Verdict))),
			ActualOutput: &res.ActualOutput,
			TimeMs:       &res.TimeMs,
			MemoryKb:     &res.MemoryKb,
		})
	}
	return results, nil
}
