package service

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"time"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository"
	"praktikum_core/internal/judge"

	"github.com/google/uuid"
)

type SubmissionService struct {
	submissionRepo  repository.SubmissionRepository
	problemRepo     repository.ProblemRepository
	assignmentRepo  repository.AssignmentRepository
	judgeJobService *JudgeJobService
	judgeClient     *judge.Client
	db              *sql.DB // For transactions
}

func NewSubmissionService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	assignRepo repository.AssignmentRepository,
	judgeJobService *JudgeJobService,
	judgeClient *judge.Client,
	db *sql.DB,
) *SubmissionService {
	return &SubmissionService{
		submissionRepo:  subRepo,
		problemRepo:     probRepo,
		assignmentRepo:  assignRepo,
		judgeJobService: judgeJobService,
		judgeClient:     judgeClient,
		db:              db,
	}
}

type SubmitRequest struct {
	ProblemID  string `json:"problem_id"`
	LanguageID string `json:"language_id"` // Or slug
	Code       string `json:"code"`
}

// eligibility holds what the gate resolved while validating an attempt.
type eligibility struct {
	problem     *model.Problem
	assignment  *model.Assignment
	participant *model.Participant
	language    *model.Language
}

// checkEligibility runs the gate checks in order, short-circuiting on the
// first failure. It has no side effects: nothing is persisted on rejection.
func (s *SubmissionService) checkEligibility(ctx context.Context, userID string, req SubmitRequest) (*eligibility, error) {
	// 1. Required fields.
	if req.Code == "" || req.LanguageID == "" || req.ProblemID == "" {
		return nil, common.Errorf("code, language and problem are required: %w", common.ErrValidation)
	}

	// 2. Problem and its owning assignment must exist.
	problem, err := s.problemRepo.FindProblemByID(ctx, req.ProblemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	assignment, err := s.assignmentRepo.FindAssignmentByID(ctx, problem.AssignmentID)
	if err != nil {
		return nil, common.Errorf("assignment not found for problem %s: %w", problem.ID, err)
	}

	language, err := s.problemRepo.GetLanguageByID(ctx, req.LanguageID)
	if err != nil {
		return nil, common.Errorf("language not found: %w", err)
	}
	if !language.IsActive {
		return nil, common.Errorf("language %s is not active: %w", language.Slug, common.ErrBadRequest)
	}

	// 3. Deadline. No grace window, no late submissions.
	if !time.Now().Before(assignment.Deadline) {
		return nil, common.Errorf("assignment %s deadline %s: %w", assignment.ID, assignment.Deadline.Format(time.RFC3339), common.ErrDeadlineExceeded)
	}

	// 4. Enrollment in the class owning the assignment.
	participant, err := s.assignmentRepo.FindParticipant(ctx, userID, assignment.CourseClassID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("user %s is not a participant of class %s: %w", userID, assignment.CourseClassID, common.ErrNotEnrolled)
		}
		return nil, common.Errorf("failed to resolve participant: %w", err)
	}

	// 5. Submit-count quota, when the assignment configures one.
	if assignment.MaxSubmissions > 0 {
		count, err := s.submissionRepo.CountByParticipantAndProblem(ctx, participant.ID, problem.ID)
		if err != nil {
			return nil, common.Errorf("failed to count prior submissions: %w", err)
		}
		if count >= assignment.MaxSubmissions {
			return nil, common.Errorf("%d of %d attempts used: %w", count, assignment.MaxSubmissions, common.ErrQuotaExceeded)
		}
	}

	return &eligibility{problem: problem, assignment: assignment, participant: participant, language: language}, nil
}

// Submit accepts a submission: gate, persist the DISERAHKAN row, enqueue the
// judge job, all in one transaction. Judging happens asynchronously; callers
// get the pending record back immediately.
func (s *SubmissionService) Submit(ctx context.Context, userID string, req SubmitRequest) (*model.Submission, error) {
	elig, err := s.checkEligibility(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	// Refuse to accept what can never be judged.
	if err := s.ensureHasTestCases(ctx, elig.problem.ID); err != nil {
		return nil, err
	}

	submission := &model.Submission{
		ID:            uuid.NewString(),
		ParticipantID: elig.participant.ID,
		ProblemID:     elig.problem.ID,
		LanguageID:    elig.language.ID,
		Code:          req.Code,
		Status:        model.StatusSubmitted,
		SubmittedAt:   time.Now(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.submissionRepo.CreateSubmission(ctx, tx, submission); err != nil {
		return nil, common.Errorf("failed to create submission: %w", err)
	}

	job, err := s.judgeJobService.EnqueueSubmissionJudgingJob(ctx, tx, submission.ID)
	if err != nil {
		return nil, common.Errorf("failed to enqueue judge job: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	log.Printf("Submission %s created and judge job %s enqueued.", submission.ID, job.ID)
	return submission, nil
}

// DryRun judges the code synchronously and returns the judge's response
// without persisting anything. It is the non-scored trial run: same gate,
// same payload, no submission row, no history.
func (s *SubmissionService) DryRun(ctx context.Context, userID string, req SubmitRequest) (*judge.Response, error) {
	elig, err := s.checkEligibility(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	hidden, examples, err := s.loadTestCases(ctx, elig.problem.ID)
	if err != nil {
		return nil, err
	}

	judgeReq, err := judge.BuildRequest(elig.problem, hidden, examples, req.Code, elig.language.Slug)
	if err != nil {
		return nil, err
	}

	resp, err := s.judgeClient.Judge(ctx, judgeReq)
	if err != nil {
		return nil, common.Errorf("dry run judge call failed: %w", err)
	}
	return resp, nil
}

// GetSubmission returns a submission with its per-test-case results. Students
// may only read their own rows; lecturers may read any.
func (s *SubmissionService) GetSubmission(ctx context.Context, userID, role, submissionID string) (*model.Submission, error) {
	submission, err := s.submissionRepo.GetSubmissionByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}

	if role != model.RoleLecturer {
		participant, err := s.assignmentRepo.GetParticipantByID(ctx, submission.ParticipantID)
		if err != nil {
			return nil, common.Errorf("failed to resolve submission owner: %w", err)
		}
		if participant.UserID != userID {
			return nil, common.Errorf("submission belongs to another participant: %w", common.ErrForbidden)
		}
	}

	results, err := s.submissionRepo.GetTestCaseResults(ctx, submissionID)
	if err != nil {
		return nil, common.Errorf("failed to load test case results: %w", err)
	}
	submission.TestCaseResults = results
	return submission, nil
}

// GetHistory returns the caller's submission list for a problem, newest-first.
func (s *SubmissionService) GetHistory(ctx context.Context, userID, problemID string) ([]model.Submission, error) {
	participant, err := s.resolveParticipantForProblem(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	return s.submissionRepo.ListByParticipantAndProblem(ctx, participant.ID, problemID)
}

func (s *SubmissionService) resolveParticipantForProblem(ctx context.Context, userID, problemID string) (*model.Participant, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("problem not found: %w", err)
	}
	assignment, err := s.assignmentRepo.FindAssignmentByID(ctx, problem.AssignmentID)
	if err != nil {
		return nil, common.Errorf("assignment not found for problem %s: %w", problem.ID, err)
	}
	participant, err := s.assignmentRepo.FindParticipant(ctx, userID, assignment.CourseClassID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.Errorf("user %s is not a participant of class %s: %w", userID, assignment.CourseClassID, common.ErrNotEnrolled)
		}
		return nil, err
	}
	return participant, nil
}

func (s *SubmissionService) loadTestCases(ctx context.Context, problemID string) ([]model.TestCase, []model.ExampleTestCase, error) {
	hidden, err := s.problemRepo.GetTestCasesByProblemID(ctx, problemID)
	if err != nil {
		return nil, nil, common.Errorf("failed to fetch test cases: %w", err)
	}
	examples, err := s.problemRepo.GetExamplesByProblemID(ctx, problemID)
	if err != nil {
		return nil, nil, common.Errorf("failed to fetch example cases: %w", err)
	}
	return hidden, examples, nil
}

func (s *SubmissionService) ensureHasTestCases(ctx context.Context, problemID string) error {
	hidden, examples, err := s.loadTestCases(ctx, problemID)
	if err != nil {
		return err
	}
	if len(hidden)+len(examples) == 0 {
		return common.Errorf("problem %s: %w", problemID, common.ErrTestCaseNotFound)
	}
	return nil
}
