package service

import (
	"context"
	"database/sql"
	"log"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

type ProblemService struct {
	problemRepo    repository.ProblemRepository
	assignmentRepo repository.AssignmentRepository
	db             *sql.DB // For transactions
}

func NewProblemService(
	problemRepo repository.ProblemRepository,
	assignmentRepo repository.AssignmentRepository,
	db *sql.DB,
) *ProblemService {
	return &ProblemService{
		problemRepo:    problemRepo,
		assignmentRepo: assignmentRepo,
		db:             db,
	}
}

type CreateProblemRequest struct {
	AssignmentID  string                  `json:"assignment_id"`
	Title         string                  `json:"title"`
	Description   string                  `json:"description"`
	TimeLimitMs   int                     `json:"time_limit_ms"`
	MemoryLimitKb int                     `json:"memory_limit_kb"`
	ScoreWeight   int                     `json:"score_weight"`
	TestCases     []model.TestCase        `json:"test_cases"` // Hidden ones
	Examples      []model.ExampleTestCase `json:"examples"`
}

func (s *ProblemService) CreateProblem(ctx context.Context, req CreateProblemRequest) (*model.Problem, error) {
	if req.Title == "" || req.AssignmentID == "" {
		return nil, common.Errorf("missing required fields for problem creation: %w", common.ErrBadRequest)
	}
	// A problem nobody can be judged on is not accepted in the first place.
	if len(req.TestCases)+len(req.Examples) == 0 {
		return nil, common.Errorf("problem needs at least one test case or example: %w", common.ErrTestCaseNotFound)
	}

	if _, err := s.assignmentRepo.FindAssignmentByID(ctx, req.AssignmentID); err != nil {
		return nil, common.Errorf("assignment not found: %w", err)
	}

	problem := &model.Problem{
		ID:            uuid.NewString(),
		AssignmentID:  req.AssignmentID,
		Title:         req.Title,
		Slug:          slug.Make(req.Title),
		Description:   req.Description,
		TimeLimitMs:   req.TimeLimitMs,
		MemoryLimitKb: req.MemoryLimitKb,
		ScoreWeight:   req.ScoreWeight,
	}
	if problem.ScoreWeight <= 0 {
		problem.ScoreWeight = 100
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, common.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.problemRepo.CreateProblem(ctx, tx, problem); err != nil {
		return nil, common.Errorf("failed to create problem in DB: %w", err)
	}

	for i := range req.TestCases {
		if req.TestCases[i].ID == "" {
			req.TestCases[i].ID = uuid.NewString()
		}
		req.TestCases[i].ProblemID = problem.ID
		if req.TestCases[i].SortOrder == 0 {
			req.TestCases[i].SortOrder = i + 1
		}
	}
	if len(req.TestCases) > 0 {
		if err := s.problemRepo.AddTestCases(ctx, tx, problem.ID, req.TestCases); err != nil {
			return nil, common.Errorf("failed to add test cases: %w", err)
		}
	}

	for i := range req.Examples {
		if req.Examples[i].ID == "" {
			req.Examples[i].ID = uuid.NewString()
		}
		req.Examples[i].ProblemID = problem.ID
		if req.Examples[i].SortOrder == 0 {
			req.Examples[i].SortOrder = i + 1
		}
	}
	if len(req.Examples) > 0 {
		if err := s.problemRepo.AddExamples(ctx, tx, problem.ID, req.Examples); err != nil {
			return nil, common.Errorf("failed to add examples: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, common.Errorf("failed to commit transaction: %w", err)
	}

	problem.TestCases = req.TestCases
	problem.Examples = req.Examples
	log.Printf("Problem %s (%s) created with %d test cases and %d examples.",
		problem.ID, problem.Slug, len(req.TestCases), len(req.Examples))
	return problem, nil
}

// GetProblem returns a problem with its public examples. Hidden test cases
// are included only for lecturers.
func (s *ProblemService) GetProblem(ctx context.Context, role, problemID string) (*model.Problem, error) {
	problem, err := s.problemRepo.FindProblemByID(ctx, problemID)
	if err != nil {
		return nil, err
	}

	examples, err := s.problemRepo.GetExamplesByProblemID(ctx, problemID)
	if err != nil {
		return nil, common.Errorf("failed to load examples: %w", err)
	}
	problem.Examples = examples

	if role == model.RoleLecturer {
		testCases, err := s.problemRepo.GetTestCasesByProblemID(ctx, problemID)
		if err != nil {
			return nil, common.Errorf("failed to load test cases: %w", err)
		}
		problem.TestCases = testCases
	}
	return problem, nil
}

func (s *ProblemService) ListLanguages(ctx context.Context) ([]model.Language, error) {
	return s.problemRepo.ListLanguages(ctx)
}
