package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type ProblemRepository interface {
	CreateProblem(ctx context.Context, tx *sql.Tx, problem *model.Problem) error
	FindProblemByID(ctx context.Context, id string) (*model.Problem, error)
	FindProblemsByAssignmentID(ctx context.Context, assignmentID string) ([]model.Problem, error)

	AddTestCases(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error
	GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error) // For judging/lecturer view

	AddExamples(ctx context.Context, tx *sql.Tx, problemID string, examples []model.ExampleTestCase) error
	GetExamplesByProblemID(ctx context.Context, problemID string) ([]model.ExampleTestCase, error)

	GetLanguageByID(ctx context.Context, id string) (*model.Language, error)
	GetLanguageBySlug(ctx context.Context, slug string) (*model.Language, error)
	ListLanguages(ctx context.Context) ([]model.Language, error)
}

type pgProblemRepository struct {
	db *sql.DB
}

func NewPgProblemRepository(db *sql.DB) ProblemRepository {
	return &pgProblemRepository{db: db}
}

func (r *pgProblemRepository) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	query := `INSERT INTO problems (id, assignment_id, title, slug, description, time_limit_ms, memory_limit_kb, score_weight)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, p.ID, p.AssignmentID, p.Title, p.Slug, p.Description, p.TimeLimitMs, p.MemoryLimitKb, p.ScoreWeight)
	} else {
		_, err = r.db.ExecContext(ctx, query, p.ID, p.AssignmentID, p.Title, p.Slug, p.Description, p.TimeLimitMs, p.MemoryLimitKb, p.ScoreWeight)
	}

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // Unique constraint for slug
			return fmt.Errorf("problem with this slug already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgProblemRepository.CreateProblem: %w", err)
	}
	return nil
}

func (r *pgProblemRepository) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	query := `SELECT id, assignment_id, title, slug, description, time_limit_ms, memory_limit_kb, score_weight, created_at, updated_at
	          FROM problems WHERE id = $1`

	problem := &model.Problem{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&problem.ID, &problem.AssignmentID, &problem.Title, &problem.Slug, &problem.Description,
		&problem.TimeLimitMs, &problem.MemoryLimitKb, &problem.ScoreWeight,
		&problem.CreatedAt, &problem.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.FindProblemByID: %w", err)
	}
	return problem, nil
}

func (r *pgProblemRepository) FindProblemsByAssignmentID(ctx context.Context, assignmentID string) ([]model.Problem, error) {
	query := `SELECT id, assignment_id, title, slug, description, time_limit_ms, memory_limit_kb, score_weight, created_at, updated_at
	          FROM problems WHERE assignment_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.FindProblemsByAssignmentID: %w", err)
	}
	defer rows.Close()

	var problems []model.Problem
	for rows.Next() {
		var p model.Problem
		if err := rows.Scan(
			&p.ID, &p.AssignmentID, &p.Title, &p.Slug, &p.Description,
			&p.TimeLimitMs, &p.MemoryLimitKb, &p.ScoreWeight, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.FindProblemsByAssignmentID scan: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

func (r *pgProblemRepository) AddTestCases(ctx context.Context, tx *sql.Tx, problemID string, testCases []model.TestCase) error {
	query := `INSERT INTO problem_test_cases (id, problem_id, input, expected_output, sort_order)
	          VALUES ($1, $2, $3, $4, $5)`
	for _, tc := range testCases {
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, query, tc.ID, problemID, tc.Input, tc.ExpectedOutput, tc.SortOrder)
		} else {
			_, err = r.db.ExecContext(ctx, query, tc.ID, problemID, tc.Input, tc.ExpectedOutput, tc.SortOrder)
		}
		if err != nil {
			return fmt.Errorf("pgProblemRepository.AddTestCases: %w", err)
		}
	}
	return nil
}

func (r *pgProblemRepository) GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error) {
	query := `SELECT id, problem_id, input, expected_output, sort_order, created_at
	          FROM problem_test_cases WHERE problem_id = $1 ORDER BY sort_order, created_at`

	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID: %w", err)
	}
	defer rows.Close()

	var testCases []model.TestCase
	for rows.Next() {
		var tc model.TestCase
		if err := rows.Scan(&tc.ID, &tc.ProblemID, &tc.Input, &tc.ExpectedOutput, &tc.SortOrder, &tc.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetTestCasesByProblemID scan: %w", err)
		}
		testCases = append(testCases, tc)
	}
	return testCases, rows.Err()
}

func (r *pgProblemRepository) AddExamples(ctx context.Context, tx *sql.Tx, problemID string, examples []model.ExampleTestCase) error {
	query := `INSERT INTO problem_examples (id, problem_id, input, expected_output, explanation, sort_order)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	for _, ex := range examples {
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, query, ex.ID, problemID, ex.Input, ex.ExpectedOutput, ex.Explanation, ex.SortOrder)
		} else {
			_, err = r.db.ExecContext(ctx, query, ex.ID, problemID, ex.Input, ex.ExpectedOutput, ex.Explanation, ex.SortOrder)
		}
		if err != nil {
			return fmt.Errorf("pgProblemRepository.AddExamples: %w", err)
		}
	}
	return nil
}

func (r *pgProblemRepository) GetExamplesByProblemID(ctx context.Context, problemID string) ([]model.ExampleTestCase, error) {
	query := `SELECT id, problem_id, input, expected_output, explanation, sort_order, created_at
	          FROM problem_examples WHERE problem_id = $1 ORDER BY sort_order, created_at`

	rows, err := r.db.QueryContext(ctx, query, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.GetExamplesByProblemID: %w", err)
	}
	defer rows.Close()

	var examples []model.ExampleTestCase
	for rows.Next() {
		var ex model.ExampleTestCase
		if err := rows.Scan(&ex.ID, &ex.ProblemID, &ex.Input, &ex.ExpectedOutput, &ex.Explanation, &ex.SortOrder, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.GetExamplesByProblemID scan: %w", err)
		}
		examples = append(examples, ex)
	}
	return examples, rows.Err()
}

func (r *pgProblemRepository) GetLanguageByID(ctx context.Context, id string) (*model.Language, error) {
	query := `SELECT id, name, slug, is_active, created_at FROM languages WHERE id = $1`
	return r.scanLanguage(r.db.QueryRowContext(ctx, query, id), "GetLanguageByID")
}

func (r *pgProblemRepository) GetLanguageBySlug(ctx context.Context, slug string) (*model.Language, error) {
	query := `SELECT id, name, slug, is_active, created_at FROM languages WHERE slug = $1`
	return r.scanLanguage(r.db.QueryRowContext(ctx, query, slug), "GetLanguageBySlug")
}

func (r *pgProblemRepository) ListLanguages(ctx context.Context) ([]model.Language, error) {
	query := `SELECT id, name, slug, is_active, created_at FROM languages ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgProblemRepository.ListLanguages: %w", err)
	}
	defer rows.Close()

	var languages []model.Language
	for rows.Next() {
		var l model.Language
		if err := rows.Scan(&l.ID, &l.Name, &l.Slug, &l.IsActive, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgProblemRepository.ListLanguages scan: %w", err)
		}
		languages = append(languages, l)
	}
	return languages, rows.Err()
}

func (r *pgProblemRepository) scanLanguage(row *sql.Row, method string) (*model.Language, error) {
	language := &model.Language{}
	err := row.Scan(&language.ID, &language.Name, &language.Slug, &language.IsActive, &language.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgProblemRepository.%s: %w", method, err)
	}
	return language, nil
}
