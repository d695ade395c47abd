package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
)

type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)

	// ApplyVerdict performs the single status/score/verdict write of a
	// submission's lifetime, overwriting submitted_at with the judge's
	// judged_at timestamp.
	ApplyVerdict(ctx context.Context, tx *sql.Tx, submissionID string, status model.SubmissionStatus, score int, verdict model.Verdict, judgedAt time.Time) error
	// UpdateSubmissionStatus is used only for the JUDGE_UNAVAILABLE terminal
	// transition, where no verdict exists.
	UpdateSubmissionStatus(ctx context.Context, tx *sql.Tx, submissionID string, status model.SubmissionStatus) error

	CreateTestCaseResults(ctx context.Context, tx *sql.Tx, results []model.TestCaseResult) error
	GetTestCaseResults(ctx context.Context, submissionID string) ([]model.TestCaseResult, error)

	// ListByParticipantAndProblem returns the full history newest-first; the
	// aggregation engine relies on this ordering and does not re-sort.
	ListByParticipantAndProblem(ctx context.Context, participantID, problemID string) ([]model.Submission, error)
	CountByParticipantAndProblem(ctx context.Context, participantID, problemID string) (int, error)

	// ListByAssignment returns every submission for every problem of an
	// assignment, newest-first per (participant, problem), for the scoreboard.
	ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error)
}

type pgSubmissionRepository struct {
	db *sql.DB
}

func NewPgSubmissionRepository(db *sql.DB) SubmissionRepository {
	return &pgSubmissionRepository{db: db}
}

func (r *pgSubmissionRepository) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	query := `INSERT INTO submissions (id, participant_id, problem_id, language_id, code, status, score, submitted_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, sub.ID, sub.ParticipantID, sub.ProblemID, sub.LanguageID, sub.Code, sub.Status, sub.Score, sub.SubmittedAt)
	} else {
		_, err = r.db.ExecContext(ctx, query, sub.ID, sub.ParticipantID, sub.ProblemID, sub.LanguageID, sub.Code, sub.Status, sub.Score, sub.SubmittedAt)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.CreateSubmission: %w", err)
	}
	return nil
}

const submissionColumns = `s.id, s.participant_id, s.problem_id, s.language_id, s.code, s.status, s.score, s.verdict, s.submitted_at, s.created_at, l.slug`

func (r *pgSubmissionRepository) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	query := `SELECT ` + submissionColumns + `
	          FROM submissions s
	          LEFT JOIN languages l ON s.language_id = l.id
	          WHERE s.id = $1`
	sub := &model.Submission{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID, &sub.ParticipantID, &sub.ProblemID, &sub.LanguageID, &sub.Code,
		&sub.Status, &sub.Score, &sub.Verdict, &sub.SubmittedAt, &sub.CreatedAt, &sub.LanguageSlug,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSubmissionRepository.GetSubmissionByID: %w", err)
	}
	return sub, nil
}

func (r *pgSubmissionRepository) ApplyVerdict(ctx context.Context, tx *sql.Tx, submissionID string, status model.SubmissionStatus, score int, verdict model.Verdict, judgedAt time.Time) error {
	query := `UPDATE submissions SET status = $1, score = $2, verdict = $3, submitted_at = $4
	          WHERE id = $5 AND status = 'DISERAHKAN'`

	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, status, score, verdict, judgedAt, submissionID)
	} else {
		res, err = r.db.ExecContext(ctx, query, status, score, verdict, judgedAt, submissionID)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.ApplyVerdict: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		// Either the submission is gone or it was already judged; the status
		// guard in the query makes the verdict write exactly-once.
		return fmt.Errorf("submission %s not pending: %w", submissionID, common.ErrConflict)
	}
	return nil
}

func (r *pgSubmissionRepository) UpdateSubmissionStatus(ctx context.Context, tx *sql.Tx, submissionID string, status model.SubmissionStatus) error {
	query := `UPDATE submissions SET status = $1 WHERE id = $2 AND status = 'DISERAHKAN'`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, submissionID)
	} else {
		_, err = r.db.ExecContext(ctx, query, status, submissionID)
	}
	if err != nil {
		return fmt.Errorf("pgSubmissionRepository.UpdateSubmissionStatus: %w", err)
	}
	return nil
}

func (r *pgSubmissionRepository) CreateTestCaseResults(ctx context.Context, tx *sql.Tx, results []model.TestCaseResult) error {
	query := `INSERT INTO submission_test_results (id, submission_id, test_case_id, case_number, status, actual_output, time_ms, memory_kb)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, res := range results {
		var err error
		if tx != nil {
			_, err = tx.ExecContext(ctx, query, res.ID, res.SubmissionID, res.TestCaseID, res.CaseNumber, res.Status, res.ActualOutput, res.TimeMs, res.MemoryKb)
		} else {
			_, err = r.db.ExecContext(ctx, query, res.ID, res.SubmissionID, res.TestCaseID, res.CaseNumber, res.Status, res.ActualOutput, res.TimeMs, res.MemoryKb)
		}
		if err != nil {
			return fmt.Errorf("pgSubmissionRepository.CreateTestCaseResults: %w", err)
		}
	}
	return nil
}

func (r *pgSubmissionRepository) GetTestCaseResults(ctx context.Context, submissionID string) ([]model.TestCaseResult, error) {
	query := `SELECT id, submission_id, test_case_id, case_number, status, actual_output, time_ms, memory_kb, created_at
	          FROM submission_test_results WHERE submission_id = $1 ORDER BY case_number`

	rows, err := r.db.QueryContext(ctx, query, submissionID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseResults: %w", err)
	}
	defer rows.Close()

	var results []model.TestCaseResult
	for rows.Next() {
		var res model.TestCaseResult
		if err := rows.Scan(&res.ID, &res.SubmissionID, &res.TestCaseID, &res.CaseNumber, &res.Status, &res.ActualOutput, &res.TimeMs, &res.MemoryKb, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.GetTestCaseResults scan: %w", err)
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (r *pgSubmissionRepository) ListByParticipantAndProblem(ctx context.Context, participantID, problemID string) ([]model.Submission, error) {
	// Backed by the (participant_id, problem_id, created_at DESC) index.
	query := `SELECT ` + submissionColumns + `
	          FROM submissions s
	          LEFT JOIN languages l ON s.language_id = l.id
	          WHERE s.participant_id = $1 AND s.problem_id = $2
	          ORDER BY s.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, participantID, problemID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByParticipantAndProblem: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows, "ListByParticipantAndProblem")
}

func (r *pgSubmissionRepository) CountByParticipantAndProblem(ctx context.Context, participantID, problemID string) (int, error) {
	query := `SELECT COUNT(*) FROM submissions WHERE participant_id = $1 AND problem_id = $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, participantID, problemID).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgSubmissionRepository.CountByParticipantAndProblem: %w", err)
	}
	return count, nil
}

func (r *pgSubmissionRepository) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	query := `SELECT ` + submissionColumns + `
	          FROM submissions s
	          LEFT JOIN languages l ON s.language_id = l.id
	          JOIN problems p ON s.problem_id = p.id
	          WHERE p.assignment_id = $1
	          ORDER BY s.participant_id, s.problem_id, s.created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("pgSubmissionRepository.ListByAssignment: %w", err)
	}
	defer rows.Close()
	return scanSubmissions(rows, "ListByAssignment")
}

func scanSubmissions(rows *sql.Rows, method string) ([]model.Submission, error) {
	var submissions []model.Submission
	for rows.Next() {
		var sub model.Submission
		if err := rows.Scan(
			&sub.ID, &sub.ParticipantID, &sub.ProblemID, &sub.LanguageID, &sub.Code,
			&sub.Status, &sub.Score, &sub.Verdict, &sub.SubmittedAt, &sub.CreatedAt, &sub.LanguageSlug,
		); err != nil {
			return nil, fmt.Errorf("pgSubmissionRepository.%s scan: %w", method, err)
		}
		submissions = append(submissions, sub)
	}
	return submissions, rows.Err()
}
