package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
)

type JudgeJobRepository interface {
	CreateJob(ctx context.Context, tx *sql.Tx, job *model.JudgeJob) error
	GetJobByID(ctx context.Context, id string) (*model.JudgeJob, error)
	UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error
	IncrementJobAttempts(ctx context.Context, jobID string) (int, error)
}

type pgJudgeJobRepository struct {
	db *sql.DB
}

func NewPgJudgeJobRepository(db *sql.DB) JudgeJobRepository {
	return &pgJudgeJobRepository{db: db}
}

func (r *pgJudgeJobRepository) CreateJob(ctx context.Context, tx *sql.Tx, job *model.JudgeJob) error {
	query := `INSERT INTO judge_jobs (id, submission_id, job_type, payload, status, attempts)
	          VALUES ($1, $2, $3, $4, $5, $6)`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, job.ID, job.SubmissionID, job.JobType, job.Payload, job.Status, job.Attempts)
	} else {
		_, err = r.db.ExecContext(ctx, query, job.ID, job.SubmissionID, job.JobType, job.Payload, job.Status, job.Attempts)
	}
	if err != nil {
		return fmt.Errorf("pgJudgeJobRepository.CreateJob: %w", err)
	}
	return nil
}

func (r *pgJudgeJobRepository) GetJobByID(ctx context.Context, id string) (*model.JudgeJob, error) {
	query := `SELECT id, submission_id, job_type, payload, status, attempts, last_error, created_at, updated_at
	          FROM judge_jobs WHERE id = $1`
	job := &model.JudgeJob{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&job.ID, &job.SubmissionID, &job.JobType, &job.Payload, &job.Status, &job.Attempts, &job.LastError, &job.CreatedAt, &job.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgJudgeJobRepository.GetJobByID: %w", err)
	}
	return job, nil
}

func (r *pgJudgeJobRepository) UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error {
	query := `UPDATE judge_jobs SET status = $1, last_error = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $3`

	var err error
	if tx != nil {
		_, err = tx.ExecContext(ctx, query, status, lastError, jobID)
	} else {
		_, err = r.db.ExecContext(ctx, query, status, lastError, jobID)
	}
	if err != nil {
		return fmt.Errorf("pgJudgeJobRepository.UpdateJobStatus: %w", err)
	}
	return nil
}

func (r *pgJudgeJobRepository) IncrementJobAttempts(ctx context.Context, jobID string) (int, error) {
	query := `UPDATE judge_jobs SET attempts = attempts + 1, updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 RETURNING attempts`
	var attempts int
	if err := r.db.QueryRowContext(ctx, query, jobID).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("pgJudgeJobRepository.IncrementJobAttempts: %w", err)
	}
	return attempts, nil
}
