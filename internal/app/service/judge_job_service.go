package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository"
	"praktikum_core/internal/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// jobQueue is the slice of the Redis client the job service pushes through.
// *redis.Client satisfies it.
type jobQueue interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

type JudgeJobService struct {
	jobRepo repository.JudgeJobRepository
	queue   jobQueue
}

func NewJudgeJobService(jobRepo repository.JudgeJobRepository, queue jobQueue) *JudgeJobService {
	return &JudgeJobService{jobRepo: jobRepo, queue: queue}
}

// EnqueueSubmissionJudgingJob creates the durable job record and pushes its
// ID onto the Redis queue. The DB write joins the caller's transaction; a
// failed Redis push errors out so the whole transaction rolls back and no
// orphaned submission row is left behind.
func (s *JudgeJobService) EnqueueSubmissionJudgingJob(ctx context.Context, tx *sql.Tx, submissionID string) (*model.JudgeJob, error) {
	payloadData := model.SubmissionJudgingPayload{SubmissionID: submissionID}
	payloadBytes, err := json.Marshal(payloadData)
	if err != nil {
		return nil, common.Errorf("failed to marshal judging payload: %w", err)
	}

	job := &model.JudgeJob{
		ID:           uuid.NewString(),
		SubmissionID: submissionID,
		JobType:      model.JobTypeSubmissionJudging,
		Payload:      payloadBytes,
		Status:       model.JobStatusQueued,
	}

	if err := s.jobRepo.CreateJob(ctx, tx, job); err != nil {
		return nil, common.Errorf("failed to create judge job in DB: %w", err)
	}

	if err := s.queue.LPush(ctx, config.AppConfig.JudgeQueueName, job.ID).Err(); err != nil {
		return nil, common.Errorf("failed to push job ID to Redis queue: %w", err)
	}

	log.Printf("Judge job %s for submission %s enqueued.", job.ID, submissionID)
	return job, nil
}
