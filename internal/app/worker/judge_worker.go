package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"praktikum_core/internal/app/service"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository"
	"praktikum_core/internal/judge"
	"praktikum_core/internal/platform/config"

	"github.com/redis/go-redis/v9"
)

// JudgeWorker drains the judge-job queue: it loads the submission and its
// problem, builds the judge request, calls the judge with a bounded retry
// budget, and hands the verdict to the VerdictService. A job that exhausts
// its attempts leaves the submission in the terminal JUDGE_UNAVAILABLE state
// instead of pending forever.
type JudgeWorker struct {
	rdb            *redis.Client
	jobRepo        repository.JudgeJobRepository
	problemRepo    repository.ProblemRepository
	submissionRepo repository.SubmissionRepository
	verdictService *service.VerdictService
	judgeClient    *judge.Client
}

func NewJudgeWorker(
	rdb *redis.Client,
	jobRepo repository.JudgeJobRepository,
	probRepo repository.ProblemRepository,
	subRepo repository.SubmissionRepository,
	verdictService *service.VerdictService,
	judgeClient *judge.Client,
) *JudgeWorker {
	return &JudgeWorker{
		rdb:            rdb,
		jobRepo:        jobRepo,
		problemRepo:    probRepo,
		submissionRepo: subRepo,
		verdictService: verdictService,
		judgeClient:    judgeClient,
	}
}

// Start runs the configured number of worker goroutines and blocks until the
// context is cancelled and all of them have drained.
func (w *JudgeWorker) Start(ctx context.Context) {
	count := config.AppConfig.JudgeWorkerCount
	if count < 1 {
		count = 1
	}
	log.Printf("Judge worker started: %d goroutines on queue %s", count, config.AppConfig.JudgeQueueName)

	var wg sync.WaitGroup
	for i := 0; i < count; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w.run(ctx, id)
		}(i)
	}
	wg.Wait()
	log.Println("Judge worker stopped.")
}

func (w *JudgeWorker) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			popped, err := w.rdb.BRPop(ctx, 0*time.Second, config.AppConfig.JudgeQueueName).Result()
			if err != nil {
				if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				log.Printf("ERROR: worker %d: BRPop from queue '%s': %v", id, config.AppConfig.JudgeQueueName, err)
				time.Sleep(5 * time.Second) // Wait before retrying on other errors
				continue
			}

			// popped is [queueName, value]
			if len(popped) < 2 || popped[1] == "" {
				log.Printf("WARN: worker %d: BRPop returned empty job ID.", id)
				continue
			}
			jobID := popped[1]
			log.Printf("Worker %d picked up job %s", id, jobID)
			w.processJob(ctx, jobID)
		}
	}
}

func (w *JudgeWorker) processJob(ctx context.Context, jobID string) {
	job, err := w.jobRepo.GetJobByID(ctx, jobID)
	if err != nil {
		log.Printf("ERROR: failed to fetch job %s from DB: %v", jobID, err)
		return
	}
	if job.Status == model.JobStatusCompleted || job.Status == model.JobStatusFailed {
		log.Printf("WARN: job %s already %s, skipping.", job.ID, job.Status)
		return
	}

	if err := w.jobRepo.UpdateJobStatus(ctx, nil, job.ID, model.JobStatusProcessing, nil); err != nil {
		log.Printf("ERROR: failed to update job %s status to Processing: %v", job.ID, err)
	}

	submission, err := w.submissionRepo.GetSubmissionByID(ctx, job.SubmissionID)
	if err != nil {
		w.failJob(ctx, job, fmt.Sprintf("failed to fetch submission %s: %v", job.SubmissionID, err), false)
		return
	}
	if submission.Status.IsTerminal() {
		log.Printf("WARN: submission %s already terminal (%s); completing job %s.", submission.ID, submission.Status, job.ID)
		w.jobRepo.UpdateJobStatus(ctx, nil, job.ID, model.JobStatusCompleted, nil)
		return
	}

	judgeReq, err := w.buildRequest(ctx, submission)
	if err != nil {
		w.failJob(ctx, job, fmt.Sprintf("failed to build judge request: %v", err), true)
		return
	}

	resp, err := w.callWithRetry(ctx, job, judgeReq)
	if err != nil {
		w.failJob(ctx, job, fmt.Sprintf("judge call failed after retries: %v", err), true)
		return
	}

	if err := w.verdictService.ProcessResponse(ctx, submission.ID, resp); err != nil {
		w.failJob(ctx, job, fmt.Sprintf("failed to process judge response: %v", err), true)
		return
	}

	if err := w.jobRepo.UpdateJobStatus(ctx, nil, job.ID, model.JobStatusCompleted, nil); err != nil {
		log.Printf("ERROR: failed to mark job %s completed: %v", job.ID, err)
	}
}

func (w *JudgeWorker) buildRequest(ctx context.Context, submission *model.Submission) (*judge.Request, error) {
	problem, err := w.problemRepo.FindProblemByID(ctx, submission.ProblemID)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", submission.ProblemID, err)
	}
	language, err := w.problemRepo.GetLanguageByID(ctx, submission.LanguageID)
	if err != nil {
		return nil, fmt.Errorf("language %s: %w", submission.LanguageID, err)
	}
	hidden, err := w.problemRepo.GetTestCasesByProblemID(ctx, problem.ID)
	if err != nil {
		return nil, fmt.Errorf("test cases for problem %s: %w", problem.ID, err)
	}
	examples, err := w.problemRepo.GetExamplesByProblemID(ctx, problem.ID)
	if err != nil {
		return nil, fmt.Errorf("example cases for problem %s: %w", problem.ID, err)
	}
	return judge.BuildRequest(problem, hidden, examples, submission.Code, language.Slug)
}

// callWithRetry calls the judge up to the configured attempt budget, backing
// off linearly between attempts. Non-retryable errors (4xx answers) abort
// immediately.
func (w *JudgeWorker) callWithRetry(ctx context.Context, job *model.JudgeJob, req *judge.Request) (*judge.Response, error) {
	maxAttempts := config.AppConfig.JudgeMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if _, err := w.jobRepo.IncrementJobAttempts(ctx, job.ID); err != nil {
			log.Printf("ERROR: failed to record attempt for job %s: %v", job.ID, err)
		}

		resp, err := w.judgeClient.Judge(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		log.Printf("WARN: job %s judge attempt %d/%d failed: %v", job.ID, attempt, maxAttempts, err)

		if !judge.IsRetryable(err) {
			break
		}
		if attempt < maxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(attempt) * 2 * time.Second):
			}
		}
	}
	return nil, lastErr
}

// failJob records the failure on the job and, when asked, transitions the
// submission to its terminal judge-unavailable state so the student-facing
// history never shows an unexplained pending row.
func (w *JudgeWorker) failJob(ctx context.Context, job *model.JudgeJob, errMsg string, markSubmission bool) {
	log.Printf("ERROR: job %s: %s", job.ID, errMsg)
	if err := w.jobRepo.UpdateJobStatus(ctx, nil, job.ID, model.JobStatusFailed, &errMsg); err != nil {
		log.Printf("ERROR: failed to mark job %s failed: %v", job.ID, err)
	}
	if markSubmission {
		if err := w.verdictService.MarkJudgeUnavailable(ctx, job.SubmissionID); err != nil {
			log.Printf("ERROR: %v", err)
		}
	}
}
