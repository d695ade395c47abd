package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository/repotest"
	"praktikum_core/internal/judge"
	"praktikum_core/internal/platform/config"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeJobQueue records pushed values and can be told to fail.
type fakeJobQueue struct {
	pushed  []string
	pushErr error
}

func (q *fakeJobQueue) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	cmd := redis.NewIntCmd(ctx)
	if q.pushErr != nil {
		cmd.SetErr(q.pushErr)
		return cmd
	}
	for _, v := range values {
		q.pushed = append(q.pushed, v.(string))
	}
	cmd.SetVal(int64(len(q.pushed)))
	return cmd
}

type submitFixture struct {
	svc        *SubmissionService
	subRepo    *repotest.FakeSubmissionRepo
	probRepo   *repotest.FakeProblemRepo
	assignRepo *repotest.FakeAssignmentRepo
	jobRepo    *repotest.FakeJudgeJobRepo
	queue      *fakeJobQueue
	tx         *repotest.TxHarness
}

// newSubmitFixture wires an enrolled student ("user-1" as "part-1") against
// an open assignment with one problem and one hidden test case. The fakes
// share a transaction harness, so writes apply only on commit.
func newSubmitFixture(t *testing.T, judgeClient *judge.Client) *submitFixture {
	t.Helper()

	prev := config.AppConfig
	config.AppConfig = &config.Config{JudgeQueueName: "judge_jobs_queue"}
	t.Cleanup(func() { config.AppConfig = prev })

	probRepo := repotest.NewFakeProblemRepo()
	probRepo.Problems["prob-1"] = &model.Problem{ID: "prob-1", AssignmentID: "asg-1", Title: "Sum", TimeLimitMs: 1000, MemoryLimitKb: 65536}
	probRepo.TestCases["prob-1"] = []model.TestCase{{ID: "tc-1", ProblemID: "prob-1", Input: "1 2", ExpectedOutput: "3"}}
	probRepo.Languages["lang-py"] = &model.Language{ID: "lang-py", Name: "Python 3", Slug: "python", IsActive: true}
	probRepo.Languages["lang-off"] = &model.Language{ID: "lang-off", Name: "Pascal", Slug: "pascal", IsActive: false}

	assignRepo := repotest.NewFakeAssignmentRepo()
	assignRepo.Assignments["asg-1"] = &model.Assignment{
		ID:            "asg-1",
		CourseClassID: "class-1",
		Deadline:      time.Now().Add(24 * time.Hour),
	}
	assignRepo.Participants["part-1"] = &model.Participant{ID: "part-1", UserID: "user-1", CourseClassID: "class-1"}

	db, harness := repotest.TxDB()
	subRepo := repotest.NewFakeSubmissionRepo()
	subRepo.Tx = harness
	jobRepo := repotest.NewFakeJudgeJobRepo()
	jobRepo.Tx = harness

	queue := &fakeJobQueue{}
	jobService := NewJudgeJobService(jobRepo, queue)

	return &submitFixture{
		svc:        NewSubmissionService(subRepo, probRepo, assignRepo, jobService, judgeClient, db),
		subRepo:    subRepo,
		probRepo:   probRepo,
		assignRepo: assignRepo,
		jobRepo:    jobRepo,
		queue:      queue,
		tx:         harness,
	}
}

func validSubmit() SubmitRequest {
	return SubmitRequest{ProblemID: "prob-1", LanguageID: "lang-py", Code: "print(sum(map(int, input().split())))"}
}

func TestCheckEligibilityPasses(t *testing.T) {
	f := newSubmitFixture(t, nil)

	elig, err := f.svc.checkEligibility(context.Background(), "user-1", validSubmit())
	require.NoError(t, err)
	assert.Equal(t, "prob-1", elig.problem.ID)
	assert.Equal(t, "asg-1", elig.assignment.ID)
	assert.Equal(t, "part-1", elig.participant.ID)
	assert.Equal(t, "python", elig.language.Slug)
}

func TestCheckEligibilityMissingFields(t *testing.T) {
	f := newSubmitFixture(t, nil)

	for _, req := range []SubmitRequest{
		{ProblemID: "prob-1", LanguageID: "lang-py"},
		{ProblemID: "prob-1", Code: "x"},
		{LanguageID: "lang-py", Code: "x"},
	} {
		_, err := f.svc.checkEligibility(context.Background(), "user-1", req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrValidation))
	}
}

func TestCheckEligibilityUnknownProblem(t *testing.T) {
	f := newSubmitFixture(t, nil)

	req := validSubmit()
	req.ProblemID = "nope"
	_, err := f.svc.checkEligibility(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestCheckEligibilityInactiveLanguage(t *testing.T) {
	f := newSubmitFixture(t, nil)

	req := validSubmit()
	req.LanguageID = "lang-off"
	_, err := f.svc.checkEligibility(context.Background(), "user-1", req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrBadRequest))
}

func TestCheckEligibilityDeadlinePassed(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.assignRepo.Assignments["asg-1"].Deadline = time.Now().Add(-time.Hour)

	_, err := f.svc.checkEligibility(context.Background(), "user-1", validSubmit())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDeadlineExceeded))
}

// The deadline check runs before the enrollment lookup, so a late attempt by
// someone who is not even enrolled reports the deadline.
func TestCheckEligibilityDeadlineBeforeEnrollment(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.assignRepo.Assignments["asg-1"].Deadline = time.Now().Add(-time.Hour)

	_, err := f.svc.checkEligibility(context.Background(), "stranger", validSubmit())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDeadlineExceeded))
	assert.False(t, errors.Is(err, common.ErrNotEnrolled))
}

func TestCheckEligibilityNotEnrolled(t *testing.T) {
	f := newSubmitFixture(t, nil)

	_, err := f.svc.checkEligibility(context.Background(), "stranger", validSubmit())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotEnrolled))
}

func TestCheckEligibilityQuotaExceeded(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.assignRepo.Assignments["asg-1"].MaxSubmissions = 2
	f.subRepo.Submissions["old-1"] = &model.Submission{ID: "old-1", ParticipantID: "part-1", ProblemID: "prob-1"}
	f.subRepo.Submissions["old-2"] = &model.Submission{ID: "old-2", ParticipantID: "part-1", ProblemID: "prob-1"}

	_, err := f.svc.checkEligibility(context.Background(), "user-1", validSubmit())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExceeded))
}

func TestCheckEligibilityQuotaRemaining(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.assignRepo.Assignments["asg-1"].MaxSubmissions = 2
	f.subRepo.Submissions["old-1"] = &model.Submission{ID: "old-1", ParticipantID: "part-1", ProblemID: "prob-1"}

	_, err := f.svc.checkEligibility(context.Background(), "user-1", validSubmit())
	assert.NoError(t, err)
}

func TestSubmitPersistsRowAndEnqueuesJob(t *testing.T) {
	f := newSubmitFixture(t, nil)

	sub, err := f.svc.Submit(context.Background(), "user-1", validSubmit())
	require.NoError(t, err)
	assert.Equal(t, model.StatusSubmitted, sub.Status)
	assert.Equal(t, "part-1", sub.ParticipantID)

	// The pending row and its job land together.
	require.Contains(t, f.subRepo.Submissions, sub.ID)
	require.Len(t, f.jobRepo.Jobs, 1)
	var job *model.JudgeJob
	for _, j := range f.jobRepo.Jobs {
		job = j
	}
	assert.Equal(t, sub.ID, job.SubmissionID)
	assert.Equal(t, model.JobStatusQueued, job.Status)

	// The queue carries the job ID, and the transaction committed once.
	require.Len(t, f.queue.pushed, 1)
	assert.Equal(t, job.ID, f.queue.pushed[0])
	assert.Equal(t, 1, f.tx.Commits)
}

func TestSubmitQueuePushFailureRollsBack(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.queue.pushErr = errors.New("connection refused")

	_, err := f.svc.Submit(context.Background(), "user-1", validSubmit())
	require.Error(t, err)

	// A failed push must not leave a submission the worker will never judge.
	assert.Empty(t, f.subRepo.Submissions)
	assert.Empty(t, f.jobRepo.Jobs)
	assert.Empty(t, f.queue.pushed)
	assert.GreaterOrEqual(t, f.tx.Rollbacks, 1)
	assert.Zero(t, f.tx.Commits)
}

func TestSubmitRejectionPersistsNothing(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.assignRepo.Assignments["asg-1"].Deadline = time.Now().Add(-time.Minute)

	_, err := f.svc.Submit(context.Background(), "user-1", validSubmit())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDeadlineExceeded))

	// A rejected attempt leaves no submission row and no judge job.
	assert.Empty(t, f.subRepo.Submissions)
	assert.Empty(t, f.jobRepo.Jobs)
}

func TestSubmitRejectsProblemWithoutCases(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.probRepo.TestCases["prob-1"] = nil

	_, err := f.svc.Submit(context.Background(), "user-1", validSubmit())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrTestCaseNotFound))
	assert.Empty(t, f.subRepo.Submissions)
}

func TestDryRun(t *testing.T) {
	var captured judge.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(judge.Response{
			Verdict:     "WA",
			TotalCases:  1,
			PassedCases: 0,
			TestResults: []judge.TestResult{{CaseNumber: 1, Verdict: "WA"}},
			JudgedAt:    time.Now().UTC(),
		})
	}))
	defer server.Close()

	f := newSubmitFixture(t, judge.NewClient(server.URL, 5*time.Second))

	resp, err := f.svc.DryRun(context.Background(), "user-1", validSubmit())
	require.NoError(t, err)
	assert.Equal(t, "WA", resp.Verdict)

	// Same payload as a real submission.
	assert.Equal(t, "python", captured.Language)
	assert.Equal(t, 1000, captured.TimeLimitMs)
	require.Len(t, captured.TestCases, 1)
	assert.Equal(t, "1 2", captured.TestCases[0].Input)

	// Trial runs never touch storage.
	assert.Empty(t, f.subRepo.Submissions)
	assert.Empty(t, f.jobRepo.Jobs)
	assert.Empty(t, f.subRepo.Results)
}

func TestDryRunStillGated(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.assignRepo.Assignments["asg-1"].Deadline = time.Now().Add(-time.Minute)

	_, err := f.svc.DryRun(context.Background(), "user-1", validSubmit())
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrDeadlineExceeded))
}

func TestGetSubmissionOwnership(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.subRepo.Submissions["sub-1"] = &model.Submission{ID: "sub-1", ParticipantID: "part-1", ProblemID: "prob-1", Status: model.StatusAccepted}

	// Owner reads their own row.
	sub, err := f.svc.GetSubmission(context.Background(), "user-1", model.RoleStudent, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", sub.ID)

	// Another student is refused.
	_, err = f.svc.GetSubmission(context.Background(), "user-2", model.RoleStudent, "sub-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrForbidden))

	// A lecturer reads anything.
	_, err = f.svc.GetSubmission(context.Background(), "lect-1", model.RoleLecturer, "sub-1")
	assert.NoError(t, err)
}

func TestGetSubmissionIncludesResults(t *testing.T) {
	f := newSubmitFixture(t, nil)
	f.subRepo.Submissions["sub-1"] = &model.Submission{ID: "sub-1", ParticipantID: "part-1", Status: model.StatusWrongAnswer}
	f.subRepo.Results["sub-1"] = []model.TestCaseResult{
		{ID: "r1", SubmissionID: "sub-1", TestCaseID: "tc-1", CaseNumber: 1, Status: model.VerdictWrongAnswer},
	}

	sub, err := f.svc.GetSubmission(context.Background(), "user-1", model.RoleStudent, "sub-1")
	require.NoError(t, err)
	require.Len(t, sub.TestCaseResults, 1)
	assert.Equal(t, model.VerdictWrongAnswer, sub.TestCaseResults[0].Status)
}
