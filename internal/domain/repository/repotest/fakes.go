// Package repotest provides in-memory repository fakes and a no-op sql.DB
// for service and worker tests.
package repotest

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync"
	"time"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
)

// --- no-op database ---

type stubDriver struct{}

func (stubDriver) Open(name string) (driver.Conn, error) { return stubConn{}, nil }

type stubConn struct{}

func (stubConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("stub connection does not prepare statements")
}
func (stubConn) Close() error              { return nil }
func (stubConn) Begin() (driver.Tx, error) { return stubTx{}, nil }

type stubTx struct{}

func (stubTx) Commit() error   { return nil }
func (stubTx) Rollback() error { return nil }

var registerOnce sync.Once

// StubDB returns a *sql.DB whose transactions commit without touching any
// store. Fakes with no harness apply writes immediately, so this is enough
// for tests that do not care about rollback behavior.
func StubDB() *sql.DB {
	registerOnce.Do(func() { sql.Register("repotest-stub", stubDriver{}) })
	db, err := sql.Open("repotest-stub", "")
	if err != nil {
		panic(err)
	}
	return db
}

// --- transaction-aware database ---

// TxHarness buffers writes made through a transaction and applies them only
// when the driver sees the commit. A rollback discards them, which makes the
// no-orphaned-rows behavior of transactional services assertable.
type TxHarness struct {
	mu        sync.Mutex
	pending   []func()
	Commits   int
	Rollbacks int
}

// Stage queues a write for the next commit.
func (h *TxHarness) Stage(apply func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = append(h.pending, apply)
}

func (h *TxHarness) commit() {
	h.mu.Lock()
	pending := h.pending
	h.pending = nil
	h.Commits++
	h.mu.Unlock()
	for _, apply := range pending {
		apply()
	}
}

func (h *TxHarness) rollback() {
	h.mu.Lock()
	h.pending = nil
	h.Rollbacks++
	h.mu.Unlock()
}

type txConnector struct{ h *TxHarness }

func (c txConnector) Connect(context.Context) (driver.Conn, error) { return txConn{h: c.h}, nil }
func (c txConnector) Driver() driver.Driver                        { return stubDriver{} }

type txConn struct{ h *TxHarness }

func (txConn) Prepare(query string) (driver.Stmt, error) {
	return nil, errors.New("stub connection does not prepare statements")
}
func (txConn) Close() error                { return nil }
func (c txConn) Begin() (driver.Tx, error) { return txTx{h: c.h}, nil }

type txTx struct{ h *TxHarness }

func (t txTx) Commit() error   { t.h.commit(); return nil }
func (t txTx) Rollback() error { t.h.rollback(); return nil }

// TxDB returns a database wired to a harness. Set the same harness on the
// fakes' Tx field so their transactional writes stage instead of applying
// immediately.
func TxDB() (*sql.DB, *TxHarness) {
	h := &TxHarness{}
	return sql.OpenDB(txConnector{h: h}), h
}

// --- fake repositories ---

type FakeProblemRepo struct {
	Problems  map[string]*model.Problem
	TestCases map[string][]model.TestCase        // by problem ID
	Examples  map[string][]model.ExampleTestCase // by problem ID
	Languages map[string]*model.Language         // by ID
}

func NewFakeProblemRepo() *FakeProblemRepo {
	return &FakeProblemRepo{
		Problems:  make(map[string]*model.Problem),
		TestCases: make(map[string][]model.TestCase),
		Examples:  make(map[string][]model.ExampleTestCase),
		Languages: make(map[string]*model.Language),
	}
}

func (f *FakeProblemRepo) CreateProblem(ctx context.Context, tx *sql.Tx, p *model.Problem) error {
	f.Problems[p.ID] = p
	return nil
}

func (f *FakeProblemRepo) FindProblemByID(ctx context.Context, id string) (*model.Problem, error) {
	if p, ok := f.Problems[id]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (f *FakeProblemRepo) FindProblemsByAssignmentID(ctx context.Context, assignmentID string) ([]model.Problem, error) {
	var out []model.Problem
	for _, p := range f.Problems {
		if p.AssignmentID == assignmentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *FakeProblemRepo) AddTestCases(ctx context.Context, tx *sql.Tx, problemID string, tcs []model.TestCase) error {
	f.TestCases[problemID] = append(f.TestCases[problemID], tcs...)
	return nil
}

func (f *FakeProblemRepo) GetTestCasesByProblemID(ctx context.Context, problemID string) ([]model.TestCase, error) {
	return f.TestCases[problemID], nil
}

func (f *FakeProblemRepo) AddExamples(ctx context.Context, tx *sql.Tx, problemID string, exs []model.ExampleTestCase) error {
	f.Examples[problemID] = append(f.Examples[problemID], exs...)
	return nil
}

func (f *FakeProblemRepo) GetExamplesByProblemID(ctx context.Context, problemID string) ([]model.ExampleTestCase, error) {
	return f.Examples[problemID], nil
}

func (f *FakeProblemRepo) GetLanguageByID(ctx context.Context, id string) (*model.Language, error) {
	if l, ok := f.Languages[id]; ok {
		return l, nil
	}
	return nil, common.ErrNotFound
}

func (f *FakeProblemRepo) GetLanguageBySlug(ctx context.Context, slug string) (*model.Language, error) {
	for _, l := range f.Languages {
		if l.Slug == slug {
			return l, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *FakeProblemRepo) ListLanguages(ctx context.Context) ([]model.Language, error) {
	var out []model.Language
	for _, l := range f.Languages {
		out = append(out, *l)
	}
	return out, nil
}

type FakeAssignmentRepo struct {
	Assignments  map[string]*model.Assignment
	Participants map[string]*model.Participant // by ID
}

func NewFakeAssignmentRepo() *FakeAssignmentRepo {
	return &FakeAssignmentRepo{
		Assignments:  make(map[string]*model.Assignment),
		Participants: make(map[string]*model.Participant),
	}
}

func (f *FakeAssignmentRepo) FindAssignmentByID(ctx context.Context, id string) (*model.Assignment, error) {
	if a, ok := f.Assignments[id]; ok {
		return a, nil
	}
	return nil, common.ErrNotFound
}

func (f *FakeAssignmentRepo) FindParticipant(ctx context.Context, userID, courseClassID string) (*model.Participant, error) {
	for _, p := range f.Participants {
		if p.UserID == userID && p.CourseClassID == courseClassID {
			return p, nil
		}
	}
	return nil, common.ErrNotFound
}

func (f *FakeAssignmentRepo) GetParticipantByID(ctx context.Context, id string) (*model.Participant, error) {
	if p, ok := f.Participants[id]; ok {
		return p, nil
	}
	return nil, common.ErrNotFound
}

func (f *FakeAssignmentRepo) ListParticipantsByClass(ctx context.Context, courseClassID string) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range f.Participants {
		if p.CourseClassID == courseClassID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// stage applies a transactional write through the harness when both a tx and
// a harness are present, otherwise immediately.
func stage(tx *sql.Tx, h *TxHarness, apply func()) {
	if tx != nil && h != nil {
		h.Stage(apply)
		return
	}
	apply()
}

type FakeSubmissionRepo struct {
	Submissions map[string]*model.Submission
	Results     map[string][]model.TestCaseResult // by submission ID
	// Lists returned newest-first, the contract the real query guarantees.
	History      map[string][]model.Submission // key participantID+"/"+problemID
	ByAssignment map[string][]model.Submission
	Tx           *TxHarness // optional, stages writes until commit
}

func NewFakeSubmissionRepo() *FakeSubmissionRepo {
	return &FakeSubmissionRepo{
		Submissions:  make(map[string]*model.Submission),
		Results:      make(map[string][]model.TestCaseResult),
		History:      make(map[string][]model.Submission),
		ByAssignment: make(map[string][]model.Submission),
	}
}

func (f *FakeSubmissionRepo) CreateSubmission(ctx context.Context, tx *sql.Tx, sub *model.Submission) error {
	stage(tx, f.Tx, func() { f.Submissions[sub.ID] = sub })
	return nil
}

func (f *FakeSubmissionRepo) GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error) {
	if s, ok := f.Submissions[id]; ok {
		return s, nil
	}
	return nil, common.ErrNotFound
}

func (f *FakeSubmissionRepo) ApplyVerdict(ctx context.Context, tx *sql.Tx, submissionID string, status model.SubmissionStatus, score int, verdict model.Verdict, judgedAt time.Time) error {
	sub, ok := f.Submissions[submissionID]
	if !ok || sub.Status != model.StatusSubmitted {
		return common.ErrConflict
	}
	sub.Status = status
	sub.Score = score
	sub.Verdict = &verdict
	sub.SubmittedAt = judgedAt
	return nil
}

func (f *FakeSubmissionRepo) UpdateSubmissionStatus(ctx context.Context, tx *sql.Tx, submissionID string, status model.SubmissionStatus) error {
	if sub, ok := f.Submissions[submissionID]; ok && sub.Status == model.StatusSubmitted {
		sub.Status = status
	}
	return nil
}

func (f *FakeSubmissionRepo) CreateTestCaseResults(ctx context.Context, tx *sql.Tx, results []model.TestCaseResult) error {
	for _, res := range results {
		f.Results[res.SubmissionID] = append(f.Results[res.SubmissionID], res)
	}
	return nil
}

func (f *FakeSubmissionRepo) GetTestCaseResults(ctx context.Context, submissionID string) ([]model.TestCaseResult, error) {
	return f.Results[submissionID], nil
}

func (f *FakeSubmissionRepo) ListByParticipantAndProblem(ctx context.Context, participantID, problemID string) ([]model.Submission, error) {
	return f.History[participantID+"/"+problemID], nil
}

func (f *FakeSubmissionRepo) CountByParticipantAndProblem(ctx context.Context, participantID, problemID string) (int, error) {
	count := 0
	for _, s := range f.Submissions {
		if s.ParticipantID == participantID && s.ProblemID == problemID {
			count++
		}
	}
	if hist := f.History[participantID+"/"+problemID]; len(hist) > count {
		count = len(hist)
	}
	return count, nil
}

func (f *FakeSubmissionRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]model.Submission, error) {
	return f.ByAssignment[assignmentID], nil
}

type FakeJudgeJobRepo struct {
	Jobs map[string]*model.JudgeJob
	Tx   *TxHarness // optional, stages writes until commit
}

func NewFakeJudgeJobRepo() *FakeJudgeJobRepo {
	return &FakeJudgeJobRepo{Jobs: make(map[string]*model.JudgeJob)}
}

func (f *FakeJudgeJobRepo) CreateJob(ctx context.Context, tx *sql.Tx, job *model.JudgeJob) error {
	stage(tx, f.Tx, func() { f.Jobs[job.ID] = job })
	return nil
}

func (f *FakeJudgeJobRepo) GetJobByID(ctx context.Context, id string) (*model.JudgeJob, error) {
	if j, ok := f.Jobs[id]; ok {
		return j, nil
	}
	return nil, common.ErrNotFound
}

func (f *FakeJudgeJobRepo) UpdateJobStatus(ctx context.Context, tx *sql.Tx, jobID string, status string, lastError *string) error {
	if j, ok := f.Jobs[jobID]; ok {
		j.Status = status
		j.LastError = lastError
	}
	return nil
}

func (f *FakeJudgeJobRepo) IncrementJobAttempts(ctx context.Context, jobID string) (int, error) {
	if j, ok := f.Jobs[jobID]; ok {
		j.Attempts++
		return j.Attempts, nil
	}
	return 0, common.ErrNotFound
}
