package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository/repotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newestFirst builds a submission list the way the storage query returns it.
func newestFirst(scores ...int) []model.Submission {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := make([]model.Submission, 0, len(scores))
	for i, score := range scores {
		status := model.StatusWrongAnswer
		if score == 100 {
			status = model.StatusAccepted
		}
		out = append(out, model.Submission{
			ID:          string(rune('a' + i)),
			Score:       score,
			Status:      status,
			SubmittedAt: base.Add(-time.Duration(i) * time.Minute),
		})
	}
	return out
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Equal(t, 0, stats.TotalSubmission)
	assert.Equal(t, 0, stats.HighestScore)
	assert.Nil(t, stats.LatestSubmission)
	assert.Nil(t, stats.HighestScoreSubmission)
}

func TestComputeStatsLatestAndHighestDiffer(t *testing.T) {
	// Newest attempt scored 60, an older one scored 100.
	subs := newestFirst(60, 100, 40)

	stats := ComputeStats(subs)
	assert.Equal(t, 3, stats.TotalSubmission)
	require.NotNil(t, stats.LatestSubmission)
	assert.Equal(t, 60, stats.LatestSubmission.Score)
	assert.Equal(t, 100, stats.HighestScore)
	require.NotNil(t, stats.HighestScoreSubmission)
	assert.Equal(t, 100, stats.HighestScoreSubmission.Score)
	assert.Equal(t, model.StatusAccepted, stats.HighestScoreSubmission.Status)
}

func TestComputeStatsTieKeepsNewest(t *testing.T) {
	subs := newestFirst(80, 80, 50)

	stats := ComputeStats(subs)
	assert.Equal(t, 80, stats.HighestScore)
	// Strict comparison: the first (newest) of the tied attempts wins.
	assert.Equal(t, subs[0].ID, stats.HighestScoreSubmission.ID)
}

func TestComputeStatsPure(t *testing.T) {
	subs := newestFirst(30, 70, 10)
	before := make([]model.Submission, len(subs))
	copy(before, subs)

	first := ComputeStats(subs)
	second := ComputeStats(subs)

	assert.Equal(t, first.TotalSubmission, second.TotalSubmission)
	assert.Equal(t, first.HighestScore, second.HighestScore)
	assert.Equal(t, first.LatestSubmission.ID, second.LatestSubmission.ID)
	assert.Equal(t, before, subs) // input untouched
}

func TestGetStatsForUserNotEnrolled(t *testing.T) {
	probRepo := repotest.NewFakeProblemRepo()
	probRepo.Problems["prob-1"] = &model.Problem{ID: "prob-1", AssignmentID: "asg-1"}

	assignRepo := repotest.NewFakeAssignmentRepo()
	assignRepo.Assignments["asg-1"] = &model.Assignment{ID: "asg-1", CourseClassID: "class-1"}

	svc := NewStatsService(repotest.NewFakeSubmissionRepo(), probRepo, assignRepo)

	_, err := svc.GetStatsForUser(context.Background(), "user-1", "prob-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotEnrolled))
}

func TestGetStatsForUser(t *testing.T) {
	probRepo := repotest.NewFakeProblemRepo()
	probRepo.Problems["prob-1"] = &model.Problem{ID: "prob-1", AssignmentID: "asg-1"}

	assignRepo := repotest.NewFakeAssignmentRepo()
	assignRepo.Assignments["asg-1"] = &model.Assignment{ID: "asg-1", CourseClassID: "class-1"}
	assignRepo.Participants["part-1"] = &model.Participant{ID: "part-1", UserID: "user-1", CourseClassID: "class-1"}

	subRepo := repotest.NewFakeSubmissionRepo()
	subRepo.History["part-1/prob-1"] = newestFirst(50, 90)

	svc := NewStatsService(subRepo, probRepo, assignRepo)

	stats, err := svc.GetStatsForUser(context.Background(), "user-1", "prob-1")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalSubmission)
	assert.Equal(t, 90, stats.HighestScore)
	assert.Equal(t, 50, stats.LatestSubmission.Score)
}

func TestBuildScoreboard(t *testing.T) {
	assignRepo := repotest.NewFakeAssignmentRepo()
	assignRepo.Assignments["asg-1"] = &model.Assignment{ID: "asg-1", CourseClassID: "class-1"}
	aliceName, bobName := "alice", "bob"
	assignRepo.Participants["part-a"] = &model.Participant{ID: "part-a", UserID: "u-a", CourseClassID: "class-1", Username: &aliceName}
	assignRepo.Participants["part-b"] = &model.Participant{ID: "part-b", UserID: "u-b", CourseClassID: "class-1", Username: &bobName}

	probRepo := repotest.NewFakeProblemRepo()
	probRepo.Problems["prob-1"] = &model.Problem{ID: "prob-1", AssignmentID: "asg-1", ScoreWeight: 100}
	probRepo.Problems["prob-2"] = &model.Problem{ID: "prob-2", AssignmentID: "asg-1", ScoreWeight: 50}

	subRepo := repotest.NewFakeSubmissionRepo()
	subRepo.ByAssignment["asg-1"] = []model.Submission{
		{ID: "s1", ParticipantID: "part-a", ProblemID: "prob-1", Score: 80, Status: model.StatusWrongAnswer},
		{ID: "s2", ParticipantID: "part-a", ProblemID: "prob-1", Score: 40, Status: model.StatusWrongAnswer},
		{ID: "s3", ParticipantID: "part-a", ProblemID: "prob-2", Score: 100, Status: model.StatusAccepted},
	}

	svc := NewStatsService(subRepo, probRepo, assignRepo)
	board, err := svc.BuildScoreboard(context.Background(), "asg-1")
	require.NoError(t, err)

	assert.Equal(t, 2, board.TotalStudents)
	assert.Equal(t, 2, board.TotalProblems)
	require.Len(t, board.Rows, 2)

	rows := make(map[string]model.ScoreboardRow, len(board.Rows))
	for _, row := range board.Rows {
		rows[row.ParticipantID] = row
	}

	alice := rows["part-a"]
	assert.Equal(t, "alice", alice.Username)
	require.Len(t, alice.Cells, 2)

	cells := make(map[string]model.ScoreboardCell, len(alice.Cells))
	for _, cell := range alice.Cells {
		cells[cell.ProblemID] = cell
	}

	// Best of 80/40 at weight 100.
	assert.Equal(t, 80, cells["prob-1"].Score)
	assert.Equal(t, 100, cells["prob-1"].MaxScore)
	assert.Equal(t, 2, cells["prob-1"].Attempts)
	assert.True(t, cells["prob-1"].Attempted)
	assert.Equal(t, model.StatusWrongAnswer, cells["prob-1"].Status)

	// Perfect score at weight 50 contributes 50.
	assert.Equal(t, 50, cells["prob-2"].Score)
	assert.Equal(t, model.StatusAccepted, cells["prob-2"].Status)

	assert.Equal(t, 130, alice.TotalScore)
	assert.Equal(t, 150, alice.TotalMaxScore)

	// Bob never attempted anything but still appears with empty cells.
	bob := rows["part-b"]
	require.Len(t, bob.Cells, 2)
	for _, cell := range bob.Cells {
		assert.False(t, cell.Attempted)
		assert.Equal(t, 0, cell.Score)
		assert.Equal(t, 0, cell.Attempts)
	}
	assert.Equal(t, 0, bob.TotalScore)

	assert.InDelta(t, 65.0, board.AverageScore, 0.001)
}

func TestBuildScoreboardDefaultWeight(t *testing.T) {
	assignRepo := repotest.NewFakeAssignmentRepo()
	assignRepo.Assignments["asg-1"] = &model.Assignment{ID: "asg-1", CourseClassID: "class-1"}
	assignRepo.Participants["part-a"] = &model.Participant{ID: "part-a", UserID: "u-a", CourseClassID: "class-1"}

	probRepo := repotest.NewFakeProblemRepo()
	probRepo.Problems["prob-1"] = &model.Problem{ID: "prob-1", AssignmentID: "asg-1"} // no weight set

	subRepo := repotest.NewFakeSubmissionRepo()
	subRepo.ByAssignment["asg-1"] = []model.Submission{
		{ID: "s1", ParticipantID: "part-a", ProblemID: "prob-1", Score: 100, Status: model.StatusAccepted},
	}

	svc := NewStatsService(subRepo, probRepo, assignRepo)
	board, err := svc.BuildScoreboard(context.Background(), "asg-1")
	require.NoError(t, err)

	require.Len(t, board.Rows, 1)
	require.Len(t, board.Rows[0].Cells, 1)
	assert.Equal(t, 100, board.Rows[0].Cells[0].MaxScore)
	assert.Equal(t, 100, board.Rows[0].Cells[0].Score)
}
