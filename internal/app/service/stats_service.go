package service

import (
	"context"
	"errors"
	"math"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
	"praktikum_core/internal/domain/repository"
)

// StatsService is the read-path aggregation over persisted submissions.
// Nothing here writes; every result is recomputed from the rows visible at
// read time.
type StatsService struct {
	submissionRepo repository.SubmissionRepository
	problemRepo    repository.ProblemRepository
	assignmentRepo repository.AssignmentRepository
}

func NewStatsService(
	subRepo repository.SubmissionRepository,
	probRepo repository.ProblemRepository,
	assignRepo repository.AssignmentRepository,
) *StatsService {
	return &StatsService{
		submissionRepo: subRepo,
		problemRepo:    probRepo,
		assignmentRepo: assignRepo,
	}
}

// ComputeStats folds a newest-first submission list into SubmissionStats.
// Pure function: it never mutates its input and relies on the caller (the
// storage query) for the ordering.
func ComputeStats(submissions []model.Submission) model.SubmissionStats {
	stats := model.SubmissionStats{TotalSubmission: len(submissions)}
	if len(submissions) == 0 {
		return stats
	}

	stats.LatestSubmission = &submissions[0]

	best := &submissions[0]
	for i := range submissions {
		if submissions[i].Score > best.Score {
			best = &submissions[i]
		}
		if best.Score == 100 {
			break
		}
	}
	stats.HighestScore = best.Score
	stats.HighestScoreSubmission = best
	return stats
}

// GetStatsForUser resolves the caller's enrollment for the problem's class
// and computes their stats. A user with no enrollment gets ErrNotEnrolled,
// matching the eligibility gate.
func (s *StatsService) GetStatsForUser(ctx context.Context, userID, problemID string) (*model.SubmissionStats, error) {
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
	return s.GetStats(ctx, participant.ID, problemID)
}

// GetStats computes one participant's stats for one problem.
func (s *StatsService) GetStats(ctx context.Context, participantID, problemID string) (*model.SubmissionStats, error) {
	submissions, err := s.submissionRepo.ListByParticipantAndProblem(ctx, participantID, problemID)
	if err != nil {
		return nil, common.Errorf("failed to list submissions: %w", err)
	}
	stats := ComputeStats(submissions)
	return &stats, nil
}

// BuildScoreboard folds every submission of an assignment into the
// cross-student, cross-problem summary. Cells a participant never attempted
// come back with zero score and zero attempts rather than being absent.
func (s *StatsService) BuildScoreboard(ctx context.Context, assignmentID string) (*model.Scoreboard, error) {
	assignment, err := s.assignmentRepo.FindAssignmentByID(ctx, assignmentID)
	if err != nil {
		return nil, common.Errorf("assignment not found: %w", err)
	}
	problems, err := s.problemRepo.FindProblemsByAssignmentID(ctx, assignmentID)
	if err != nil {
		return nil, common.Errorf("failed to list problems: %w", err)
	}
	participants, err := s.assignmentRepo.ListParticipantsByClass(ctx, assignment.CourseClassID)
	if err != nil {
		return nil, common.Errorf("failed to list participants: %w", err)
	}
	submissions, err := s.submissionRepo.ListByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, common.Errorf("failed to list submissions: %w", err)
	}

	// Group once; the query orders newest-first within each (participant,
	// problem) pair, which ComputeStats depends on.
	grouped := make(map[string]map[string][]model.Submission)
	for _, sub := range submissions {
		byProblem, ok := grouped[sub.ParticipantID]
		if !ok {
			byProblem = make(map[string][]model.Submission)
			grouped[sub.ParticipantID] = byProblem
		}
		byProblem[sub.ProblemID] = append(byProblem[sub.ProblemID], sub)
	}

	board := &model.Scoreboard{
		AssignmentID:  assignmentID,
		TotalStudents: len(participants),
		TotalProblems: len(problems),
	}

	var scoreSum float64
	for _, participant := range participants {
		row := model.ScoreboardRow{ParticipantID: participant.ID}
		if participant.Username != nil {
			row.Username = *participant.Username
		}

		for _, problem := range problems {
			weight := problem.ScoreWeight
			if weight <= 0 {
				weight = 100
			}
			cell := model.ScoreboardCell{ProblemID: problem.ID, MaxScore: weight}

			subs := grouped[participant.ID][problem.ID]
			if len(subs) > 0 {
				stats := ComputeStats(subs)
				cell.Attempted = true
				cell.Attempts = stats.TotalSubmission
				cell.Score = int(math.Round(float64(stats.HighestScore) * float64(weight) / 100))
				cell.Status = stats.HighestScoreSubmission.Status
			}

			row.Cells = append(row.Cells, cell)
			row.TotalScore += cell.Score
			row.TotalMaxScore += cell.MaxScore
		}

		scoreSum += float64(row.TotalScore)
		board.Rows = append(board.Rows, row)
	}

	if len(participants) > 0 {
		board.AverageScore = scoreSum / float64(len(participants))
	}
	return board, nil
}
