package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"praktikum_core/internal/common"
	"praktikum_core/internal/domain/model"
)

type AssignmentRepository interface {
	FindAssignmentByID(ctx context.Context, id string) (*model.Assignment, error)
	// FindParticipant resolves the enrollment row for a user in the class that
	// owns an assignment; common.ErrNotFound means the user is not enrolled.
	FindParticipant(ctx context.Context, userID, courseClassID string) (*model.Participant, error)
	GetParticipantByID(ctx context.Context, id string) (*model.Participant, error)
	ListParticipantsByClass(ctx context.Context, courseClassID string) ([]model.Participant, error)
}

type pgAssignmentRepository struct {
	db *sql.DB
}

func NewPgAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &pgAssignmentRepository{db: db}
}

func (r *pgAssignmentRepository) FindAssignmentByID(ctx context.Context, id string) (*model.Assignment, error) {
	query := `SELECT id, course_class_id, title, description, deadline, max_submissions, created_at, updated_at
	          FROM assignments WHERE id = $1`
	a := &model.Assignment{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.CourseClassID, &a.Title, &a.Description, &a.Deadline, &a.MaxSubmissions, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAssignmentRepository.FindAssignmentByID: %w", err)
	}
	return a, nil
}

func (r *pgAssignmentRepository) FindParticipant(ctx context.Context, userID, courseClassID string) (*model.Participant, error) {
	query := `SELECT id, user_id, course_class_id, created_at
	          FROM participants WHERE user_id = $1 AND course_class_id = $2`
	p := &model.Participant{}
	err := r.db.QueryRowContext(ctx, query, userID, courseClassID).Scan(
		&p.ID, &p.UserID, &p.CourseClassID, &p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAssignmentRepository.FindParticipant: %w", err)
	}
	return p, nil
}

func (r *pgAssignmentRepository) GetParticipantByID(ctx context.Context, id string) (*model.Participant, error) {
	query := `SELECT p.id, p.user_id, p.course_class_id, p.created_at, u.username
	          FROM participants p
	          JOIN users u ON p.user_id = u.id
	          WHERE p.id = $1`
	p := &model.Participant{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&p.ID, &p.UserID, &p.CourseClassID, &p.CreatedAt, &p.Username,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgAssignmentRepository.GetParticipantByID: %w", err)
	}
	return p, nil
}

func (r *pgAssignmentRepository) ListParticipantsByClass(ctx context.Context, courseClassID string) ([]model.Participant, error) {
	query := `SELECT p.id, p.user_id, p.course_class_id, p.created_at, u.username
	          FROM participants p
	          JOIN users u ON p.user_id = u.id
	          WHERE p.course_class_id = $1
	          ORDER BY u.username`
	rows, err := r.db.QueryContext(ctx, query, courseClassID)
	if err != nil {
		return nil, fmt.Errorf("pgAssignmentRepository.ListParticipantsByClass: %w", err)
	}
	defer rows.Close()

	var participants []model.Participant
	for rows.Next() {
		var p model.Participant
		if err := rows.Scan(&p.ID, &p.UserID, &p.CourseClassID, &p.CreatedAt, &p.Username); err != nil {
			return nil, fmt.Errorf("pgAssignmentRepository.ListParticipantsByClass scan: %w", err)
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
