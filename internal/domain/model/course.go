package model

import "time"

// CourseClass is a single practicum class section. Assignments belong to a
// class, and only its enrolled participants may submit.
type CourseClass struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	LecturerID string    `json:"lecturer_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Participant is an enrollment row linking a student user to a class.
type Participant struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	CourseClassID string    `json:"course_class_id"`
	CreatedAt     time.Time `json:"created_at"`
	Username      *string   `json:"username,omitempty"` // For display
}
