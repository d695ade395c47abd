package model

import "time"

// Assignment (tugas) is a deadline-bound collection of problems for a class.
// MaxSubmissions of 0 means unlimited attempts per problem.
type Assignment struct {
	ID             string    `json:"id"`
	CourseClassID  string    `json:"course_class_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Deadline       time.Time `json:"deadline"`
	MaxSubmissions int       `json:"max_submissions"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
