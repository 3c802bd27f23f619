package enrollment

import "time"

// Status of an Enrollment; only one Enrolled row may exist per
// (student, course) pair at a time.
type Status string

const (
	StatusEnrolled  Status = "enrolled"
	StatusDropped   Status = "dropped"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusEnrolled, StatusDropped, StatusCompleted:
		return true
	}
	return false
}

// Enrollment links a student to a course.
type Enrollment struct {
	ID         string    `json:"id" db:"id"`
	StudentID  string    `json:"student_id" db:"student_id"`
	CourseID   string    `json:"course_id" db:"course_id"`
	Status     Status    `json:"status" db:"status"`
	EnrolledAt time.Time `json:"enrolled_at" db:"enrolled_at"` // UTC
}
