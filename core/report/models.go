package report

import (
	"github.com/volatiletech/null/v8"

	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/role"
)

// StudentAverage is the per-student average over the non-NULL scores of one
// course; students with no recorded scores carry a null Average and no letter.
type StudentAverage struct {
	StudentID string       `json:"student_id" db:"student_id"`
	CourseID  string       `json:"course_id" db:"course_id"`
	Average   null.Float64 `json:"average" db:"average"`
	Letter    string       `json:"letter,omitempty"`
}

// RoleCount is the number of active/inactive accounts holding one role.
type RoleCount struct {
	Role     role.Role `json:"role" db:"role"`
	Active   int       `json:"active" db:"active"`
	Inactive int       `json:"inactive" db:"inactive"`
}

// CurriculumTerm groups a course's subjects under one (year, semester) slot.
type CurriculumTerm struct {
	YearLevel int               `json:"year_level"`
	Semester  int               `json:"semester"`
	Subjects  []catalog.Subject `json:"subjects"`
}
