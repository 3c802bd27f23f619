package grade

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/acadeo/gradebook/core"
)

// Grade is the per-student-per-course record of midterm/final scores. A row is
// created lazily on first entry and updated in place afterwards; once
// Submitted it is locked against further instructor edits.
type Grade struct {
	ID        string       `json:"id" db:"id"`
	StudentID string       `json:"student_id" db:"student_id"`
	CourseID  string       `json:"course_id" db:"course_id"`
	Midterm   null.Float64 `json:"midterm_grade" db:"midterm"`
	Final     null.Float64 `json:"final_grade" db:"final"`
	Remarks   string       `json:"remarks" db:"remarks"`
	GradedBy  null.String  `json:"graded_by" db:"graded_by"`
	Submitted bool         `json:"submitted" db:"submitted"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"` // UTC
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"` // UTC
}

// State reports where the row sits in the grade lifecycle.
func (g Grade) State() State {
	switch {
	case g.Submitted:
		return StateSubmitted
	case g.Midterm.Valid || g.Final.Valid:
		return StatePartiallyGraded
	}
	return StateNoGrade
}

type State string

const (
	StateNoGrade         State = "no_grade"
	StatePartiallyGraded State = "partially_graded"
	StateSubmitted       State = "submitted"
)

// UpsertGrade carries one grade entry; nil score pointers leave the stored
// value untouched.
type UpsertGrade struct {
	StudentID string   `json:"student_id" validate:"required"`
	CourseID  string   `json:"course_id" validate:"required"`
	Midterm   *float64 `json:"midterm_grade" validate:"omitempty,min=0,max=100"`
	Final     *float64 `json:"final_grade" validate:"omitempty,min=0,max=100"`
	Remarks   string   `json:"remarks"`
}

func (ug *UpsertGrade) Validate(validate *validator.Validate) error {
	ug.Remarks = core.CleanString(ug.Remarks)
	if err := validate.Struct(ug); err != nil {
		return err
	}
	return nil
}

// LetterGrade maps a numeric grade to its letter:
// [90,100] A, [80,90) B, [70,80) C, [60,70) D, else F.
func LetterGrade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	}
	return "F"
}
