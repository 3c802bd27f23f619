package catalog

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/acadeo/gradebook/core"
)

// Course is the top-level catalog entity; it owns its Subjects and carries the
// instructor assignment relation.
type Course struct {
	ID          string    `json:"id" db:"id"`
	Code        string    `json:"course_code" db:"code"`
	Name        string    `json:"course_name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC

	Subjects      []Subject `json:"subjects,omitempty"`
	InstructorIDs []string  `json:"instructor_ids,omitempty"`
}

// Subject belongs to exactly one Course; its code is unique within the course.
type Subject struct {
	ID            string `json:"id" db:"id"`
	CourseID      string `json:"course_id" db:"course_id"`
	Code          string `json:"subject_code" db:"code"`
	Name          string `json:"subject_name" db:"name"`
	Units         int    `json:"units" db:"units"`
	YearLevel     int    `json:"year_level" db:"year_level"`
	Semester      int    `json:"semester" db:"semester"`
	Prerequisites string `json:"prerequisites" db:"prerequisites"`
}

type NewCourse struct {
	Code        string `json:"course_code" validate:"required"`
	Name        string `json:"course_name" validate:"required"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate, svc *Service) error {
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)

	if err := validate.Struct(nc); err != nil {
		return err
	}
	return svc.checkCourseCodeUniqueness(nc.Code)
}

type UpdateCourse struct {
	Code        string `json:"course_code"`
	Name        string `json:"course_name"`
	Description string `json:"description"`
}

func (uc *UpdateCourse) Validate(origCourse Course, validate *validator.Validate, svc *Service) error {
	if code := core.CleanString(uc.Code, true /* lower */); code != "" {
		uc.Code = code
	} else {
		uc.Code = origCourse.Code
	}
	if name := core.CleanString(uc.Name); name != "" {
		uc.Name = name
	} else {
		uc.Name = origCourse.Name
	}
	uc.Description = core.CleanString(uc.Description)

	if err := validate.Struct(uc); err != nil {
		return err
	}
	return svc.checkCourseCodeUniqueness(uc.Code, origCourse)
}

type NewSubject struct {
	CourseID      string `json:"course_id" validate:"required"`
	Code          string `json:"subject_code" validate:"required"`
	Name          string `json:"subject_name" validate:"required"`
	Units         int    `json:"units" validate:"required,min=1,max=6"`
	YearLevel     int    `json:"year_level" validate:"required,min=1,max=4"`
	Semester      int    `json:"semester" validate:"required,min=1,max=2"`
	Prerequisites string `json:"prerequisites"`
}

func (ns *NewSubject) Validate(validate *validator.Validate, svc *Service) error {
	ns.Code = core.CleanString(ns.Code, true /* lower */)
	ns.Name = core.CleanString(ns.Name)
	ns.Prerequisites = core.CleanString(ns.Prerequisites)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return svc.checkSubjectCodeUniqueness(ns.CourseID, ns.Code)
}
