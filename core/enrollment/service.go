package enrollment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core/role"
)

var (
	// errors
	ErrNotFound        = errors.New("enrollment not found")
	ErrAlreadyEnrolled = errors.New("student is already enrolled in this course")
	ErrInvalidStatus   = errors.New("invalid enrollment status")
	ErrNotAuthorized   = errors.New("permission denied")
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, enr Enrollment) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id string) (Enrollment, error)
		// GetActiveEnrollment returns the single Enrolled row for the pair, or ErrNotFound.
		GetActiveEnrollment(ctx context.Context, studentID, courseID string) (Enrollment, error)
		QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]Enrollment, error)
		QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]Enrollment, error)
		UpdateEnrollmentStatus(ctx context.Context, id string, status Status) (Enrollment, error)
		CountActiveEnrollmentsByCourse(ctx context.Context, courseID string) (int, error)
	}

	// CourseResolver looks catalog courses up by display name (auto-enrollment).
	CourseResolver interface {
		ResolveCourseID(ctx context.Context, name string) (string, error)
	}

	Service struct {
		repo    Repository
		courses CourseResolver

		nowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository, courses CourseResolver) *Service {
	return &Service{
		repo:    repo,
		courses: courses,
		nowFunc: time.Now,
	}
}

// Enroll links a student to a course on behalf of actor. A second active
// enrollment for the same pair fails with ErrAlreadyEnrolled.
func (svc *Service) Enroll(ctx context.Context, actor role.Role, studentID, courseID string) (Enrollment, error) {
	if !role.Can(actor, role.EnrollmentCreate) {
		return Enrollment{}, ErrNotAuthorized
	}
	return svc.enroll(ctx, studentID, courseID)
}

// AutoEnroll is the registration hook: it resolves the course by name and
// enrolls the student. Callers are expected to treat a resolution failure as
// a logged no-op, not a registration error.
func (svc *Service) AutoEnroll(ctx context.Context, studentID, courseName string) error {
	courseID, err := svc.courses.ResolveCourseID(ctx, courseName)
	if err != nil {
		return errors.Wrapf(err, "resolving course %q", courseName)
	}
	_, err = svc.enroll(ctx, studentID, courseID)
	return err
}

func (svc *Service) enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	if _, err := svc.repo.GetActiveEnrollment(ctx, studentID, courseID); err == nil {
		return Enrollment{}, ErrAlreadyEnrolled
	} else if errors.Cause(err) != ErrNotFound {
		return Enrollment{}, errors.Wrap(err, "checking active enrollment")
	}

	enr := Enrollment{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     StatusEnrolled,
		EnrolledAt: svc.nowFunc().UTC(),
	}
	enr, err := svc.repo.CreateEnrollment(ctx, enr)
	return enr, errors.Wrap(err, "creating enrollment")
}

// SetStatus transitions an enrollment (drop, complete, re-enroll).
func (svc *Service) SetStatus(ctx context.Context, actor role.Role, id string, status Status) (Enrollment, error) {
	if !role.Can(actor, role.EnrollmentUpdate) {
		return Enrollment{}, ErrNotAuthorized
	}
	if !status.Valid() {
		return Enrollment{}, ErrInvalidStatus
	}
	enr, err := svc.repo.GetEnrollmentByID(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if status == StatusEnrolled && enr.Status != StatusEnrolled {
		// re-enrolling must not break the one-active-enrollment-per-pair rule
		if _, err := svc.repo.GetActiveEnrollment(ctx, enr.StudentID, enr.CourseID); err == nil {
			return Enrollment{}, ErrAlreadyEnrolled
		} else if errors.Cause(err) != ErrNotFound {
			return Enrollment{}, errors.Wrap(err, "checking active enrollment")
		}
	}
	return svc.repo.UpdateEnrollmentStatus(ctx, id, status)
}

func (svc *Service) ByStudent(ctx context.Context, studentID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByStudent(ctx, studentID)
}

func (svc *Service) ByCourse(ctx context.Context, courseID string) ([]Enrollment, error) {
	return svc.repo.QueryEnrollmentsByCourse(ctx, courseID)
}

// HasActiveEnrollment satisfies the grade service's enrollment check.
func (svc *Service) HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error) {
	if _, err := svc.repo.GetActiveEnrollment(ctx, studentID, courseID); err != nil {
		if errors.Cause(err) == ErrNotFound {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountActiveByCourse satisfies the catalog service's deletion gate.
func (svc *Service) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	return svc.repo.CountActiveEnrollmentsByCourse(ctx, courseID)
}
