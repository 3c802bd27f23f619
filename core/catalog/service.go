package catalog

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/role"
)

var (
	// errors
	ErrNotFound          = errors.New("course not found")
	ErrSubjectNotFound   = errors.New("subject not found")
	ErrCourseCodeExists  = errors.New("a course with this code already exists")
	ErrSubjectCodeExists = errors.New("a subject with this code already exists in this course")
	ErrCourseInUse       = errors.New("course has active enrollments and cannot be deleted")
	ErrNotAnInstructor   = errors.New("account is not an instructor")
	ErrNotAuthorized     = errors.New("permission denied")
)

type (
	Repository interface {
		CheckCourseCodeUniqueness(ctx context.Context, code string, excludedCourses ...Course) error
		CheckSubjectCodeUniqueness(ctx context.Context, courseID, code string) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		GetCourseByCode(ctx context.Context, code string) (Course, error)
		GetCourseByName(ctx context.Context, name string) (Course, error)
		QueryCourses(ctx context.Context, ordering ...core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		// DeleteCourse removes the course together with its subjects, grades,
		// enrollments and instructor assignments in one transaction.
		DeleteCourse(ctx context.Context, id string) error

		CreateSubject(ctx context.Context, sub Subject) (Subject, error)
		GetSubjectByID(ctx context.Context, id string) (Subject, error)
		QuerySubjectsByCourse(ctx context.Context, courseID string) ([]Subject, error)
		DeleteSubject(ctx context.Context, id string) error

		// ReplaceInstructors swaps the full instructor set of a course atomically.
		ReplaceInstructors(ctx context.Context, courseID string, instructorIDs []string) error
		QueryCourseInstructors(ctx context.Context, courseID string) ([]string, error)
		QueryCoursesByInstructor(ctx context.Context, instructorID string) ([]Course, error)
		IsInstructorAssigned(ctx context.Context, courseID, instructorID string) (bool, error)
	}

	// EnrollmentCounter reports active enrollments per course; it gates course deletion.
	EnrollmentCounter interface {
		CountActiveByCourse(ctx context.Context, courseID string) (int, error)
	}

	// AccountRoleChecker resolves an account id to its role.
	AccountRoleChecker interface {
		RoleOf(ctx context.Context, accountID string) (role.Role, error)
	}

	Service struct {
		repo        Repository
		enrollments EnrollmentCounter
		accounts    AccountRoleChecker

		nowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository, enrollments EnrollmentCounter, accounts AccountRoleChecker) *Service {
	return &Service{
		repo:        repo,
		enrollments: enrollments,
		accounts:    accounts,
		nowFunc:     time.Now,
	}
}

func (svc *Service) checkCourseCodeUniqueness(code string, exclCourses ...Course) error {
	if err := svc.repo.CheckCourseCodeUniqueness(context.Background(), code, exclCourses...); err != nil {
		if errors.Cause(err) == ErrCourseCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "course_code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) checkSubjectCodeUniqueness(courseID, code string) error {
	if err := svc.repo.CheckSubjectCodeUniqueness(context.Background(), courseID, code); err != nil {
		if errors.Cause(err) == ErrSubjectCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "subject_code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) CreateCourse(ctx context.Context, actor role.Role, nc NewCourse) (Course, error) {
	if !role.Can(actor, role.CourseCreate) {
		return Course{}, ErrNotAuthorized
	}
	now := svc.nowFunc().UTC()
	crs := Course{
		ID:          uuid.New().String(),
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	crs, err := svc.repo.CreateCourse(ctx, crs)
	return crs, errors.Wrap(err, "creating course")
}

func (svc *Service) UpdateCourse(ctx context.Context, actor role.Role, id string, uc UpdateCourse) (Course, error) {
	if !role.Can(actor, role.CourseUpdate) {
		return Course{}, ErrNotAuthorized
	}
	crs := Course{
		ID:          id,
		Code:        uc.Code,
		Name:        uc.Name,
		Description: uc.Description,
		UpdatedAt:   svc.nowFunc().UTC(),
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

// DeleteCourse removes a course and everything that hangs off it. Deletion is
// refused with ErrCourseInUse while the course still has active enrollments;
// dropped and completed enrollment history goes away with the course.
func (svc *Service) DeleteCourse(ctx context.Context, actor role.Role, id string) error {
	if !role.Can(actor, role.CourseDelete) {
		return ErrNotAuthorized
	}
	if _, err := svc.repo.GetCourseByID(ctx, id); err != nil {
		return err
	}
	n, err := svc.enrollments.CountActiveByCourse(ctx, id)
	if err != nil {
		return errors.Wrap(err, "counting active enrollments")
	}
	if n > 0 {
		return ErrCourseInUse
	}
	return errors.Wrap(svc.repo.DeleteCourse(ctx, id), "deleting course")
}

func (svc *Service) CreateSubject(ctx context.Context, actor role.Role, ns NewSubject) (Subject, error) {
	if !role.Can(actor, role.SubjectCreate) {
		return Subject{}, ErrNotAuthorized
	}
	if _, err := svc.repo.GetCourseByID(ctx, ns.CourseID); err != nil {
		return Subject{}, err
	}
	sub := Subject{
		ID:            uuid.New().String(),
		CourseID:      ns.CourseID,
		Code:          ns.Code,
		Name:          ns.Name,
		Units:         ns.Units,
		YearLevel:     ns.YearLevel,
		Semester:      ns.Semester,
		Prerequisites: ns.Prerequisites,
	}
	sub, err := svc.repo.CreateSubject(ctx, sub)
	return sub, errors.Wrap(err, "creating subject")
}

func (svc *Service) DeleteSubject(ctx context.Context, actor role.Role, id string) error {
	if !role.Can(actor, role.SubjectDelete) {
		return ErrNotAuthorized
	}
	return svc.repo.DeleteSubject(ctx, id)
}

// AssignInstructors replaces the full instructor set of a course: prior
// assignments are dropped and the new set inserted in one transaction.
func (svc *Service) AssignInstructors(ctx context.Context, actor role.Role, courseID string, instructorIDs []string) error {
	if !role.Can(actor, role.InstructorAssign) {
		return ErrNotAuthorized
	}
	if _, err := svc.repo.GetCourseByID(ctx, courseID); err != nil {
		return err
	}
	for _, id := range instructorIDs {
		r, err := svc.accounts.RoleOf(ctx, id)
		if err != nil {
			return errors.Wrapf(err, "resolving account %s", id)
		}
		if r != role.Instructor {
			return core.NewValidationError(ErrNotAnInstructor, core.FieldError{Field: "instructor_ids", Error: ErrNotAnInstructor.Error()})
		}
	}
	return errors.Wrap(svc.repo.ReplaceInstructors(ctx, courseID, instructorIDs), "replacing instructors")
}

func (svc *Service) GetCourse(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourseByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if crs.Subjects, err = svc.repo.QuerySubjectsByCourse(ctx, id); err != nil {
		return Course{}, errors.Wrap(err, "querying subjects")
	}
	if crs.InstructorIDs, err = svc.repo.QueryCourseInstructors(ctx, id); err != nil {
		return Course{}, errors.Wrap(err, "querying instructors")
	}
	return crs, nil
}

func (svc *Service) GetCourseByCode(ctx context.Context, code string) (Course, error) {
	return svc.repo.GetCourseByCode(ctx, core.CleanString(code, true /* lower */))
}

func (svc *Service) QueryCourses(ctx context.Context, ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, ordering...)
}

func (svc *Service) QuerySubjects(ctx context.Context, courseID string) ([]Subject, error) {
	return svc.repo.QuerySubjectsByCourse(ctx, courseID)
}

func (svc *Service) CoursesByInstructor(ctx context.Context, instructorID string) ([]Course, error) {
	return svc.repo.QueryCoursesByInstructor(ctx, instructorID)
}

// IsInstructorAssigned satisfies the grade service's assignment check.
func (svc *Service) IsInstructorAssigned(ctx context.Context, courseID, instructorID string) (bool, error) {
	return svc.repo.IsInstructorAssigned(ctx, courseID, instructorID)
}

// ResolveCourseID satisfies the enrollment service's by-name course lookup
// for student auto-enrollment.
func (svc *Service) ResolveCourseID(ctx context.Context, name string) (string, error) {
	crs, err := svc.repo.GetCourseByName(ctx, core.CleanString(name))
	if err != nil {
		return "", err
	}
	return crs.ID, nil
}
