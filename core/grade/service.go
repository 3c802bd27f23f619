package grade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/role"
)

var (
	// errors
	ErrNotFound          = errors.New("grade not found")
	ErrInvalidGradeValue = errors.New("grade must be between 0 and 100")
	ErrGradeLocked       = errors.New("grade has been submitted and can no longer be changed")
	ErrNotAuthorized     = errors.New("permission denied")
)

type (
	Repository interface {
		// GetGrade returns the single row for the pair, or ErrNotFound.
		GetGrade(ctx context.Context, studentID, courseID string) (Grade, error)
		CreateGrade(ctx context.Context, grd Grade) (Grade, error)
		UpdateGrade(ctx context.Context, grd Grade) (Grade, error)
		// SubmitInstructorGrades flips all unsubmitted rows graded by the
		// instructor to submitted in one atomic batch; returns the count.
		SubmitInstructorGrades(ctx context.Context, instructorID string, at time.Time) (int, error)
		QueryGradesByStudent(ctx context.Context, studentID string) ([]Grade, error)
		QueryGradesByCourse(ctx context.Context, courseID string) ([]Grade, error)
	}

	// AssignmentChecker reports whether an instructor is assigned to a course.
	AssignmentChecker interface {
		IsInstructorAssigned(ctx context.Context, courseID, instructorID string) (bool, error)
	}

	// EnrollmentChecker reports whether a student holds an active enrollment.
	EnrollmentChecker interface {
		HasActiveEnrollment(ctx context.Context, studentID, courseID string) (bool, error)
	}

	Service struct {
		repo        Repository
		assignments AssignmentChecker
		enrollments EnrollmentChecker

		nowFunc func() time.Time // mockable
	}
)

func NewService(repo Repository, assignments AssignmentChecker, enrollments EnrollmentChecker) *Service {
	return &Service{
		repo:        repo,
		assignments: assignments,
		enrollments: enrollments,
		nowFunc:     time.Now,
	}
}

// Upsert records a grade entry for a (student, course) pair on behalf of the
// acting instructor. The instructor must be assigned to the course and the
// student actively enrolled in it. The row is created on first entry and
// updated in place afterwards; calling twice with the same values yields the
// same stored state. Submitted rows fail with ErrGradeLocked.
func (svc *Service) Upsert(ctx context.Context, actor role.Role, instructorID string, ug UpsertGrade) (Grade, error) {
	if !role.Can(actor, role.GradeUpsert) {
		return Grade{}, ErrNotAuthorized
	}
	assigned, err := svc.assignments.IsInstructorAssigned(ctx, ug.CourseID, instructorID)
	if err != nil {
		return Grade{}, errors.Wrap(err, "checking course assignment")
	}
	if !assigned {
		return Grade{}, ErrNotAuthorized
	}
	enrolled, err := svc.enrollments.HasActiveEnrollment(ctx, ug.StudentID, ug.CourseID)
	if err != nil {
		return Grade{}, errors.Wrap(err, "checking enrollment")
	}
	if !enrolled {
		return Grade{}, ErrNotAuthorized
	}
	if err = validateScores(ug); err != nil {
		return Grade{}, err
	}

	now := svc.nowFunc().UTC()

	grd, err := svc.repo.GetGrade(ctx, ug.StudentID, ug.CourseID)
	switch errors.Cause(err) {
	case nil:
		if grd.Submitted {
			return Grade{}, ErrGradeLocked
		}
		grd.apply(ug, instructorID, now)
		grd, err = svc.repo.UpdateGrade(ctx, grd)
		return grd, errors.Wrap(err, "updating grade")
	case ErrNotFound:
		grd = Grade{
			ID:        uuid.New().String(),
			StudentID: ug.StudentID,
			CourseID:  ug.CourseID,
			CreatedAt: now,
		}
		grd.apply(ug, instructorID, now)
		grd, err = svc.repo.CreateGrade(ctx, grd)
		return grd, errors.Wrap(err, "creating grade")
	}
	return Grade{}, errors.Wrap(err, "looking up grade")
}

func (g *Grade) apply(ug UpsertGrade, instructorID string, now time.Time) {
	if ug.Midterm != nil {
		g.Midterm = null.Float64From(*ug.Midterm)
	}
	if ug.Final != nil {
		g.Final = null.Float64From(*ug.Final)
	}
	if ug.Remarks != "" {
		g.Remarks = ug.Remarks
	}
	g.GradedBy = null.StringFrom(instructorID)
	g.UpdatedAt = now
}

func validateScores(ug UpsertGrade) error {
	var flds []core.FieldError
	if ug.Midterm != nil && (*ug.Midterm < 0 || *ug.Midterm > 100) {
		flds = append(flds, core.FieldError{Field: "midterm_grade", Error: ErrInvalidGradeValue.Error()})
	}
	if ug.Final != nil && (*ug.Final < 0 || *ug.Final > 100) {
		flds = append(flds, core.FieldError{Field: "final_grade", Error: ErrInvalidGradeValue.Error()})
	}
	if len(flds) > 0 {
		return core.NewValidationError(ErrInvalidGradeValue, flds...)
	}
	return nil
}

// Submit locks in all of the instructor's pending grades as one atomic batch.
func (svc *Service) Submit(ctx context.Context, actor role.Role, instructorID string) (int, error) {
	if !role.Can(actor, role.GradeSubmit) {
		return 0, ErrNotAuthorized
	}
	n, err := svc.repo.SubmitInstructorGrades(ctx, instructorID, svc.nowFunc().UTC())
	return n, errors.Wrap(err, "submitting grades")
}

func (svc *Service) ByStudent(ctx context.Context, studentID string) ([]Grade, error) {
	return svc.repo.QueryGradesByStudent(ctx, studentID)
}

func (svc *Service) ByCourse(ctx context.Context, courseID string) ([]Grade, error) {
	return svc.repo.QueryGradesByCourse(ctx, courseID)
}

func (svc *Service) Get(ctx context.Context, studentID, courseID string) (Grade, error) {
	return svc.repo.GetGrade(ctx, studentID, courseID)
}
