package report

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/role"
)

var ErrNotAuthorized = errors.New("permission denied")

type (
	// Repository exposes read-only aggregations; implementations must tolerate
	// partial data (NULL scores are simply excluded from averages).
	Repository interface {
		StudentAveragesByCourse(ctx context.Context, courseID string) ([]StudentAverage, error)
		StudentAverages(ctx context.Context, studentID string) ([]StudentAverage, error)
		UserCountsByRole(ctx context.Context) ([]RoleCount, error)
		SubjectsByCourse(ctx context.Context, courseID string) ([]catalog.Subject, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CourseAverages reports per-student averages for one course; admin and above.
func (svc *Service) CourseAverages(ctx context.Context, actor role.Role, courseID string) ([]StudentAverage, error) {
	if !role.Can(actor, role.ReportRead) || role.Priority(actor) < role.Priority(role.Instructor) {
		return nil, ErrNotAuthorized
	}
	avgs, err := svc.repo.StudentAveragesByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying course averages")
	}
	attachLetters(avgs)
	return avgs, nil
}

// StudentAverages reports one student's average per course.
func (svc *Service) StudentAverages(ctx context.Context, actor role.Role, studentID string) ([]StudentAverage, error) {
	if !role.Can(actor, role.ReportRead) {
		return nil, ErrNotAuthorized
	}
	avgs, err := svc.repo.StudentAverages(ctx, studentID)
	if err != nil {
		return nil, errors.Wrap(err, "querying student averages")
	}
	attachLetters(avgs)
	return avgs, nil
}

// UserCounts reports active/inactive account counts per role; admin and above.
func (svc *Service) UserCounts(ctx context.Context, actor role.Role) ([]RoleCount, error) {
	if role.Priority(actor) < role.Priority(role.Admin) {
		return nil, ErrNotAuthorized
	}
	return svc.repo.UserCountsByRole(ctx)
}

// Curriculum lists a course's subjects grouped by year level then semester.
func (svc *Service) Curriculum(ctx context.Context, actor role.Role, courseID string) ([]CurriculumTerm, error) {
	if !role.Can(actor, role.ReportRead) {
		return nil, ErrNotAuthorized
	}
	subjects, err := svc.repo.SubjectsByCourse(ctx, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}

	type key struct{ year, sem int }
	grouped := make(map[key][]catalog.Subject)
	for _, sub := range subjects {
		k := key{sub.YearLevel, sub.Semester}
		grouped[k] = append(grouped[k], sub)
	}

	terms := make([]CurriculumTerm, 0, len(grouped))
	for k, subs := range grouped {
		sort.Slice(subs, func(i, j int) bool { return subs[i].Code < subs[j].Code })
		terms = append(terms, CurriculumTerm{YearLevel: k.year, Semester: k.sem, Subjects: subs})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].YearLevel != terms[j].YearLevel {
			return terms[i].YearLevel < terms[j].YearLevel
		}
		return terms[i].Semester < terms[j].Semester
	})
	return terms, nil
}

func attachLetters(avgs []StudentAverage) {
	for i := range avgs {
		if avgs[i].Average.Valid {
			avgs[i].Letter = grade.LetterGrade(avgs[i].Average.Float64)
		}
	}
}
