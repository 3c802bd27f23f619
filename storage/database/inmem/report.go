package inmem

import (
	"context"
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/report"
)

// ReportRepository aggregates over the other in-memory repositories the same
// way the SQL implementation aggregates over the tables.
type ReportRepository struct {
	users   *UserRepository
	catalog *CatalogRepository
	grades  *GradeRepository
}

var _ report.Repository = (*ReportRepository)(nil) // interface compliance check

func NewReportRepository(users *UserRepository, cat *CatalogRepository, grades *GradeRepository) *ReportRepository {
	return &ReportRepository{users: users, catalog: cat, grades: grades}
}

func average(grd grade.Grade) null.Float64 {
	switch {
	case grd.Midterm.Valid && grd.Final.Valid:
		return null.Float64From((grd.Midterm.Float64 + grd.Final.Float64) / 2)
	case grd.Midterm.Valid:
		return grd.Midterm
	case grd.Final.Valid:
		return grd.Final
	}
	return null.Float64{}
}

func (repo *ReportRepository) StudentAveragesByCourse(ctx context.Context, courseID string) ([]report.StudentAverage, error) {
	grades, err := repo.grades.QueryGradesByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	avgs := make([]report.StudentAverage, 0, len(grades))
	for _, grd := range grades {
		avgs = append(avgs, report.StudentAverage{
			StudentID: grd.StudentID,
			CourseID:  grd.CourseID,
			Average:   average(grd),
		})
	}
	sort.Slice(avgs, func(i, j int) bool { return avgs[i].StudentID < avgs[j].StudentID })
	return avgs, nil
}

func (repo *ReportRepository) StudentAverages(ctx context.Context, studentID string) ([]report.StudentAverage, error) {
	grades, err := repo.grades.QueryGradesByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	avgs := make([]report.StudentAverage, 0, len(grades))
	for _, grd := range grades {
		avgs = append(avgs, report.StudentAverage{
			StudentID: grd.StudentID,
			CourseID:  grd.CourseID,
			Average:   average(grd),
		})
	}
	sort.Slice(avgs, func(i, j int) bool { return avgs[i].CourseID < avgs[j].CourseID })
	return avgs, nil
}

func (repo *ReportRepository) UserCountsByRole(_ context.Context) ([]report.RoleCount, error) {
	repo.users.mu.Lock()
	defer repo.users.mu.Unlock()

	byRole := make(map[string]*report.RoleCount)
	for _, usr := range repo.users.users {
		rc, ok := byRole[string(usr.Role)]
		if !ok {
			rc = &report.RoleCount{Role: usr.Role}
			byRole[string(usr.Role)] = rc
		}
		if usr.IsActive {
			rc.Active++
		} else {
			rc.Inactive++
		}
	}

	counts := make([]report.RoleCount, 0, len(byRole))
	for _, rc := range byRole {
		counts = append(counts, *rc)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i].Role < counts[j].Role })
	return counts, nil
}

func (repo *ReportRepository) SubjectsByCourse(ctx context.Context, courseID string) ([]catalog.Subject, error) {
	return repo.catalog.QuerySubjectsByCourse(ctx, courseID)
}
