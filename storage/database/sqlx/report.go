package sqlxrepos

import (
	"context"

	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/report"
)

type reportRepository struct {
	db core.DB
}

var _ report.Repository = (*reportRepository)(nil) // interface compliance check

func NewReportRepository(db core.DB) *reportRepository {
	return &reportRepository{db: db}
}

// averages skip NULL scores entirely: a row with only a midterm averages to
// the midterm, a row with neither yields a NULL average.
const avgExpr = `
CASE
    WHEN midterm IS NOT NULL AND final IS NOT NULL THEN (midterm + final) / 2
    ELSE COALESCE(midterm, final)
END`

func (repo reportRepository) StudentAveragesByCourse(ctx context.Context, courseID string) ([]report.StudentAverage, error) {
	const q = `
SELECT student_id, course_id, ` + avgExpr + ` AS average
FROM grade WHERE course_id = $1
ORDER BY student_id`
	var avgs []report.StudentAverage
	err := repo.db.SelectContext(ctx, &avgs, q, courseID)
	return avgs, errors.Wrap(err, "querying course averages")
}

func (repo reportRepository) StudentAverages(ctx context.Context, studentID string) ([]report.StudentAverage, error) {
	const q = `
SELECT student_id, course_id, ` + avgExpr + ` AS average
FROM grade WHERE student_id = $1
ORDER BY course_id`
	var avgs []report.StudentAverage
	err := repo.db.SelectContext(ctx, &avgs, q, studentID)
	return avgs, errors.Wrap(err, "querying student averages")
}

func (repo reportRepository) UserCountsByRole(ctx context.Context) ([]report.RoleCount, error) {
	const q = `
SELECT role,
       COUNT(*) FILTER (WHERE is_active)     AS active,
       COUNT(*) FILTER (WHERE NOT is_active) AS inactive
FROM user_account
GROUP BY role
ORDER BY role`
	var counts []report.RoleCount
	err := repo.db.SelectContext(ctx, &counts, q)
	return counts, errors.Wrap(err, "querying user counts")
}

func (repo reportRepository) SubjectsByCourse(ctx context.Context, courseID string) ([]catalog.Subject, error) {
	const q = `
SELECT id, course_id, code, name, units, year_level, semester, prerequisites
FROM subject WHERE course_id = $1
ORDER BY year_level, semester, code`
	var subjects []catalog.Subject
	err := repo.db.SelectContext(ctx, &subjects, q, courseID)
	return subjects, errors.Wrap(err, "querying subjects")
}
