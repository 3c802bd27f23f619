package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/grade"
)

type gradeRepository struct {
	db core.DB
}

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db core.DB) *gradeRepository {
	return &gradeRepository{db: db}
}

const gradeCols = `id, student_id, course_id, midterm, final, remarks, graded_by, submitted, created_at, updated_at`

func (repo gradeRepository) GetGrade(ctx context.Context, studentID, courseID string) (grade.Grade, error) {
	var grd grade.Grade
	const q = `SELECT ` + gradeCols + ` FROM grade WHERE student_id = $1 AND course_id = $2`
	if err := repo.db.GetContext(ctx, &grd, q, studentID, courseID); err != nil {
		if err == sql.ErrNoRows {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "getting grade")
	}
	return grd, nil
}

func (repo gradeRepository) CreateGrade(ctx context.Context, grd grade.Grade) (grade.Grade, error) {
	const q = `
INSERT INTO grade (id, student_id, course_id, midterm, final, remarks, graded_by, submitted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		grd.ID, grd.StudentID, grd.CourseID, grd.Midterm, grd.Final, grd.Remarks,
		grd.GradedBy, grd.Submitted, grd.CreatedAt, grd.UpdatedAt)
	return grd, errors.Wrap(err, "inserting grade")
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, grd grade.Grade) (grade.Grade, error) {
	const q = `
UPDATE grade SET midterm = $1, final = $2, remarks = $3, graded_by = $4, updated_at = $5
WHERE id = $6 AND NOT submitted`
	res, err := repo.db.ExecContext(ctx, q,
		grd.Midterm, grd.Final, grd.Remarks, grd.GradedBy, grd.UpdatedAt, grd.ID)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	// the submitted guard backs up the service-level lock
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return grade.Grade{}, grade.ErrGradeLocked
	}
	return repo.GetGrade(ctx, grd.StudentID, grd.CourseID)
}

func (repo gradeRepository) SubmitInstructorGrades(ctx context.Context, instructorID string, at time.Time) (int, error) {
	const q = `UPDATE grade SET submitted = true, updated_at = $1 WHERE graded_by = $2 AND NOT submitted`
	res, err := repo.db.ExecContext(ctx, q, at, instructorID)
	if err != nil {
		return 0, errors.Wrap(err, "submitting grades")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "counting submitted grades")
}

func (repo gradeRepository) QueryGradesByStudent(ctx context.Context, studentID string) ([]grade.Grade, error) {
	const q = `SELECT ` + gradeCols + ` FROM grade WHERE student_id = $1 ORDER BY created_at`
	var grades []grade.Grade
	err := repo.db.SelectContext(ctx, &grades, q, studentID)
	return grades, errors.Wrap(err, "querying grades by student")
}

func (repo gradeRepository) QueryGradesByCourse(ctx context.Context, courseID string) ([]grade.Grade, error) {
	const q = `SELECT ` + gradeCols + ` FROM grade WHERE course_id = $1 ORDER BY created_at`
	var grades []grade.Grade
	err := repo.db.SelectContext(ctx, &grades, q, courseID)
	return grades, errors.Wrap(err, "querying grades by course")
}
