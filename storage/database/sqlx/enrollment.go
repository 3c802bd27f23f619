package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/enrollment"
)

type enrollmentRepository struct {
	db core.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db core.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo enrollmentRepository) CreateEnrollment(ctx context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	const q = `
INSERT INTO enrollment (id, student_id, course_id, status, enrolled_at)
VALUES ($1, $2, $3, $4, $5)`
	_, err := repo.db.ExecContext(ctx, q, enr.ID, enr.StudentID, enr.CourseID, enr.Status, enr.EnrolledAt)
	return enr, errors.Wrap(err, "inserting enrollment")
}

func (repo enrollmentRepository) getEnrollment(ctx context.Context, where string, args ...interface{}) (enrollment.Enrollment, error) {
	var enr enrollment.Enrollment
	q := `SELECT id, student_id, course_id, status, enrolled_at FROM enrollment WHERE ` + where
	if err := repo.db.GetContext(ctx, &enr, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return enrollment.Enrollment{}, enrollment.ErrNotFound
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "getting enrollment")
	}
	return enr, nil
}

func (repo enrollmentRepository) GetEnrollmentByID(ctx context.Context, id string) (enrollment.Enrollment, error) {
	return repo.getEnrollment(ctx, "id = $1", id)
}

func (repo enrollmentRepository) GetActiveEnrollment(ctx context.Context, studentID, courseID string) (enrollment.Enrollment, error) {
	return repo.getEnrollment(ctx, "student_id = $1 AND course_id = $2 AND status = $3", studentID, courseID, enrollment.StatusEnrolled)
}

func (repo enrollmentRepository) QueryEnrollmentsByStudent(ctx context.Context, studentID string) ([]enrollment.Enrollment, error) {
	const q = `
SELECT id, student_id, course_id, status, enrolled_at
FROM enrollment WHERE student_id = $1
ORDER BY enrolled_at DESC`
	var enrs []enrollment.Enrollment
	err := repo.db.SelectContext(ctx, &enrs, q, studentID)
	return enrs, errors.Wrap(err, "querying enrollments by student")
}

func (repo enrollmentRepository) QueryEnrollmentsByCourse(ctx context.Context, courseID string) ([]enrollment.Enrollment, error) {
	const q = `
SELECT id, student_id, course_id, status, enrolled_at
FROM enrollment WHERE course_id = $1
ORDER BY enrolled_at DESC`
	var enrs []enrollment.Enrollment
	err := repo.db.SelectContext(ctx, &enrs, q, courseID)
	return enrs, errors.Wrap(err, "querying enrollments by course")
}

func (repo enrollmentRepository) UpdateEnrollmentStatus(ctx context.Context, id string, status enrollment.Status) (enrollment.Enrollment, error) {
	res, err := repo.db.ExecContext(ctx, `UPDATE enrollment SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment status")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return repo.GetEnrollmentByID(ctx, id)
}

func (repo enrollmentRepository) CountActiveEnrollmentsByCourse(ctx context.Context, courseID string) (int, error) {
	var n int
	const q = `SELECT COUNT(*) FROM enrollment WHERE course_id = $1 AND status = $2`
	err := repo.db.GetContext(ctx, &n, q, courseID, enrollment.StatusEnrolled)
	return n, errors.Wrap(err, "counting active enrollments")
}
