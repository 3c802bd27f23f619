package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
)

type catalogRepository struct {
	db core.DB
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db core.DB) *catalogRepository {
	return &catalogRepository{db: db}
}

func (repo catalogRepository) CheckCourseCodeUniqueness(ctx context.Context, code string, excludedCourses ...catalog.Course) error {
	q := `SELECT EXISTS (SELECT 1 FROM course WHERE code = $1`
	args := []interface{}{code}
	if len(excludedCourses) > 0 {
		q += ` AND id != $2`
		args = append(args, excludedCourses[0].ID)
	}
	q += `)`

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, args...); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return catalog.ErrCourseCodeExists
	}
	return nil
}

func (repo catalogRepository) CheckSubjectCodeUniqueness(ctx context.Context, courseID, code string) error {
	const q = `SELECT EXISTS (SELECT 1 FROM subject WHERE course_id = $1 AND code = $2)`
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, q, courseID, code); err != nil {
		return errors.Wrap(err, "checking subject code uniqueness")
	}
	if exists {
		return catalog.ErrSubjectCodeExists
	}
	return nil
}

func (repo catalogRepository) CreateCourse(ctx context.Context, crs catalog.Course) (catalog.Course, error) {
	const q = `
INSERT INTO course (id, code, name, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := repo.db.ExecContext(ctx, q, crs.ID, crs.Code, crs.Name, crs.Description, crs.CreatedAt, crs.UpdatedAt)
	return crs, errors.Wrap(err, "inserting course")
}

func (repo catalogRepository) getCourse(ctx context.Context, where string, args ...interface{}) (catalog.Course, error) {
	var crs catalog.Course
	q := `SELECT id, code, name, description, created_at, updated_at FROM course WHERE ` + where
	if err := repo.db.GetContext(ctx, &crs, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Course{}, catalog.ErrNotFound
		}
		return catalog.Course{}, errors.Wrap(err, "getting course")
	}
	return crs, nil
}

func (repo catalogRepository) GetCourseByID(ctx context.Context, id string) (catalog.Course, error) {
	return repo.getCourse(ctx, "id = $1", id)
}

func (repo catalogRepository) GetCourseByCode(ctx context.Context, code string) (catalog.Course, error) {
	return repo.getCourse(ctx, "code = $1", code)
}

func (repo catalogRepository) GetCourseByName(ctx context.Context, name string) (catalog.Course, error) {
	return repo.getCourse(ctx, "LOWER(name) = LOWER($1)", name)
}

func (repo catalogRepository) QueryCourses(ctx context.Context, ordering ...core.DBOrdering) ([]catalog.Course, error) {
	q := `SELECT id, code, name, description, created_at, updated_at FROM course`
	if len(ordering) > 0 {
		ords := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			ords = append(ords, ord.String())
		}
		q += " ORDER BY " + strings.Join(ords, ", ")
	} else {
		q += " ORDER BY code ASC"
	}

	var courses []catalog.Course
	err := repo.db.SelectContext(ctx, &courses, q)
	return courses, errors.Wrap(err, "querying courses")
}

func (repo catalogRepository) UpdateCourse(ctx context.Context, crs catalog.Course) (catalog.Course, error) {
	const q = `
UPDATE course SET code = $1, name = $2, description = $3, updated_at = $4
WHERE id = $5`
	res, err := repo.db.ExecContext(ctx, q, crs.Code, crs.Name, crs.Description, crs.UpdatedAt, crs.ID)
	if err != nil {
		return catalog.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.Course{}, catalog.ErrNotFound
	}
	return repo.GetCourseByID(ctx, crs.ID)
}

// DeleteCourse removes the course and its dependents in one transaction.
// The FKs would cascade on their own; the explicit deletes keep the unit of
// work visible and ordered.
func (repo catalogRepository) DeleteCourse(ctx context.Context, id string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	for _, q := range []string{
		`DELETE FROM grade WHERE course_id = $1`,
		`DELETE FROM enrollment WHERE course_id = $1`,
		`DELETE FROM course_instructor WHERE course_id = $1`,
		`DELETE FROM subject WHERE course_id = $1`,
		`DELETE FROM course WHERE id = $1`,
	} {
		if _, err = tx.ExecContext(ctx, q, id); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "deleting course")
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo catalogRepository) CreateSubject(ctx context.Context, sub catalog.Subject) (catalog.Subject, error) {
	const q = `
INSERT INTO subject (id, course_id, code, name, units, year_level, semester, prerequisites)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		sub.ID, sub.CourseID, sub.Code, sub.Name, sub.Units, sub.YearLevel, sub.Semester, sub.Prerequisites)
	return sub, errors.Wrap(err, "inserting subject")
}

func (repo catalogRepository) GetSubjectByID(ctx context.Context, id string) (catalog.Subject, error) {
	var sub catalog.Subject
	const q = `SELECT id, course_id, code, name, units, year_level, semester, prerequisites FROM subject WHERE id = $1`
	if err := repo.db.GetContext(ctx, &sub, q, id); err != nil {
		if err == sql.ErrNoRows {
			return catalog.Subject{}, catalog.ErrSubjectNotFound
		}
		return catalog.Subject{}, errors.Wrap(err, "getting subject")
	}
	return sub, nil
}

func (repo catalogRepository) QuerySubjectsByCourse(ctx context.Context, courseID string) ([]catalog.Subject, error) {
	const q = `
SELECT id, course_id, code, name, units, year_level, semester, prerequisites
FROM subject WHERE course_id = $1
ORDER BY year_level, semester, code`
	var subjects []catalog.Subject
	err := repo.db.SelectContext(ctx, &subjects, q, courseID)
	return subjects, errors.Wrap(err, "querying subjects")
}

func (repo catalogRepository) DeleteSubject(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM subject WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalog.ErrSubjectNotFound
	}
	return nil
}

// ReplaceInstructors swaps the full instructor set atomically:
// prior assignments are deleted, the new set inserted, all in one transaction.
func (repo catalogRepository) ReplaceInstructors(ctx context.Context, courseID string, instructorIDs []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM course_instructor WHERE course_id = $1`, courseID); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "clearing assignments")
	}
	const q = `INSERT INTO course_instructor (course_id, instructor_id) VALUES ($1, $2)`
	for _, id := range instructorIDs {
		if _, err = tx.ExecContext(ctx, q, courseID, id); err != nil {
			_ = tx.Rollback()
			return errors.Wrap(err, "inserting assignment")
		}
	}
	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (repo catalogRepository) QueryCourseInstructors(ctx context.Context, courseID string) ([]string, error) {
	var ids []string
	const q = `SELECT instructor_id FROM course_instructor WHERE course_id = $1 ORDER BY instructor_id`
	err := repo.db.SelectContext(ctx, &ids, q, courseID)
	return ids, errors.Wrap(err, "querying course instructors")
}

func (repo catalogRepository) QueryCoursesByInstructor(ctx context.Context, instructorID string) ([]catalog.Course, error) {
	const q = `
SELECT c.id, c.code, c.name, c.description, c.created_at, c.updated_at
FROM course c
JOIN course_instructor ci ON ci.course_id = c.id
WHERE ci.instructor_id = $1
ORDER BY c.code`
	var courses []catalog.Course
	err := repo.db.SelectContext(ctx, &courses, q, instructorID)
	return courses, errors.Wrap(err, "querying courses by instructor")
}

func (repo catalogRepository) IsInstructorAssigned(ctx context.Context, courseID, instructorID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM course_instructor WHERE course_id = $1 AND instructor_id = $2)`
	var assigned bool
	err := repo.db.GetContext(ctx, &assigned, q, courseID, instructorID)
	return assigned, errors.Wrap(err, "checking assignment")
}
