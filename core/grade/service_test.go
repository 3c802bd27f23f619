package grade_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/storage/database/inmem"
)

type assignmentStub struct{ assigned bool }

func (s assignmentStub) IsInstructorAssigned(context.Context, string, string) (bool, error) {
	return s.assigned, nil
}

type enrollmentStub struct{ enrolled bool }

func (s enrollmentStub) HasActiveEnrollment(context.Context, string, string) (bool, error) {
	return s.enrolled, nil
}

func fl(v float64) *float64 { return &v }

func TestServiceUpsert(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewGradeRepository()
	svc := grade.NewService(repo, assignmentStub{assigned: true}, enrollmentStub{enrolled: true})

	ug := grade.UpsertGrade{StudentID: "stud-1", CourseID: "crs-1", Midterm: fl(85)}

	grd, err := svc.Upsert(ctx, role.Instructor, "inst-1", ug)
	require.NoError(t, err)
	assert.Equal(t, 85.0, grd.Midterm.Float64)
	assert.False(t, grd.Final.Valid)
	assert.Equal(t, "inst-1", grd.GradedBy.String)
	assert.Equal(t, grade.StatePartiallyGraded, grd.State())

	t.Run("idempotent re-entry", func(t *testing.T) {
		again, err := svc.Upsert(ctx, role.Instructor, "inst-1", ug)
		require.NoError(t, err)
		assert.Equal(t, grd.ID, again.ID)
		assert.Equal(t, grd.Midterm, again.Midterm)

		grades, err := repo.QueryGradesByStudent(ctx, "stud-1")
		require.NoError(t, err)
		assert.Len(t, grades, 1)
	})

	t.Run("partial entries accumulate", func(t *testing.T) {
		upd, err := svc.Upsert(ctx, role.Instructor, "inst-1", grade.UpsertGrade{
			StudentID: "stud-1", CourseID: "crs-1", Final: fl(91), Remarks: "good finish",
		})
		require.NoError(t, err)
		assert.Equal(t, 85.0, upd.Midterm.Float64) // untouched
		assert.Equal(t, 91.0, upd.Final.Float64)
		assert.Equal(t, "good finish", upd.Remarks)
	})
}

func TestServiceUpsertRejections(t *testing.T) {
	ctx := context.Background()
	ug := grade.UpsertGrade{StudentID: "stud-1", CourseID: "crs-1", Midterm: fl(85)}

	t.Run("only instructors grade", func(t *testing.T) {
		svc := grade.NewService(inmem.NewGradeRepository(), assignmentStub{assigned: true}, enrollmentStub{enrolled: true})
		for _, actor := range []role.Role{role.SuperAdmin, role.Admin, role.Student} {
			_, err := svc.Upsert(ctx, actor, "inst-1", ug)
			assert.Equal(t, grade.ErrNotAuthorized, errors.Cause(err), "actor %s", actor)
		}
	})

	t.Run("unassigned instructor", func(t *testing.T) {
		repo := inmem.NewGradeRepository()
		svc := grade.NewService(repo, assignmentStub{assigned: false}, enrollmentStub{enrolled: true})
		_, err := svc.Upsert(ctx, role.Instructor, "inst-1", ug)
		require.Equal(t, grade.ErrNotAuthorized, errors.Cause(err))

		// the rejection left no row behind
		_, err = repo.GetGrade(ctx, "stud-1", "crs-1")
		assert.Equal(t, grade.ErrNotFound, errors.Cause(err))
	})

	t.Run("student not enrolled", func(t *testing.T) {
		svc := grade.NewService(inmem.NewGradeRepository(), assignmentStub{assigned: true}, enrollmentStub{enrolled: false})
		_, err := svc.Upsert(ctx, role.Instructor, "inst-1", ug)
		assert.Equal(t, grade.ErrNotAuthorized, errors.Cause(err))
	})

	t.Run("out of range scores", func(t *testing.T) {
		repo := inmem.NewGradeRepository()
		svc := grade.NewService(repo, assignmentStub{assigned: true}, enrollmentStub{enrolled: true})
		_, err := svc.Upsert(ctx, role.Instructor, "inst-1", grade.UpsertGrade{
			StudentID: "stud-1", CourseID: "crs-1", Midterm: fl(101), Final: fl(-1),
		})
		require.Error(t, err)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Len(t, vErr.Fields, 2)

		_, err = repo.GetGrade(ctx, "stud-1", "crs-1")
		assert.Equal(t, grade.ErrNotFound, errors.Cause(err))
	})
}

func TestServiceSubmit(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewGradeRepository()
	svc := grade.NewService(repo, assignmentStub{assigned: true}, enrollmentStub{enrolled: true})

	for _, studentID := range []string{"stud-1", "stud-2"} {
		_, err := svc.Upsert(ctx, role.Instructor, "inst-1", grade.UpsertGrade{
			StudentID: studentID, CourseID: "crs-1", Midterm: fl(80), Final: fl(90),
		})
		require.NoError(t, err)
	}
	// someone else's pending grade stays pending
	_, err := svc.Upsert(ctx, role.Instructor, "inst-2", grade.UpsertGrade{
		StudentID: "stud-3", CourseID: "crs-1", Midterm: fl(70),
	})
	require.NoError(t, err)

	n, err := svc.Submit(ctx, role.Instructor, "inst-1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	t.Run("submitted grades are locked", func(t *testing.T) {
		_, err := svc.Upsert(ctx, role.Instructor, "inst-1", grade.UpsertGrade{
			StudentID: "stud-1", CourseID: "crs-1", Final: fl(95),
		})
		assert.Equal(t, grade.ErrGradeLocked, errors.Cause(err))

		grd, err := repo.GetGrade(ctx, "stud-1", "crs-1")
		require.NoError(t, err)
		assert.Equal(t, grade.StateSubmitted, grd.State())
		assert.Equal(t, 90.0, grd.Final.Float64) // unchanged
	})

	t.Run("resubmission is a no-op", func(t *testing.T) {
		n, err := svc.Submit(ctx, role.Instructor, "inst-1")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("other instructor unaffected", func(t *testing.T) {
		grd, err := repo.GetGrade(ctx, "stud-3", "crs-1")
		require.NoError(t, err)
		assert.False(t, grd.Submitted)
	})

	t.Run("only instructors submit", func(t *testing.T) {
		_, err := svc.Submit(ctx, role.Admin, "inst-1")
		assert.Equal(t, grade.ErrNotAuthorized, errors.Cause(err))
	})
}

func TestLetterGrade(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{100, "A"},
		{90, "A"},
		{89.99, "B"},
		{80, "B"},
		{79.99, "C"},
		{70, "C"},
		{69.99, "D"},
		{60, "D"},
		{59.99, "F"},
		{0, "F"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, grade.LetterGrade(tt.score), "score %v", tt.score)
	}
}
