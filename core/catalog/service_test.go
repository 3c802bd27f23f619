package catalog_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/storage/database/inmem"
	testutil "github.com/acadeo/gradebook/tests"
)

type counterStub struct{ n int }

func (s counterStub) CountActiveByCourse(context.Context, string) (int, error) { return s.n, nil }

type roleCheckerStub struct{ roles map[string]role.Role }

func (s roleCheckerStub) RoleOf(_ context.Context, id string) (role.Role, error) {
	r, ok := s.roles[id]
	if !ok {
		return "", errors.New("user not found")
	}
	return r, nil
}

func TestServiceCoursePolicy(t *testing.T) {
	ctx := context.Background()
	svc := catalog.NewService(inmem.NewCatalogRepository(), counterStub{}, roleCheckerStub{})

	nc := catalog.NewCourse{Code: "bscs", Name: "Computer Science"}
	for _, actor := range []role.Role{role.Admin, role.Instructor, role.Student} {
		_, err := svc.CreateCourse(ctx, actor, nc)
		assert.Equal(t, catalog.ErrNotAuthorized, errors.Cause(err), "actor %s", actor)
	}

	crs, err := svc.CreateCourse(ctx, role.SuperAdmin, nc)
	require.NoError(t, err)
	assert.Equal(t, "bscs", crs.Code)
}

func TestServiceDeleteCourse(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewCatalogRepository()

	t.Run("restricted while enrollments are active", func(t *testing.T) {
		svc := catalog.NewService(repo, counterStub{n: 3}, roleCheckerStub{})
		crs := testutil.CreateCourse(t, repo, "bscs", "Computer Science")

		err := svc.DeleteCourse(ctx, role.SuperAdmin, crs.ID)
		require.Equal(t, catalog.ErrCourseInUse, errors.Cause(err))
		_, err = repo.GetCourseByID(ctx, crs.ID)
		assert.NoError(t, err)
	})

	t.Run("dependents go with the course", func(t *testing.T) {
		svc := catalog.NewService(repo, counterStub{n: 0}, roleCheckerStub{})
		crs := testutil.CreateCourse(t, repo, "bsit", "Information Technology")
		sub := testutil.CreateSubject(t, repo, crs.ID, "it101", "Intro to IT", 3, 1, 1)

		require.NoError(t, svc.DeleteCourse(ctx, role.SuperAdmin, crs.ID))

		_, err := repo.GetCourseByID(ctx, crs.ID)
		assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))
		_, err = repo.GetSubjectByID(ctx, sub.ID)
		assert.Equal(t, catalog.ErrSubjectNotFound, errors.Cause(err))
	})

	t.Run("unknown course", func(t *testing.T) {
		svc := catalog.NewService(repo, counterStub{}, roleCheckerStub{})
		err := svc.DeleteCourse(ctx, role.SuperAdmin, "nope")
		assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))
	})
}

func TestServiceAssignInstructors(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewCatalogRepository()
	accounts := roleCheckerStub{roles: map[string]role.Role{
		"inst-1": role.Instructor,
		"inst-2": role.Instructor,
		"inst-3": role.Instructor,
		"stud-1": role.Student,
	}}
	svc := catalog.NewService(repo, counterStub{}, accounts)
	crs := testutil.CreateCourse(t, repo, "bscs", "Computer Science")

	t.Run("admins may assign", func(t *testing.T) {
		require.NoError(t, svc.AssignInstructors(ctx, role.Admin, crs.ID, []string{"inst-1", "inst-2"}))
		ids, err := repo.QueryCourseInstructors(ctx, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"inst-1", "inst-2"}, ids)
	})

	t.Run("assignment replaces the whole set", func(t *testing.T) {
		require.NoError(t, svc.AssignInstructors(ctx, role.SuperAdmin, crs.ID, []string{"inst-3"}))
		ids, err := repo.QueryCourseInstructors(ctx, crs.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"inst-3"}, ids)
	})

	t.Run("non-instructor accounts are rejected", func(t *testing.T) {
		err := svc.AssignInstructors(ctx, role.Admin, crs.ID, []string{"inst-1", "stud-1"})
		require.Error(t, err)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, catalog.ErrNotAnInstructor, vErr.Err)
	})

	t.Run("instructors may not assign", func(t *testing.T) {
		err := svc.AssignInstructors(ctx, role.Instructor, crs.ID, []string{"inst-1"})
		assert.Equal(t, catalog.ErrNotAuthorized, errors.Cause(err))
	})
}

func TestServiceSubjects(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewCatalogRepository()
	svc := catalog.NewService(repo, counterStub{}, roleCheckerStub{})
	crs := testutil.CreateCourse(t, repo, "bscs", "Computer Science")

	sub, err := svc.CreateSubject(ctx, role.SuperAdmin, catalog.NewSubject{
		CourseID: crs.ID, Code: "cs101", Name: "Programming 1", Units: 3, YearLevel: 1, Semester: 1,
	})
	require.NoError(t, err)

	t.Run("duplicate code within the course", func(t *testing.T) {
		err := repo.CheckSubjectCodeUniqueness(ctx, crs.ID, "cs101")
		assert.Equal(t, catalog.ErrSubjectCodeExists, errors.Cause(err))
	})

	t.Run("same code in another course is fine", func(t *testing.T) {
		other := testutil.CreateCourse(t, repo, "bsit", "Information Technology")
		assert.NoError(t, repo.CheckSubjectCodeUniqueness(ctx, other.ID, "cs101"))
	})

	t.Run("subject for unknown course", func(t *testing.T) {
		_, err := svc.CreateSubject(ctx, role.SuperAdmin, catalog.NewSubject{
			CourseID: "nope", Code: "cs102", Name: "Programming 2", Units: 3, YearLevel: 1, Semester: 2,
		})
		assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))
	})

	t.Run("delete", func(t *testing.T) {
		_, err := svc.CreateSubject(ctx, role.Admin, catalog.NewSubject{})
		assert.Equal(t, catalog.ErrNotAuthorized, errors.Cause(err))

		require.NoError(t, svc.DeleteSubject(ctx, role.SuperAdmin, sub.ID))
		assert.Equal(t, catalog.ErrSubjectNotFound, errors.Cause(svc.DeleteSubject(ctx, role.SuperAdmin, sub.ID)))
	})
}

func TestServiceResolveCourseID(t *testing.T) {
	ctx := context.Background()
	repo := inmem.NewCatalogRepository()
	svc := catalog.NewService(repo, counterStub{}, roleCheckerStub{})
	crs := testutil.CreateCourse(t, repo, "bscs", "Computer Science")

	id, err := svc.ResolveCourseID(ctx, "computer science")
	require.NoError(t, err)
	assert.Equal(t, crs.ID, id)

	_, err = svc.ResolveCourseID(ctx, "Underwater Basket Weaving")
	assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))
}
