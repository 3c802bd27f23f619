package report_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/report"
	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/storage/database/inmem"
	testutil "github.com/acadeo/gradebook/tests"
)

func newRepos() (*inmem.UserRepository, *inmem.CatalogRepository, *inmem.GradeRepository, *inmem.ReportRepository) {
	users := inmem.NewUserRepository()
	cat := inmem.NewCatalogRepository()
	grades := inmem.NewGradeRepository()
	return users, cat, grades, inmem.NewReportRepository(users, cat, grades)
}

func TestServiceCourseAverages(t *testing.T) {
	ctx := context.Background()
	_, _, grades, repo := newRepos()
	svc := report.NewService(repo)

	testutil.CreateGrade(t, grades, grade.Grade{
		StudentID: "stud-1", CourseID: "crs-1",
		Midterm: null.Float64From(80), Final: null.Float64From(90),
	})
	testutil.CreateGrade(t, grades, grade.Grade{
		StudentID: "stud-2", CourseID: "crs-1",
		Midterm: null.Float64From(72), // final not in yet
	})
	testutil.CreateGrade(t, grades, grade.Grade{
		StudentID: "stud-3", CourseID: "crs-1", // no scores at all
	})

	avgs, err := svc.CourseAverages(ctx, role.Instructor, "crs-1")
	require.NoError(t, err)
	require.Len(t, avgs, 3)

	assert.Equal(t, 85.0, avgs[0].Average.Float64)
	assert.Equal(t, "B", avgs[0].Letter)

	// a lone midterm stands in for the average
	assert.Equal(t, 72.0, avgs[1].Average.Float64)
	assert.Equal(t, "C", avgs[1].Letter)

	// no scores: null average, no letter
	assert.False(t, avgs[2].Average.Valid)
	assert.Empty(t, avgs[2].Letter)

	t.Run("students may not read course-wide averages", func(t *testing.T) {
		_, err := svc.CourseAverages(ctx, role.Student, "crs-1")
		assert.Equal(t, report.ErrNotAuthorized, errors.Cause(err))
	})
}

func TestServiceStudentAverages(t *testing.T) {
	ctx := context.Background()
	_, _, grades, repo := newRepos()
	svc := report.NewService(repo)

	testutil.CreateGrade(t, grades, grade.Grade{
		StudentID: "stud-1", CourseID: "crs-1",
		Midterm: null.Float64From(95), Final: null.Float64From(89),
	})
	testutil.CreateGrade(t, grades, grade.Grade{
		StudentID: "stud-1", CourseID: "crs-2",
		Final: null.Float64From(58),
	})

	avgs, err := svc.StudentAverages(ctx, role.Student, "stud-1")
	require.NoError(t, err)
	require.Len(t, avgs, 2)
	assert.Equal(t, 92.0, avgs[0].Average.Float64)
	assert.Equal(t, "A", avgs[0].Letter)
	assert.Equal(t, 58.0, avgs[1].Average.Float64)
	assert.Equal(t, "F", avgs[1].Letter)
}

func TestServiceUserCounts(t *testing.T) {
	ctx := context.Background()
	users, _, _, repo := newRepos()
	svc := report.NewService(repo)

	testutil.CreateUser(t, users, "A", "One", "adm1", "adm1@test.test", "", role.Admin, true)
	testutil.CreateUser(t, users, "S", "One", "stud1", "stud1@test.test", "", role.Student, true)
	testutil.CreateUser(t, users, "S", "Two", "stud2", "stud2@test.test", "", role.Student, false)

	counts, err := svc.UserCounts(ctx, role.Admin)
	require.NoError(t, err)
	require.Len(t, counts, 2)

	byRole := make(map[role.Role]report.RoleCount, len(counts))
	for _, rc := range counts {
		byRole[rc.Role] = rc
	}
	assert.Equal(t, 1, byRole[role.Admin].Active)
	assert.Equal(t, 1, byRole[role.Student].Active)
	assert.Equal(t, 1, byRole[role.Student].Inactive)

	t.Run("admin and above only", func(t *testing.T) {
		for _, actor := range []role.Role{role.Instructor, role.Student} {
			_, err := svc.UserCounts(ctx, actor)
			assert.Equal(t, report.ErrNotAuthorized, errors.Cause(err), "actor %s", actor)
		}
	})
}

func TestServiceCurriculum(t *testing.T) {
	ctx := context.Background()
	_, cat, _, repo := newRepos()
	svc := report.NewService(repo)

	crs := testutil.CreateCourse(t, cat, "bscs", "Computer Science")
	testutil.CreateSubject(t, cat, crs.ID, "cs201", "Data Structures", 3, 2, 1)
	testutil.CreateSubject(t, cat, crs.ID, "cs102", "Programming 2", 3, 1, 2)
	testutil.CreateSubject(t, cat, crs.ID, "cs101", "Programming 1", 3, 1, 1)
	testutil.CreateSubject(t, cat, crs.ID, "ge101", "Ethics", 3, 1, 1)

	terms, err := svc.Curriculum(ctx, role.Student, crs.ID)
	require.NoError(t, err)
	require.Len(t, terms, 3)

	assert.Equal(t, 1, terms[0].YearLevel)
	assert.Equal(t, 1, terms[0].Semester)
	require.Len(t, terms[0].Subjects, 2)
	assert.Equal(t, "cs101", terms[0].Subjects[0].Code)
	assert.Equal(t, "ge101", terms[0].Subjects[1].Code)

	assert.Equal(t, 1, terms[1].YearLevel)
	assert.Equal(t, 2, terms[1].Semester)

	assert.Equal(t, 2, terms[2].YearLevel)
	assert.Equal(t, 1, terms[2].Semester)
}
