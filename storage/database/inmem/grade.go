package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/acadeo/gradebook/core/grade"
)

type GradeRepository struct {
	mu     sync.Mutex
	grades map[string]grade.Grade
}

var _ grade.Repository = (*GradeRepository)(nil) // interface compliance check

func NewGradeRepository() *GradeRepository {
	return &GradeRepository{grades: make(map[string]grade.Grade)}
}

func (repo *GradeRepository) GetGrade(_ context.Context, studentID, courseID string) (grade.Grade, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.getGrade(studentID, courseID)
}

func (repo *GradeRepository) getGrade(studentID, courseID string) (grade.Grade, error) {
	for _, grd := range repo.grades {
		if grd.StudentID == studentID && grd.CourseID == courseID {
			return grd, nil
		}
	}
	return grade.Grade{}, grade.ErrNotFound
}

func (repo *GradeRepository) CreateGrade(_ context.Context, grd grade.Grade) (grade.Grade, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.grades[grd.ID] = grd
	return grd, nil
}

func (repo *GradeRepository) UpdateGrade(_ context.Context, grd grade.Grade) (grade.Grade, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	curr, ok := repo.grades[grd.ID]
	if !ok {
		return grade.Grade{}, grade.ErrNotFound
	}
	if curr.Submitted {
		return grade.Grade{}, grade.ErrGradeLocked
	}
	grd.CreatedAt = curr.CreatedAt
	repo.grades[grd.ID] = grd
	return grd, nil
}

func (repo *GradeRepository) SubmitInstructorGrades(_ context.Context, instructorID string, at time.Time) (int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var n int
	for id, grd := range repo.grades {
		if grd.GradedBy.String == instructorID && grd.GradedBy.Valid && !grd.Submitted {
			grd.Submitted = true
			grd.UpdatedAt = at
			repo.grades[id] = grd
			n++
		}
	}
	return n, nil
}

func (repo *GradeRepository) query(match func(grade.Grade) bool) []grade.Grade {
	var grades []grade.Grade
	for _, grd := range repo.grades {
		if match(grd) {
			grades = append(grades, grd)
		}
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i].CreatedAt.Before(grades[j].CreatedAt) })
	return grades
}

func (repo *GradeRepository) QueryGradesByStudent(_ context.Context, studentID string) ([]grade.Grade, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.query(func(grd grade.Grade) bool { return grd.StudentID == studentID }), nil
}

func (repo *GradeRepository) QueryGradesByCourse(_ context.Context, courseID string) ([]grade.Grade, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.query(func(grd grade.Grade) bool { return grd.CourseID == courseID }), nil
}
