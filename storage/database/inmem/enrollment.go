package inmem

import (
	"context"
	"sort"
	"sync"

	"github.com/acadeo/gradebook/core/enrollment"
)

type EnrollmentRepository struct {
	mu          sync.Mutex
	enrollments map[string]enrollment.Enrollment
}

var _ enrollment.Repository = (*EnrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository() *EnrollmentRepository {
	return &EnrollmentRepository{enrollments: make(map[string]enrollment.Enrollment)}
}

func (repo *EnrollmentRepository) CreateEnrollment(_ context.Context, enr enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.enrollments[enr.ID] = enr
	return enr, nil
}

func (repo *EnrollmentRepository) GetEnrollmentByID(_ context.Context, id string) (enrollment.Enrollment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	enr, ok := repo.enrollments[id]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	return enr, nil
}

func (repo *EnrollmentRepository) GetActiveEnrollment(_ context.Context, studentID, courseID string) (enrollment.Enrollment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, enr := range repo.enrollments {
		if enr.StudentID == studentID && enr.CourseID == courseID && enr.Status == enrollment.StatusEnrolled {
			return enr, nil
		}
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *EnrollmentRepository) query(match func(enrollment.Enrollment) bool) []enrollment.Enrollment {
	var enrs []enrollment.Enrollment
	for _, enr := range repo.enrollments {
		if match(enr) {
			enrs = append(enrs, enr)
		}
	}
	sort.Slice(enrs, func(i, j int) bool { return enrs[i].EnrolledAt.After(enrs[j].EnrolledAt) })
	return enrs
}

func (repo *EnrollmentRepository) QueryEnrollmentsByStudent(_ context.Context, studentID string) ([]enrollment.Enrollment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.query(func(enr enrollment.Enrollment) bool { return enr.StudentID == studentID }), nil
}

func (repo *EnrollmentRepository) QueryEnrollmentsByCourse(_ context.Context, courseID string) ([]enrollment.Enrollment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.query(func(enr enrollment.Enrollment) bool { return enr.CourseID == courseID }), nil
}

func (repo *EnrollmentRepository) UpdateEnrollmentStatus(_ context.Context, id string, status enrollment.Status) (enrollment.Enrollment, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	enr, ok := repo.enrollments[id]
	if !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	enr.Status = status
	repo.enrollments[id] = enr
	return enr, nil
}

func (repo *EnrollmentRepository) CountActiveEnrollmentsByCourse(_ context.Context, courseID string) (int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var n int
	for _, enr := range repo.enrollments {
		if enr.CourseID == courseID && enr.Status == enrollment.StatusEnrolled {
			n++
		}
	}
	return n, nil
}
