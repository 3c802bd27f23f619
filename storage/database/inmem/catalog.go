package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/catalog"
)

type CatalogRepository struct {
	mu          sync.Mutex
	courses     map[string]catalog.Course
	subjects    map[string]catalog.Subject
	instructors map[string][]string // courseID -> instructor IDs
}

var _ catalog.Repository = (*CatalogRepository)(nil) // interface compliance check

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		courses:     make(map[string]catalog.Course),
		subjects:    make(map[string]catalog.Subject),
		instructors: make(map[string][]string),
	}
}

func (repo *CatalogRepository) CheckCourseCodeUniqueness(_ context.Context, code string, excludedCourses ...catalog.Course) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, crs := range repo.courses {
		if len(excludedCourses) > 0 && crs.ID == excludedCourses[0].ID {
			continue
		}
		if crs.Code == code {
			return catalog.ErrCourseCodeExists
		}
	}
	return nil
}

func (repo *CatalogRepository) CheckSubjectCodeUniqueness(_ context.Context, courseID, code string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, sub := range repo.subjects {
		if sub.CourseID == courseID && sub.Code == code {
			return catalog.ErrSubjectCodeExists
		}
	}
	return nil
}

func (repo *CatalogRepository) CreateCourse(_ context.Context, crs catalog.Course) (catalog.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.courses[crs.ID] = crs
	return crs, nil
}

func (repo *CatalogRepository) getCourse(match func(catalog.Course) bool) (catalog.Course, error) {
	for _, crs := range repo.courses {
		if match(crs) {
			return crs, nil
		}
	}
	return catalog.Course{}, catalog.ErrNotFound
}

func (repo *CatalogRepository) GetCourseByID(_ context.Context, id string) (catalog.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.getCourse(func(crs catalog.Course) bool { return crs.ID == id })
}

func (repo *CatalogRepository) GetCourseByCode(_ context.Context, code string) (catalog.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.getCourse(func(crs catalog.Course) bool { return crs.Code == code })
}

func (repo *CatalogRepository) GetCourseByName(_ context.Context, name string) (catalog.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.getCourse(func(crs catalog.Course) bool { return strings.EqualFold(crs.Name, name) })
}

func (repo *CatalogRepository) QueryCourses(_ context.Context, _ ...core.DBOrdering) ([]catalog.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var courses []catalog.Course
	for _, crs := range repo.courses {
		courses = append(courses, crs)
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *CatalogRepository) UpdateCourse(_ context.Context, crs catalog.Course) (catalog.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.courses[crs.ID]; !ok {
		return catalog.Course{}, catalog.ErrNotFound
	}
	repo.courses[crs.ID] = crs
	return crs, nil
}

func (repo *CatalogRepository) DeleteCourse(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.courses[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(repo.courses, id)
	delete(repo.instructors, id)
	for subID, sub := range repo.subjects {
		if sub.CourseID == id {
			delete(repo.subjects, subID)
		}
	}
	return nil
}

func (repo *CatalogRepository) CreateSubject(_ context.Context, sub catalog.Subject) (catalog.Subject, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.subjects[sub.ID] = sub
	return sub, nil
}

func (repo *CatalogRepository) GetSubjectByID(_ context.Context, id string) (catalog.Subject, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	sub, ok := repo.subjects[id]
	if !ok {
		return catalog.Subject{}, catalog.ErrSubjectNotFound
	}
	return sub, nil
}

func (repo *CatalogRepository) QuerySubjectsByCourse(_ context.Context, courseID string) ([]catalog.Subject, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var subjects []catalog.Subject
	for _, sub := range repo.subjects {
		if sub.CourseID == courseID {
			subjects = append(subjects, sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool {
		si, sj := subjects[i], subjects[j]
		if si.YearLevel != sj.YearLevel {
			return si.YearLevel < sj.YearLevel
		}
		if si.Semester != sj.Semester {
			return si.Semester < sj.Semester
		}
		return si.Code < sj.Code
	})
	return subjects, nil
}

func (repo *CatalogRepository) DeleteSubject(_ context.Context, id string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	if _, ok := repo.subjects[id]; !ok {
		return catalog.ErrSubjectNotFound
	}
	delete(repo.subjects, id)
	return nil
}

func (repo *CatalogRepository) ReplaceInstructors(_ context.Context, courseID string, instructorIDs []string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.instructors[courseID] = append([]string(nil), instructorIDs...)
	return nil
}

func (repo *CatalogRepository) QueryCourseInstructors(_ context.Context, courseID string) ([]string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	ids := append([]string(nil), repo.instructors[courseID]...)
	sort.Strings(ids)
	return ids, nil
}

func (repo *CatalogRepository) QueryCoursesByInstructor(_ context.Context, instructorID string) ([]catalog.Course, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var courses []catalog.Course
	for courseID, ids := range repo.instructors {
		for _, id := range ids {
			if id == instructorID {
				if crs, ok := repo.courses[courseID]; ok {
					courses = append(courses, crs)
				}
				break
			}
		}
	}
	sort.Slice(courses, func(i, j int) bool { return courses[i].Code < courses[j].Code })
	return courses, nil
}

func (repo *CatalogRepository) IsInstructorAssigned(_ context.Context, courseID, instructorID string) (bool, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	for _, id := range repo.instructors[courseID] {
		if id == instructorID {
			return true, nil
		}
	}
	return false, nil
}
