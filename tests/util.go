// Package testutil provides fixture helpers shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/acadeo/gradebook/core/catalog"
	"github.com/acadeo/gradebook/core/enrollment"
	"github.com/acadeo/gradebook/core/grade"
	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, uname, email, pwd string,
	r role.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        uuid.New().String(),
		Username:  uname,
		Email:     email,
		Role:      r,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	prof := user.Profile{UserID: usr.ID, FirstName: firstName, LastName: lastName}
	usr, err := repo.CreateUser(context.Background(), usr, prof)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(t *testing.T, repo catalog.Repository, code, name string) catalog.Course {
	t.Helper()

	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), catalog.Course{
		ID:        uuid.New().String(),
		Code:      code,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func CreateSubject(t *testing.T, repo catalog.Repository, courseID, code, name string, units, yearLevel, semester int) catalog.Subject {
	t.Helper()

	sub, err := repo.CreateSubject(context.Background(), catalog.Subject{
		ID:        uuid.New().String(),
		CourseID:  courseID,
		Code:      code,
		Name:      name,
		Units:     units,
		YearLevel: yearLevel,
		Semester:  semester,
	})
	if err != nil {
		t.Fatalf("CreateSubject() failed: %v", err)
	}
	return sub
}

func CreateEnrollment(t *testing.T, repo enrollment.Repository, studentID, courseID string, status enrollment.Status) enrollment.Enrollment {
	t.Helper()

	enr, err := repo.CreateEnrollment(context.Background(), enrollment.Enrollment{
		ID:         uuid.New().String(),
		StudentID:  studentID,
		CourseID:   courseID,
		Status:     status,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateEnrollment() failed: %v", err)
	}
	return enr
}

func CreateGrade(t *testing.T, repo grade.Repository, grd grade.Grade) grade.Grade {
	t.Helper()

	if grd.ID == "" {
		grd.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if grd.CreatedAt.IsZero() {
		grd.CreatedAt = now
		grd.UpdatedAt = now
	}
	grd, err := repo.CreateGrade(context.Background(), grd)
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return grd
}
