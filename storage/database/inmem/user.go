// Package inmem provides map-backed repositories; used in unit tests and as a
// reference implementation of the repository contracts.
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/user"
)

type UserRepository struct {
	mu       sync.Mutex
	users    map[string]user.User
	profiles map[string]user.Profile
	attempts map[string][]time.Time

	// ProfileInsertErr, when set, makes the profile half of CreateUser fail;
	// the account insert must not survive it.
	ProfileInsertErr error
}

var _ user.Repository = (*UserRepository)(nil) // interface compliance check

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:    make(map[string]user.User),
		profiles: make(map[string]user.Profile),
		attempts: make(map[string][]time.Time),
	}
}

func (repo *UserRepository) CheckUsernameUniqueness(_ context.Context, username, email string, excludedUsers ...user.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	excluded := func(id string) bool {
		for _, u := range excludedUsers {
			if u.ID == id {
				return true
			}
		}
		return false
	}
	for _, u := range repo.users {
		if excluded(u.ID) {
			continue
		}
		if u.Username == username {
			return user.ErrUsernameExists
		}
		if u.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *UserRepository) CreateUser(_ context.Context, usr user.User, prof user.Profile) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	// account and profile land together or not at all
	if repo.ProfileInsertErr != nil {
		return user.User{}, repo.ProfileInsertErr
	}
	repo.users[usr.ID] = usr
	repo.profiles[usr.ID] = prof
	usr.Profile = &prof
	return usr, nil
}

func (repo *UserRepository) get(match func(user.User) bool) (user.User, error) {
	for _, u := range repo.users {
		if match(u) {
			if prof, ok := repo.profiles[u.ID]; ok {
				prof := prof
				u.Profile = &prof
			}
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *UserRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.get(func(u user.User) bool { return u.ID == id })
}

func (repo *UserRepository) GetUserByUsername(_ context.Context, username string) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.get(func(u user.User) bool { return u.Username == username })
}

func (repo *UserRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.get(func(u user.User) bool { return u.Email == email })
}

func (repo *UserRepository) GetUserByUsernameOrEmail(_ context.Context, uname string) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.get(func(u user.User) bool { return u.Username == uname || u.Email == uname })
}

func (repo *UserRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, _ ...core.DBOrdering) ([]user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var users []user.User
	for _, u := range repo.users {
		if filter != nil && !matches(u, repo.profiles[u.ID], filter) {
			continue
		}
		if prof, ok := repo.profiles[u.ID]; ok {
			prof := prof
			u.Profile = &prof
		}
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

func matches(u user.User, prof user.Profile, filter *user.QueryFilter) bool {
	if filter.Search != "" {
		s := strings.ToLower(filter.Search)
		if !(strings.Contains(strings.ToLower(u.Username), s) ||
			strings.Contains(strings.ToLower(u.Email), s) ||
			strings.Contains(strings.ToLower(prof.FirstName), s) ||
			strings.Contains(strings.ToLower(prof.LastName), s)) {
			return false
		}
	}
	if len(filter.Roles) > 0 {
		var found bool
		for _, r := range filter.Roles {
			if u.Role == r {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.IsActive != nil && u.IsActive != *filter.IsActive {
		return false
	}
	if !filter.CreatedFrom.IsZero() && u.CreatedAt.Before(filter.CreatedFrom) {
		return false
	}
	if !filter.CreatedTo.IsZero() && u.CreatedAt.After(filter.CreatedTo) {
		return false
	}
	return true
}

func (repo *UserRepository) UpdateUser(_ context.Context, usr user.User, prof *user.Profile, isActive *bool) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	curr, ok := repo.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if usr.Username != "" {
		curr.Username = usr.Username
	}
	if usr.Email != "" {
		curr.Email = usr.Email
	}
	if len(usr.PasswordHash) > 0 {
		curr.PasswordHash = usr.PasswordHash
	}
	if isActive != nil {
		curr.IsActive = *isActive
	}
	curr.UpdatedAt = usr.UpdatedAt
	repo.users[usr.ID] = curr

	if prof != nil {
		p := repo.profiles[usr.ID]
		if prof.FirstName != "" {
			p.FirstName = prof.FirstName
		}
		if prof.LastName != "" {
			p.LastName = prof.LastName
		}
		if prof.Department.Valid {
			p.Department = prof.Department
		}
		if prof.YearLevel.Valid {
			p.YearLevel = prof.YearLevel
		}
		if prof.Section.Valid {
			p.Section = prof.Section
		}
		p.UserID = usr.ID
		repo.profiles[usr.ID] = p
	}

	p := repo.profiles[usr.ID]
	curr.Profile = &p
	return curr, nil
}

func (repo *UserRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, id := range ids {
		delete(repo.users, id)
		delete(repo.profiles, id) // FK cascade
	}
	return nil
}

func (repo *UserRepository) SetLastLogin(_ context.Context, usr user.User, at time.Time) (user.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	curr, ok := repo.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	curr.LastLogin.SetValid(at)
	repo.users[usr.ID] = curr
	return curr, nil
}

func (repo *UserRepository) CountFailedLogins(_ context.Context, username string, since time.Time) (int, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()

	var n int
	for _, at := range repo.attempts[username] {
		if !at.Before(since) {
			n++
		}
	}
	return n, nil
}

func (repo *UserRepository) RecordFailedLogin(_ context.Context, username string, at time.Time) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.attempts[username] = append(repo.attempts[username], at)
	return nil
}

func (repo *UserRepository) ClearFailedLogins(_ context.Context, username string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.attempts, username)
	return nil
}
