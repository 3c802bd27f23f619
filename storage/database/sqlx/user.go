package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/core/user"
)

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func profileTable(r role.Role) string {
	switch r {
	case role.Student:
		return "student_profile"
	case role.Instructor:
		return "instructor_profile"
	case role.Admin:
		return "admin_profile"
	case role.SuperAdmin:
		return "super_admin_profile"
	}
	return ""
}

// trapNoRowsErr maps psql "no rows" err to user.ErrNotFound
func trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	q := `SELECT id, username, email FROM user_account WHERE (username = $1 OR email = $2)`
	args := []interface{}{username, email}
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		inQ, inArgs, err := sqlx.In(`SELECT id, username, email FROM user_account WHERE (username = ? OR email = ?) AND id NOT IN (?)`, username, email, ids)
		if err != nil {
			return errors.Wrap(err, "building uniqueness query")
		}
		q, args = sqlx.Rebind(sqlx.DOLLAR, inQ), inArgs
	}

	var rows []struct {
		ID       string `db:"id"`
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, row := range rows {
		if row.Username == username {
			return user.ErrUsernameExists
		}
		if row.Email == email {
			return user.ErrEmailExists
		}
	}
	return nil
}

// CreateUser writes the account and its profile inside one transaction;
// a profile failure rolls the account row back.
func (repo userRepository) CreateUser(ctx context.Context, usr user.User, prof user.Profile) (user.User, error) {
	tbl := profileTable(usr.Role)
	if tbl == "" {
		return user.User{}, errors.Errorf("no profile table for role %q", usr.Role)
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return user.User{}, errors.Wrap(err, "beginning transaction")
	}

	const insertAccount = `
INSERT INTO user_account (id, username, email, role, is_active, password_hash, created_at, updated_at, last_login)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err = tx.ExecContext(ctx, insertAccount,
		usr.ID, usr.Username, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash,
		usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	); err != nil {
		_ = tx.Rollback()
		return user.User{}, errors.Wrap(err, "inserting account")
	}

	insertProfile := fmt.Sprintf(`
INSERT INTO %s (user_id, first_name, last_name%s)
VALUES ($1, $2, $3%s)`, tbl, profileExtraCols(usr.Role), profileExtraArgs(usr.Role))
	args := []interface{}{prof.UserID, prof.FirstName, prof.LastName}
	if usr.Role == role.Student {
		args = append(args, prof.YearLevel, prof.Section)
	} else {
		args = append(args, prof.Department)
	}
	if _, err = tx.ExecContext(ctx, insertProfile, args...); err != nil {
		_ = tx.Rollback()
		return user.User{}, errors.Wrap(err, "inserting profile")
	}

	if err = tx.Commit(); err != nil {
		_ = tx.Rollback()
		return user.User{}, errors.Wrap(err, "committing transaction")
	}
	usr.Profile = &prof
	return usr, nil
}

func profileExtraCols(r role.Role) string {
	if r == role.Student {
		return ", year_level, section"
	}
	return ", department"
}

func profileExtraArgs(r role.Role) string {
	if r == role.Student {
		return ", $4, $5"
	}
	return ", $4"
}

func (repo userRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var usr user.User
	q := `SELECT id, username, email, role, is_active, password_hash, created_at, updated_at, last_login
FROM user_account WHERE ` + where
	if err := repo.db.GetContext(ctx, &usr, q, args...); err != nil {
		return user.User{}, trapNoRowsErr(err, "getting user")
	}
	if err := repo.loadProfile(ctx, &usr); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo userRepository) loadProfile(ctx context.Context, usr *user.User) error {
	tbl := profileTable(usr.Role)
	if tbl == "" {
		return nil
	}
	var prof user.Profile
	var q string
	if usr.Role == role.Student {
		q = fmt.Sprintf(`SELECT user_id, first_name, last_name, year_level, section FROM %s WHERE user_id = $1`, tbl)
	} else {
		q = fmt.Sprintf(`SELECT user_id, first_name, last_name, department FROM %s WHERE user_id = $1`, tbl)
	}
	if err := repo.db.GetContext(ctx, &prof, q, usr.ID); err != nil {
		if err == sql.ErrNoRows {
			return nil // tolerated on reads; creation guarantees a profile
		}
		return errors.Wrap(err, "loading profile")
	}
	usr.Profile = &prof
	return nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = $1", username)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, uname string) (user.User, error) {
	return repo.getUser(ctx, "username = $1 OR email = $1", uname)
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	q := `
SELECT ua.id, ua.username, ua.email, ua.role, ua.is_active, ua.password_hash, ua.created_at, ua.updated_at, ua.last_login
FROM user_account ua
LEFT JOIN student_profile sp ON sp.user_id = ua.id
LEFT JOIN instructor_profile ip ON ip.user_id = ua.id
LEFT JOIN admin_profile ap ON ap.user_id = ua.id
LEFT JOIN super_admin_profile xp ON xp.user_id = ua.id`

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			p := arg(val)
			conds = append(conds, fmt.Sprintf(
				`(ua.username ILIKE %[1]s OR ua.email ILIKE %[1]s
OR COALESCE(sp.first_name, ip.first_name, ap.first_name, xp.first_name) ILIKE %[1]s
OR COALESCE(sp.last_name, ip.last_name, ap.last_name, xp.last_name) ILIKE %[1]s)`, p))
		}
		if len(filter.Roles) > 0 {
			ps := make([]string, 0, len(filter.Roles))
			for _, r := range filter.Roles {
				ps = append(ps, arg(r))
			}
			conds = append(conds, fmt.Sprintf("ua.role IN (%s)", strings.Join(ps, ", ")))
		}
		if filter.IsActive != nil {
			conds = append(conds, "ua.is_active = "+arg(*filter.IsActive))
		}
		if !filter.CreatedFrom.IsZero() {
			conds = append(conds, "ua.created_at >= "+arg(filter.CreatedFrom.UTC()))
		}
		if !filter.CreatedTo.IsZero() {
			conds = append(conds, "ua.created_at <= "+arg(filter.CreatedTo.UTC()))
		}
	}
	if len(conds) > 0 {
		q += "\nWHERE " + strings.Join(conds, " AND ")
	}

	if len(ordering) > 0 {
		ords := make([]string, 0, len(ordering))
		for _, ord := range ordering {
			ords = append(ords, "ua."+ord.String())
		}
		q += "\nORDER BY " + strings.Join(ords, ", ")
	} else {
		q += "\nORDER BY ua.created_at DESC"
	}

	var users []user.User
	if err := repo.db.SelectContext(ctx, &users, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	for i := range users {
		if err := repo.loadProfile(ctx, &users[i]); err != nil {
			return nil, err
		}
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, prof *user.Profile, isActive *bool) (user.User, error) {
	curr, err := repo.GetUserByID(ctx, usr.ID)
	if err != nil {
		return user.User{}, err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return user.User{}, errors.Wrap(err, "beginning transaction")
	}

	sets := []string{"updated_at = $1"}
	args := []interface{}{usr.UpdatedAt}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if len(usr.PasswordHash) > 0 {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	args = append(args, usr.ID)
	q := fmt.Sprintf("UPDATE user_account SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if _, err = tx.ExecContext(ctx, q, args...); err != nil {
		_ = tx.Rollback()
		return user.User{}, errors.Wrap(err, "updating account")
	}

	if prof != nil && (prof.FirstName != "" || prof.LastName != "" || prof.Department.Valid || prof.YearLevel.Valid || prof.Section.Valid) {
		tbl := profileTable(curr.Role)
		var pq string
		var pargs []interface{}
		if curr.Role == role.Student {
			pq = fmt.Sprintf(`UPDATE %s SET
first_name = COALESCE(NULLIF($1, ''), first_name),
last_name  = COALESCE(NULLIF($2, ''), last_name),
year_level = COALESCE($3, year_level),
section    = COALESCE($4, section)
WHERE user_id = $5`, tbl)
			pargs = []interface{}{prof.FirstName, prof.LastName, prof.YearLevel, prof.Section, usr.ID}
		} else {
			pq = fmt.Sprintf(`UPDATE %s SET
first_name = COALESCE(NULLIF($1, ''), first_name),
last_name  = COALESCE(NULLIF($2, ''), last_name),
department = COALESCE($3, department)
WHERE user_id = $4`, tbl)
			pargs = []interface{}{prof.FirstName, prof.LastName, prof.Department, usr.ID}
		}
		if _, err = tx.ExecContext(ctx, pq, pargs...); err != nil {
			_ = tx.Rollback()
			return user.User{}, errors.Wrap(err, "updating profile")
		}
	}

	if err = tx.Commit(); err != nil {
		_ = tx.Rollback()
		return user.User{}, errors.Wrap(err, "committing transaction")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	q, args, err := sqlx.In(`DELETE FROM user_account WHERE id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building delete query")
	}
	_, err = repo.db.ExecContext(ctx, sqlx.Rebind(sqlx.DOLLAR, q), args...)
	return errors.Wrap(err, "deleting users")
}

func (repo userRepository) SetLastLogin(ctx context.Context, usr user.User, at time.Time) (user.User, error) {
	const q = `UPDATE user_account SET last_login = $1 WHERE id = $2`
	if _, err := repo.db.ExecContext(ctx, q, at, usr.ID); err != nil {
		return user.User{}, errors.Wrap(err, "setting last login")
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) CountFailedLogins(ctx context.Context, username string, since time.Time) (int, error) {
	var n int
	const q = `SELECT COUNT(*) FROM login_attempt WHERE username = $1 AND attempted_at >= $2`
	err := repo.db.GetContext(ctx, &n, q, username, since)
	return n, errors.Wrap(err, "counting failed logins")
}

func (repo userRepository) RecordFailedLogin(ctx context.Context, username string, at time.Time) error {
	const q = `INSERT INTO login_attempt (username, attempted_at) VALUES ($1, $2)`
	_, err := repo.db.ExecContext(ctx, q, username, at)
	return errors.Wrap(err, "recording failed login")
}

func (repo userRepository) ClearFailedLogins(ctx context.Context, username string) error {
	const q = `DELETE FROM login_attempt WHERE username = $1`
	_, err := repo.db.ExecContext(ctx, q, username)
	return errors.Wrap(err, "clearing failed logins")
}
