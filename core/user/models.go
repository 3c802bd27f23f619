package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"
	"golang.org/x/crypto/bcrypt"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/role"
)

// User is an authentication account. The role-specific attributes live in the
// owned Profile; an account is never persisted without one.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	Role         role.Role `json:"role" db:"role"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	PasswordHash []byte    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
	LastLogin    null.Time `json:"last_login" db:"last_login"` // UTC

	Profile *Profile `json:"profile,omitempty"`
}

// Profile holds the role-specific attributes, 1:1 owned by the account.
// Department applies to instructors and admins; YearLevel and Section to students.
type Profile struct {
	UserID     string      `json:"-" db:"user_id"`
	FirstName  string      `json:"first_name" db:"first_name"`
	LastName   string      `json:"last_name" db:"last_name"`
	Department null.String `json:"department,omitempty" db:"department"`
	YearLevel  null.Int    `json:"year_level,omitempty" db:"year_level"`
	Section    null.String `json:"section,omitempty" db:"section"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsSuperAdmin() bool { return u.Role == role.SuperAdmin }
func (u *User) IsAdmin() bool      { return u.Role == role.Admin }
func (u *User) IsInstructor() bool { return u.Role == role.Instructor }
func (u *User) IsStudent() bool    { return u.Role == role.Student }

func (u *User) Name() string {
	if u.Profile == nil {
		return u.Username
	}
	return core.CleanString(u.Profile.FirstName + " " + u.Profile.LastName)
}

// NewUser contains information needed to create a new account + profile.
type NewUser struct {
	Username        string    `json:"username" validate:"required,min=4,alphanum_"`
	Email           string    `json:"email" validate:"required,email"`
	Password        string    `json:"password" validate:"required"`
	PasswordConfirm string    `json:"password_confirm" validate:"required,eqfield=Password"`
	Role            role.Role `json:"role" validate:"required,accountrole"`
	FirstName       string    `json:"first_name" validate:"required"`
	LastName        string    `json:"last_name" validate:"required"`

	// instructor/admin
	Department string `json:"department,omitempty"`

	// student
	YearLevel  int    `json:"year_level,omitempty" validate:"omitempty,min=1,max=4"`
	Section    string `json:"section,omitempty"`
	CourseName string `json:"course_name,omitempty"` // auto-enroll target
}

func (nu *NewUser) Validate(validate *validator.Validate, svc *Service) error {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Department = core.CleanString(nu.Department)
	nu.Section = core.CleanString(nu.Section)
	nu.CourseName = core.CleanString(nu.CourseName)

	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(nu.Username, nu.Email)
}

func (nu NewUser) profile(userID string) Profile {
	return Profile{
		UserID:     userID,
		FirstName:  nu.FirstName,
		LastName:   nu.LastName,
		Department: null.NewString(nu.Department, nu.Department != ""),
		YearLevel:  null.NewInt(nu.YearLevel, nu.YearLevel > 0),
		Section:    null.NewString(nu.Section, nu.Section != ""),
	}
}

// UpdateUser defines what information may be provided to modify an existing account.
// Role changes are not supported; an account keeps the role it was created with.
type UpdateUser struct {
	Username        string `json:"username" validate:"omitempty,min=4,alphanum_"`
	Email           string `json:"email" validate:"omitempty,email"`
	IsActive        *bool  `json:"is_active"`
	Password        string `json:"password" validate:"omitempty"`
	PasswordConfirm string `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Department      string `json:"department,omitempty"`
	YearLevel       int    `json:"year_level,omitempty" validate:"omitempty,min=1,max=4"`
	Section         string `json:"section,omitempty"`
}

func (uu *UpdateUser) Validate(origUsr User, validate *validator.Validate, svc *Service) error {
	if uname := core.CleanString(uu.Username, true /* lower */); uname != "" {
		uu.Username = uname
	} else {
		uu.Username = origUsr.Username
	}
	if email := core.CleanString(uu.Email, true /* lower */); email != "" {
		uu.Email = email
	} else {
		uu.Email = origUsr.Email
	}

	if err := validate.Struct(uu); err != nil {
		return err
	}
	return svc.CheckUniqueness(uu.Username, uu.Email, origUsr)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

type QueryFilter struct {
	Search      string      `query:"search"`
	Roles       []role.Role `query:"role"`
	IsActive    *bool       `query:"is_active"`
	CreatedFrom time.Time   `query:"created_from"`
	CreatedTo   time.Time   `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
