package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/role"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrUsernameExists     = errors.New("a user with this username already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked due to too many failed login attempts")
	ErrNotAuthorized      = errors.New("permission denied")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		// CreateUser persists the account and its profile as one atomic unit;
		// on any failure neither row remains.
		CreateUser(ctx context.Context, usr User, prof Profile) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, uname string) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on username, email or profile names.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User, prof *Profile, isActive *bool) (User, error)
		DeleteUsersByID(ctx context.Context, ids ...string) error
		SetLastLogin(ctx context.Context, usr User, at time.Time) (User, error)

		// login throttling
		CountFailedLogins(ctx context.Context, username string, since time.Time) (int, error)
		RecordFailedLogin(ctx context.Context, username string, at time.Time) error
		ClearFailedLogins(ctx context.Context, username string) error
	}

	// Enroller hooks student registration into the enrollment service.
	Enroller interface {
		AutoEnroll(ctx context.Context, studentID, courseName string) error
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		mailSvc  core.EmailService
		logger   core.Logger
		enroller Enroller // optional

		nowFunc func() time.Time // mockable
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, logger core.Logger, enroller Enroller) *Service {
	initTokenGenerator(conf)
	return &Service{
		conf:     conf,
		repo:     repo,
		mailSvc:  mailSvc,
		logger:   logger,
		enroller: enroller,
		nowFunc:  time.Now,
	}
}

func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

// Authenticate verifies the credentials of an active account. Unknown users,
// wrong passwords and deactivated accounts all fail with ErrInvalidCredentials
// so callers cannot enumerate accounts. Failed attempts are throttled per
// username: once MaxLoginAttempts failures accumulate within LoginTimeout,
// further attempts fail with ErrAccountLocked until the window expires.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (User, error) {
	uname = core.CleanString(uname, true /* lower */)
	now := svc.nowFunc().UTC()

	since := now.Add(-svc.conf.LoginTimeout)
	failures, err := svc.repo.CountFailedLogins(ctx, uname, since)
	if err != nil {
		return User{}, errors.Wrap(err, "counting failed logins")
	}
	if failures >= svc.conf.MaxLoginAttempts {
		return User{}, ErrAccountLocked
	}

	fail := func() (User, error) {
		if err := svc.repo.RecordFailedLogin(ctx, uname, now); err != nil {
			svc.logger.Error("recording failed login", err)
		}
		return User{}, ErrInvalidCredentials
	}

	usr, err := svc.repo.GetUserByUsernameOrEmail(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return fail()
		}
		return User{}, errors.Wrap(err, "finding user by username or email")
	}
	if !usr.IsActive {
		return fail()
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return fail()
	}

	if err = svc.repo.ClearFailedLogins(ctx, uname); err != nil {
		return User{}, errors.Wrap(err, "clearing failed logins")
	}
	usr, err = svc.repo.SetLastLogin(ctx, usr, now)
	return usr, errors.Wrap(err, "setting last login")
}

// Create adds an account of the requested role on behalf of actor.
// The account and its profile are written in one transaction.
func (svc *Service) Create(ctx context.Context, actor role.Role, nu NewUser) (User, error) {
	if !role.Can(actor, role.AccountCreate, nu.Role) {
		return User{}, ErrNotAuthorized
	}
	return svc.create(ctx, nu)
}

// Register is the public student sign-up: the role is forced to student.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	nu.Role = role.Student
	return svc.create(ctx, nu)
}

func (svc *Service) create(ctx context.Context, nu NewUser) (User, error) {
	now := svc.nowFunc().UTC()
	usr := User{
		ID:        uuid.New().String(),
		Username:  nu.Username,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr, nu.profile(usr.ID))
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}

	if usr.IsStudent() && nu.CourseName != "" && svc.enroller != nil {
		// a missing course is a known gap: log and carry on
		if err := svc.enroller.AutoEnroll(ctx, usr.ID, nu.CourseName); err != nil {
			svc.logger.Warn(fmt.Sprintf("auto-enroll into %q skipped: %v", nu.CourseName, err))
		}
	}

	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) Update(ctx context.Context, actor role.Role, id string, uu UpdateUser) (User, error) {
	origUsr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !role.Can(actor, role.AccountUpdate, origUsr.Role) {
		return User{}, ErrNotAuthorized
	}
	if uu.IsActive != nil && !role.Can(actor, role.AccountDeactivate, origUsr.Role) {
		return User{}, ErrNotAuthorized
	}

	usr := User{
		ID:        id,
		Username:  uu.Username,
		Email:     uu.Email,
		UpdatedAt: svc.nowFunc().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	prof := &Profile{
		UserID:     id,
		FirstName:  core.CleanString(uu.FirstName),
		LastName:   core.CleanString(uu.LastName),
		Department: nullString(uu.Department),
		YearLevel:  nullInt(uu.YearLevel),
		Section:    nullString(uu.Section),
	}
	return svc.repo.UpdateUser(ctx, usr, prof, uu.IsActive)
}

// SetActive activates or deactivates an account subject to policy.
func (svc *Service) SetActive(ctx context.Context, actor role.Role, id string, active bool) (User, error) {
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !role.Can(actor, role.AccountDeactivate, usr.Role) {
		return User{}, ErrNotAuthorized
	}
	return svc.repo.UpdateUser(ctx, User{ID: id, Username: usr.Username, Email: usr.Email, UpdatedAt: svc.nowFunc().UTC()}, nil, &active)
}

// Delete removes accounts subject to policy; profiles go with them (FK cascade).
// The whole call is refused if any target is off-limits for actor.
func (svc *Service) Delete(ctx context.Context, actor role.Role, ids ...string) error {
	for _, id := range ids {
		usr, err := svc.repo.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if !role.Can(actor, role.AccountDelete, usr.Role) {
			return ErrNotAuthorized
		}
	}
	return svc.repo.DeleteUsersByID(ctx, ids...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(ctx context.Context, uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

// RoleOf satisfies the catalog service's account-role lookup.
func (svc *Service) RoleOf(ctx context.Context, accountID string) (role.Role, error) {
	usr, err := svc.repo.GetUserByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	return usr.Role, nil
}

// RequestPasswordReset sends a reset link to the account matching email.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	svc.sendPasswordResetMail(usr)
	return nil
}

// ResetPassword sets a new password after verifying the emailed token.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetUserPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return errInvalidToken
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return err
	}
	if err = usr.SetPassword(rp.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = svc.nowFunc().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr, nil, nil)
	return errors.Wrap(err, "updating password")
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:      "Welcome to " + svc.conf.AppName,
		Template:     welcomeTmpl,
		TemplateData: welcomeTmplData{Name: usr.Name(), Username: usr.Username, BaseURL: svc.conf.FrontendBaseURL},
	})
}

func (svc *Service) sendPasswordResetMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	token, err := MakeToken(usr)
	if err != nil {
		svc.logger.Error("generating password reset token", err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:       []mail.Address{{Name: usr.Name(), Address: usr.Email}},
		Subject:  "Password Reset",
		Template: passwordResetTmpl,
		TemplateData: passwordResetTmplData{
			Name: usr.Name(),
			URL:  fmt.Sprintf("%s/password-reset/%s/%s", svc.conf.FrontendBaseURL, EncodeUID(usr), token),
		},
	})
}
