package main

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/acadeo/gradebook/core"
	"github.com/acadeo/gradebook/core/role"
	"github.com/acadeo/gradebook/core/user"
)

// createSuperAdmin creates an active super admin account, or resets the
// password of an existing account matching the username or email.
func (cli *commandLine) createSuperAdmin(uname, email, firstName, lastName, pwd string) error {
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, uname)
	if errors.Cause(err) == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByUsernameOrEmail(ctx, email)
	}
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		return cli.insertSuperAdmin(ctx, uname, email, firstName, lastName, pwd)
	}

	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	isActive := true
	if _, err := cli.usrRepo.UpdateUser(ctx, usr, nil, &isActive); err != nil {
		return err
	}
	return nil
}

func (cli *commandLine) insertSuperAdmin(ctx context.Context, uname, email, firstName, lastName, pwd string) error {
	now := time.Now().UTC()
	usr := user.User{
		ID:        uuid.New().String(),
		Username:  uname,
		Email:     email,
		Role:      role.SuperAdmin,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	prof := user.Profile{
		UserID:    usr.ID,
		FirstName: core.CleanString(firstName),
		LastName:  core.CleanString(lastName),
	}
	if _, err := cli.usrRepo.CreateUser(ctx, usr, prof); err != nil {
		return err
	}
	return nil
}
