package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/acadeo/gradebook/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sql.DB
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - manage DB migrations (up, down, status, ...)")
	fmt.Println("  createsuperadmin -username USERNAME -email EMAIL - create a super admin account")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createSuperAdminCmd := flag.NewFlagSet("createsuperadmin", flag.ExitOnError)
	createSuperAdminUname := createSuperAdminCmd.String("username", "", "The account's username. The password will be prompted next.")
	createSuperAdminEmail := createSuperAdminCmd.String("email", "", "The account's email.")
	createSuperAdminFirst := createSuperAdminCmd.String("first", "Super", "The account's first name.")
	createSuperAdminLast := createSuperAdminCmd.String("last", "Admin", "The account's last name.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "createsuperadmin":
		if err := createSuperAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createSuperAdminUname == "" || *createSuperAdminEmail == "" {
			createSuperAdminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(createSuperAdminCmd)
		if err != nil {
			return err
		}
		return cli.createSuperAdmin(*createSuperAdminUname, *createSuperAdminEmail, *createSuperAdminFirst, *createSuperAdminLast, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword(cmd *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
