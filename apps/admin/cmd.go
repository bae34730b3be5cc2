package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	store    sheet.Store
	db       *sql.DB // only set with the postgres backend
	accounts *account.Service
	menuSvc  *menu.Service
	orderSvc *order.Service
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addstaff -id STAFF_ID [-name NAME] [-email EMAIL] - add or update a staff member")
	fmt.Println("  resetpassword -role student|teacher|staff -id ID - reset an account's password")
	fmt.Println("  seedmenu - fill an empty menu with the default items")
	fmt.Println("  bootstrap - create the missing tables and columns")
	fmt.Println("  cleardata -yes - delete every order and student")
	fmt.Println("  migrate COMMAND [ARGS...] - run goose migrations (postgres backend only)")
}

func (cli *commandLine) readPassword(fs *flag.FlagSet) (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addStaffCmd := flag.NewFlagSet("addstaff", flag.ContinueOnError)
	addStaffID := addStaffCmd.String("id", "", "The staff id; the school domain is appended when it has no '@'. The password will be prompted next.")
	addStaffName := addStaffCmd.String("name", "", "The staff member's name.")
	addStaffEmail := addStaffCmd.String("email", "", "The staff member's email.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordRole := resetPasswordCmd.String("role", string(account.RoleStaff), "The account role: student, teacher or staff.")
	resetPasswordID := resetPasswordCmd.String("id", "", "The student's user id or the teacher's/staff's staff id. The password will be prompted next.")

	clearDataCmd := flag.NewFlagSet("cleardata", flag.ContinueOnError)
	clearDataYes := clearDataCmd.Bool("yes", false, "Confirm the deletion of every order and student.")

	switch args[1] {
	case "addstaff":
		if err := addStaffCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addStaffID == "" {
			addStaffCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(addStaffCmd)
		if err != nil {
			return err
		}
		return cli.addStaff(*addStaffID, *addStaffName, *addStaffEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordID == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(account.Role(*resetPasswordRole), *resetPasswordID, pwd)
	case "seedmenu":
		return cli.seedMenu()
	case "bootstrap":
		return cli.bootstrap()
	case "cleardata":
		if err := clearDataCmd.Parse(args[2:]); err != nil {
			return err
		}
		if !*clearDataYes {
			clearDataCmd.Usage()
			return errHelp
		}
		return cli.clearData()
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}
