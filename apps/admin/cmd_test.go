package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slps/canteen/core/account"
	"github.com/slps/canteen/core/menu"
	"github.com/slps/canteen/core/order"
	"github.com/slps/canteen/core/sheet"
	"github.com/slps/canteen/tests"
)

func setup(t *testing.T) (*commandLine, *testutil.Services) {
	svcs := testutil.NewServices(t)

	// start CLI
	return &commandLine{
		store:    svcs.Store,
		accounts: svcs.Accounts,
		menuSvc:  svcs.Menu,
		orderSvc: svcs.Orders,
	}, svcs
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

type extra struct {
	pwd string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest, check func(t *testing.T, tt cliTest)) {
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case err == nil && (tt.wantErr != nil || tt.wantErrStr != ""):
				t.Errorf("cli.run() error = nil, wantErr %v%s", tt.wantErr, tt.wantErrStr)
			case err == nil:
				if check != nil {
					check(t, tt)
				}
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
				}
			default:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"addstaff", "-lol"}, wantErrStr: "flag provided but not defined: -lol"},
	}, nil)
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	t.Run("no database", func(t *testing.T) {
		if err := cli.run([]string{"admin", "migrate", "up"}); err != errNoDatabase {
			t.Errorf("cli.run() error = %v, wantErr %v", err, errNoDatabase)
		}
	})

	cli.db = new(sql.DB)
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to":
			if len(args) == 0 {
				return fmt.Errorf("up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		case "down-to":
			if len(args) == 0 {
				return fmt.Errorf("down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION")
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "feedback_rating", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	runCLITests(t, cli, tests, nil)
}

func Test_commandLine_addStaff(t *testing.T) {
	cli, svcs := setup(t)
	ctx := context.Background()

	tests := []cliTest{
		{name: "no args", args: []string{"addstaff"}, wantErr: errHelp},
		{name: "id but no password", args: []string{"addstaff", "-id", "kitchen"}, wantErr: errHelp},
		{
			name:       "weak password",
			args:       []string{"addstaff", "-id", "kitchen"},
			extra:      extra{pwd: "abc"},
			wantErrStr: "password: password must contain at least 6 characters",
		},
		{
			name:  "create",
			args:  []string{"addstaff", "-id", "kitchen", "-name", "Kitchen Crew", "-email", "Kitchen@SLPS.one"},
			extra: extra{pwd: "Lunch#Box2024"},
		},
		{
			name:  "update keeps name & email",
			args:  []string{"addstaff", "-id", "kitchen@slps.one"},
			extra: extra{pwd: "Dinner#Box2025"},
		},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		stf, err := svcs.Accounts.AuthenticateStaff(ctx, account.StaffLogin{StaffID: "kitchen", Password: tt.extra.(extra).pwd})
		if err != nil {
			t.Fatalf("AuthenticateStaff() failed: %v", err)
		}
		assert.Equal(t, "kitchen@slps.one", stf.StaffID)
		assert.Equal(t, "Kitchen Crew", stf.Name)
		assert.Equal(t, "kitchen@slps.one", stf.Email)
	})

	staff, err := svcs.Accounts.ListStaff(ctx)
	if assert.NoError(t, err) {
		assert.Len(t, staff, 1)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, svcs := setup(t)
	ctx := context.Background()

	std := testutil.CreateStudent(t, svcs.Accounts, "Asha Rao", "asha@slps.one", "Lunch#Box2024", "17/20", "7B")
	testutil.CreateTeacher(t, svcs.Accounts, "Meera Iyer", "T-042", "meera@slps.one", "Lunch#Box2024")

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "id but no password", args: []string{"resetpassword", "-role", "student", "-id", std.UserID}, wantErr: errHelp},
		{
			name:    "student not found",
			args:    []string{"resetpassword", "-role", "student", "-id", "404"},
			extra:   extra{pwd: "Fresh#Start1"},
			wantErr: account.ErrStudentNotFound,
		},
		{
			name:    "staff not found",
			args:    []string{"resetpassword", "-id", "nobody"},
			extra:   extra{pwd: "Fresh#Start1"},
			wantErr: account.ErrStaffNotFound,
		},
		{
			name:       "unknown role",
			args:       []string{"resetpassword", "-role", "parent", "-id", "1"},
			extra:      extra{pwd: "Fresh#Start1"},
			wantErrStr: `unknown role "parent"`,
		},
		{name: "student", args: []string{"resetpassword", "-role", "student", "-id", std.UserID}, extra: extra{pwd: "Fresh#Start1"}},
		{name: "teacher", args: []string{"resetpassword", "-role", "teacher", "-id", "t-042"}, extra: extra{pwd: "Fresh#Start2"}},
	}
	runCLITests(t, cli, tests, func(t *testing.T, tt cliTest) {
		pwd := tt.extra.(extra).pwd
		var err error
		if tt.name == "student" {
			_, err = svcs.Accounts.AuthenticateStudent(ctx, account.StudentLogin{UserID: std.UserID, Password: pwd})
		} else {
			_, err = svcs.Accounts.AuthenticateTeacher(ctx, account.StaffLogin{StaffID: "T-042", Password: pwd})
		}
		assert.NoError(t, err, "new password not accepted")
	})
}

func Test_commandLine_store(t *testing.T) {
	cli, svcs := setup(t)
	ctx := context.Background()

	t.Run("bootstrap restores missing tables", func(t *testing.T) {
		svcs.Store.Drop(sheet.Orders)
		if err := cli.run([]string{"admin", "bootstrap"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		_, healthy, err := sheet.Inspect(ctx, svcs.Store)
		assert.NoError(t, err)
		assert.True(t, healthy)
	})

	t.Run("seedmenu", func(t *testing.T) {
		for i := 0; i < 2; i++ { // the second run is a no-op
			if err := cli.run([]string{"admin", "seedmenu"}); err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}
		}
		tbl, err := svcs.Store.Get(ctx, sheet.Menu)
		if assert.NoError(t, err) {
			assert.Equal(t, len(menu.Defaults), tbl.Len())
		}
		item, err := svcs.Menu.FindByName(ctx, "chai")
		if assert.NoError(t, err) {
			assert.Equal(t, 30.0, item.Price)
		}
	})

	t.Run("cleardata", func(t *testing.T) {
		std := testutil.CreateStudent(t, svcs.Accounts, "Asha Rao", "asha@slps.one", "Lunch#Box2024", "17/20", "7B")
		if _, err := svcs.Orders.Place(ctx, testutil.StudentSession(std), order.NewOrder{
			Items: []order.Item{{Name: "Chai", Quantity: 1}}, TotalPrice: 30,
		}); err != nil {
			t.Fatalf("Place() failed: %v", err)
		}

		if err := cli.run([]string{"admin", "cleardata"}); err != errHelp {
			t.Errorf("cli.run() error = %v, wantErr %v", err, errHelp)
		}
		if err := cli.run([]string{"admin", "cleardata", "-yes"}); err != nil {
			t.Fatalf("cli.run() unexpected error = %v", err)
		}
		for _, name := range []string{sheet.Orders, sheet.Students} {
			tbl, err := svcs.Store.Get(ctx, name)
			if assert.NoError(t, err) {
				assert.Zero(t, tbl.Len(), name)
				assert.Equal(t, sheet.Headers[name], tbl.Header, name)
			}
		}
	})
}
