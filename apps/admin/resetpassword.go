package main

import (
	"context"

	"github.com/slps/canteen/core/account"
)

func (cli *commandLine) resetPassword(role account.Role, id, pwd string) error {
	return cli.accounts.ResetPassword(context.Background(), role, id, pwd)
}
