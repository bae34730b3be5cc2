package main

import (
	"context"
	"fmt"
)

// addStaff updates or creates a staff member.
func (cli *commandLine) addStaff(staffID, name, email, pwd string) error {
	stf, created, err := cli.accounts.AddStaff(context.Background(), staffID, name, email, pwd)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("staff %s created\n", stf.StaffID)
	} else {
		fmt.Printf("staff %s updated\n", stf.StaffID)
	}
	return nil
}
