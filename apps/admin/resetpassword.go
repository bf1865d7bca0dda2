package main

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/eduquest/academy/core/account"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	ctx := context.Background()
	acc, err := cli.repo.GetAccountByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err := acc.SetPassword(pwd); err != nil {
		return err
	}
	return cli.repo.SetPasswordHash(ctx, acc.Username, acc.PasswordHash)
}

// hashPassword prints a hash suitable for the password_hash column.
func (cli *commandLine) hashPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), account.HashCost)
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.out, string(hash))
	return nil
}
