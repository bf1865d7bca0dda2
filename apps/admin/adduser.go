package main

import (
	"context"
	"fmt"

	"github.com/eduquest/academy/core"
	"github.com/eduquest/academy/core/account"
)

type accountStore interface {
	GetAccountByUsername(ctx context.Context, username string) (account.Account, error)
	Insert(ctx context.Context, acc account.Account, invoices ...account.Invoice) error
	SetPasswordHash(ctx context.Context, username string, hash []byte) error
}

type userForm struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"omitempty,email"`
}

// addUser creates a teacher account.
func (cli *commandLine) addUser(uname, name, email, pwd string, isAdmin bool) error {
	form := userForm{
		Username: core.CleanString(uname),
		Name:     core.CleanString(name),
		Email:    core.CleanString(email, true /* lower */),
	}
	if err := core.ValidateStruct(cli.validate, cli.translator, form); err != nil {
		return err
	}

	acc := account.Account{
		Username:    form.Username,
		DisplayName: form.Name,
		Role:        account.RoleTeacher,
		Email:       form.Email,
		Teacher:     &account.TeacherProfile{Status: "Instructor"},
	}
	if isAdmin {
		acc.Role = account.RoleAdmin
		acc.Teacher.Status = "Administrator"
	}
	if err := acc.SetPassword(pwd); err != nil {
		return err
	}
	if err := cli.repo.Insert(context.Background(), acc); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created %s %q\n", acc.Role, acc.Username)
	return nil
}
