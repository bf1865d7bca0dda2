package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduquest/academy/core"
	"github.com/eduquest/academy/core/account"
	inmemdb "github.com/eduquest/academy/storage/database/inmem"
	"github.com/eduquest/academy/tests"
)

var accRepo *inmemdb.AccountRepository

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	testutil.FastHashing(t)
	accRepo = inmemdb.NewAccountRepository(inmemdb.Open())

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)

	// start CLI
	var out bytes.Buffer
	return &commandLine{
		db:         &sql.DB{},
		repo:       accRepo,
		validate:   validate,
		translator: translator,
		out:        &out,
	}, &out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func checkErr(t *testing.T, tt cliTest, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, out := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "migrate without subcommand", args: []string{"migrate"}, wantErr: errHelp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out.Reset()
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	orig := migrateFunc
	t.Cleanup(func() { migrateFunc = orig })
	migrateFunc = func(_ context.Context, _ *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "attendance", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkErr(t, tt, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	t.Run("no database", func(t *testing.T) {
		noDB := &commandLine{repo: accRepo, out: &bytes.Buffer{}}
		assert.Equal(t, errNoDatabase, noDB.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_seed(t *testing.T) {
	cli, out := setup(t)

	require.NoError(t, cli.run([]string{"admin", "seed"}))
	assert.Contains(t, out.String(), "sample accounts loaded")

	students, err := accRepo.QueryStudents(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, students)

	// seeding twice hits existing usernames
	assert.Equal(t, account.ErrUsernameExists, errors.Cause(cli.run([]string{"admin", "seed"})))
}

func Test_commandLine_addUser(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-username", "ms.kim"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-username", "ms.kim", "-name", "Ms Kim"}, wantErr: errHelp},
		{name: "teacher", args: []string{"adduser", "-username", "ms.kim", "-name", "Ms Kim", "-email", "Kim@Example.com"}, extra: "kim-pass"},
		{name: "admin", args: []string{"adduser", "-username", "head", "-name", "Head Teacher", "-admin"}, extra: "head-pass"},
		{name: "duplicate", args: []string{"adduser", "-username", "MS.KIM", "-name", "Again"}, extra: "x", wantErr: account.ErrUsernameExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd, _ := tt.extra.(string)
			mockPassword(t, pwd)
			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)
		})
	}

	kim, err := accRepo.GetAccountByUsername(context.Background(), "ms.kim")
	require.NoError(t, err)
	assert.Equal(t, account.RoleTeacher, kim.Role)
	assert.Equal(t, "kim@example.com", kim.Email)
	assert.NoError(t, kim.CheckPassword("kim-pass"))

	head, err := accRepo.GetAccountByUsername(context.Background(), "head")
	require.NoError(t, err)
	assert.Equal(t, account.RoleAdmin, head.Role)
	assert.Equal(t, account.UserTypeTeacher, head.UserType())
}

func Test_commandLine_addUser_invalid(t *testing.T) {
	cli, _ := setup(t)

	tests := []cliTest{
		{name: "space in username", args: []string{"adduser", "-username", "ms kim", "-name", "Ms Kim"}, extra: "username"},
		{name: "bad email", args: []string{"adduser", "-username", "ms.kim", "-name", "Ms Kim", "-email", "kim@"}, extra: "email"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, "kim-pass")
			err := cli.run(append([]string{"admin"}, tt.args...))

			var vErr *core.ValidationError
			if assert.True(t, errors.As(err, &vErr), "got %v", err) {
				assert.Contains(t, vErr.FieldMap(), tt.extra)
			}
		})
	}

	_, err := accRepo.GetAccountByUsername(context.Background(), "ms kim")
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))
	_, err = accRepo.GetAccountByUsername(context.Background(), "ms.kim")
	assert.Equal(t, account.ErrNotFound, errors.Cause(err))
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, _ := setup(t)

	acc := testutil.CreateStudent(t, accRepo, "alice", "old-pass", "mr.lee", "Intermediate Phase (B1)", 10)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "alice"}, wantErr: errHelp},
		{name: "account not found", args: []string{"resetpassword", "-username", "lol"}, extra: "lol", wantErr: account.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-username", "alice"}, extra: "new-pass"},
		{name: "reset case-insensitive", args: []string{"resetpassword", "-username", "ALICE"}, extra: "newer-pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd, _ := tt.extra.(string)
			mockPassword(t, pwd)

			err := cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				return
			}
			require.NoError(t, err)

			refreshed, err := accRepo.GetAccountByUsername(context.Background(), acc.Username)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, acc.PasswordHash), "failed to update new password")
			assert.NoError(t, refreshed.CheckPassword(pwd))
			acc = refreshed
		})
	}
}

func Test_commandLine_hashPassword(t *testing.T) {
	cli, out := setup(t)

	mockPassword(t, "")
	assert.Equal(t, errHelp, cli.run([]string{"admin", "hashpassword"}))

	out.Reset()
	mockPassword(t, "s3cret")
	require.NoError(t, cli.run([]string{"admin", "hashpassword"}))

	lines := bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n"))
	hash := lines[len(lines)-1]
	assert.NoError(t, bcrypt.CompareHashAndPassword(hash, []byte("s3cret")))
}
