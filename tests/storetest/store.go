// Package storetest checks that an account store behaves as a Credential Store.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/tests"
)

// Store is an account.Repository that can be written to.
type Store interface {
	account.Repository
	testutil.Inserter
	SetPasswordHash(ctx context.Context, username string, hash []byte) error
}

func usernames(accounts []account.Account) []string {
	names := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		names = append(names, acc.Username)
	}
	return names
}

func day(d int) time.Time { return time.Date(2025, time.October, d, 0, 0, 0, 0, time.UTC) }

// Run exercises `store`, which must be empty.
func Run(t *testing.T, store Store) {
	testutil.FastHashing(t)
	ctx := context.Background()

	testutil.CreateTeacher(t, store, "Dillon", "8803", true)
	testutil.CreateTeacher(t, store, "sarah", "1234", false)
	testutil.CreateStudent(t, store, "Bob", "1234", "Dillon", "Let's Begin", 40,
		testutil.Invoice("INV-20251101", day(31).AddDate(0, 0, 1), 4000000, false),
		testutil.Invoice("INV-20251001", day(1), 4000000, true),
	)
	testutil.CreateStudent(t, store, "alice", "5678", "dillon", "Intermediate Phase", 75,
		testutil.Invoice("INV-20251001", day(1), 4800000, true),
	)
	testutil.CreateStudent(t, store, "Zed", "", "Sarah", "Let's Begin", 0)

	t.Run("get is case-insensitive", func(t *testing.T) {
		acc, err := store.GetAccountByUsername(ctx, "BOB")
		require.NoError(t, err)
		assert.Equal(t, "Bob", acc.Username)
		assert.Equal(t, account.RoleStudent, acc.Role)
		require.NotNil(t, acc.Student)
		assert.Equal(t, 40, acc.Student.ProgressPercent)
		assert.NoError(t, acc.CheckPassword("1234"))
	})

	t.Run("unknown account", func(t *testing.T) {
		_, err := store.GetAccountByUsername(ctx, "ghost")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("duplicate username", func(t *testing.T) {
		acc := account.Account{
			Username: "BOB", DisplayName: "Other Bob", Role: account.RoleTeacher,
			Teacher: &account.TeacherProfile{Status: "Instructor"},
		}
		assert.ErrorIs(t, store.Insert(ctx, acc), account.ErrUsernameExists)
	})

	t.Run("duplicate invoice id", func(t *testing.T) {
		acc := account.Account{
			Username: "Dup", DisplayName: "Dup Student", Role: account.RoleStudent,
			Student: &account.StudentProfile{StudentID: "S-DUP", AssignedTeacher: "sarah", CourseName: "Let's Begin"},
		}
		err := store.Insert(ctx, acc,
			testutil.Invoice("INV-1", day(1), 100, false),
			testutil.Invoice("INV-1", day(2), 200, true),
		)
		assert.ErrorIs(t, err, account.ErrDuplicateInvoice)

		_, err = store.GetAccountByUsername(ctx, "Dup")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("invoices are scoped and ordered", func(t *testing.T) {
		invoices, err := store.ListInvoicesFor(ctx, "bob")
		require.NoError(t, err)
		require.Len(t, invoices, 2)
		assert.Equal(t, "INV-20251001", invoices[0].ID)
		assert.True(t, invoices[0].IsPaid())
		assert.Equal(t, "INV-20251101", invoices[1].ID)
		assert.Equal(t, int64(4000000), invoices[1].Amount)

		invoices, err = store.ListInvoicesFor(ctx, "Alice")
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, int64(4800000), invoices[0].Amount)

		invoices, err = store.ListInvoicesFor(ctx, "Zed")
		require.NoError(t, err)
		assert.Empty(t, invoices)
	})

	t.Run("invoices of a non-student", func(t *testing.T) {
		_, err := store.ListInvoicesFor(ctx, "Dillon")
		assert.ErrorIs(t, err, account.ErrNotFound)
	})

	t.Run("students for teacher", func(t *testing.T) {
		students, err := store.ListStudentsForTeacher(ctx, "DILLON")
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "Bob"}, usernames(students))

		students, err = store.ListStudentsForTeacher(ctx, "nobody")
		require.NoError(t, err)
		assert.Empty(t, students)
	})

	t.Run("query all", func(t *testing.T) {
		students, err := store.QueryStudents(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"alice", "Bob", "Zed"}, usernames(students))

		teachers, err := store.QueryTeachers(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Dillon", "sarah"}, usernames(teachers))
	})

	t.Run("set password hash", func(t *testing.T) {
		acc, err := store.GetAccountByUsername(ctx, "sarah")
		require.NoError(t, err)
		require.NoError(t, acc.SetPassword("new-secret"))
		require.NoError(t, store.SetPasswordHash(ctx, "SARAH", acc.PasswordHash))

		acc, err = store.GetAccountByUsername(ctx, "sarah")
		require.NoError(t, err)
		assert.NoError(t, acc.CheckPassword("new-secret"))
		assert.Error(t, acc.CheckPassword("1234"))

		assert.ErrorIs(t, store.SetPasswordHash(ctx, "ghost", acc.PasswordHash), account.ErrNotFound)
	})
}
