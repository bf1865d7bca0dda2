package inmemdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/eduquest/academy/core/account"
)

type sampleAccount struct {
	account  account.Account
	password string
	invoices []account.Invoice
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func sampleAccounts() []sampleAccount {
	return []sampleAccount{
		{
			account: account.Account{
				Username:    "Dillon",
				DisplayName: "Dillon (Admin)",
				Role:        account.RoleAdmin,
				Email:       "dillon@eduquest.com",
				Teacher:     &account.TeacherProfile{Status: "Senior Instructor"},
			},
			password: "8803",
		},
		{
			account: account.Account{
				Username:    "Sarah",
				DisplayName: "Sarah Teacher",
				Role:        account.RoleTeacher,
				Email:       "sarah@eduquest.com",
				Teacher:     &account.TeacherProfile{Status: "Instructor"},
			},
			password: "1234",
		},
		{
			account: account.Account{
				Username:    "Bob",
				DisplayName: "Bob Nguyễn",
				Role:        account.RoleStudent,
				Email:       "bob@eduquest.com",
				Student: &account.StudentProfile{
					StudentID:       "S101",
					AssignedTeacher: "Dillon",
					CourseName:      "Let's Begin",
					ProgressPercent: 40,
					NextClass:       time.Date(2025, time.October, 18, 19, 0, 0, 0, time.UTC),
				},
			},
			password: "1234",
			invoices: []account.Invoice{
				{ID: "INV-20251001", IssueDate: day(2025, time.October, 1), Amount: 4000000, Status: account.InvoicePaid},
				{ID: "INV-20251101", IssueDate: day(2025, time.November, 1), Amount: 4000000, Status: account.InvoiceUnpaid},
			},
		},
		{
			account: account.Account{
				Username:    "Alice",
				DisplayName: "Alice Tran",
				Role:        account.RoleStudent,
				Email:       "alice@eduquest.com",
				Student: &account.StudentProfile{
					StudentID:       "S102",
					AssignedTeacher: "Sarah",
					CourseName:      "Intermediate Phase",
					ProgressPercent: 75,
					NextClass:       time.Date(2025, time.October, 20, 17, 0, 0, 0, time.UTC),
				},
			},
			password: "5678",
			invoices: []account.Invoice{
				{ID: "INV-20250915", IssueDate: day(2025, time.September, 15), Amount: 4800000, Status: account.InvoicePaid},
				{ID: "INV-20251015", IssueDate: day(2025, time.October, 15), Amount: 4800000, Status: account.InvoiceUnpaid},
			},
		},
	}
}

// AccountSeeder is implemented by the stores the sample data can be loaded into.
type AccountSeeder interface {
	Insert(ctx context.Context, acc account.Account, invoices ...account.Invoice) error
}

// Seed hashes the sample passwords and loads the sample teachers, students and invoices into `repo`.
func Seed(ctx context.Context, repo AccountSeeder) error {
	for _, s := range sampleAccounts() {
		acc := s.account
		if err := acc.SetPassword(s.password); err != nil {
			return errors.Wrapf(err, "hashing password of %s", acc.Username)
		}
		if err := repo.Insert(ctx, acc, s.invoices...); err != nil {
			return errors.Wrapf(err, "inserting %s", acc.Username)
		}
	}
	return nil
}
