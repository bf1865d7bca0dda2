package inmemdb

import (
	"context"
	"sort"

	"github.com/pkg/errors"

	"github.com/eduquest/academy/core/account"
)

type AccountRepository struct {
	db *accountTable
}

var _ account.Repository = (*AccountRepository)(nil) // interface compliance check

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db.account}
}

// Insert stores a new account with its invoices. Usernames are unique under case-insensitive comparison.
func (repo *AccountRepository) Insert(_ context.Context, acc account.Account, invoices ...account.Invoice) error {
	if err := acc.Validate(); err != nil {
		return errors.Wrap(err, "validating account")
	}
	if len(invoices) > 0 && !acc.IsStudent() {
		return errors.Errorf("account %q: only students own invoices", acc.Username)
	}
	if err := account.ValidateInvoices(invoices); err != nil {
		return err
	}

	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(acc.Username)
	if _, ok := repo.db.table[k]; ok {
		return account.ErrUsernameExists
	}
	repo.db.table[k] = &accountRow{
		account:  copyAccount(acc),
		invoices: copyInvoices(invoices),
	}
	return nil
}

func (repo *AccountRepository) Delete(_ context.Context, username string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	k := key(username)
	if _, ok := repo.db.table[k]; !ok {
		return account.ErrNotFound
	}
	delete(repo.db.table, k)
	return nil
}

// SetPasswordHash replaces the stored hash of the given account.
func (repo *AccountRepository) SetPasswordHash(_ context.Context, username string, hash []byte) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	row, ok := repo.db.table[key(username)]
	if !ok {
		return account.ErrNotFound
	}
	row.account.PasswordHash = append([]byte(nil), hash...)
	return nil
}

func (repo *AccountRepository) GetAccountByUsername(_ context.Context, username string) (account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if row, ok := repo.db.table[key(username)]; ok {
		return copyAccount(row.account), nil
	}
	return account.Account{}, account.ErrNotFound
}

func (repo *AccountRepository) ListInvoicesFor(_ context.Context, studentUsername string) ([]account.Invoice, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	row, ok := repo.db.table[key(studentUsername)]
	if !ok || !row.account.IsStudent() {
		return nil, account.ErrNotFound
	}
	invoices := copyInvoices(row.invoices)
	sort.SliceStable(invoices, func(i, j int) bool { return invoices[i].IssueDate.Before(invoices[j].IssueDate) })
	return invoices, nil
}

func (repo *AccountRepository) ListStudentsForTeacher(_ context.Context, teacherUsername string) ([]account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	tk := key(teacherUsername)
	return repo.filter(func(acc account.Account) bool {
		return acc.IsStudent() && key(acc.Student.AssignedTeacher) == tk
	}), nil
}

func (repo *AccountRepository) QueryStudents(context.Context) ([]account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(account.Account.IsStudent), nil
}

func (repo *AccountRepository) QueryTeachers(context.Context) ([]account.Account, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.filter(func(acc account.Account) bool { return !acc.IsStudent() }), nil
}

// filter must be called with the read lock held.
func (repo *AccountRepository) filter(keep func(account.Account) bool) []account.Account {
	accounts := make([]account.Account, 0, len(repo.db.table))
	for _, row := range repo.db.table {
		if keep(row.account) {
			accounts = append(accounts, copyAccount(row.account))
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return key(accounts[i].Username) < key(accounts[j].Username) })
	return accounts
}

func copyAccount(acc account.Account) account.Account {
	if acc.PasswordHash != nil {
		acc.PasswordHash = append([]byte(nil), acc.PasswordHash...)
	}
	if acc.Teacher != nil {
		t := *acc.Teacher
		acc.Teacher = &t
	}
	if acc.Student != nil {
		s := *acc.Student
		acc.Student = &s
	}
	return acc
}

func copyInvoices(invoices []account.Invoice) []account.Invoice {
	return append(make([]account.Invoice, 0, len(invoices)), invoices...)
}
