package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/eduquest/academy/core/account"
)

const uniqueViolation = "23505"

var (
	psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	accountColumns = []string{
		"username", "password_hash", "display_name", "role", "email",
		"status", "student_id", "assigned_teacher", "course_name", "progress_percent", "next_class",
	}
	invoiceColumns = []string{"id", "student_username", "issue_date", "amount", "status"}

	teacherRoles = []string{string(account.RoleTeacher), string(account.RoleAdmin)}
)

type accountRow struct {
	Username        string      `db:"username"`
	PasswordHash    []byte      `db:"password_hash"`
	DisplayName     string      `db:"display_name"`
	Role            string      `db:"role"`
	Email           string      `db:"email"`
	Status          null.String `db:"status"`
	StudentID       null.String `db:"student_id"`
	AssignedTeacher null.String `db:"assigned_teacher"`
	CourseName      null.String `db:"course_name"`
	ProgressPercent null.Int    `db:"progress_percent"`
	NextClass       null.Time   `db:"next_class"`
}

type invoiceRow struct {
	ID              string    `db:"id"`
	StudentUsername string    `db:"student_username"`
	IssueDate       time.Time `db:"issue_date"`
	Amount          int64     `db:"amount"`
	Status          string    `db:"status"`
}

func boilAccount(acc account.Account) accountRow {
	row := accountRow{
		Username:     acc.Username,
		PasswordHash: acc.PasswordHash,
		DisplayName:  acc.DisplayName,
		Role:         string(acc.Role),
		Email:        acc.Email,
	}
	if row.PasswordHash == nil {
		row.PasswordHash = []byte{} // accounts without a password can never sign in
	}
	if t := acc.Teacher; t != nil {
		row.Status = null.StringFrom(t.Status)
	}
	if s := acc.Student; s != nil {
		row.StudentID = null.NewString(s.StudentID, s.StudentID != "")
		row.AssignedTeacher = null.NewString(s.AssignedTeacher, s.AssignedTeacher != "")
		row.CourseName = null.NewString(s.CourseName, s.CourseName != "")
		row.ProgressPercent = null.IntFrom(s.ProgressPercent)
		row.NextClass = null.NewTime(s.NextClass.UTC(), !s.NextClass.IsZero())
	}
	return row
}

func (row accountRow) unboil() (account.Account, error) {
	role, err := account.ParseRole(row.Role)
	if err != nil {
		return account.Account{}, errors.Wrapf(err, "account %q", row.Username)
	}
	acc := account.Account{
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		DisplayName:  row.DisplayName,
		Role:         role,
		Email:        row.Email,
	}
	if role == account.RoleStudent {
		acc.Student = &account.StudentProfile{
			StudentID:       row.StudentID.String,
			AssignedTeacher: row.AssignedTeacher.String,
			CourseName:      row.CourseName.String,
			ProgressPercent: row.ProgressPercent.Int,
			NextClass:       row.NextClass.Time,
		}
	} else {
		acc.Teacher = &account.TeacherProfile{Status: row.Status.String}
	}
	return acc, nil
}

func (row invoiceRow) unboil() (account.Invoice, error) {
	status, err := account.ParseInvoiceStatus(row.Status)
	if err != nil {
		return account.Invoice{}, errors.Wrapf(err, "invoice %s", row.ID)
	}
	return account.Invoice{
		ID:        row.ID,
		IssueDate: row.IssueDate.UTC(),
		Amount:    row.Amount,
		Status:    status,
	}, nil
}

func unboilAccounts(rows []accountRow) ([]account.Account, error) {
	accounts := make([]account.Account, 0, len(rows))
	for _, row := range rows {
		acc, err := row.unboil()
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, acc)
	}
	return accounts, nil
}

// AccountRepository is the PostgreSQL Credential Store.
type AccountRepository struct {
	db *sqlx.DB
}

var _ account.Repository = (*AccountRepository)(nil) // interface compliance check

func NewAccountRepository(db *sqlx.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (repo *AccountRepository) selectAccounts(ctx context.Context, where sq.Sqlizer) ([]account.Account, error) {
	query, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where(where).
		OrderBy("lower(username)").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []accountRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting accounts")
	}
	return unboilAccounts(rows)
}

func (repo *AccountRepository) GetAccountByUsername(ctx context.Context, username string) (account.Account, error) {
	query, args, err := psql.Select(accountColumns...).
		From("accounts").
		Where(sq.Expr("lower(username) = lower(?)", username)).
		ToSql()
	if err != nil {
		return account.Account{}, errors.Wrap(err, "building query")
	}
	var row accountRow
	if err = repo.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return account.Account{}, account.ErrNotFound
		}
		return account.Account{}, errors.Wrap(err, "selecting account")
	}
	return row.unboil()
}

func (repo *AccountRepository) ListInvoicesFor(ctx context.Context, studentUsername string) ([]account.Invoice, error) {
	acc, err := repo.GetAccountByUsername(ctx, studentUsername)
	if err != nil {
		return nil, err
	}
	if !acc.IsStudent() {
		return nil, account.ErrNotFound
	}

	query, args, err := psql.Select(invoiceColumns...).
		From("invoices").
		Where(sq.Eq{"student_username": acc.Username}).
		OrderBy("issue_date", "id").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var rows []invoiceRow
	if err = repo.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "selecting invoices")
	}

	invoices := make([]account.Invoice, 0, len(rows))
	for _, row := range rows {
		inv, err := row.unboil()
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, inv)
	}
	return invoices, nil
}

func (repo *AccountRepository) ListStudentsForTeacher(ctx context.Context, teacherUsername string) ([]account.Account, error) {
	return repo.selectAccounts(ctx, sq.And{
		sq.Eq{"role": string(account.RoleStudent)},
		sq.Expr("lower(assigned_teacher) = lower(?)", teacherUsername),
	})
}

func (repo *AccountRepository) QueryStudents(ctx context.Context) ([]account.Account, error) {
	return repo.selectAccounts(ctx, sq.Eq{"role": string(account.RoleStudent)})
}

func (repo *AccountRepository) QueryTeachers(ctx context.Context) ([]account.Account, error) {
	return repo.selectAccounts(ctx, sq.Eq{"role": teacherRoles})
}

// Insert stores a new account with its invoices in a single transaction.
func (repo *AccountRepository) Insert(ctx context.Context, acc account.Account, invoices ...account.Invoice) (err error) {
	if err = acc.Validate(); err != nil {
		return errors.Wrap(err, "validating account")
	}
	if len(invoices) > 0 && !acc.IsStudent() {
		return errors.Errorf("account %q: only students own invoices", acc.Username)
	}
	if err = account.ValidateInvoices(invoices); err != nil {
		return err
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := boilAccount(acc)
	query, args, err := psql.Insert("accounts").
		Columns(accountColumns...).
		Values(row.Username, row.PasswordHash, row.DisplayName, row.Role, row.Email,
			row.Status, row.StudentID, row.AssignedTeacher, row.CourseName, row.ProgressPercent, row.NextClass).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return account.ErrUsernameExists
		}
		return errors.Wrap(err, "inserting account")
	}

	if len(invoices) > 0 {
		ins := psql.Insert("invoices").Columns(invoiceColumns...)
		for _, inv := range invoices {
			ins = ins.Values(inv.ID, acc.Username, inv.IssueDate.UTC(), inv.Amount, string(inv.Status))
		}
		if query, args, err = ins.ToSql(); err != nil {
			return errors.Wrap(err, "building query")
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "inserting invoices")
		}
	}

	return errors.Wrap(tx.Commit(), "committing transaction")
}

// SetPasswordHash replaces the stored hash of the given account.
func (repo *AccountRepository) SetPasswordHash(ctx context.Context, username string, hash []byte) error {
	query, args, err := psql.Update("accounts").
		Set("password_hash", hash).
		Set("updated_at", sq.Expr("now()")).
		Where(sq.Expr("lower(username) = lower(?)", username)).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	res, err := repo.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "updating password")
	}
	if n, err := res.RowsAffected(); err != nil {
		return errors.Wrap(err, "updating password")
	} else if n == 0 {
		return account.ErrNotFound
	}
	return nil
}

// Truncate deletes every account and invoice.
func (repo *AccountRepository) Truncate(ctx context.Context) error {
	_, err := repo.db.ExecContext(ctx, "TRUNCATE invoices, accounts")
	return errors.Wrap(err, "truncating tables")
}
