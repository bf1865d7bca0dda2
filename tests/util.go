package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduquest/academy/core"
	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/storage/database"
	sqlxrepos "github.com/eduquest/academy/storage/database/sqlx"
)

// DatabaseURLEnv names the variable holding the DSN of a disposable PostgreSQL database.
const DatabaseURLEnv = "EDUQUEST_TEST_DATABASE_URL"

// Inserter is implemented by every account store.
type Inserter interface {
	Insert(ctx context.Context, acc account.Account, invoices ...account.Invoice) error
}

// FastHashing lowers the bcrypt cost for the duration of the test.
func FastHashing(t *testing.T) {
	t.Helper()
	cost := account.HashCost
	account.HashCost = bcrypt.MinCost
	t.Cleanup(func() { account.HashCost = cost })
}

func CreateTeacher(t *testing.T, repo Inserter, uname, pwd string, admin bool) account.Account {
	t.Helper()
	role := account.RoleTeacher
	if admin {
		role = account.RoleAdmin
	}
	acc := account.Account{
		Username:    uname,
		DisplayName: uname + " Teacher",
		Role:        role,
		Email:       uname + "@example.com",
		Teacher:     &account.TeacherProfile{Status: "Instructor"},
	}
	return create(t, repo, acc, pwd)
}

func CreateStudent(
	t *testing.T,
	repo Inserter,
	uname, pwd, teacher, course string,
	progress int,
	invoices ...account.Invoice,
) account.Account {
	t.Helper()
	acc := account.Account{
		Username:    uname,
		DisplayName: uname + " Student",
		Role:        account.RoleStudent,
		Email:       uname + "@example.com",
		Student: &account.StudentProfile{
			StudentID:       "S-" + uname,
			AssignedTeacher: teacher,
			CourseName:      course,
			ProgressPercent: progress,
			NextClass:       time.Date(2025, time.October, 18, 19, 0, 0, 0, time.UTC),
		},
	}
	return create(t, repo, acc, pwd, invoices...)
}

func create(t *testing.T, repo Inserter, acc account.Account, pwd string, invoices ...account.Invoice) account.Account {
	t.Helper()
	if pwd != "" {
		if err := acc.SetPassword(pwd); err != nil {
			t.Fatalf("create(%s) failed: %v", acc.Username, err)
		}
	}
	if err := repo.Insert(context.Background(), acc, invoices...); err != nil {
		t.Fatalf("create(%s) failed: %v", acc.Username, err)
	}
	return acc
}

// Invoice builds an invoice issued on the given day.
func Invoice(id string, issued time.Time, amount int64, paid bool) account.Invoice {
	status := account.InvoiceUnpaid
	if paid {
		status = account.InvoicePaid
	}
	return account.Invoice{ID: id, IssueDate: issued, Amount: amount, Status: status}
}

// PrepareDB connects to the test database, migrates it and empties it.
// The test is skipped when no database is configured.
func PrepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv(DatabaseURLEnv)
	if dsn == "" {
		t.Skipf("%s is not set", DatabaseURLEnv)
	}

	ctx := context.Background()
	db, err := database.OpenURL(ctx, "postgres", dsn)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(ctx, db.DB); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	if err = sqlxrepos.NewAccountRepository(db).Truncate(ctx); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// MemorySession is an account.Session kept in memory.
type MemorySession struct {
	id      account.Identity
	set     bool
	Cleared int
}

var _ account.Session = (*MemorySession)(nil) // interface compliance check

func NewSession(id account.Identity) *MemorySession {
	return &MemorySession{id: id, set: id.Authenticated}
}

func (s *MemorySession) Identity() (account.Identity, bool) { return s.id, s.set }

func (s *MemorySession) SetIdentity(id account.Identity) {
	s.id, s.set = id, true
}

func (s *MemorySession) Clear() {
	s.id, s.set = account.Anonymous, false
	s.Cleared++
}

// LogEntry is a message recorded by Logger.
type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger is a core.Logger that records entries instead of printing them.
type Logger struct {
	mu      sync.Mutex
	Entries []LogEntry
}

var _ core.Logger = (*Logger)(nil) // interface compliance check

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Msg: msg, Args: args})
}

// Has reports whether a message was logged at the given level.
func (l *Logger) Has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if e.Level == level && e.Msg == msg {
			return true
		}
	}
	return false
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }
