package account

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduquest/academy/core"
)

var (
	// errors
	ErrNotFound             = errors.New("account not found")
	ErrUsernameExists       = errors.New("an account with this username already exists")
	ErrAuthenticationFailed = errors.New("invalid username or password")

	dummyHash     []byte
	dummyHashOnce sync.Once
)

type (
	// Repository is the Credential Store. Username lookups are case-insensitive.
	Repository interface {
		GetAccountByUsername(ctx context.Context, username string) (Account, error)
		// ListInvoicesFor returns the invoices owned by the given student, oldest first.
		ListInvoicesFor(ctx context.Context, studentUsername string) ([]Invoice, error)
		// ListStudentsForTeacher returns the students whose assigned teacher is teacherUsername, ordered by username.
		ListStudentsForTeacher(ctx context.Context, teacherUsername string) ([]Account, error)
		// QueryStudents returns every student account, ordered by username.
		QueryStudents(ctx context.Context) ([]Account, error)
		// QueryTeachers returns every teacher and admin account, ordered by username.
		QueryTeachers(ctx context.Context) ([]Account, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate verifies a username/password pair submitted through the login entry point for `expected`.
// Every credential or role mismatch yields ErrAuthenticationFailed; the store is never written.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string, expected UserType) (Identity, error) {
	uname = core.CleanString(uname)
	if uname == "" {
		return Anonymous, ErrAuthenticationFailed
	}

	acc, err := svc.repo.GetAccountByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			// spend the same hashing time as for a known user
			_ = bcrypt.CompareHashAndPassword(getDummyHash(), []byte(pwd))
			return Anonymous, ErrAuthenticationFailed
		}
		return Anonymous, errors.Wrap(err, "finding account by username")
	}
	if err = acc.CheckPassword(pwd); err != nil {
		return Anonymous, ErrAuthenticationFailed
	}
	if acc.UserType() != expected {
		return Anonymous, ErrAuthenticationFailed
	}
	return NewIdentity(acc), nil
}

func getDummyHash() []byte {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("eduquest.account.dummy"), HashCost)
	})
	return dummyHash
}
