package account

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrWrongRole        = errors.New("wrong user type for this page")
	ErrStaleIdentity    = errors.New("session refers to a missing account")
)

// Guard checks the session identity of protected requests.
//
// A session is either Anonymous or Authenticated(identity). It becomes
// Authenticated only through Service.Authenticate and returns to Anonymous on
// logout or when the referenced account no longer exists.
type Guard struct {
	repo Repository
}

func NewGuard(repo Repository) *Guard {
	return &Guard{repo: repo}
}

// Require returns the session identity if it may visit pages reserved for `required`.
// ErrNotAuthenticated, ErrWrongRole and ErrStaleIdentity all mean: redirect to required.LoginRoute().
// The session is cleared on ErrStaleIdentity. Any other error comes from the store.
func (g *Guard) Require(ctx context.Context, sess Session, required UserType) (Identity, error) {
	id, ok := sess.Identity()
	if !ok || !id.Authenticated {
		return Anonymous, ErrNotAuthenticated
	}
	if id.UserType != required {
		return Anonymous, ErrWrongRole
	}

	acc, err := g.repo.GetAccountByUsername(ctx, id.Username)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			sess.Clear()
			return Anonymous, ErrStaleIdentity
		}
		return Anonymous, errors.Wrap(err, "finding session account")
	}
	if acc.UserType() != required {
		sess.Clear()
		return Anonymous, ErrStaleIdentity
	}

	// role changes in the store take effect on the next request
	id.Role = acc.Role
	return id, nil
}

// IsRedirect reports whether err is one of the Guard outcomes handled by sending the visitor to a login page.
func IsRedirect(err error) bool {
	switch errors.Cause(err) {
	case ErrNotAuthenticated, ErrWrongRole, ErrStaleIdentity:
		return true
	}
	return false
}
