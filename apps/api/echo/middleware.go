package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduquest/academy/core/account"
)

func redirectReason(err error) string {
	switch errors.Cause(err) {
	case account.ErrNotAuthenticated:
		return "anonymous"
	case account.ErrWrongRole:
		return "wrong_role"
	case account.ErrStaleIdentity:
		return "stale"
	}
	return "other"
}

// redirectToLogin sends the visitor to the login page of ut, persisting a session cleared by the guard.
func (s *server) redirectToLogin(ctx echo.Context, ut account.UserType, cause error) error {
	guardRedirects.WithLabelValues(string(ut), redirectReason(cause)).Inc()
	if errors.Cause(cause) == account.ErrStaleIdentity {
		if err := s.saveSession(ctx, s.getSession(ctx)); err != nil {
			return err
		}
	}
	return ctx.Redirect(http.StatusFound, ut.LoginRoute())
}

// requireUserType lets through only sessions whose identity may visit pages reserved for ut.
func (s *server) requireUserType(ut account.UserType) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			id, err := s.deps.Guard.Require(ctx.Request().Context(), s.getSession(ctx), ut)
			if err != nil {
				if account.IsRedirect(err) {
					return s.redirectToLogin(ctx, ut, err)
				}
				return errors.Wrap(err, "checking session")
			}
			ctx.Set(ctxIdentityKey, id)
			return next(ctx)
		}
	}
}

func getContextIdentity(ctx echo.Context) (account.Identity, error) {
	if id, ok := ctx.Get(ctxIdentityKey).(account.Identity); ok && id.Authenticated {
		return id, nil
	}
	return account.Anonymous, account.ErrNotAuthenticated
}
