package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/storage/sessionstore"
)

var (
	errInvalidCredentials = errors.New("Invalid username or password.")
	errTooManyAttempts    = errors.New("Too many login attempts. Please wait a moment and try again.")
)

type (
	LoginRequest struct {
		Username string `form:"username" validate:"required,max=150"`
		Password string `form:"password" validate:"required,max=128"`
	}

	loginPage struct {
		UserType account.UserType
		Username string
		Error    string
	}
)

func registerAuth(g *echo.Group, s *server, limiter echo.MiddlewareFunc) {
	for _, ut := range []account.UserType{account.UserTypeStudent, account.UserTypeTeacher} {
		ut := ut
		g.GET(ut.LoginRoute(), func(ctx echo.Context) error { return s.loginForm(ctx, ut) })
		g.POST(ut.LoginRoute(), func(ctx echo.Context) error { return s.login(ctx, ut) }, limiter)
	}
	g.GET("/logout", s.logout)
}

// loginUserType infers the portal from the request path.
func loginUserType(ctx echo.Context) account.UserType {
	if ctx.Request().URL.Path == account.UserTypeTeacher.LoginRoute() {
		return account.UserTypeTeacher
	}
	return account.UserTypeStudent
}

func (s *server) renderLogin(ctx echo.Context, code int, ut account.UserType, uname string, err error) error {
	page := loginPage{UserType: ut, Username: uname}
	if err != nil {
		page.Error = err.Error()
	}
	return ctx.Render(code, string(ut)+"_login", page)
}

func (s *server) loginForm(ctx echo.Context, ut account.UserType) error {
	// already signed in through this portal
	if id, ok := s.getSession(ctx).Identity(); ok && id.UserType == ut {
		return ctx.Redirect(http.StatusFound, ut.DashboardRoute())
	}
	return s.renderLogin(ctx, http.StatusOK, ut, "", nil)
}

func (s *server) login(ctx echo.Context, ut account.UserType) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := s.deps.Validate.Struct(data); err != nil {
		loginAttempts.WithLabelValues(string(ut), "failure").Inc()
		return s.renderLogin(ctx, http.StatusOK, ut, data.Username, errInvalidCredentials)
	}

	id, err := s.deps.AccountSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password, ut)
	if err != nil {
		if errors.Cause(err) == account.ErrAuthenticationFailed {
			loginAttempts.WithLabelValues(string(ut), "failure").Inc()
			return s.renderLogin(ctx, http.StatusOK, ut, data.Username, errInvalidCredentials)
		}
		return errors.Wrap(err, "authenticating")
	}

	sess := s.getSession(ctx)
	// the pre-login session id must not stay valid on the server
	if err = sessionstore.Erase(ctx.Request(), sess.sess); err != nil {
		return err
	}
	sess.SetIdentity(id)
	if err = s.saveSession(ctx, sess); err != nil {
		return err
	}
	loginAttempts.WithLabelValues(string(ut), "success").Inc()
	s.deps.Logger.Info("login", map[string]interface{}{"user_type": string(ut), "username": id.Username}, id)
	return ctx.Redirect(http.StatusFound, ut.DashboardRoute())
}

func (s *server) logout(ctx echo.Context) error {
	sess := s.getSession(ctx)
	// the id is kept so server-side stores can erase the data
	for k := range sess.sess.Values {
		delete(sess.sess.Values, k)
	}
	sess.sess.Options.MaxAge = -1
	if err := s.saveSession(ctx, sess); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, "/")
}
