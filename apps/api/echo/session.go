package echoapi

import (
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduquest/academy/core/account"
)

const (
	// session value keys
	keyLoggedIn         = "logged_in"
	keyUserType         = "user_type"
	keyUsername         = "username"
	keyRole             = "role"
	keyRegistrationName = "registration_name"

	// echo.Context keys
	ctxSessionKey  = "eduquest.session"
	ctxIdentityKey = "eduquest.identity"
)

// webSession adapts a gorilla session to account.Session.
type webSession struct {
	sess *sessions.Session
}

var _ account.Session = (*webSession)(nil)

func (s *webSession) Identity() (account.Identity, bool) {
	if loggedIn, _ := s.sess.Values[keyLoggedIn].(bool); !loggedIn {
		return account.Anonymous, false
	}
	uname, _ := s.sess.Values[keyUsername].(string)
	rawType, _ := s.sess.Values[keyUserType].(string)
	rawRole, _ := s.sess.Values[keyRole].(string)

	ut, err := account.ParseUserType(rawType)
	if err != nil || uname == "" {
		return account.Anonymous, false
	}
	role, err := account.ParseRole(rawRole)
	if err != nil {
		return account.Anonymous, false
	}
	return account.Identity{Authenticated: true, UserType: ut, Username: uname, Role: role}, true
}

// SetIdentity replaces everything in the session with id.
func (s *webSession) SetIdentity(id account.Identity) {
	s.Clear()
	s.sess.Values[keyLoggedIn] = true
	s.sess.Values[keyUserType] = string(id.UserType)
	s.sess.Values[keyUsername] = id.Username
	s.sess.Values[keyRole] = string(id.Role)
}

func (s *webSession) Clear() {
	for k := range s.sess.Values {
		delete(s.sess.Values, k)
	}
	// server-side stores issue a fresh id on the next save
	s.sess.ID = ""
}

// pop returns and removes a string value.
func (s *webSession) pop(key string) (string, bool) {
	v, ok := s.sess.Values[key].(string)
	delete(s.sess.Values, key)
	return v, ok
}

func (s *webSession) set(key string, v interface{}) {
	s.sess.Values[key] = v
}

// getSession loads the request session once per request.
// An unreadable cookie (bad signature, expired server-side data) yields a fresh session.
func (srv *server) getSession(ctx echo.Context) *webSession {
	if ws, ok := ctx.Get(ctxSessionKey).(*webSession); ok {
		return ws
	}
	sess, err := srv.deps.Sessions.Get(ctx.Request(), srv.opts.SessionName)
	if err != nil {
		srv.deps.Logger.Debug("discarding unreadable session", err)
	}
	if sess == nil {
		sess = sessions.NewSession(srv.deps.Sessions, srv.opts.SessionName)
		sess.Options = &sessions.Options{Path: "/", HttpOnly: true}
		sess.IsNew = true
	}
	ws := &webSession{sess: sess}
	ctx.Set(ctxSessionKey, ws)
	return ws
}

func (srv *server) saveSession(ctx echo.Context, ws *webSession) error {
	return errors.Wrap(ws.sess.Save(ctx.Request(), ctx.Response()), "saving session")
}

// contextIdentity is the guarded identity, else whatever the session claims (only used for navigation).
func contextIdentity(ctx echo.Context) account.Identity {
	if id, ok := ctx.Get(ctxIdentityKey).(account.Identity); ok {
		return id
	}
	if ws, ok := ctx.Get(ctxSessionKey).(*webSession); ok {
		if id, ok := ws.Identity(); ok {
			return id
		}
	}
	return account.Anonymous
}
