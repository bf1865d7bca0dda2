package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/eduquest/academy/core"
	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/core/course"
	"github.com/eduquest/academy/core/portal"
	"github.com/eduquest/academy/core/registration"
	appfs "github.com/eduquest/academy/fs"
)

const defaultSessionName = "eduquest_session"

type (
	// ServerDeps holds everything the HTTP layer needs.
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		AccountSvc      *account.Service
		Guard           *account.Guard
		Assembler       *portal.Assembler
		Catalog         *course.Catalog
		RegistrationSvc *registration.Service
		Sessions        sessions.Store
		Validate        *validator.Validate
		Translator      ut.Translator
	}

	serverOptions struct {
		SessionName    string
		LoginRateLimit float64
		DisableReqLogs bool
	}

	server struct {
		deps     ServerDeps
		opts     serverOptions
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(ctx context.Context) error
		Close() error
	}
)

var _ Server = (*server)(nil)

// NewServer builds the portal server. It fails if the page templates cannot be parsed.
func NewServer(deps ServerDeps) (Server, error) {
	s := &server{
		deps: deps,
		opts: serverOptions{
			SessionName:    deps.Conf.Session.Name,
			LoginRateLimit: deps.Conf.Server.LoginRateLimit,
			DisableReqLogs: deps.Conf.TestMode,
		},
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if s.opts.SessionName == "" {
		s.opts.SessionName = defaultSessionName
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	renderer, err := NewRenderer(appfs.FS, deps.Conf.Build)
	if err != nil {
		return nil, err
	}
	s.app.Renderer = renderer
	s.setup()
	return s, nil
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Server.ReadTimeout = conf.Server.ReadTimeout
	s.app.Server.WriteTimeout = conf.Server.WriteTimeout
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestID())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(metricsMiddleware)
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	// ops
	s.app.GET("/_status", s.status)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.app.StaticFS("/static", echo.MustSubFS(appfs.FS, "assets/static"))

	// everything below sees the session
	site := s.app.Group("", s.loadSession)
	registerPages(site, s)
	registerAuth(site, s, s.loginRateLimiter())
	registerPortal(site, s)

	site.POST("/api/chat", s.chat)
}

func (s *server) loginRateLimiter() echo.MiddlewareFunc {
	if s.opts.LoginRateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := int(s.opts.LoginRateLimit * 5)
	if burst < 1 {
		burst = 1
	}
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: func(ctx echo.Context) bool { return ctx.Request().Method != http.MethodPost },
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(s.opts.LoginRateLimit),
			Burst:     burst,
			ExpiresIn: 10 * time.Minute,
		}),
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			loginAttempts.WithLabelValues(string(loginUserType(ctx)), "throttled").Inc()
			return s.renderLogin(ctx, http.StatusTooManyRequests, loginUserType(ctx), "", errTooManyAttempts)
		},
	})
}

func (s *server) loadSession(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		s.getSession(ctx)
		return next(ctx)
	}
}

func (s *server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *server) Start() {
	addr := s.deps.Conf.Server.Address()
	s.deps.Logger.Info("API listening on " + addr)
	if err := s.app.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.errors <- err
	}
}

func (s *server) Errors() <-chan error             { return s.errors }
func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}
