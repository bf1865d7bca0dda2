package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduquest/academy/core"
	"github.com/eduquest/academy/core/chat"
	"github.com/eduquest/academy/core/course"
	"github.com/eduquest/academy/core/registration"
)

const registrationSuccessRoute = "/registration_success"

type (
	coursesPage struct {
		Courses []course.Entry
	}

	registrationPage struct {
		Form    registration.Form
		Errors  map[string]string
		Levels  []string
		Courses []string
	}

	registrationSuccessPage struct {
		Name string
	}

	statusResponse struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
		Build     string    `json:"build"`
	}
)

// staticPages are rendered with no data.
var staticPages = map[string]string{
	"/":                     "home",
	"/about":                "about",
	"/contact":              "contact",
	"/foundation_phase":     "foundation_phase",
	"/intermediate_phase":   "intermediate_phase",
	"/advance_phase":        "advance_phase",
	"/terms_and_conditions": "terms_and_conditions",
}

func registerPages(g *echo.Group, s *server) {
	for route, page := range staticPages {
		page := page
		g.GET(route, func(ctx echo.Context) error { return ctx.Render(http.StatusOK, page, nil) })
	}
	g.GET("/courses", s.courses)
	g.GET("/register", s.registrationForm)
	g.POST("/register", s.register)
	g.GET(registrationSuccessRoute, s.registrationSuccess)
}

func (s *server) courses(ctx echo.Context) error {
	return ctx.Render(http.StatusOK, "courses", coursesPage{Courses: s.deps.Catalog.Entries()})
}

func (s *server) renderRegistration(ctx echo.Context, code int, form registration.Form, fldErrs map[string]string) error {
	return ctx.Render(code, "registration", registrationPage{
		Form:    form,
		Errors:  fldErrs,
		Levels:  registration.Levels,
		Courses: registration.Courses,
	})
}

func (s *server) registrationForm(ctx echo.Context) error {
	return s.renderRegistration(ctx, http.StatusOK, registration.Form{}, nil)
}

func (s *server) register(ctx echo.Context) error {
	var form registration.Form
	if err := ctx.Bind(&form); err != nil {
		return errors.Wrap(err, "binding to registration.Form")
	}
	if err := form.Validate(s.deps.Validate, s.deps.Translator); err != nil {
		var vErr *core.ValidationError
		if errors.As(err, &vErr) {
			return s.renderRegistration(ctx, http.StatusBadRequest, form, vErr.FieldMap())
		}
		return err
	}

	delivered := s.deps.RegistrationSvc.Submit(ctx.Request().Context(), form)
	registrations.WithLabelValues(boolLabel(delivered)).Inc()

	sess := s.getSession(ctx)
	sess.set(keyRegistrationName, form.GreetingName())
	if err := s.saveSession(ctx, sess); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, registrationSuccessRoute)
}

func (s *server) registrationSuccess(ctx echo.Context) error {
	sess := s.getSession(ctx)
	name, ok := sess.pop(keyRegistrationName)
	if ok {
		if err := s.saveSession(ctx, sess); err != nil {
			return err
		}
	}
	if name == "" {
		name = registration.DefaultName
	}
	return ctx.Render(http.StatusOK, "registration_success", registrationSuccessPage{Name: name})
}

func (s *server) status(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, statusResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Build:     s.deps.Conf.Build,
	})
}

func (s *server) chat(ctx echo.Context) error {
	var data chat.Request
	if err := ctx.Bind(&data); err != nil {
		return err
	}
	if err := core.ValidateStruct(s.deps.Validate, s.deps.Translator, data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chat.Response{Response: chat.Reply(data.Message)})
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
