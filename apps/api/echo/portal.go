package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/core/portal"
)

const invoicesRoute = "/invoices"

// registerPortal adds the protected pages. Guards are per route: a guarded sub-group would also catch unknown paths.
func registerPortal(g *echo.Group, s *server) {
	student := s.requireUserType(account.UserTypeStudent)
	g.GET(account.UserTypeStudent.DashboardRoute(), s.studentDashboard, student)
	g.GET("/my_course", s.myCourse, student)
	g.GET(invoicesRoute, s.invoices, student)
	g.GET("/payment_options/:invoice_id", s.invoicePage("payments"), student)
	g.GET("/international_details/:invoice_id", s.invoicePage("international_details"), student)

	teacher := s.requireUserType(account.UserTypeTeacher)
	g.GET(account.UserTypeTeacher.DashboardRoute(), s.teacherDashboard, teacher)
}

// handlePortalError turns assembler outcomes into redirects.
func (s *server) handlePortalError(ctx echo.Context, ut account.UserType, err error) error {
	if account.IsRedirect(err) {
		if errors.Cause(err) == account.ErrStaleIdentity {
			s.getSession(ctx).Clear()
		}
		return s.redirectToLogin(ctx, ut, err)
	}
	return err
}

func (s *server) studentDashboard(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeStudent, err)
	}
	data, err := s.deps.Assembler.BuildDashboardContext(ctx.Request().Context(), id)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeStudent, err)
	}
	return ctx.Render(http.StatusOK, "student_dashboard", data.Student)
}

func (s *server) teacherDashboard(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeTeacher, err)
	}
	data, err := s.deps.Assembler.BuildDashboardContext(ctx.Request().Context(), id)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeTeacher, err)
	}
	return ctx.Render(http.StatusOK, "teacher_dashboard", data.Teacher)
}

func (s *server) myCourse(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeStudent, err)
	}
	data, err := s.deps.Assembler.MyCourse(ctx.Request().Context(), id)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeStudent, err)
	}
	return ctx.Render(http.StatusOK, "my_course", data)
}

func (s *server) invoices(ctx echo.Context) error {
	id, err := getContextIdentity(ctx)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeStudent, err)
	}
	data, err := s.deps.Assembler.Invoices(ctx.Request().Context(), id)
	if err != nil {
		return s.handlePortalError(ctx, account.UserTypeStudent, err)
	}
	return ctx.Render(http.StatusOK, "invoices", data)
}

// invoicePage renders one of the student's own invoices; unknown ids go back to the invoice list.
func (s *server) invoicePage(page string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id, err := getContextIdentity(ctx)
		if err != nil {
			return s.handlePortalError(ctx, account.UserTypeStudent, err)
		}
		data, err := s.deps.Assembler.InvoicePage(ctx.Request().Context(), id, ctx.Param("invoice_id"))
		if err != nil {
			if errors.Cause(err) == portal.ErrInvoiceNotFound {
				return ctx.Redirect(http.StatusFound, invoicesRoute)
			}
			return s.handlePortalError(ctx, account.UserTypeStudent, err)
		}
		return ctx.Render(http.StatusOK, page, data)
	}
}
