// Package portal assembles the page contexts of the signed-in areas of the portal.
package portal

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/eduquest/academy/core/account"
	"github.com/eduquest/academy/core/course"
)

var ErrInvoiceNotFound = errors.New("invoice not found")

const classDuration = time.Hour

// Assembler only reads from the store. For unchanged data every context is a pure function of the identity.
type Assembler struct {
	repo    account.Repository
	catalog *course.Catalog
}

func NewAssembler(repo account.Repository, catalog *course.Catalog) *Assembler {
	return &Assembler{repo: repo, catalog: catalog}
}

// BuildDashboardContext dispatches on the identity's user type.
func (a *Assembler) BuildDashboardContext(ctx context.Context, id account.Identity) (Context, error) {
	c := Context{Identity: id}
	if !id.Authenticated {
		return c, account.ErrNotAuthenticated
	}

	var err error
	switch id.UserType {
	case account.UserTypeStudent:
		c.Student, err = a.StudentDashboard(ctx, id)
	case account.UserTypeTeacher:
		c.Teacher, err = a.TeacherDashboard(ctx, id)
	default:
		err = account.ErrWrongRole
	}
	return c, err
}

// account returns the identity's account, which must have the given user type.
func (a *Assembler) account(ctx context.Context, id account.Identity, want account.UserType) (account.Account, error) {
	if !id.Authenticated {
		return account.Account{}, account.ErrNotAuthenticated
	}
	if id.UserType != want {
		return account.Account{}, account.ErrWrongRole
	}
	acc, err := a.repo.GetAccountByUsername(ctx, id.Username)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Account{}, account.ErrStaleIdentity
		}
		return account.Account{}, errors.Wrap(err, "finding account")
	}
	if acc.UserType() != want {
		return account.Account{}, account.ErrStaleIdentity
	}
	return acc, nil
}

func (a *Assembler) invoices(ctx context.Context, acc account.Account) ([]account.Invoice, error) {
	invoices, err := a.repo.ListInvoicesFor(ctx, acc.Username)
	if err != nil {
		return nil, errors.Wrap(err, "listing invoices")
	}
	if invoices == nil {
		invoices = []account.Invoice{}
	}
	return invoices, nil
}

func (a *Assembler) teacherName(ctx context.Context, username string) (string, error) {
	if username == "" {
		return "", nil
	}
	teacher, err := a.repo.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return username, nil
		}
		return "", errors.Wrap(err, "finding assigned teacher")
	}
	if teacher.DisplayName == "" {
		return teacher.Username, nil
	}
	return teacher.DisplayName, nil
}

func (a *Assembler) StudentDashboard(ctx context.Context, id account.Identity) (*StudentContext, error) {
	acc, err := a.account(ctx, id, account.UserTypeStudent)
	if err != nil {
		return nil, err
	}
	profile := acc.Student

	invoices, err := a.invoices(ctx, acc)
	if err != nil {
		return nil, err
	}
	teacherName, err := a.teacherName(ctx, profile.AssignedTeacher)
	if err != nil {
		return nil, err
	}

	entry, found := a.catalog.Lookup(profile.CourseName)
	if !found {
		entry = course.Placeholder(profile.CourseName)
	}
	progress := newProgress(profile.ProgressPercent, entry, found)

	upcoming := []UpcomingClass{}
	if !profile.NextClass.IsZero() {
		start := profile.NextClass.UTC()
		upcoming = append(upcoming, UpcomingClass{
			StartsAt: start,
			Date:     start.Format("2006-01-02"),
			Time:     start.Format("15:04") + " - " + start.Add(classDuration).Format("15:04"),
			Topic:    progress.NextModule,
			Teacher:  teacherName,
		})
	}

	return &StudentContext{
		Profile:         newProfile(acc),
		StudentID:       profile.StudentID,
		CourseName:      profile.CourseName,
		Course:          entry,
		Invoices:        invoices,
		TeacherName:     teacherName,
		Progress:        progress,
		UpcomingClasses: upcoming,
	}, nil
}

// TeacherDashboard lists the teacher's own students; admins additionally get the full roster.
func (a *Assembler) TeacherDashboard(ctx context.Context, id account.Identity) (*TeacherContext, error) {
	acc, err := a.account(ctx, id, account.UserTypeTeacher)
	if err != nil {
		return nil, err
	}

	assigned, err := a.repo.ListStudentsForTeacher(ctx, acc.Username)
	if err != nil {
		return nil, errors.Wrap(err, "listing assigned students")
	}
	tc := &TeacherContext{
		Profile:          newProfile(acc),
		IsAdmin:          acc.IsAdmin(),
		AssignedStudents: summarizeStudents(assigned),
	}
	if acc.Teacher != nil {
		tc.Status = acc.Teacher.Status
	}
	if !tc.IsAdmin {
		return tc, nil
	}

	students, err := a.repo.QueryStudents(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	teachers, err := a.repo.QueryTeachers(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing teachers")
	}
	tc.AllStudents = summarizeStudents(students)
	tc.AllTeachers = make([]string, 0, len(teachers))
	for _, t := range teachers {
		tc.AllTeachers = append(tc.AllTeachers, t.Username)
	}
	return tc, nil
}

func (a *Assembler) MyCourse(ctx context.Context, id account.Identity) (*CourseContext, error) {
	acc, err := a.account(ctx, id, account.UserTypeStudent)
	if err != nil {
		return nil, err
	}
	entry, found := a.catalog.Lookup(acc.Student.CourseName)
	if !found {
		entry = course.Placeholder(acc.Student.CourseName)
	}
	return &CourseContext{
		DisplayName: acc.DisplayName,
		CourseName:  acc.Student.CourseName,
		Course:      entry,
		Found:       found,
		Progress:    newProgress(acc.Student.ProgressPercent, entry, found),
	}, nil
}

func (a *Assembler) Invoices(ctx context.Context, id account.Identity) (*InvoicesContext, error) {
	acc, err := a.account(ctx, id, account.UserTypeStudent)
	if err != nil {
		return nil, err
	}
	invoices, err := a.invoices(ctx, acc)
	if err != nil {
		return nil, err
	}
	ic := &InvoicesContext{DisplayName: acc.DisplayName, Invoices: invoices}
	for _, inv := range invoices {
		if !inv.IsPaid() {
			ic.Outstanding += inv.Amount
		}
	}
	return ic, nil
}

// FindInvoice searches only the invoices owned by the identity's own student record,
// so an id shared with another student's invoice can never resolve to it.
func (a *Assembler) FindInvoice(ctx context.Context, id account.Identity, invoiceID string) (account.Invoice, error) {
	if !id.Authenticated || id.UserType != account.UserTypeStudent || invoiceID == "" {
		return account.Invoice{}, ErrInvoiceNotFound
	}
	invoices, err := a.repo.ListInvoicesFor(ctx, id.Username)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return account.Invoice{}, ErrInvoiceNotFound
		}
		return account.Invoice{}, errors.Wrap(err, "listing invoices")
	}
	for _, inv := range invoices {
		if inv.ID == invoiceID {
			return inv, nil
		}
	}
	return account.Invoice{}, ErrInvoiceNotFound
}

func (a *Assembler) InvoicePage(ctx context.Context, id account.Identity, invoiceID string) (*InvoiceContext, error) {
	acc, err := a.account(ctx, id, account.UserTypeStudent)
	if err != nil {
		return nil, err
	}
	inv, err := a.FindInvoice(ctx, id, invoiceID)
	if err != nil {
		return nil, err
	}
	return &InvoiceContext{
		Username:    acc.Username,
		DisplayName: acc.DisplayName,
		Invoice:     inv,
		Reference:   acc.Username + "-" + inv.ID,
	}, nil
}
