// Package registration turns the public course registration form into a lead email.
package registration

import (
	"context"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/eduquest/academy/core"
)

const (
	Subject      = "NEW COURSE REGISTRATION - EduQuest Website"
	templateName = "registration_lead"

	// DefaultName greets visitors whose name is not known.
	DefaultName = "Valued Student"
)

var (
	Levels  = []string{"Beginner", "Elementary", "Intermediate", "Upper Intermediate", "Advanced"}
	Courses = []string{"Let's Begin (Foundation Phase)", "Intermediate Phase (B1)", "Advance Phase"}
)

type Form struct {
	FullName        string `form:"full_name" json:"full_name" validate:"required,max=100"`
	Email           string `form:"email" json:"email" validate:"required,email,max=254"`
	Phone           string `form:"phone" json:"phone" validate:"omitempty,phone"`
	StudentAge      string `form:"student_age" json:"student_age" validate:"omitempty,numeric,max=3"`
	CurrentLevel    string `form:"current_level" json:"current_level" validate:"max=50"`
	PreferredCourse string `form:"preferred_course" json:"preferred_course" validate:"max=100"`
	Notes           string `form:"notes" json:"notes" validate:"max=2000"`
}

// Clean trims every field.
func (f *Form) Clean() {
	f.FullName = core.CleanString(f.FullName)
	f.Email = core.CleanString(f.Email, true)
	f.Phone = core.CleanString(f.Phone)
	f.StudentAge = core.CleanString(f.StudentAge)
	f.CurrentLevel = core.CleanString(f.CurrentLevel)
	f.PreferredCourse = core.CleanString(f.PreferredCourse)
	f.Notes = core.CleanString(f.Notes)
}

func (f *Form) Validate(validate *validator.Validate, translator ut.Translator) error {
	f.Clean()
	return core.ValidateStruct(validate, translator, f)
}

// GreetingName is the name shown on the success page.
func (f Form) GreetingName() string {
	if f.FullName == "" {
		return DefaultName
	}
	return f.FullName
}

type Service struct {
	mailSvc   core.EmailService
	recipient mail.Address
	timeout   time.Duration
	logger    core.Logger
}

func NewService(mailSvc core.EmailService, recipient mail.Address, timeout time.Duration, logger core.Logger) *Service {
	return &Service{mailSvc: mailSvc, recipient: recipient, timeout: timeout, logger: logger}
}

func (svc *Service) message(form Form) *core.EmailMessage {
	msg := &core.EmailMessage{
		Subject:      Subject,
		TemplateName: templateName,
		TemplateData: form,
	}
	if svc.recipient.Address != "" {
		msg.To = []mail.Address{svc.recipient}
	}
	if form.Email != "" {
		msg.ReplyTo = &mail.Address{Name: form.FullName, Address: form.Email}
	}
	return msg
}

// Submit emails the lead to the academy and reports whether it was delivered.
// Delivery failures are logged and never surface to the visitor.
func (svc *Service) Submit(ctx context.Context, form Form) bool {
	svc.logger.Info("registration received", map[string]interface{}{
		"full_name":        form.FullName,
		"email":            form.Email,
		"phone":            form.Phone,
		"student_age":      form.StudentAge,
		"current_level":    form.CurrentLevel,
		"preferred_course": form.PreferredCourse,
	})

	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}

	if err := svc.mailSvc.Send(ctx, svc.message(form)); err != nil {
		svc.logger.Error("sending registration email", errors.Wrapf(err, "via %s", svc.mailSvc.Name()))
		return false
	}
	svc.logger.Info("registration email sent", map[string]interface{}{"to": svc.recipient.Address, "via": svc.mailSvc.Name()})
	return true
}
