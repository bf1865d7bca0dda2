// Package emailsvc provides the email transports behind core.EmailService.
package emailsvc

import (
	"github.com/eduquest/academy/core"
)

// NewService picks the transport for conf: Sendgrid when an API key is set,
// SMTP when the SMTP settings are complete, else the console.
func NewService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.Email.From(conf.AppName)
	switch {
	case conf.Email.SendgridAPIKey != "":
		return NewSendgridService(conf.Email.SendgridAPIKey, from)
	case conf.Email.SMTPConfigured():
		return NewSMTPService(conf.Email, from)
	default:
		logger.Warn("Email settings are not configured. Registration emails will be simulated.")
		return NewConsoleService(from, logger)
	}
}
