package emailsvc

import (
	"context"
	"net/mail"
	"sync"

	"github.com/pkg/errors"

	"github.com/eduquest/academy/core"
)

// ConsoleService logs messages instead of delivering them and always reports success.
// It stands in for a real transport when none is configured.
type ConsoleService struct {
	from          mail.Address
	logger        core.Logger
	disableOutput bool

	mu   sync.Mutex
	sent []core.EmailMessage
}

var _ core.EmailService = (*ConsoleService)(nil)

func NewConsoleService(from mail.Address, logger core.Logger) *ConsoleService {
	return &ConsoleService{from: from, logger: logger}
}

// NewConsoleServiceMock records messages without logging them.
func NewConsoleServiceMock() *ConsoleService {
	return &ConsoleService{from: mail.Address{Address: "no-reply@test.test"}, disableOutput: true}
}

func (svc *ConsoleService) Name() string { return "console" }

func (svc *ConsoleService) Send(_ context.Context, msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	raw, err := buildMIME(svc.from, msg)
	if err != nil {
		return err
	}

	svc.mu.Lock()
	svc.sent = append(svc.sent, *msg)
	svc.mu.Unlock()

	if !svc.disableOutput && svc.logger != nil {
		if !msg.HasRecipients() {
			svc.logger.Warn("email has no recipient configured")
		}
		svc.logger.Info("simulated email send\n" + string(raw))
	}
	return nil
}

// SentMessages returns a copy of every message passed to Send.
func (svc *ConsoleService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]core.EmailMessage(nil), svc.sent...)
}
