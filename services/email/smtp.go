package emailsvc

import (
	"context"
	"crypto/tls"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/eduquest/academy/core"
)

var (
	errNoRecipients = errors.New("email has no recipients")
	errNoStartTLS   = errors.New("smtp server does not support STARTTLS")
)

// SMTPService submits mail over STARTTLS with PLAIN authentication.
type SMTPService struct {
	host     string
	addr     string
	user     string
	password string
	from     mail.Address
	sender   string // envelope sender; the authenticated account when there is one
	timeout  time.Duration

	tlsConfig *tls.Config // nil uses the system roots for host
}

var _ core.EmailService = (*SMTPService)(nil)

func NewSMTPService(conf core.EmailConfig, from mail.Address) *SMTPService {
	sender := conf.User
	if sender == "" {
		sender = from.Address
	}
	return &SMTPService{
		host:     conf.Host,
		addr:     net.JoinHostPort(conf.Host, strconv.Itoa(conf.Port)),
		user:     conf.User,
		password: conf.Password,
		from:     from,
		sender:   sender,
		timeout:  conf.Timeout,
	}
}

func (svc *SMTPService) Name() string { return "smtp" }

func (svc *SMTPService) Send(ctx context.Context, msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		return errors.Wrap(err, "rendering email")
	}
	if !msg.HasRecipients() {
		return errNoRecipients
	}
	raw, err := buildMIME(svc.from, msg)
	if err != nil {
		return err
	}

	if svc.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, svc.timeout)
		defer cancel()
	}
	return svc.submit(ctx, msg.Recipients(), raw)
}

func (svc *SMTPService) submit(ctx context.Context, rcpts []string, raw []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", svc.addr)
	if err != nil {
		return errors.Wrap(err, "dialing smtp server")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	c, err := smtp.NewClient(conn, svc.host)
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "greeting smtp server")
	}
	//goland:noinspection GoUnhandledErrorResult
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); !ok {
		return errNoStartTLS
	}
	tlsConfig := svc.tlsConfig
	if tlsConfig == nil {
		tlsConfig = &tls.Config{ServerName: svc.host, MinVersion: tls.VersionTLS12}
	}
	if err = c.StartTLS(tlsConfig); err != nil {
		return errors.Wrap(err, "starting tls")
	}
	if err = c.Auth(smtp.PlainAuth("", svc.user, svc.password, svc.host)); err != nil {
		return errors.Wrap(err, "authenticating")
	}
	if err = c.Mail(svc.sender); err != nil {
		return errors.Wrap(err, "MAIL FROM")
	}
	for _, rcpt := range rcpts {
		if err = c.Rcpt(rcpt); err != nil {
			return errors.Wrapf(err, "RCPT TO %s", rcpt)
		}
	}
	w, err := c.Data()
	if err != nil {
		return errors.Wrap(err, "DATA")
	}
	if _, err = w.Write(raw); err != nil {
		return errors.Wrap(err, "writing message")
	}
	if err = w.Close(); err != nil {
		return errors.Wrap(err, "closing message")
	}
	return errors.Wrap(c.Quit(), "QUIT")
}
