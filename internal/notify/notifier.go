package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/sirupsen/logrus"

	"github.com/startupjobs/jobboard-service/internal/config"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
)

// Template names used by the intake flow
const (
	TemplateNewJob                 = "new_job"
	TemplateSubmissionNotification = "submission_notification"
)

// Notifier delivers a templated message to one recipient
type Notifier interface {
	Notify(ctx context.Context, recipient, templateName string, vars map[string]string) error
}

// NewNotifier builds the notifier selected by configuration
func NewNotifier(cfg config.MailConfig, logger logrus.FieldLogger) (Notifier, error) {
	catalog, err := LoadCatalog(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case "smtp":
		return NewSMTPNotifier(cfg, catalog)
	case "log":
		return NewLogNotifier(catalog, logger), nil
	default:
		return nil, fmt.Errorf("unsupported mail transport: %s", cfg.Transport)
	}
}

// LogNotifier renders messages and writes them to the log instead of sending them
type LogNotifier struct {
	catalog *Catalog
	logger  logrus.FieldLogger
}

// NewLogNotifier creates a notifier for development environments
func NewLogNotifier(catalog *Catalog, logger logrus.FieldLogger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{catalog: catalog, logger: logger}
}

// Notify renders the message and logs it
func (n *LogNotifier) Notify(ctx context.Context, recipient, templateName string, vars map[string]string) error {
	subject, body, err := n.catalog.Render(templateName, vars)
	if err != nil {
		return apperrors.Notifier("failed to render notification", err)
	}
	n.logger.WithFields(logrus.Fields{
		"to":       recipient,
		"template": templateName,
		"subject":  subject,
	}).Info("notification")
	n.logger.WithField("to", recipient).Debug(body)
	return nil
}

type sendFunc func(ctx context.Context, from string, to []string, msg []byte) error

// SMTPNotifier composes RFC 5322 messages and relays them through an SMTP server
type SMTPNotifier struct {
	catalog *Catalog
	host    string
	addr    string
	auth    smtp.Auth
	timeout time.Duration
	from    *mail.Address
	now     func() time.Time
	send    sendFunc
}

// NewSMTPNotifier creates an SMTP-backed notifier. Every delivery is bounded by SMTPTimeout.
func NewSMTPNotifier(cfg config.MailConfig, catalog *Catalog) (*SMTPNotifier, error) {
	from, err := mail.ParseAddress(cfg.Sender)
	if err != nil {
		return nil, fmt.Errorf("invalid MAIL_SENDER %q: %w", cfg.Sender, err)
	}

	var auth smtp.Auth
	if cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPHost)
	}

	timeout := cfg.SMTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	n := &SMTPNotifier{
		catalog: catalog,
		host:    cfg.SMTPHost,
		addr:    net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		auth:    auth,
		timeout: timeout,
		from:    from,
		now:     time.Now,
	}
	n.send = n.sendMail
	return n, nil
}

// Notify renders and sends the message
func (n *SMTPNotifier) Notify(ctx context.Context, recipient, templateName string, vars map[string]string) error {
	if err := ctx.Err(); err != nil {
		return apperrors.Notifier("notification cancelled", err)
	}

	to, err := mail.ParseAddress(recipient)
	if err != nil {
		return apperrors.Notifier(fmt.Sprintf("invalid recipient %q", recipient), err)
	}

	subject, body, err := n.catalog.Render(templateName, vars)
	if err != nil {
		return apperrors.Notifier("failed to render notification", err)
	}

	msg, err := n.compose(to, subject, body)
	if err != nil {
		return apperrors.Notifier("failed to compose notification", err)
	}

	if err := n.send(ctx, n.from.Address, []string{to.Address}, msg); err != nil {
		return apperrors.Notifier(fmt.Sprintf("failed to send %s to %s", templateName, to.Address), err)
	}
	return nil
}

func (n *SMTPNotifier) compose(to *mail.Address, subject, body string) ([]byte, error) {
	var h mail.Header
	h.SetDate(n.now())
	h.SetAddressList("From", []*mail.Address{n.from})
	h.SetAddressList("To", []*mail.Address{to})
	h.SetSubject(subject)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	if err := h.GenerateMessageID(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// sendMail runs one SMTP transaction. The connection deadline is the earlier of ctx's deadline
// and the configured timeout, and cancelling ctx closes the connection.
func (n *SMTPNotifier) sendMail(ctx context.Context, from string, to []string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("failed to dial %s: %w", n.addr, err)
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to set deadline: %w", err)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, n.host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to read greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: n.host}); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}
	if n.auth != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := c.Auth(n.auth); err != nil {
			return fmt.Errorf("failed to authenticate: %w", err)
		}
	}
	if err := c.Mail(from); err != nil {
		return fmt.Errorf("MAIL FROM rejected: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("RCPT TO rejected: %w", err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA rejected: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("message rejected: %w", err)
	}
	return c.Quit()
}
