// Package mailer delivers the digest over an authenticated SMTP relay
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/textproto"
	"regexp"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/wneessen/go-mail"

	"github.com/umputun/rssdigest/pkg/domain"
)

// delivery error kinds, check with errors.Is
var (
	ErrAuth       = errors.New("smtp authentication failed")
	ErrConnection = errors.New("smtp connection failed")
)

// TLS modes
const (
	TLSMandatory     = "mandatory"     // STARTTLS required
	TLSOpportunistic = "opportunistic" // STARTTLS if offered
	TLSNone          = "none"
)

// Config defines SMTP relay parameters
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // defaults to Username
	To       string
	TLS      string // one of TLSMandatory, TLSOpportunistic, TLSNone
	SSL      bool   // implicit TLS, usually port 465
	Timeout  time.Duration
}

// SMTPSender sends digests via SMTP
type SMTPSender struct {
	cfg Config
}

// NewSMTPSender makes a sender, applying defaults for empty From, TLS and Timeout
func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.TLS == "" {
		cfg.TLS = TLSMandatory
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg}
}

// Send delivers the digest, plain text first and html as the alternative part.
// Errors wrap ErrAuth or ErrConnection. There is no retry.
func (s *SMTPSender) Send(ctx context.Context, d domain.Digest) error {
	msg, err := s.message(d)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("make smtp client: %w", err)
	}

	lgr.Printf("[DEBUG] sending %q to %s via %s:%d", d.Subject, s.cfg.To, s.cfg.Host, s.cfg.Port)
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return classify(err)
	}
	lgr.Printf("[INFO] digest sent to %s", s.cfg.To)
	return nil
}

// message composes the mail message for the digest
func (s *SMTPSender) message(d domain.Digest) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("set from address %q: %w", s.cfg.From, err)
	}
	if err := msg.To(s.cfg.To); err != nil {
		return nil, fmt.Errorf("set recipient address %q: %w", s.cfg.To, err)
	}
	msg.Subject(d.Subject)
	msg.SetDate()
	msg.SetMessageID()
	// order matters, mail clients prefer the last alternative they can render
	msg.SetBodyString(mail.TypeTextPlain, d.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, d.HTML)
	return msg, nil
}

func (s *SMTPSender) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	}
	switch {
	case s.cfg.SSL:
		opts = append(opts, mail.WithSSL())
	case s.cfg.TLS == TLSOpportunistic:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case s.cfg.TLS == TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	// port goes last, WithSSL resets it to 465
	if s.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(s.cfg.Port))
	}
	return opts
}

// classify wraps a delivery error with ErrAuth or ErrConnection
func classify(err error) error {
	if isAuthError(err) {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// authCodes are smtp replies meaning the credentials were rejected or auth is required
var authCodes = map[int]bool{530: true, 534: true, 535: true, 538: true}

// authReply matches an auth reply code at the start of an smtp reply embedded in error text
var authReply = regexp.MustCompile(`(?:^|[\s(])(53[0458])[ -]`)

func isAuthError(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return authCodes[tpErr.Code]
	}
	// the reply is not always kept typed, fall back to the code in the message
	return authReply.MatchString(err.Error())
}
