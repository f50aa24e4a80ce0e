package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/noah-isme/student-affairs-api/pkg/config"
)

// Message is a single outbound email. Every recipient receives a separate
// copy addressed only to them.
type Message struct {
	To      []string
	Subject string
	Body    string
	HTML    bool
}

type dialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPSender delivers messages through an SMTP relay.
type SMTPSender struct {
	client dialer
	addr   string
	from   string
	now    func() time.Time
}

// NewSMTPSender configures a sender from mail settings. Authentication is only
// attempted when a username is set; STARTTLS is used when the relay offers it.
func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("mailer: configure client: %w", err)
	}
	return &SMTPSender{
		client: client,
		addr:   fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:   cfg.From,
		now:    time.Now,
	}, nil
}

// Send writes msg to the relay in one SMTP session. ctx bounds the dial and
// the transfer.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	messages, err := s.build(msg)
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, messages...); err != nil {
		return fmt.Errorf("mailer: send to %s: %w", s.addr, err)
	}
	return nil
}

func (s *SMTPSender) build(msg Message) ([]*mail.Msg, error) {
	contentType := mail.TypeTextPlain
	if msg.HTML {
		contentType = mail.TypeTextHTML
	}

	messages := make([]*mail.Msg, 0, len(msg.To))
	for _, to := range msg.To {
		to = strings.TrimSpace(to)
		if to == "" {
			continue
		}
		m := mail.NewMsg(mail.WithEncoding(mail.EncodingQP), mail.WithCharset(mail.CharsetUTF8))
		if err := m.From(s.from); err != nil {
			return nil, fmt.Errorf("mailer: sender %q: %w", s.from, err)
		}
		if err := m.To(to); err != nil {
			return nil, fmt.Errorf("mailer: recipient %q: %w", to, err)
		}
		m.Subject(msg.Subject)
		m.SetDateWithValue(s.now().UTC())
		m.SetMessageID()
		m.SetBodyString(contentType, msg.Body)
		messages = append(messages, m)
	}
	if len(messages) == 0 {
		return nil, fmt.Errorf("mailer: no recipients")
	}
	return messages, nil
}
