// Package mailer renders and dispatches transactional and bulk email.
package mailer

import (
	"context"
	"sync"

	gomail "gopkg.in/gomail.v2"

	"github.com/NYARANGA-ROB/Smart/internal/config"
	"github.com/NYARANGA-ROB/Smart/pkg/logger"
	"github.com/NYARANGA-ROB/Smart/pkg/metrics"
)

// Sender delivers one rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// SMTPSender implements Sender over gomail.
type SMTPSender struct {
	dialer *gomail.Dialer
	from   string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	return s.dialer.DialAndSend(m)
}

// Outcome records the delivery result for one recipient of a bulk send.
type Outcome struct {
	To    string `json:"to"`
	Sent  bool   `json:"sent"`
	Error string `json:"error,omitempty"`
}

// Dispatcher renders templates and fans deliveries out over a Sender.
type Dispatcher struct {
	sender Sender
}

func NewDispatcher(sender Sender) *Dispatcher {
	return &Dispatcher{sender: sender}
}

// Send renders the named template and delivers it to one recipient.
func (d *Dispatcher) Send(ctx context.Context, to, tmpl string, data interface{}) error {
	subject, body, err := Render(tmpl, data)
	if err != nil {
		metrics.EmailsSent.WithLabelValues(tmpl, "error").Inc()
		return err
	}
	if err := d.sender.Send(ctx, to, subject, body); err != nil {
		metrics.EmailsSent.WithLabelValues(tmpl, "error").Inc()
		return err
	}
	metrics.EmailsSent.WithLabelValues(tmpl, "ok").Inc()
	return nil
}

// SendBulk delivers one rendered template to every recipient concurrently.
// Each delivery is attempted regardless of other failures; the returned
// outcomes preserve recipient order.
func (d *Dispatcher) SendBulk(ctx context.Context, recipients []string, tmpl string, data interface{}) []Outcome {
	outcomes := make([]Outcome, len(recipients))
	var wg sync.WaitGroup
	for i, to := range recipients {
		wg.Add(1)
		go func(i int, to string) {
			defer wg.Done()
			err := d.Send(ctx, to, tmpl, data)
			if err != nil {
				outcomes[i] = Outcome{To: to, Error: err.Error()}
				return
			}
			outcomes[i] = Outcome{To: to, Sent: true}
		}(i, to)
	}
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if !o.Sent {
			failed++
		}
	}
	logger.Business("mailer", "bulk_send", map[string]interface{}{
		"template": tmpl,
		"total":    len(recipients),
		"failed":   failed,
	})
	return outcomes
}
