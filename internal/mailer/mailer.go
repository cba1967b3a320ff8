package mailer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"gopkg.in/gomail.v2"
)

var ErrNoRecipient = errors.New("recipient email is required")

// Message письмо: текстовая версия и HTML собираются из одного Body
type Message struct {
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPMailer отправляет письма через SMTP от имени "<StoreName> Support <from>"
type SMTPMailer struct {
	d         dialer
	from      string
	storeName string
}

func NewSMTPMailer(host string, port int, username, password, from, storeName string) *SMTPMailer {
	return &SMTPMailer{
		d:         gomail.NewDialer(host, port, username, password),
		from:      from,
		storeName: storeName,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gm := gomail.NewMessage()
	gm.SetAddressHeader("From", m.from, m.storeName+" Support")
	gm.SetHeader("To", msg.To)
	gm.SetHeader("Subject", msg.Subject)
	gm.SetBody("text/plain", msg.Body)
	gm.AddAlternative("text/html", HTMLBody(msg.Body))

	if err := m.d.DialAndSend(gm); err != nil {
		return fmt.Errorf("send mail to %s: %w", msg.To, err)
	}
	return nil
}

// HTMLBody экранирует текст и заменяет переводы строк на <br>
func HTMLBody(text string) string {
	return "<p>" + strings.ReplaceAll(html.EscapeString(text), "\n", "<br>") + "</p>"
}
