package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestSMTPMailer_Send(t *testing.T) {
	d := &fakeDialer{}
	m := &SMTPMailer{d: d, from: "noreply@shop.test", storeName: "Shop"}

	err := m.Send(context.Background(), Message{To: "jane@example.com", Subject: "Hi", Body: "line1\nline2"})
	assert.NoError(t, err)
	assert.Len(t, d.sent, 1)

	msg := d.sent[0]
	assert.Equal(t, []string{"jane@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Hi"}, msg.GetHeader("Subject"))

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	assert.NoError(t, err)
	assert.Contains(t, buf.String(), "line1<br>line2")
}

func TestSMTPMailer_NoRecipient(t *testing.T) {
	m := &SMTPMailer{d: &fakeDialer{}}
	err := m.Send(context.Background(), Message{Subject: "Hi"})
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestSMTPMailer_DialError(t *testing.T) {
	m := &SMTPMailer{d: &fakeDialer{err: errors.New("connection refused")}}
	err := m.Send(context.Background(), Message{To: "a@b.c", Subject: "Hi", Body: "x"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestHTMLBody(t *testing.T) {
	assert.Equal(t, "<p>a<br>&lt;b&gt;</p>", HTMLBody("a\n<b>"))
}
