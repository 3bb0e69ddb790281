package mailer

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type captureSender struct {
	sent []*gomail.Message
	err  error
}

func (c *captureSender) DialAndSend(m ...*gomail.Message) error {
	c.sent = append(c.sent, m...)
	return c.err
}

func render(t *testing.T, m *gomail.Message) string {
	t.Helper()
	var buf bytes.Buffer
	_, err := m.WriteTo(&buf)
	require.NoError(t, err)
	return buf.String()
}

func TestSMTPMailer_Send(t *testing.T) {
	sender := &captureSender{}
	m := NewWithSender(sender, "noreply@tasksync.dev", nil)

	err := m.Send(context.Background(), Message{
		To:      "bob@example.com",
		Subject: "Account created",
		Text:    "Welcome",
		HTML:    "<p>Welcome</p>",
	})
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)

	msg := sender.sent[0]
	assert.Equal(t, []string{"bob@example.com"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"noreply@tasksync.dev"}, msg.GetHeader("From"))

	raw := render(t, msg)
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "text/html")
}

func TestSMTPMailer_SendError(t *testing.T) {
	sender := &captureSender{err: errors.New("535 auth failed")}
	m := NewWithSender(sender, "noreply@tasksync.dev", nil)

	err := m.Send(context.Background(), Message{To: "bob@example.com", Subject: "Login Notification", Text: "hi"})
	assert.ErrorIs(t, err, sender.err)
}

func TestSMTPMailer_CancelledContext(t *testing.T) {
	sender := &captureSender{}
	m := NewWithSender(sender, "noreply@tasksync.dev", nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, m.Send(ctx, Message{To: "bob@example.com"}), context.Canceled)
	assert.Empty(t, sender.sent)
}
