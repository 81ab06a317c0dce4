package email

import (
	"context"
	"net/smtp"
	"strings"
	"testing"

	"github.com/smallbiznis/inkpost/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capturedMail struct {
	addr string
	from string
	to   []string
	msg  string
}

func newCapturingProvider(captured *capturedMail) *SMTPProvider {
	p := NewSMTP(Config{Host: "smtp.test", Port: 2525, From: "no-reply@inkpost.test"})
	p.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		captured.addr = addr
		captured.from = from
		captured.to = to
		captured.msg = string(msg)
		return nil
	}
	return p
}

func TestSendTemplatePasswordReset(t *testing.T) {
	var got capturedMail
	p := newCapturingProvider(&got)

	err := p.SendTemplate(context.Background(), []string{"ana@example.com"}, TemplatePasswordReset, map[string]any{
		"Email":     "ana@example.com",
		"ResetURL":  "http://localhost:8080/password_reset?token=abc&uid=1",
		"ExpiresIn": "1h0m0s",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.test:2525", got.addr)
	assert.Equal(t, "no-reply@inkpost.test", got.from)
	assert.Equal(t, []string{"ana@example.com"}, got.to)
	assert.Contains(t, got.msg, "Subject: Reset your Inkpost password")
	assert.Contains(t, got.msg, "token=abc&amp;uid=1")
}

func TestSendTemplateSubjectOverride(t *testing.T) {
	var got capturedMail
	p := newCapturingProvider(&got)

	err := p.SendTemplate(context.Background(), []string{"ana@example.com"}, TemplateWelcome, map[string]any{
		"Email":   "ana@example.com",
		"subject": "Hello there",
	})
	require.NoError(t, err)
	assert.True(t, strings.Contains(got.msg, "Subject: Hello there"))
}

func TestSendTemplateUnknown(t *testing.T) {
	var got capturedMail
	p := newCapturingProvider(&got)

	err := p.SendTemplate(context.Background(), []string{"ana@example.com"}, "missing", nil)
	assert.Error(t, err)
	assert.Empty(t, got.addr)
}

func TestSendRequiresRecipients(t *testing.T) {
	var got capturedMail
	p := newCapturingProvider(&got)
	assert.ErrorIs(t, p.Send(context.Background(), nil, "s", "b"), ErrNoRecipients)
}

func TestNewFromConfigWithoutHostIsNoop(t *testing.T) {
	provider := NewFromConfig(config.Config{}, zap.NewNop())
	_, ok := provider.(*NoOpProvider)
	assert.True(t, ok)
}
