package email

import "context"

const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "password_reset"
)

//go:generate mockgen -source=provider.go -destination=./mocks/mock_provider.go -package=mocks
type Provider interface {
	Send(ctx context.Context, to []string, subject string, htmlBody string) error
	SendTemplate(ctx context.Context, to []string, templateName string, data any) error
}

// NoOpProvider drops every message. Used when SMTP is not configured.
type NoOpProvider struct{}

func (p *NoOpProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (p *NoOpProvider) SendTemplate(ctx context.Context, to []string, templateName string, data any) error {
	return nil
}
