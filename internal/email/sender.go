// Package email delivers qualification emails to leads and handoff
// notifications to the sales team. Sending is fire-and-forget from the
// qualification flow's perspective: failures are reported upward, retry
// policy lives with the mail infrastructure.
package email

import "context"

type Sender interface {
	// SendQualificationEmail delivers one qualifying question to a lead.
	SendQualificationEmail(ctx context.Context, toEmail, leadName, subject, body string) error
	// SendHandoffNotification tells the sales inbox a lead qualified.
	SendHandoffNotification(ctx context.Context, toEmail, leadName string, total int, summary string) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used in development when no SMTP server is configured.
type NoopSender struct{}

func (NoopSender) SendQualificationEmail(ctx context.Context, toEmail, leadName, subject, body string) error {
	return nil
}

func (NoopSender) SendHandoffNotification(ctx context.Context, toEmail, leadName string, total int, summary string) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}
