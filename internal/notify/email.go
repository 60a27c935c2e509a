package notify

import (
	"context"
	"log"
)

// EmailService delivers a single HTML message. Implementations must be safe
// for sequential reuse across a batch run.
type EmailService interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// consoleEmail logs messages instead of delivering them. Used in dev mode
// and whenever no provider key is configured.
type consoleEmail struct{}

func NewConsoleEmail() EmailService { return consoleEmail{} }

func (consoleEmail) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("[INFO] email (console): to=%s subject=%q", to, subject)
	return nil
}
