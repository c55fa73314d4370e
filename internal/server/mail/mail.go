// Package mail delivers account e-mails. Sending happens off the request
// path through a Dispatcher; failures are logged and never reach callers.
package mail

import (
	"context"
	"html"
	"strings"

	"github.com/bbelderbos/codeimages/internal/logging"
)

// Message is a single HTML e-mail.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers a message synchronously.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// HTMLBody escapes text and turns its newlines into <br> tags.
func HTMLBody(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br>")
}

// LogSender only logs the message. It is used in debug mode.
type LogSender struct {
	logger logging.Logger
}

func NewLogSender(logger logging.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.logger.Info(ctx, "mail (not sent)", "to", msg.To, "subject", msg.Subject, "body", msg.Body)
	return nil
}
