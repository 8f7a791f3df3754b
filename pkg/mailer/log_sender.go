package mailer

import (
	"context"
	"io"
	"log/slog"
)

// LogSender implements EmailSender for local development. Instead of
// delivering mail it writes the subject and recipient to the log. Bodies are
// not logged because they may carry one-time codes.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender creates a development sender writing to log. A nil logger
// discards output.
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogSender{log: log}
}

func (s *LogSender) SendEmail(ctx context.Context, params SendEmailParams) error {
	if err := params.Validate(); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "email send skipped in development",
		slog.String("send_to", params.SendTo),
		slog.String("subject", params.Subject),
		slog.String("tag", params.Tag),
	)
	return nil
}
