// Package mail abstracts the outbound transactional email transport.
package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/deens-academy/timetable-api/pkg/config"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
}

// Sender delivers a message, returning the provider message id when known.
// One delivery attempt per call; retries are the caller's decision.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// NewSender picks a transport implementation from configuration.
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Provider == "sendgrid" && cfg.SendGridKey != "" {
		return NewSendGridSender(cfg)
	}
	return NewConsoleSender(logger)
}

// ConsoleSender logs messages instead of delivering them. Used in
// development and tests.
type ConsoleSender struct {
	logger *zap.Logger
}

// NewConsoleSender constructs the logging transport.
func NewConsoleSender(logger *zap.Logger) *ConsoleSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleSender{logger: logger}
}

// Send logs the message and reports success.
func (s *ConsoleSender) Send(_ context.Context, msg Message) (string, error) {
	s.logger.Info("mail (console transport)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("body_bytes", len(msg.HTMLBody)),
	)
	return "console", nil
}
