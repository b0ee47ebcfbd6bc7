package services

import (
	"go.uber.org/zap"

	"gideon/internal/logger"
)

// Mailer delivers one-time tokens to a user's inbox.
type Mailer interface {
	SendConfirmation(email, token string)
	SendRecovery(email, token string)
}

// logMailer writes tokens to the structured log instead of sending mail.
// It is the only delivery channel the gateway ships with.
type logMailer struct {
	log *zap.SugaredLogger
}

// NewLogMailer creates a Mailer backed by the application logger.
func NewLogMailer() Mailer {
	return &logMailer{log: logger.Named("mailer")}
}

func (m *logMailer) SendConfirmation(email, token string) {
	m.log.Infow("confirmation token issued", "email", email, "token", token)
}

func (m *logMailer) SendRecovery(email, token string) {
	m.log.Infow("recovery token issued", "email", email, "token", token)
}
