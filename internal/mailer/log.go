package mailer

import (
	"context"

	"github.com/rs/zerolog/log"

	"linkauth/internal/models"
)

// LogSender writes the link to the log instead of sending email. For
// local development when no from-address is configured.
type LogSender struct{}

// Send logs the link at info level and always succeeds.
func (LogSender) Send(_ context.Context, user *models.User, link string) error {
	log.Info().
		Str("email", user.Email).
		Str("link", link).
		Msg("dev mailer: magic link (not sent)")
	return nil
}
