// Package mailer delivers sign-in links to users by email.
package mailer

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"linkauth/internal/models"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var emailTemplates = template.Must(template.ParseFS(templatesFS, "templates/*.tmpl"))

// Subject line of the sign-in email.
const loginSubject = "Log in to your account"

// Sender delivers a sign-in link to a user. Implementations must treat
// failures as final; the caller does not retry.
type Sender interface {
	Send(ctx context.Context, user *models.User, link string) error
}

type emailData struct {
	Name string
	Link string
}

func renderLoginEmail(user *models.User, link string) (string, error) {
	buf := bytes.NewBuffer(nil)
	if err := emailTemplates.ExecuteTemplate(buf, "login_email.tmpl", emailData{
		Name: user.Name,
		Link: link,
	}); err != nil {
		return "", fmt.Errorf("render login email: %w", err)
	}
	return buf.String(), nil
}
