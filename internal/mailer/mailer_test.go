package mailer

import (
	"strings"
	"testing"

	"linkauth/internal/models"
)

func TestRenderLoginEmail(t *testing.T) {
	user := &models.User{Email: "a@example.com", Name: "Ada"}
	link := "https://app.test/complete-login?token=abc"

	body, err := renderLoginEmail(user, link)
	if err != nil {
		t.Fatalf("renderLoginEmail() error = %v", err)
	}
	if !strings.Contains(body, "Ada") {
		t.Fatalf("body %q lacks the user name", body)
	}
	if !strings.Contains(body, link) {
		t.Fatalf("body %q lacks the link", body)
	}
}

func TestRenderLoginEmailEscapesName(t *testing.T) {
	user := &models.User{Email: "a@example.com", Name: `<script>alert(1)</script>`}

	body, err := renderLoginEmail(user, "https://app.test/complete-login?token=abc")
	if err != nil {
		t.Fatalf("renderLoginEmail() error = %v", err)
	}
	if strings.Contains(body, "<script>") {
		t.Fatal("user name was not HTML-escaped")
	}
}
