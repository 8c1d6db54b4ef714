package mailer

import (
	"embed"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
)

//go:embed templates/*.gotmpl
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt.gotmpl"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html.gotmpl"))
)

// ActivationData fills the account activation templates.
type ActivationData struct {
	Name          string
	ActivationURL string
}

// PasswordResetData fills the password reset templates.
type PasswordResetData struct {
	Name     string
	ResetURL string
}

// RenderActivation builds the activation email for the given recipient.
func RenderActivation(to string, data ActivationData) (Message, error) {
	return render(to, "Activate your account", "activation", data)
}

// RenderPasswordReset builds the password reset email for the given recipient.
func RenderPasswordReset(to string, data PasswordResetData) (Message, error) {
	return render(to, "Reset your password", "password_reset", data)
}

func render(to, subject, name string, data interface{}) (Message, error) {
	var text strings.Builder
	if err := textTemplates.ExecuteTemplate(&text, name+".txt.gotmpl", data); err != nil {
		return Message{}, fmt.Errorf("render %s text template: %w", name, err)
	}

	var html strings.Builder
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html.gotmpl", data); err != nil {
		return Message{}, fmt.Errorf("render %s html template: %w", name, err)
	}

	return Message{
		To:       to,
		Subject:  subject,
		TextBody: text.String(),
		HTMLBody: html.String(),
	}, nil
}
