package mailer

import (
	"bytes"
	"fmt"
	htmpl "html/template"
	texttpl "text/template"
)

const (
	TemplateAccountCreated  = "account_created"
	TemplatePasswordChanged = "password_changed"
)

type emailTemplate struct {
	subject string
	text    *texttpl.Template
	html    *htmpl.Template
}

var templates = map[string]emailTemplate{
	TemplateAccountCreated: {
		subject: "Your account has been created",
		text: texttpl.Must(texttpl.New("account_created.txt").Parse(
			"Hi {{.Name}},\n\nAn administrator created an account for {{.Email}} on {{.AppName}}.\n")),
		html: htmpl.Must(htmpl.New("account_created.html").Parse(
			`<p>Hi {{.Name}},</p><p>An administrator created an account for <b>{{.Email}}</b> on {{.AppName}}.</p>`)),
	},
	TemplatePasswordChanged: {
		subject: "Your password was changed",
		text: texttpl.Must(texttpl.New("password_changed.txt").Parse(
			"Hi {{.Name}},\n\nThe password for {{.Email}} was changed at {{.Time}}. If this was not you, contact support.\n")),
		html: htmpl.Must(htmpl.New("password_changed.html").Parse(
			`<p>Hi {{.Name}},</p><p>The password for <b>{{.Email}}</b> was changed at {{.Time}}.</p><p>If this was not you, contact support.</p>`)),
	},
}

// Render produces subject, text and html bodies for a named template.
func Render(name string, data map[string]any) (string, string, string, error) {
	t, ok := templates[name]
	if !ok {
		return "", "", "", fmt.Errorf("unknown email template %q", name)
	}
	if data == nil {
		data = map[string]any{}
	}
	var text, html bytes.Buffer
	if err := t.text.Execute(&text, data); err != nil {
		return "", "", "", err
	}
	if err := t.html.Execute(&html, data); err != nil {
		return "", "", "", err
	}
	return t.subject, text.String(), html.String(), nil
}
