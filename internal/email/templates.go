package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
}

type questionEmailData struct {
	baseEmailData
	LeadName string
	Body     string
}

type handoffEmailData struct {
	baseEmailData
	LeadName string
	Total    int
	Summary  string
}

func renderEmailTemplate(name string, data interface{}) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return "", fmt.Errorf("render email template %s: %w", name, err)
	}
	return buf.String(), nil
}
