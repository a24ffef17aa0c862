package templates

import (
	"bytes"
	"embed"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
)

//go:embed *.tmpl
var FS embed.FS

// EmailData defines the fields every template may use.
type EmailData struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`

	// Filled by the worker from its own config.
	AppName    string `json:"app_name,omitempty"`
	SupportURL string `json:"support_url,omitempty"`

	// Request context for security notices.
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Time      string `json:"time,omitempty"`
}

// Template names. Each has <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
const (
	Welcome            = "welcome"
	AccountDeactivated = "account_deactivated"
)

// Known reports whether name has embedded templates.
func Known(name string) bool {
	return name == Welcome || name == AccountDeactivated
}

// orDefault supports {{ .Name | default "there" }}.
func orDefault(fallback, value string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

var (
	textSet = texttpl.Must(texttpl.New("text").
		Funcs(texttpl.FuncMap{"default": orDefault}).
		ParseFS(FS, "*.subject.tmpl", "*.text.tmpl"))
	htmlSet = htmpl.Must(htmpl.New("html").
		Funcs(htmpl.FuncMap{"default": orDefault}).
		ParseFS(FS, "*.html.tmpl"))
)

// Render renders subject, text and html for the given base name.
func Render(name string, data EmailData) (subject, text, html string, err error) {
	if !Known(name) {
		return "", "", "", fmt.Errorf("unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := textSet.ExecuteTemplate(&buf, name+".subject.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s subject: %w", name, err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := textSet.ExecuteTemplate(&buf, name+".text.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s text: %w", name, err)
	}
	text = buf.String()

	buf.Reset()
	if err := htmlSet.ExecuteTemplate(&buf, name+".html.tmpl", data); err != nil {
		return "", "", "", fmt.Errorf("exec %s html: %w", name, err)
	}
	return subject, text, buf.String(), nil
}
