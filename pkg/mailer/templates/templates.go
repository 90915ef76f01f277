package templates

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmpl "html/template"
	"strings"
	texttpl "text/template"
	"time"
)

//go:embed *.tmpl
var FS embed.FS

// Template names.
const (
	Welcome         = "welcome"
	VerifyEmail     = "verify_email"
	ResetPassword   = "reset_password"
	PasswordChanged = "password_changed"
	AccountLocked   = "account_locked"
)

const layoutFile = "layout.html.tmpl"

// EmailData holds the fields the templates read.
type EmailData struct {
	Name          string    `json:"Name"`
	Email         string    `json:"Email"`
	AppName       string    `json:"AppName"`
	AppURL        string    `json:"AppURL"`
	ActionURL     string    `json:"ActionURL"`
	ExpiresAt     time.Time `json:"ExpiresAt"`
	ExpiresAtText string    `json:"ExpiresAtText"`
	IP            string    `json:"IP"`
	Time          string    `json:"Time"`
}

// ToMap converts EmailData into the generic map carried by queued jobs.
func ToMap(d EmailData) map[string]any {
	if d.ExpiresAtText == "" && !d.ExpiresAt.IsZero() {
		d.ExpiresAtText = d.ExpiresAt.UTC().Format(time.RFC1123)
	}
	b, _ := json.Marshal(d)
	var m map[string]any
	_ = json.Unmarshal(b, &m)
	return m
}

func baseFuncs() map[string]any {
	return map[string]any{
		"upper": strings.ToUpper,
		"default": func(fallback string, value any) any {
			if s, ok := value.(string); ok && strings.TrimSpace(s) == "" {
				return fallback
			}
			if value == nil {
				return fallback
			}
			return value
		},
	}
}

// Render produces subject, text and html bodies for the named template.
// Expects <name>.subject.tmpl, <name>.text.tmpl and <name>.html.tmpl.
func Render(name string, data any) (subject, text, html string, err error) {
	if subject, err = renderText(name+".subject.tmpl", data); err != nil {
		return "", "", "", err
	}
	if text, err = renderText(name+".text.tmpl", data); err != nil {
		return "", "", "", err
	}
	if html, err = renderHTML(name+".html.tmpl", data); err != nil {
		return "", "", "", err
	}
	return strings.TrimSpace(subject), text, html, nil
}

func renderText(filename string, data any) (string, error) {
	tpl, err := texttpl.New(filename).Funcs(texttpl.FuncMap(baseFuncs())).ParseFS(FS, filename)
	if err != nil {
		return "", fmt.Errorf("parse text %q: %w", filename, err)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}

func renderHTML(filename string, data any) (string, error) {
	tpl, err := htmpl.New(filename).Funcs(htmpl.FuncMap(baseFuncs())).ParseFS(FS, layoutFile, filename)
	if err != nil {
		return "", fmt.Errorf("parse html %q: %w", filename, err)
	}
	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return "", fmt.Errorf("exec %q: %w", filename, err)
	}
	return buf.String(), nil
}
