package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names accepted by the dispatcher.
const (
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "passwordReset"
	TemplateWeatherAlert  = "weatherAlert"
	TemplateMarketUpdate  = "marketUpdate"
	TemplateGeneric       = "generic"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "welcome"}}
<h2>Welcome to SmartAgriNet, {{.Name}}!</h2>
<p>Your account is ready. Log in to set up your farm profile and start
planning your season.</p>
<p><a href="{{.AppURL}}">Open SmartAgriNet</a></p>
{{end}}

{{define "passwordReset"}}
<h2>Password reset</h2>
<p>We received a request to reset the password for your account.</p>
<p><a href="{{.ResetLink}}">Reset your password</a></p>
<p>If you did not request this, you can ignore this email.</p>
{{end}}

{{define "weatherAlert"}}
<h2>Weather alert for your area</h2>
<p><strong>{{.Severity}}</strong>: {{.Message}}</p>
<p>Region: {{.Region}}</p>
{{end}}

{{define "marketUpdate"}}
<h2>Market update</h2>
<p>{{.Message}}</p>
{{if .Prices}}<ul>{{range .Prices}}<li>{{.Crop}}: {{.Price}}</li>{{end}}</ul>{{end}}
{{end}}

{{define "generic"}}
<p>{{.Message}}</p>
{{end}}
`))

var subjects = map[string]string{
	TemplateWelcome:       "Welcome to SmartAgriNet",
	TemplatePasswordReset: "Reset your SmartAgriNet password",
	TemplateWeatherAlert:  "Weather alert",
	TemplateMarketUpdate:  "Market update",
	TemplateGeneric:       "SmartAgriNet notification",
}

// Render produces the HTML body for a named template.
func Render(name string, data interface{}) (subject, body string, err error) {
	subject, ok := subjects[name]
	if !ok {
		return "", "", fmt.Errorf("unknown mail template %q", name)
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", name, err)
	}
	return subject, buf.String(), nil
}
