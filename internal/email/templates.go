// internal/email/templates.go
package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	texttemplate "text/template"

	"opportune-notifier/internal/models"
	"opportune-notifier/pkg/registry"
)

// ReminderData feeds the followupReminder template. Dates are pre-formatted
// so the templates stay free of time logic.
type ReminderData struct {
	Company       string
	Position      string
	Status        string
	Location      string
	ContactPerson string
	ContactEmail  string
	Notes         string
	JobURL        string
	ReminderDate  string
}

// NewReminderData builds template data from an application. The shown date is
// the trigger that caused the reminder, custom reminder date first.
func NewReminderData(app models.Application) ReminderData {
	var reminderDate string
	switch {
	case app.CustomReminderDate != nil:
		reminderDate = formatLongDate(*app.CustomReminderDate)
	case app.FollowupDate != nil:
		reminderDate = formatLongDate(*app.FollowupDate)
	}

	return ReminderData{
		Company:       app.Company,
		Position:      app.Position,
		Status:        string(app.Status),
		Location:      app.Location,
		ContactPerson: app.ContactPerson,
		ContactEmail:  app.ContactEmail,
		Notes:         app.Notes,
		JobURL:        app.JobURL,
		ReminderDate:  reminderDate,
	}
}

// DigestItem is one upcoming follow-up line in the daily digest.
type DigestItem struct {
	Company      string
	Position     string
	FollowupDate string
}

// DigestData feeds the dailyDigest template.
type DigestData struct {
	UserName     string
	Count        int
	Applications []DigestItem
}

// NewDigestData builds digest data for a user and their upcoming follow-ups.
func NewDigestData(user models.User, apps []models.Application) DigestData {
	name := user.Name
	if name == "" {
		name = "there"
	}

	items := make([]DigestItem, 0, len(apps))
	for _, app := range apps {
		item := DigestItem{Company: app.Company, Position: app.Position}
		if app.FollowupDate != nil {
			item.FollowupDate = formatShortDate(*app.FollowupDate)
		}
		items = append(items, item)
	}

	return DigestData{
		UserName:     name,
		Count:        len(apps),
		Applications: items,
	}
}

func formatLongDate(t time.Time) string {
	return t.Format("Monday, January 2, 2006")
}

func formatShortDate(t time.Time) string {
	return t.Format("1/2/2006")
}

type emailTemplate struct {
	subject *texttemplate.Template
	html    *template.Template
}

// TemplateSet holds the parsed email templates, built-in defaults plus any
// registry overrides.
type TemplateSet struct {
	templates map[string]*emailTemplate
}

// NewTemplateSet parses the built-in templates.
func NewTemplateSet() (*TemplateSet, error) {
	ts := &TemplateSet{templates: make(map[string]*emailTemplate)}

	defaults := map[string]registry.TemplateDefinition{
		TemplateFollowupReminder: {
			Name:    TemplateFollowupReminder,
			Subject: followupReminderSubject,
			HTML:    followupReminderHTML,
		},
		TemplateDailyDigest: {
			Name:    TemplateDailyDigest,
			Subject: dailyDigestSubject,
			HTML:    dailyDigestHTML,
		},
	}

	for name, def := range defaults {
		if err := ts.register(name, def); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

// NewTemplateSetFromRegistry parses the defaults and then overrides any
// template listed in the registry file at path.
func NewTemplateSetFromRegistry(path string) (*TemplateSet, error) {
	ts, err := NewTemplateSet()
	if err != nil {
		return nil, err
	}

	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return nil, err
	}

	for _, def := range reg.Templates {
		if _, ok := ts.templates[def.Name]; !ok {
			return nil, fmt.Errorf("unknown template %q in registry %s", def.Name, path)
		}
		if err := ts.register(def.Name, def); err != nil {
			return nil, err
		}
	}
	return ts, nil
}

func (ts *TemplateSet) register(name string, def registry.TemplateDefinition) error {
	subject, err := texttemplate.New(name + ".subject").Parse(def.Subject)
	if err != nil {
		return fmt.Errorf("parse subject template %s: %w", name, err)
	}
	html, err := template.New(name + ".html").Parse(def.HTML)
	if err != nil {
		return fmt.Errorf("parse html template %s: %w", name, err)
	}
	ts.templates[name] = &emailTemplate{subject: subject, html: html}
	return nil
}

// Render produces the subject and HTML body for a named template.
func (ts *TemplateSet) Render(name string, data interface{}) (subject, html string, err error) {
	tmpl, ok := ts.templates[name]
	if !ok {
		return "", "", fmt.Errorf("unknown email template: %s", name)
	}

	var subjectBuf, htmlBuf bytes.Buffer
	if err := tmpl.subject.Execute(&subjectBuf, data); err != nil {
		return "", "", fmt.Errorf("render subject %s: %w", name, err)
	}
	if err := tmpl.html.Execute(&htmlBuf, data); err != nil {
		return "", "", fmt.Errorf("render body %s: %w", name, err)
	}
	return subjectBuf.String(), htmlBuf.String(), nil
}

const followupReminderSubject = `Follow-up Reminder: {{.Company}} - {{.Position}}`

const followupReminderHTML = `<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: 'Inter', -apple-system, BlinkMacSystemFont, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
      .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; }
      .application-card { background: #f9fafb; border-left: 4px solid #667eea; padding: 20px; margin: 20px 0; border-radius: 5px; }
      .label { font-weight: 600; color: #6b7280; font-size: 12px; text-transform: uppercase; letter-spacing: 0.5px; }
      .value { color: #111827; font-size: 16px; margin-top: 5px; }
      .status-badge { display: inline-block; padding: 5px 12px; border-radius: 20px; font-size: 12px; font-weight: 600; background: #fef3c7; color: #92400e; }
      .cta-button { display: inline-block; background: #667eea; color: white; padding: 12px 30px; text-decoration: none; border-radius: 5px; margin-top: 20px; font-weight: 600; }
      .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h1 style="margin: 0; font-size: 24px;">Follow-up Reminder</h1>
        <p style="margin: 10px 0 0 0; opacity: 0.9;">It's time to follow up on your application!</p>
      </div>
      <div class="content">
        <p>Hi there,</p>
        <p>This is a friendly reminder that you have a follow-up scheduled for <strong>{{.ReminderDate}}</strong>.</p>
        <div class="application-card">
          <div style="margin-bottom: 15px;">
            <div class="label">Company</div>
            <div class="value">{{.Company}}</div>
          </div>
          <div style="margin-bottom: 15px;">
            <div class="label">Position</div>
            <div class="value">{{.Position}}</div>
          </div>
          <div style="margin-bottom: 15px;">
            <div class="label">Status</div>
            <div><span class="status-badge">{{.Status}}</span></div>
          </div>
          {{if .Location}}
          <div style="margin-bottom: 15px;">
            <div class="label">Location</div>
            <div class="value">{{.Location}}</div>
          </div>
          {{end}}
          {{if .ContactPerson}}
          <div style="margin-bottom: 15px;">
            <div class="label">Contact Person</div>
            <div class="value">{{.ContactPerson}}{{if .ContactEmail}} ({{.ContactEmail}}){{end}}</div>
          </div>
          {{end}}
          {{if .Notes}}
          <div>
            <div class="label">Your Notes</div>
            <div class="value">{{.Notes}}</div>
          </div>
          {{end}}
        </div>
        <p><strong>Suggested follow-up actions:</strong></p>
        <ul>
          <li>Send a polite follow-up email to check on your application status</li>
          <li>Reiterate your interest in the position</li>
          <li>Mention any recent relevant achievements or projects</li>
          <li>Ask if they need any additional information</li>
        </ul>
        {{if .JobURL}}
        <a href="{{.JobURL}}" class="cta-button" style="color: white;">View Job Posting</a>
        {{end}}
      </div>
      <div class="footer">
        <p>You're receiving this email because you set up follow-up reminders in <strong>Opportune</strong> Application Tracker.</p>
        <p style="margin-top: 10px;">Good luck with your job search!</p>
      </div>
    </div>
  </body>
</html>`

const dailyDigestSubject = `Daily Application Digest - {{.Count}} Follow-ups`

const dailyDigestHTML = `<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: 'Inter', -apple-system, BlinkMacSystemFont, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; border-radius: 10px 10px 0 0; }
      .content { background: #ffffff; padding: 30px; border: 1px solid #e5e7eb; border-top: none; }
      .app-item { background: #f9fafb; padding: 15px; margin: 10px 0; border-radius: 5px; border-left: 4px solid #667eea; }
      .company { font-weight: 700; color: #111827; font-size: 16px; }
      .position { color: #6b7280; font-size: 14px; }
      .date { color: #9ca3af; font-size: 12px; margin-top: 5px; }
      .footer { text-align: center; color: #6b7280; font-size: 12px; margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h1 style="margin: 0; font-size: 24px;">Daily Application Digest</h1>
        <p style="margin: 10px 0 0 0; opacity: 0.9;">Your follow-ups for today</p>
      </div>
      <div class="content">
        <p>Hi {{.UserName}},</p>
        <p>You have <strong>{{.Count}}</strong> application{{if gt .Count 1}}s{{end}} requiring follow-up today:</p>
        {{range .Applications}}
        <div class="app-item">
          <div class="company">{{.Company}}</div>
          <div class="position">{{.Position}}</div>
          <div class="date">Follow-up: {{.FollowupDate}}</div>
        </div>
        {{end}}
        <p style="margin-top: 20px;">Stay proactive and follow up on these applications to increase your chances!</p>
      </div>
      <div class="footer">
        <p>Sent by <strong>Opportune</strong> Application Tracker</p>
      </div>
    </div>
  </body>
</html>`
