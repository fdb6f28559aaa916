package email

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const layout = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Hiragino Sans', 'Segoe UI', sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
%s
    <p style="color: #6b7280; font-size: 14px; margin-top: 30px; border-top: 1px solid #e5e7eb; padding-top: 20px;">%s</p>
</body>
</html>`

// PasswordResetData feeds BuildPasswordResetEmail.
type PasswordResetData struct {
	Email         string
	Name          string
	Code          string
	ExpiryMinutes int
	AppName       string
}

// BuildPasswordResetEmail sends a one-time code used by POST /auth/password/reset.
func BuildPasswordResetEmail(data PasswordResetData) Message {
	appName := orDefault(data.AppName, "CareVisit")
	name := orDefault(data.Name, data.Email)

	subject := fmt.Sprintf("[%s] Password reset code", appName)

	textBody := fmt.Sprintf(`Hi %s,

Use the code below to reset your %s password:

%s

This code is valid for %d minutes. If you did not request a reset, you can ignore this email.

%s`, name, appName, data.Code, data.ExpiryMinutes, appName)

	body := fmt.Sprintf(`    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>Use the code below to reset your %s password:</p>
    <p style="text-align: center; margin: 30px 0; background-color: #f3f4f6; padding: 20px; border-radius: 6px;">
        <span style="font-size: 36px; font-weight: bold; font-family: monospace; letter-spacing: 4px;">%s</span>
    </p>
    <p style="color: #ef4444; font-size: 14px; text-align: center;">Valid for %d minutes.</p>
    <p>If you did not request a reset, you can ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(appName), html.EscapeString(data.Code), data.ExpiryMinutes)

	return Message{
		To:       []string{data.Email},
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: fmt.Sprintf(layout, body, html.EscapeString(appName)),
	}
}

// ReminderData feeds BuildReminderEmail.
type ReminderData struct {
	Email       string
	Name        string
	Title       string
	Message     string
	RemindAt    time.Time
	PatientName string
	EventTitle  string
	EventStart  *time.Time
	AppName     string
	BaseURL     string
	Location    *time.Location
}

// BuildReminderEmail renders a due reminder. Times are shown in data.Location.
func BuildReminderEmail(data ReminderData) Message {
	appName := orDefault(data.AppName, "CareVisit")
	loc := data.Location
	if loc == nil {
		loc = time.UTC
	}

	var lines []string
	lines = append(lines, "Reminder: "+data.Title)
	if data.PatientName != "" {
		lines = append(lines, "Patient: "+data.PatientName)
	}
	if data.EventTitle != "" {
		ev := "Event: " + data.EventTitle
		if data.EventStart != nil {
			ev += " (" + data.EventStart.In(loc).Format("2006-01-02 15:04") + ")"
		}
		lines = append(lines, ev)
	}
	lines = append(lines, "Due: "+data.RemindAt.In(loc).Format("2006-01-02 15:04"))
	if strings.TrimSpace(data.Message) != "" {
		lines = append(lines, "", data.Message)
	}
	if data.BaseURL != "" {
		lines = append(lines, "", strings.TrimRight(data.BaseURL, "/")+"/reminders")
	}

	var items strings.Builder
	for _, l := range lines {
		if l == "" {
			continue
		}
		items.WriteString("        <li>")
		items.WriteString(html.EscapeString(l))
		items.WriteString("</li>\n")
	}
	body := fmt.Sprintf(`    <h2 style="color: #0f766e;">%s</h2>
    <ul>
%s    </ul>`, html.EscapeString(data.Title), items.String())

	return Message{
		To:       []string{data.Email},
		Subject:  fmt.Sprintf("[%s] %s", appName, data.Title),
		TextBody: strings.Join(lines, "\n"),
		HTMLBody: fmt.Sprintf(layout, body, html.EscapeString(appName)),
	}
}

// WelcomeData feeds BuildWelcomeEmail.
type WelcomeData struct {
	Email            string
	Name             string
	OrganizationName string
	AppName          string
	BaseURL          string
}

// BuildWelcomeEmail is sent when an admin creates an account for someone.
func BuildWelcomeEmail(data WelcomeData) Message {
	appName := orDefault(data.AppName, "CareVisit")
	name := orDefault(data.Name, data.Email)

	textBody := fmt.Sprintf(`Hi %s,

An account has been created for you in %s (%s).
Sign in with this email address at %s

%s`, name, data.OrganizationName, appName, data.BaseURL, appName)

	body := fmt.Sprintf(`    <h2 style="color: #0f766e;">Hi %s,</h2>
    <p>An account has been created for you in <strong>%s</strong>.</p>
    <p>Sign in with this email address at <a href="%s">%s</a>.</p>`,
		html.EscapeString(name), html.EscapeString(data.OrganizationName),
		html.EscapeString(data.BaseURL), html.EscapeString(data.BaseURL))

	return Message{
		To:       []string{data.Email},
		Subject:  fmt.Sprintf("Welcome to %s", appName),
		TextBody: textBody,
		HTMLBody: fmt.Sprintf(layout, body, html.EscapeString(appName)),
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
