package mailer

import (
	"fmt"
	"html"
	"strings"
)

// Template assembles a styled HTML email from content blocks.
type Template struct {
	appName string
	header  string
	blocks  []string
	footer  string
}

func NewTemplate(appName string) *Template {
	return &Template{appName: appName}
}

func (t *Template) Header(title, subtitle string) *Template {
	sub := ""
	if subtitle != "" {
		sub = fmt.Sprintf(`<p style="font-size: 14px; color: #666; margin: 5px 0 0 0;">%s</p>`, html.EscapeString(subtitle))
	}
	t.header = fmt.Sprintf(`
        <div style="color: #333; border-bottom: 2px solid #ddd; padding-bottom: 5px; margin-bottom: 20px;">
            <h2 style="font-size: 22px; margin-top: 0; margin-bottom: 0;">%s</h2>
            %s
        </div>`, html.EscapeString(title), sub)
	return t
}

func (t *Template) Paragraph(text string) *Template {
	t.blocks = append(t.blocks, fmt.Sprintf(
		`<p style="font-size: 15px; margin: 12px 0;">%s</p>`, html.EscapeString(text)))
	return t
}

func (t *Template) Button(label, url string) *Template {
	t.blocks = append(t.blocks, fmt.Sprintf(`
        <div style="text-align: center; margin: 24px 0;">
            <a href="%s" style="background-color: #4f46e5; color: #ffffff; padding: 12px 28px; border-radius: 6px; text-decoration: none; font-size: 15px;">%s</a>
        </div>`, url, html.EscapeString(label)))
	return t
}

// List renders items as a bulleted list. Each item may carry a link.
func (t *Template) List(items []ListItem) *Template {
	var b strings.Builder
	b.WriteString(`<ul style="font-size: 15px; padding-left: 20px; margin: 12px 0;">`)
	for _, item := range items {
		if item.URL != "" {
			fmt.Fprintf(&b, `<li style="margin: 6px 0;"><a href="%s" style="color: #4f46e5;">%s</a></li>`,
				item.URL, html.EscapeString(item.Text))
		} else {
			fmt.Fprintf(&b, `<li style="margin: 6px 0;">%s</li>`, html.EscapeString(item.Text))
		}
	}
	b.WriteString(`</ul>`)
	t.blocks = append(t.blocks, b.String())
	return t
}

type ListItem struct {
	Text string
	URL  string
}

func (t *Template) Footer(text string) *Template {
	t.footer = text
	return t
}

// HTML renders the complete document.
func (t *Template) HTML() string {
	footer := t.footer
	if footer == "" {
		footer = fmt.Sprintf("The %s team", t.appName)
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s Email</title>
</head>
<body style="font-family: 'Google Sans', Verdana, sans-serif; color: #333; line-height: 1.6; background-color: #f4f4f4; margin: 0; padding: 20px;">
    <div style="max-width: 600px; margin: 20px auto; padding: 20px; border: 1px solid #ddd; border-radius: 8px; background: #ffffff; box-shadow: 0 2px 10px rgba(0, 0, 0, 0.1);">
        %s
        %s
        <p style="font-size: 13px; color: #888; border-top: 1px solid #eee; padding-top: 12px; margin-top: 24px;">%s</p>
    </div>
</body>
</html>`, html.EscapeString(t.appName), t.header, strings.Join(t.blocks, "\n"), html.EscapeString(footer))
}

// ConfirmationEmail builds the registration confirmation message.
func ConfirmationEmail(appName, displayName, confirmURL string) string {
	return NewTemplate(appName).
		Header("Confirm your email", "One step left").
		Paragraph(fmt.Sprintf("Hi %s,", displayName)).
		Paragraph(fmt.Sprintf("Welcome to %s! Please confirm your email address to activate your account.", appName)).
		Button("Confirm email", confirmURL).
		Paragraph("If you did not create this account, you can ignore this message.").
		HTML()
}

// InvitationEmail builds the project collaboration invite.
func InvitationEmail(appName, inviterName, projectName, acceptURL, rejectURL string) string {
	return NewTemplate(appName).
		Header("You have been invited", projectName).
		Paragraph(fmt.Sprintf("%s invited you to collaborate on %q.", inviterName, projectName)).
		Button("Accept invitation", acceptURL).
		Paragraph("Not interested?").
		Button("Decline", rejectURL).
		Paragraph("This invitation expires in 7 days.").
		HTML()
}

// PasswordResetEmail builds the reset-link message.
func PasswordResetEmail(appName, displayName, resetURL string) string {
	return NewTemplate(appName).
		Header("Reset your password", "").
		Paragraph(fmt.Sprintf("Hi %s,", displayName)).
		Paragraph("We received a request to reset your password. Click below to choose a new one.").
		Button("Reset password", resetURL).
		Paragraph("If you did not request this, you can ignore this message.").
		HTML()
}

// IdeaResultsEmail builds the idea-validation results message.
func IdeaResultsEmail(appName, query, analysis string, posts []ListItem) string {
	t := NewTemplate(appName).
		Header("Your idea validation results", query).
		Paragraph(analysis)
	if len(posts) > 0 {
		t.Paragraph("Conversations we found:").List(posts)
	}
	return t.HTML()
}
