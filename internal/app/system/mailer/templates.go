package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// InviteEmailData holds data for invitation email templates.
type InviteEmailData struct {
	SiteName    string
	InviterName string
	InviteLink  string
}

// BuildInviteEmail creates an invitation email with both HTML and text bodies.
func BuildInviteEmail(data InviteEmailData) Email {
	return Email{
		To:       "", // Set by caller
		Subject:  fmt.Sprintf("%s invited you to %s", data.InviterName, data.SiteName),
		TextBody: buildInviteText(data),
		HTMLBody: buildInviteHTML(data),
	}
}

func buildInviteText(data InviteEmailData) string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("%s invited you to join %s.\n\n", data.InviterName, data.SiteName))
	buf.WriteString("Click this link to create your account:\n")
	buf.WriteString(data.InviteLink + "\n\n")
	buf.WriteString("If you were not expecting this invitation, you can safely ignore this email.\n")
	return buf.String()
}

func buildInviteHTML(data InviteEmailData) string {
	tmpl := template.Must(template.New("invite").Parse(inviteHTMLTemplate))
	var buf bytes.Buffer
	_ = tmpl.Execute(&buf, data)
	return buf.String()
}

const inviteHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>You're Invited</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px; box-shadow: 0 2px 4px rgba(0, 0, 0, 0.1);">
          <!-- Header -->
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 24px; font-weight: 600; color: #4f46e5;">{{.SiteName}}</h1>
            </td>
          </tr>

          <!-- Content -->
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                {{.InviterName}} invited you to join {{.SiteName}} and collaborate on shared task lists.
              </p>

              <!-- Button -->
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.InviteLink}}" style="display: inline-block; padding: 14px 32px; background-color: #4f46e5; color: #ffffff; text-decoration: none; font-size: 16px; font-weight: 500; border-radius: 6px;">
                      Accept Invitation
                    </a>
                  </td>
                </tr>
              </table>

              <p style="margin: 24px 0 0; font-size: 13px; color: #9ca3af; text-align: center;">
                This link can only be used once.
              </p>
            </td>
          </tr>

          <!-- Footer -->
          <tr>
            <td style="padding: 24px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you were not expecting this invitation, you can safely ignore this email.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
