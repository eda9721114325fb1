package mailer_test

import (
	"strings"
	"testing"

	"github.com/dalemusser/taskhive/internal/app/system/mailer"
)

func TestBuildInviteEmail(t *testing.T) {
	e := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:    "TaskHive",
		InviterName: "Ada Lovelace",
		InviteLink:  "https://taskhive.example.com/register?token=abc123",
	})

	if !strings.Contains(e.Subject, "Ada Lovelace") || !strings.Contains(e.Subject, "TaskHive") {
		t.Errorf("subject missing inviter or site name: %q", e.Subject)
	}
	if !strings.Contains(e.TextBody, "https://taskhive.example.com/register?token=abc123") {
		t.Error("text body missing invite link")
	}
	if !strings.Contains(e.HTMLBody, "https://taskhive.example.com/register?token=abc123") {
		t.Error("HTML body missing invite link")
	}
	if !strings.Contains(e.HTMLBody, "Ada Lovelace") {
		t.Error("HTML body missing inviter name")
	}
	if e.To != "" {
		t.Errorf("To should be left for the caller, got %q", e.To)
	}
}

func TestBuildInviteEmail_EscapesHTML(t *testing.T) {
	e := mailer.BuildInviteEmail(mailer.InviteEmailData{
		SiteName:    "TaskHive",
		InviterName: `<script>alert("x")</script>`,
		InviteLink:  "https://taskhive.example.com/register?token=abc",
	})
	if strings.Contains(e.HTMLBody, "<script>") {
		t.Error("inviter name must be escaped in HTML body")
	}
}

func TestMailer_DisabledSendIsNoop(t *testing.T) {
	m := mailer.New("", 0, "", "", "noreply@taskhive.example.com", nil)
	if m.Enabled() {
		t.Fatal("mailer with no host should be disabled")
	}
	err := m.Send(mailer.Email{To: "a@x.com", Subject: "hi", TextBody: "hello"})
	if err != nil {
		t.Errorf("disabled mailer must not error, got %v", err)
	}
}
