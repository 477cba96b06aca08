// Package email provides the email client for new-lead notifications.
package email

import (
	"fmt"
	"html"
	"os"

	"github.com/resendlabs/resend-go"
)

// NotificationPayload carries the lead details worth surfacing to the inbox.
type NotificationPayload struct {
	Email      string
	Name       string
	LeadSource string
	AssetID    string
	PagePath   string
}

// Service defines the interface for sending lead notifications, allowing for
// mock implementations in tests.
type Service interface {
	SendLeadNotification(payload NotificationPayload) error
}

// ResendClient is the concrete implementation of the email Service using the
// Resend API.
type ResendClient struct {
	client    *resend.Client
	fromEmail string
	fromName  string
	toEmail   string
}

// NewService creates a new email service client, returning the Service
// interface. Notification delivery is optional; the caller decides what a
// missing key means.
func NewService() (Service, error) {
	apiKey := os.Getenv("RESEND_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("RESEND_API_KEY environment variable is required")
	}

	toEmail := os.Getenv("LEAD_NOTIFY_TO")
	if toEmail == "" {
		return nil, fmt.Errorf("LEAD_NOTIFY_TO environment variable is required")
	}

	fromEmail := os.Getenv("LEAD_NOTIFY_FROM")
	if fromEmail == "" {
		fromEmail = "noreply@postpal.de"
	}

	fromName := os.Getenv("LEAD_NOTIFY_FROM_NAME")
	if fromName == "" {
		fromName = "PostPal"
	}

	return &ResendClient{
		client:    resend.NewClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
		toEmail:   toEmail,
	}, nil
}

// SendLeadNotification composes and sends the new-lead notification email.
func (c *ResendClient) SendLeadNotification(payload NotificationPayload) error {
	subject := fmt.Sprintf("New lead captured: %s", payload.Email)

	htmlBody := fmt.Sprintf(
		`<h2>New lead magnet capture</h2>
<table>
<tr><td><strong>Email</strong></td><td>%s</td></tr>
<tr><td><strong>Name</strong></td><td>%s</td></tr>
<tr><td><strong>Source</strong></td><td>%s</td></tr>
<tr><td><strong>Asset</strong></td><td>%s</td></tr>
<tr><td><strong>Page</strong></td><td>%s</td></tr>
</table>`,
		html.EscapeString(payload.Email),
		html.EscapeString(payload.Name),
		html.EscapeString(payload.LeadSource),
		html.EscapeString(payload.AssetID),
		html.EscapeString(payload.PagePath),
	)

	params := &resend.SendEmailRequest{
		From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromEmail),
		To:      []string{c.toEmail},
		Subject: subject,
		Html:    htmlBody,
	}

	if _, err := c.client.Emails.Send(params); err != nil {
		return fmt.Errorf("failed to send lead notification via Resend: %w", err)
	}
	return nil
}
