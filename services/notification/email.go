package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"trailbound/config"
	"trailbound/models"
)

// EmailClient sends transactional email over an HTTP API (Brevo-compatible).
type EmailClient struct {
	APIKey      string
	SenderEmail string
	SenderName  string
	Endpoint    string
	HTTPClient  *http.Client
}

// NewEmailClient builds a client from the loaded configuration. Returns nil
// when the service is not configured; callers treat a nil mailer as "log only".
func NewEmailClient() *EmailClient {
	if config.AppConfig.EmailAPIKey == "" || config.AppConfig.EmailSender == "" {
		return nil
	}
	return &EmailClient{
		APIKey:      config.AppConfig.EmailAPIKey,
		SenderEmail: config.AppConfig.EmailSender,
		SenderName:  config.AppConfig.EmailSenderName,
		Endpoint:    "https://api.brevo.com/v3/smtp/email",
		HTTPClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

type emailPayload struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HTMLContent string              `json:"htmlContent"`
}

// Send renders the template and posts it to the email API.
func (c *EmailClient) Send(ctx context.Context, toEmail, toName, template string, data map[string]string) error {
	if c == nil {
		return nil
	}

	subject, body, err := renderTemplate(template, data)
	if err != nil {
		return err
	}

	payload := emailPayload{
		Sender:      map[string]string{"email": c.SenderEmail, "name": c.SenderName},
		To:          []map[string]string{{"email": toEmail, "name": toName}},
		Subject:     subject,
		HTMLContent: body,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("email API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func renderTemplate(template string, data map[string]string) (subject, body string, err error) {
	ref := data["reference"]
	switch template {
	case models.TemplateBookingConfirmed:
		subject = fmt.Sprintf("Booking %s confirmed", ref)
		body = fmt.Sprintf("<p>Your booking <b>%s</b> for %s is confirmed. Total paid: %s.</p>",
			ref, data["tour_name"], data["amount"])
	case models.TemplateFinalPaymentReceipt:
		subject = fmt.Sprintf("Final payment received for booking %s", ref)
		body = fmt.Sprintf("<p>We charged %s as the final payment for your booking <b>%s</b>. See you on the trail!</p>",
			data["amount"], ref)
	case models.TemplateFinalPaymentAction:
		subject = fmt.Sprintf("Action needed: final payment for booking %s", ref)
		body = fmt.Sprintf("<p>We could not collect the final payment of %s for booking <b>%s</b> (%s). Please update your payment method and pay manually.</p>",
			data["amount"], ref, data["reason"])
	case models.TemplatePayoutSent:
		subject = fmt.Sprintf("Payout sent for booking %s", ref)
		body = fmt.Sprintf("<p>Your payout of %s for booking <b>%s</b> is on its way to your connected account.</p>",
			data["amount"], ref)
	default:
		return "", "", fmt.Errorf("unknown email template: %s", template)
	}
	return subject, body, nil
}
