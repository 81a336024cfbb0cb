package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const brevoAPIURL = "https://api.brevo.com/v3/smtp/email"

// Mailer dispatches one-time codes by email.
type Mailer interface {
	SendOtpEmail(ctx context.Context, toEmail, code string, ttl time.Duration) error
}

// BrevoClient sends transactional email through the Brevo API with
// exponential-backoff retries on transient failures.
type BrevoClient struct {
	apiKey     string
	fromEmail  string
	fromName   string
	httpClient *http.Client
	configured bool
}

func NewBrevoClient(apiKey, fromEmail, fromName string) *BrevoClient {
	c := &BrevoClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	if apiKey != "" && fromEmail != "" {
		c.apiKey = apiKey
		c.fromEmail = fromEmail
		c.fromName = fromName
		if c.fromName == "" {
			c.fromName = "FinanceBuddy"
		}
		c.configured = true
	}
	return c
}

func (c *BrevoClient) IsConfigured() bool {
	return c.configured
}

type sendEmailReq struct {
	Sender      map[string]string   `json:"sender"`
	To          []map[string]string `json:"to"`
	Subject     string              `json:"subject"`
	HtmlContent string              `json:"htmlContent"`
}

// SendOtpEmail emails a one-time code to the admin address.
func (c *BrevoClient) SendOtpEmail(ctx context.Context, toEmail, code string, ttl time.Duration) error {
	subject := "Your FinanceBuddy admin login code"
	html := fmt.Sprintf(`
      <div style="font-family: Arial, sans-serif; max-width: 520px; margin: 0 auto;">
        <h2>FinanceBuddy Admin Login</h2>
        <p>Your one-time code is:</p>
        <div style="font-size: 28px; letter-spacing: 6px; font-weight: bold;">%s</div>
        <p>This code expires in %d minutes.</p>
      </div>`, code, int(ttl.Minutes()))
	return c.send(ctx, toEmail, subject, html)
}

func (c *BrevoClient) send(ctx context.Context, toEmail, subject, html string) error {
	if !c.configured {
		return errors.New("brevo client not configured")
	}

	body := sendEmailReq{
		Sender:      map[string]string{"email": c.fromEmail, "name": c.fromName},
		To:          []map[string]string{{"email": toEmail}},
		Subject:     subject,
		HtmlContent: html,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal email request: %w", err)
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, brevoAPIURL, bytes.NewReader(jsonBody))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("api-key", c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			io.Copy(io.Discard, resp.Body)
			return fmt.Errorf("brevo API status %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			var errBody map[string]interface{}
			_ = json.NewDecoder(resp.Body).Decode(&errBody)
			return backoff.Permanent(fmt.Errorf("brevo API status %d: %v", resp.StatusCode, errBody))
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 20 * time.Second
	return backoff.Retry(operation, backoff.WithContext(b, ctx))
}
