package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"gymstack-backend/common"
)

// MailerService sends transactional email through the SendGrid REST API.
// Delivery is always best-effort: callers log failures and move on.
type MailerService struct {
	apiKey      string
	senderEmail string
	apiURL      string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewMailerService creates a new mailer service
func NewMailerService(cfg *common.Config) *MailerService {
	timeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	return &MailerService{
		apiKey:      cfg.SendgridAPIKey,
		senderEmail: cfg.SenderEmail,
		apiURL:      common.SENDGRID_API_URL,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      slog.With("service", "MailerService"),
	}
}

// Enabled reports whether an API key was configured.
func (s *MailerService) Enabled() bool {
	return s.apiKey != ""
}

// Mail describes one outgoing message.
type Mail struct {
	ToEmail   string
	ToName    string
	FromEmail string
	FromName  string
	Subject   string
	HTML      string
}

type sendgridAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sendgridPayload struct {
	Personalizations []struct {
		To      []sendgridAddress `json:"to"`
		Subject string            `json:"subject"`
	} `json:"personalizations"`
	From    sendgridAddress `json:"from"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

// Send delivers one HTML email. When no API key is configured the send is
// skipped silently.
func (s *MailerService) Send(ctx context.Context, mail Mail) error {
	if !s.Enabled() {
		s.logger.Debug("Mailer disabled, skipping send", "to", mail.ToEmail)
		return nil
	}

	from := mail.FromEmail
	if from == "" {
		from = s.senderEmail
	}

	payload := sendgridPayload{
		From: sendgridAddress{Email: from, Name: mail.FromName},
	}
	payload.Personalizations = append(payload.Personalizations, struct {
		To      []sendgridAddress `json:"to"`
		Subject string            `json:"subject"`
	}{
		To:      []sendgridAddress{{Email: mail.ToEmail, Name: mail.ToName}},
		Subject: mail.Subject,
	})
	payload.Content = append(payload.Content, struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{Type: "text/html", Value: mail.HTML})

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build mail request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mail API error: status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.Info("Email sent", "to", mail.ToEmail, "subject", mail.Subject)
	return nil
}
