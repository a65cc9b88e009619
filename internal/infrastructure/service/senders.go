// Package service implements infrastructure adapters for the Aura Hub
// intervention engine: alert delivery channels, report exporters, and the
// admin credential service.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aura-hub/intervention-hub/internal/domain/notification"
)

// ══════════════════════════════════════════════════════════════════════════════
// FILE SENDER
// ══════════════════════════════════════════════════════════════════════════════

// FileSender implements notification.Sender by writing each alert into an
// outbox directory. Districts without an email relay pick the files up with
// their own delivery tooling.
type FileSender struct {
	dir    string
	logger *slog.Logger
}

// NewFileSender creates a sender writing to the given outbox directory.
func NewFileSender(dir string, logger *slog.Logger) (*FileSender, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("service: failed to create outbox %s: %w", dir, err)
	}

	return &FileSender{dir: dir, logger: logger}, nil
}

// Send writes the alert as an RFC-822 style message file named after its
// reference number.
func (s *FileSender) Send(ctx context.Context, alert *notification.Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString("To: " + strings.Join(alert.Recipients, ", ") + "\n")
	b.WriteString("Subject: " + alert.Subject + "\n")
	b.WriteString("X-Priority: " + string(alert.Priority) + "\n")
	b.WriteString("X-Reference: " + string(alert.Reference) + "\n")
	b.WriteString("Date: " + alert.GeneratedAt.Format(time.RFC1123Z) + "\n")
	b.WriteString("\n")
	b.WriteString(alert.Body)
	b.WriteString("\n")

	path := filepath.Join(s.dir, string(alert.Reference)+".eml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("service: failed to write alert %s: %w", alert.Reference, err)
	}

	s.logger.Info("alert written to outbox", "reference", alert.Reference, "path", path)
	return nil
}

// Type returns the channel type.
func (s *FileSender) Type() notification.ChannelType {
	return notification.ChannelTypeFile
}

// ══════════════════════════════════════════════════════════════════════════════
// WEBHOOK SENDER
// ══════════════════════════════════════════════════════════════════════════════

// WebhookSender implements notification.Sender by POSTing the alert to an
// HTTP endpoint (typically the district's messaging gateway). Retries live
// in the delivery event handler, not here.
type WebhookSender struct {
	url        string
	authToken  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewWebhookSender creates a sender posting to the given URL.
func NewWebhookSender(url, authToken string, timeout time.Duration, logger *slog.Logger) *WebhookSender {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &WebhookSender{
		url:       url,
		authToken: authToken,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// webhookPayload is the wire shape posted to the gateway.
type webhookPayload struct {
	Reference   string   `json:"reference"`
	StudentID   string   `json:"student_id"`
	StudentName string   `json:"student_name"`
	Priority    string   `json:"priority"`
	Subject     string   `json:"subject"`
	Body        string   `json:"body"`
	Recipients  []string `json:"recipients"`
	RiskLevel   string   `json:"risk_level"`
	GeneratedAt string   `json:"generated_at"`
}

// Send posts the alert. Any non-2xx status is a delivery failure.
func (s *WebhookSender) Send(ctx context.Context, alert *notification.Alert) error {
	payload := webhookPayload{
		Reference:   string(alert.Reference),
		StudentID:   alert.StudentID,
		StudentName: alert.StudentName,
		Priority:    string(alert.Priority),
		Subject:     alert.Subject,
		Body:        alert.Body,
		Recipients:  alert.Recipients,
		RiskLevel:   string(alert.RiskLevel),
		GeneratedAt: alert.GeneratedAt.Format(time.RFC3339),
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("service: failed to marshal alert %s: %w", alert.Reference, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("service: failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("service: webhook delivery failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("service: webhook returned status %d: %s", resp.StatusCode, string(body))
	}

	s.logger.Info("alert delivered via webhook",
		"reference", alert.Reference, "status", resp.StatusCode)
	return nil
}

// Type returns the channel type.
func (s *WebhookSender) Type() notification.ChannelType {
	return notification.ChannelTypeWebhook
}

// ══════════════════════════════════════════════════════════════════════════════
// LOG SENDER
// ══════════════════════════════════════════════════════════════════════════════

// LogSender implements notification.Sender by logging the alert. Used in
// development and as a fallback when no channel is configured.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a log-only sender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Send logs the alert headline.
func (s *LogSender) Send(ctx context.Context, alert *notification.Alert) error {
	s.logger.Info("alert (log channel)",
		"reference", alert.Reference,
		"student_id", alert.StudentID,
		"priority", alert.Priority,
		"subject", alert.Subject,
	)
	return nil
}

// Type returns the channel type.
func (s *LogSender) Type() notification.ChannelType {
	return notification.ChannelTypeEmail
}
