package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/harveywai/threatscan/pkg/database"
)

// Default alert templates. Placeholders use {{key}} syntax and are filled
// from the scan being reported.
const (
	defaultTitleTemplate = "Phishing detected: {{domain}}"
	defaultBodyTemplate  = "Scan of {{url}} by {{user}} classified as {{verdict}}. " +
		"Signals: {{keywords}} suspicious keywords, domain age {{age_days}} days, {{redirects}} redirects."
)

// formatMessage replaces {{key}} placeholders in a template with values from
// the data map. Unknown placeholders are left as-is.
func formatMessage(template string, data map[string]string) string {
	if template == "" {
		return ""
	}

	re := regexp.MustCompile(`\{\{\s*(\w+)\s*\}\}`)
	return re.ReplaceAllStringFunc(template, func(match string) string {
		keyMatch := re.FindStringSubmatch(match)
		if len(keyMatch) < 2 {
			return match
		}
		if value, ok := data[strings.TrimSpace(keyMatch[1])]; ok {
			return value
		}
		return match
	})
}

// AlertPayload is the JSON body delivered to webhook receivers.
type AlertPayload struct {
	Title   string                 `json:"title"`
	Body    string                 `json:"body"`
	Event   string                 `json:"event"`
	URL     string                 `json:"url"`
	Domain  string                 `json:"domain"`
	Verdict string                 `json:"verdict"`
	Time    string                 `json:"time"`
	Extra   map[string]interface{} `json:"extra,omitempty"`
}

// Notifier fans phishing alerts out to the configured channels. Channels
// with empty configuration are skipped silently.
type Notifier struct {
	WebhookURL     string
	TelegramToken  string
	TelegramChatID string

	// APIBase overrides the Telegram endpoint; tests point it at a local
	// server. Empty means the public Bot API.
	APIBase string

	client *http.Client
}

// New returns a notifier using the given channel configuration.
func New(webhookURL, tgToken, tgChatID string) *Notifier {
	return &Notifier{
		WebhookURL:     webhookURL,
		TelegramToken:  tgToken,
		TelegramChatID: tgChatID,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled reports whether at least one channel is configured.
func (n *Notifier) Enabled() bool {
	return n.WebhookURL != "" || (n.TelegramToken != "" && n.TelegramChatID != "")
}

// PhishingDetected reports a phishing verdict to every configured channel.
// Per-channel failures are collected; an error is returned only when every
// configured channel failed.
func (n *Notifier) PhishingDetected(scan database.Scan, userEmail string) error {
	if !n.Enabled() {
		return nil
	}

	data := map[string]string{
		"url":       scan.URL,
		"domain":    scan.Domain,
		"verdict":   scan.Result,
		"user":      userEmail,
		"keywords":  fmt.Sprintf("%d", scan.SuspiciousKeywords),
		"age_days":  fmt.Sprintf("%d", scan.DomainAgeDays),
		"redirects": fmt.Sprintf("%d", scan.Redirects),
	}
	title := formatMessage(defaultTitleTemplate, data)
	body := formatMessage(defaultBodyTemplate, data)

	var errs []string
	sent := 0

	if n.WebhookURL != "" {
		payload := AlertPayload{
			Title:   title,
			Body:    body,
			Event:   "phishing_detected",
			URL:     scan.URL,
			Domain:  scan.Domain,
			Verdict: scan.Result,
			Time:    time.Now().Format(time.RFC3339),
			Extra: map[string]interface{}{
				"https":               scan.HTTPS,
				"ssl_valid":           scan.SSLValid,
				"domain_age_days":     scan.DomainAgeDays,
				"redirects":           scan.Redirects,
				"suspicious_keywords": scan.SuspiciousKeywords,
			},
		}
		if err := n.sendWebhook(payload); err != nil {
			errs = append(errs, fmt.Sprintf("webhook: %v", err))
		} else {
			sent++
		}
	}

	if n.TelegramToken != "" && n.TelegramChatID != "" {
		text := title + "\n" + body
		if err := n.sendTelegram(text); err != nil {
			errs = append(errs, fmt.Sprintf("telegram: %v", err))
		} else {
			sent++
		}
	}

	if sent == 0 && len(errs) > 0 {
		return fmt.Errorf("all alert channels failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// sendWebhook POSTs the payload to the configured webhook URL.
func (n *Notifier) sendWebhook(payload AlertPayload) error {
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", n.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status code %d", resp.StatusCode)
	}
	return nil
}

// sendTelegram delivers a message through the Telegram Bot API.
func (n *Notifier) sendTelegram(text string) error {
	base := n.APIBase
	if base == "" {
		base = "https://api.telegram.org"
	}
	apiURL := fmt.Sprintf("%s/bot%s/sendMessage", base, n.TelegramToken)

	payload := map[string]string{
		"chat_id": n.TelegramChatID,
		"text":    text,
	}
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequest("POST", apiURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp struct {
			OK          bool   `json:"ok"`
			ErrorCode   int    `json:"error_code,omitempty"`
			Description string `json:"description,omitempty"`
		}
		if err := json.Unmarshal(bodyBytes, &errorResp); err == nil && errorResp.Description != "" {
			return fmt.Errorf("telegram API error: %s (code: %d)", errorResp.Description, errorResp.ErrorCode)
		}
		return fmt.Errorf("telegram API returned status code %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var response struct {
		OK bool `json:"ok"`
	}
	if err := json.Unmarshal(bodyBytes, &response); err == nil && !response.OK {
		return fmt.Errorf("telegram API returned ok=false")
	}
	return nil
}
