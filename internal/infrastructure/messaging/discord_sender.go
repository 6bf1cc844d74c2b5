package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const embedColorBlue = 3447003

// DiscordSender delivers notifications to a Discord channel webhook.
// A RecipientRef becomes a user mention so the message reads as a
// direct notice; without one the message is a plain broadcast.
type DiscordSender struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewDiscordSender creates a DiscordSender with the given webhook URL
// and request timeout.
func NewDiscordSender(webhookURL string, timeout time.Duration, logger *zap.Logger) *DiscordSender {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DiscordSender{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type discordEmbed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color"`
	Timestamp   string `json:"timestamp"`
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

// Send posts the message as an embed to the webhook
func (s *DiscordSender) Send(ctx context.Context, msg Message) (*Result, error) {
	payload := discordPayload{
		Embeds: []discordEmbed{{
			Title:       msg.Title,
			Description: msg.Body,
			Color:       embedColorBlue,
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
	if msg.RecipientRef != "" {
		payload.Content = fmt.Sprintf("<@%s>", msg.RecipientRef)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("discord: failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("discord: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("Discord webhook call failed", zap.Error(err))
		return nil, fmt.Errorf("discord: webhook call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.logger.Warn("Discord webhook rejected message",
			zap.Int("status", resp.StatusCode))
		return &Result{Success: false}, fmt.Errorf("discord: webhook returned status %d", resp.StatusCode)
	}

	return &Result{
		Success:   true,
		MessageID: uuid.NewString(),
	}, nil
}

// Channel names the discord channel
func (s *DiscordSender) Channel() string {
	return "discord"
}
