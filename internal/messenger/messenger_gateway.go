package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"leavehub/internal/effect"
)

// Gateway meneruskan satu pesan chat ke provider messaging.
type Gateway interface {
	Send(ctx context.Context, phone, body string) error
}

type WebhookConfig struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// WebhookGateway memanggil webhook provider (gaya Twilio WhatsApp).
type WebhookGateway struct {
	cfg    WebhookConfig
	client *http.Client
	logger *zap.Logger
}

var _ Gateway = (*WebhookGateway)(nil)

func NewWebhookGateway(cfg WebhookConfig, logger ...*zap.Logger) *WebhookGateway {
	l := zap.L().Named("messenger.gateway")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &WebhookGateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: l,
	}
}

type webhookPayload struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func (g *WebhookGateway) Send(ctx context.Context, phone, body string) error {
	payload, err := json.Marshal(webhookPayload{To: phone, Body: body})
	if err != nil {
		return effect.Permanent(fmt.Errorf("encode webhook payload: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return effect.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if g.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+g.cfg.Token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return effect.Transient(fmt.Errorf("messaging webhook unreachable: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return effect.Transient(webhookStatusError(resp))
	default:
		// Nomor tidak valid atau payload ditolak; kirim ulang tidak akan menolong.
		return effect.Permanent(webhookStatusError(resp))
	}
}

func webhookStatusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("messaging webhook status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
}
