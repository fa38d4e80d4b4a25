package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"leavehub/internal/effect"
)

type HTTPConfig struct {
	BaseURL       string
	SpreadsheetID string
	SheetName     string
	APIToken      string
	Timeout       time.Duration
}

// HTTPMirror menulis baris lewat endpoint upsert provider spreadsheet.
type HTTPMirror struct {
	cfg    HTTPConfig
	client *http.Client
	logger *zap.Logger
}

var _ Mirror = (*HTTPMirror)(nil)

func NewHTTPMirror(cfg HTTPConfig, logger ...*zap.Logger) *HTTPMirror {
	l := zap.L().Named("sheets")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.SheetName == "" {
		cfg.SheetName = "LeaveTracker"
	}
	return &HTTPMirror{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: l,
	}
}

func (m *HTTPMirror) UpsertRow(ctx context.Context, row Row, idempotencyKey string) error {
	body, err := json.Marshal(row)
	if err != nil {
		return effect.Permanent(fmt.Errorf("encode sheet row: %w", err))
	}

	endpoint := fmt.Sprintf("%s/spreadsheets/%s/sheets/%s/rows/%s",
		m.cfg.BaseURL,
		m.cfg.SpreadsheetID,
		url.PathEscape(m.cfg.SheetName),
		url.PathEscape(row.RequestNumber),
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(body))
	if err != nil {
		return effect.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	if m.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+m.cfg.APIToken)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return effect.Transient(fmt.Errorf("sheets unreachable: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusConflict:
		// Upsert dengan kunci yang sama sudah tercatat sebelumnya.
		m.logger.Info("sheet row already written, skipping",
			zap.String("request_number", row.RequestNumber),
		)
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return effect.Transient(statusError(resp))
	default:
		return effect.Permanent(statusError(resp))
	}
}

func statusError(resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	return fmt.Errorf("sheets API status %d: %s", resp.StatusCode, bytes.TrimSpace(snippet))
}
