package calendar

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

type HTTPConfig struct {
	BaseURL    string
	CalendarID string
	APIToken   string
	Timeout    time.Duration
}

// HTTPAdapter adalah klien JSON tipis ke provider kalender.
type HTTPAdapter struct {
	cfg    HTTPConfig
	client *http.Client
	logger *zap.Logger
}

var _ Adapter = (*HTTPAdapter)(nil)

func NewHTTPAdapter(cfg HTTPConfig, logger ...*zap.Logger) *HTTPAdapter {
	l := zap.L().Named("calendar")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &HTTPAdapter{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: l,
	}
}

type createEventRequest struct {
	Summary       string `json:"summary"`
	AttendeeEmail string `json:"attendee_email"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date"`
	RequestTag    string `json:"request_tag"`
}

type createEventResponse struct {
	EventID string `json:"event_id"`
}

func (a *HTTPAdapter) CreateBusyBlock(ctx context.Context, block BusyBlock, idempotencyKey string) (string, error) {
	body, err := json.Marshal(createEventRequest{
		Summary:       block.Summary,
		AttendeeEmail: block.EmployeeEmail,
		StartDate:     block.StartDate.Format("2006-01-02"),
		EndDate:       block.EndDate.Format("2006-01-02"),
		RequestTag:    block.RequestTag,
	})
	if err != nil {
		return "", effect.Permanent(fmt.Errorf("encode calendar event: %w", err))
	}

	url := fmt.Sprintf("%s/calendars/%s/events", a.cfg.BaseURL, a.cfg.CalendarID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", effect.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)
	a.setAuth(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", effect.Transient(fmt.Errorf("calendar unreachable: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out createEventResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.EventID == "" {
			return "", effect.Permanent(fmt.Errorf("calendar response missing event_id (status %d)", resp.StatusCode))
		}
		return out.EventID, nil

	case resp.StatusCode == http.StatusConflict:
		// Kunci idempotensi sudah pernah dipakai; provider mengembalikan event lama.
		var out createEventResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err == nil && out.EventID != "" {
			a.logger.Info("calendar event already exists, reusing",
				zap.String("event_id", out.EventID),
				zap.String("request_tag", block.RequestTag),
			)
			return out.EventID, nil
		}
		return "", effect.Permanent(fmt.Errorf("calendar conflict without event_id for key %s", idempotencyKey))

	default:
		return "", classifyStatus("create busy block", resp)
	}
}

func (a *HTTPAdapter) DeleteBusyBlock(ctx context.Context, eventID string) error {
	url := fmt.Sprintf("%s/calendars/%s/events/%s", a.cfg.BaseURL, a.cfg.CalendarID, eventID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return effect.Permanent(err)
	}
	a.setAuth(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return effect.Transient(fmt.Errorf("calendar unreachable: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusNotFound:
		// Event sudah tidak ada; hapus dianggap selesai.
		return nil
	default:
		return classifyStatus("delete busy block", resp)
	}
}

func (a *HTTPAdapter) setAuth(req *http.Request) {
	if a.cfg.APIToken != "" {
		req.Header.Set("Authorization", "Bearer "+a.cfg.APIToken)
	}
}

// classifyStatus memetakan status HTTP ke taksonomi error: 429 dan 5xx bisa
// diulang, 4xx lain butuh campur tangan operator.
func classifyStatus(op string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
	err := fmt.Errorf("%s: calendar API status %d: %s", op, resp.StatusCode, bytes.TrimSpace(snippet))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return effect.Transient(err)
	}
	return effect.Permanent(err)
}
