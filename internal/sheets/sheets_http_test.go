package sheets_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"leavehub/internal/effect"
	"leavehub/internal/sheets"
)

func newTestMirror(handler http.HandlerFunc) (*sheets.HTTPMirror, *httptest.Server) {
	srv := httptest.NewServer(handler)
	mirror := sheets.NewHTTPMirror(sheets.HTTPConfig{
		BaseURL:       srv.URL,
		SpreadsheetID: "sheet-42",
		SheetName:     "LeaveTracker",
		APIToken:      "secret-token",
		Timeout:       2 * time.Second,
	}, zap.NewNop())
	return mirror, srv
}

func trackerRow() sheets.Row {
	return sheets.Row{
		RequestNumber: "LR-000042",
		EmployeeName:  "Andi",
		LeaveType:     "ANNUAL",
		StartDate:     "2026-06-01",
		EndDate:       "2026-06-03",
		Days:          decimal.NewFromInt(3),
		Status:        "APPROVED_PENDING_SYNC",
	}
}

func TestUpsertRow_Success(t *testing.T) {
	var gotMethod, gotPath, gotKey string
	var gotRow sheets.Row
	mirror, srv := newTestMirror(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewDecoder(r.Body).Decode(&gotRow)
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	err := mirror.UpsertRow(context.Background(), trackerRow(), "req-1:v2:sheet_upsert")

	assert.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/spreadsheets/sheet-42/sheets/LeaveTracker/rows/LR-000042", gotPath)
	assert.Equal(t, "req-1:v2:sheet_upsert", gotKey)
	assert.Equal(t, "LR-000042", gotRow.RequestNumber)
	assert.True(t, gotRow.Days.Equal(decimal.NewFromInt(3)))
}

func TestUpsertRow_ConflictIsIdempotent(t *testing.T) {
	mirror, srv := newTestMirror(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})
	defer srv.Close()

	assert.NoError(t, mirror.UpsertRow(context.Background(), trackerRow(), "key"))
}

func TestUpsertRow_ClientErrorIsPermanent(t *testing.T) {
	mirror, srv := newTestMirror(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sheet deleted", http.StatusGone)
	})
	defer srv.Close()

	err := mirror.UpsertRow(context.Background(), trackerRow(), "key")

	assert.Error(t, err)
	assert.True(t, effect.IsPermanent(err))
}

func TestUpsertRow_ServerErrorIsTransient(t *testing.T) {
	mirror, srv := newTestMirror(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota", http.StatusTooManyRequests)
	})
	defer srv.Close()

	err := mirror.UpsertRow(context.Background(), trackerRow(), "key")

	assert.Error(t, err)
	assert.False(t, effect.IsPermanent(err))
}

func TestUpsertRow_NetworkErrorIsTransient(t *testing.T) {
	mirror, srv := newTestMirror(func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	err := mirror.UpsertRow(context.Background(), trackerRow(), "key")

	assert.Error(t, err)
	assert.False(t, effect.IsPermanent(err))
}
