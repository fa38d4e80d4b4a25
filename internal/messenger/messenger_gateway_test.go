package messenger_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"leavehub/internal/effect"
	"leavehub/internal/messenger"
)

func newTestGateway(handler http.HandlerFunc) (*messenger.WebhookGateway, *httptest.Server) {
	srv := httptest.NewServer(handler)
	gateway := messenger.NewWebhookGateway(messenger.WebhookConfig{
		URL:     srv.URL,
		Token:   "secret-token",
		Timeout: 2 * time.Second,
	}, zap.NewNop())
	return gateway, srv
}

func TestWebhookSend_Success(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	gateway, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	})
	defer srv.Close()

	err := gateway.Send(context.Background(), "+628111111111", "hello")

	assert.NoError(t, err)
	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "+628111111111", gotBody["to"])
	assert.Equal(t, "hello", gotBody["body"])
}

func TestWebhookSend_ClientErrorIsPermanent(t *testing.T) {
	gateway, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown number", http.StatusBadRequest)
	})
	defer srv.Close()

	err := gateway.Send(context.Background(), "nope", "hello")

	assert.Error(t, err)
	assert.True(t, effect.IsPermanent(err))
}

func TestWebhookSend_ServerErrorIsTransient(t *testing.T) {
	gateway, srv := newTestGateway(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "busy", http.StatusServiceUnavailable)
	})
	defer srv.Close()

	err := gateway.Send(context.Background(), "+628111111111", "hello")

	assert.Error(t, err)
	assert.False(t, effect.IsPermanent(err))
}
