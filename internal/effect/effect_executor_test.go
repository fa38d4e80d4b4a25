package effect_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"leavehub/internal/effect"
)

type fakeEffectRepository struct {
	listDueFn       func(ctx context.Context, limit int) ([]effect.Record, error)
	markSucceededFn func(ctx context.Context, id string, result string) error
	markRetryFn     func(ctx context.Context, id string, reason string, nextAttemptAt time.Time) error
	markFailedFn    func(ctx context.Context, id string, reason string, status string) error
}

func (f *fakeEffectRepository) WithTx(tx *sql.Tx) effect.Repository { return f }

func (f *fakeEffectRepository) Create(ctx context.Context, rec effect.Record) error { return nil }

func (f *fakeEffectRepository) ListDue(ctx context.Context, limit int) ([]effect.Record, error) {
	if f.listDueFn != nil {
		return f.listDueFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeEffectRepository) ListByRequest(ctx context.Context, requestID string) ([]effect.Record, error) {
	return nil, nil
}

func (f *fakeEffectRepository) FindByID(ctx context.Context, id string) (*effect.Record, error) {
	return nil, nil
}

func (f *fakeEffectRepository) FindSucceededResult(ctx context.Context, requestID, kind string) (string, error) {
	return "", nil
}

func (f *fakeEffectRepository) MarkSucceeded(ctx context.Context, id string, result string) error {
	if f.markSucceededFn != nil {
		return f.markSucceededFn(ctx, id, result)
	}
	return nil
}

func (f *fakeEffectRepository) MarkRetry(ctx context.Context, id string, reason string, nextAttemptAt time.Time) error {
	if f.markRetryFn != nil {
		return f.markRetryFn(ctx, id, reason, nextAttemptAt)
	}
	return nil
}

func (f *fakeEffectRepository) MarkFailed(ctx context.Context, id string, reason string, status string) error {
	if f.markFailedFn != nil {
		return f.markFailedFn(ctx, id, reason, status)
	}
	return nil
}

func (f *fakeEffectRepository) Redrive(ctx context.Context, id string) (int64, error) {
	return 0, nil
}

func (f *fakeEffectRepository) RedriveStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

type fakeHandler struct {
	executeFn func(ctx context.Context, rec effect.Record) (string, error)
}

func (f *fakeHandler) Execute(ctx context.Context, rec effect.Record) (string, error) {
	if f.executeFn != nil {
		return f.executeFn(ctx, rec)
	}
	return "", nil
}

type fakeFinalizer struct {
	calls []string
}

func (f *fakeFinalizer) FinalizeSync(ctx context.Context, requestID string) error {
	f.calls = append(f.calls, requestID)
	return nil
}

func dueRecord(requestID string, kind string, attempts int) effect.Record {
	return effect.Record{
		ID:             uuid.New().String(),
		RequestID:      requestID,
		Kind:           kind,
		IdempotencyKey: effect.KeyFor(requestID, 3, kind),
		Payload:        []byte(`{}`),
		Status:         effect.StatusPending,
		Attempts:       attempts,
	}
}

func TestProcessDue_SuccessMarksSucceededAndFinalizes(t *testing.T) {
	requestID := uuid.New().String()
	rec := dueRecord(requestID, effect.KindCalendarCreate, 0)

	var gotID, gotResult string
	repo := &fakeEffectRepository{
		listDueFn: func(ctx context.Context, limit int) ([]effect.Record, error) {
			return []effect.Record{rec}, nil
		},
		markSucceededFn: func(ctx context.Context, id string, result string) error {
			gotID = id
			gotResult = result
			return nil
		},
	}
	handler := &fakeHandler{
		executeFn: func(ctx context.Context, r effect.Record) (string, error) {
			return "evt-12345", nil
		},
	}
	finalizer := &fakeFinalizer{}

	err := effect.ProcessDue(context.Background(), repo, handler, finalizer, zap.NewNop(), effect.ExecutorOptions{})

	assert.NoError(t, err)
	assert.Equal(t, rec.ID, gotID)
	assert.Equal(t, "evt-12345", gotResult)
	assert.Equal(t, []string{requestID}, finalizer.calls)
}

func TestProcessDue_PermanentErrorMarksFailedPermanentAndFinalizes(t *testing.T) {
	requestID := uuid.New().String()
	rec := dueRecord(requestID, effect.KindCalendarCreate, 1)

	var gotStatus, gotReason string
	repo := &fakeEffectRepository{
		listDueFn: func(ctx context.Context, limit int) ([]effect.Record, error) {
			return []effect.Record{rec}, nil
		},
		markFailedFn: func(ctx context.Context, id string, reason string, status string) error {
			gotStatus = status
			gotReason = reason
			return nil
		},
		markRetryFn: func(ctx context.Context, id string, reason string, nextAttemptAt time.Time) error {
			t.Fatal("permanent error must not schedule a retry")
			return nil
		},
	}
	handler := &fakeHandler{
		executeFn: func(ctx context.Context, r effect.Record) (string, error) {
			return "", effect.Permanent(errors.New("calendar rejected span: 422"))
		},
	}
	finalizer := &fakeFinalizer{}

	err := effect.ProcessDue(context.Background(), repo, handler, finalizer, zap.NewNop(), effect.ExecutorOptions{})

	assert.NoError(t, err)
	assert.Equal(t, effect.StatusFailedPermanent, gotStatus)
	assert.Contains(t, gotReason, "calendar rejected span")
	assert.Equal(t, []string{requestID}, finalizer.calls, "finalizer must run so the request can settle")
}

func TestProcessDue_TransientErrorSchedulesExponentialRetry(t *testing.T) {
	requestID := uuid.New().String()

	cases := []struct {
		name     string
		attempts int
		minDelay time.Duration
		maxDelay time.Duration
	}{
		{name: "first failure", attempts: 0, minDelay: 30 * time.Second, maxDelay: 35 * time.Second},
		{name: "third failure", attempts: 2, minDelay: 2 * time.Minute, maxDelay: 2*time.Minute + 5*time.Second},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := dueRecord(requestID, effect.KindNotifyEmployee, tc.attempts)

			var gotNext time.Time
			repo := &fakeEffectRepository{
				listDueFn: func(ctx context.Context, limit int) ([]effect.Record, error) {
					return []effect.Record{rec}, nil
				},
				markRetryFn: func(ctx context.Context, id string, reason string, nextAttemptAt time.Time) error {
					gotNext = nextAttemptAt
					return nil
				},
				markFailedFn: func(ctx context.Context, id string, reason string, status string) error {
					t.Fatalf("attempt %d must retry, not fail with status %s", tc.attempts+1, status)
					return nil
				},
			}
			handler := &fakeHandler{
				executeFn: func(ctx context.Context, r effect.Record) (string, error) {
					return "", effect.Transient(errors.New("gateway timeout"))
				},
			}
			finalizer := &fakeFinalizer{}

			start := time.Now().UTC()
			err := effect.ProcessDue(context.Background(), repo, handler, finalizer, zap.NewNop(), effect.ExecutorOptions{})

			assert.NoError(t, err)
			assert.Empty(t, finalizer.calls, "retryable failure must not finalize the request")
			assert.True(t, gotNext.After(start.Add(tc.minDelay-time.Second)),
				"next attempt %s too early for attempt %d", gotNext, tc.attempts)
			assert.True(t, gotNext.Before(start.Add(tc.maxDelay)),
				"next attempt %s too late for attempt %d", gotNext, tc.attempts)
		})
	}
}

func TestProcessDue_ExhaustedAttemptsParkAsFailedRetryable(t *testing.T) {
	rec := dueRecord(uuid.New().String(), effect.KindSheetUpsert, 4)

	var gotStatus string
	repo := &fakeEffectRepository{
		listDueFn: func(ctx context.Context, limit int) ([]effect.Record, error) {
			return []effect.Record{rec}, nil
		},
		markFailedFn: func(ctx context.Context, id string, reason string, status string) error {
			gotStatus = status
			return nil
		},
		markRetryFn: func(ctx context.Context, id string, reason string, nextAttemptAt time.Time) error {
			t.Fatal("exhausted record must be parked, not rescheduled")
			return nil
		},
	}
	handler := &fakeHandler{
		executeFn: func(ctx context.Context, r effect.Record) (string, error) {
			return "", effect.Transient(errors.New("still unreachable"))
		},
	}
	finalizer := &fakeFinalizer{}

	err := effect.ProcessDue(context.Background(), repo, handler, finalizer, zap.NewNop(), effect.ExecutorOptions{})

	assert.NoError(t, err)
	assert.Equal(t, effect.StatusFailedRetryable, gotStatus)
	assert.Empty(t, finalizer.calls, "parked record stays redrivable, request must not settle")
}

func TestKeyFor_StablePerRequestVersionAndKind(t *testing.T) {
	requestID := uuid.New().String()

	first := effect.KeyFor(requestID, 2, effect.KindCalendarCreate)
	again := effect.KeyFor(requestID, 2, effect.KindCalendarCreate)
	bumped := effect.KeyFor(requestID, 3, effect.KindCalendarCreate)
	other := effect.KeyFor(requestID, 2, effect.KindNotifyEmployee)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, bumped)
	assert.NotEqual(t, first, other)
	assert.Equal(t, requestID+":v2:"+effect.KindCalendarCreate, first)
}

func TestNewRecord_StartsPendingAndDue(t *testing.T) {
	requestID := uuid.New().String()

	rec := effect.NewRecord(requestID, 1, effect.KindNotifyApprover, []byte(`{"body":"hi"}`))

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, effect.StatusPending, rec.Status)
	assert.Equal(t, 0, rec.Attempts)
	assert.Equal(t, effect.KeyFor(requestID, 1, effect.KindNotifyApprover), rec.IdempotencyKey)
	assert.False(t, rec.NextAttemptAt.After(time.Now().UTC()))
}
