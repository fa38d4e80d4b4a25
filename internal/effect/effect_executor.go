package effect

import (
	"context"
	"time"

	"leavehub/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Handler mengeksekusi satu record terhadap adapter eksternal yang sesuai.
// Error dibungkus Transient/Permanent untuk menentukan kebijakan retry.
type Handler interface {
	Execute(ctx context.Context, rec Record) (result string, err error)
}

// Finalizer meninjau ulang status sync request setelah sebuah record
// mencapai status terminal.
type Finalizer interface {
	FinalizeSync(ctx context.Context, requestID string) error
}

type ExecutorOptions struct {
	PollInterval  time.Duration
	BatchSize     int
	MaxAttempts   int
	BackoffBase   time.Duration
	ExecTimeout   time.Duration
	SweepInterval time.Duration
	RedriveAfter  time.Duration
}

func (o *ExecutorOptions) withDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = 5 * time.Second
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 50
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 5
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = 30 * time.Second
	}
	if o.ExecTimeout <= 0 {
		o.ExecTimeout = 30 * time.Second
	}
	if o.SweepInterval <= 0 {
		o.SweepInterval = 5 * time.Minute
	}
	if o.RedriveAfter <= 0 {
		o.RedriveAfter = 30 * time.Minute
	}
}

func RunExecutor(
	ctx context.Context,
	repo Repository,
	handler Handler,
	finalizer Finalizer,
	logger *zap.Logger,
	opts ExecutorOptions,
) {
	opts.withDefaults()

	log := logger.Named("effect.executor")
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	log.Info("side effect executor started",
		zap.Duration("poll_interval", opts.PollInterval),
		zap.Int("batch_size", opts.BatchSize),
		zap.Int("max_attempts", opts.MaxAttempts),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("side effect executor stopped")
			return
		case <-ticker.C:
			if err := ProcessDue(ctx, repo, handler, finalizer, log, opts); err != nil {
				log.Error("process due side effects failed", zap.Error(err))
			}
		}
	}
}

// ProcessDue menguras satu batch record yang sudah jatuh tempo. Dipakai oleh
// loop executor dan bisa dipanggil langsung untuk drain manual.
func ProcessDue(
	ctx context.Context,
	repo Repository,
	handler Handler,
	finalizer Finalizer,
	logger *zap.Logger,
	opts ExecutorOptions,
) error {
	opts.withDefaults()

	records, err := repo.ListDue(ctx, opts.BatchSize)
	if err != nil {
		return err
	}

	if len(records) == 0 {
		return nil
	}

	logger.Info("processing due side effects", zap.Int("count", len(records)))

	for _, rec := range records {
		executeRecord(ctx, repo, handler, finalizer, logger, opts, rec)
	}

	return nil
}

func executeRecord(
	ctx context.Context,
	repo Repository,
	handler Handler,
	finalizer Finalizer,
	logger *zap.Logger,
	opts ExecutorOptions,
	rec Record,
) {
	execCtx, cancel := context.WithTimeout(ctx, opts.ExecTimeout)
	defer cancel()

	timer := prometheus.NewTimer(metrics.EffectDuration.WithLabelValues(rec.Kind))
	result, err := handler.Execute(execCtx, rec)
	timer.ObserveDuration()

	if err == nil {
		if markErr := repo.MarkSucceeded(ctx, rec.ID, result); markErr != nil {
			logger.Error("mark side effect succeeded failed",
				zap.String("effect_id", rec.ID),
				zap.Error(markErr),
			)
			return
		}
		metrics.EffectAttempts.WithLabelValues(rec.Kind, "succeeded").Inc()
		logger.Info("side effect executed",
			zap.String("effect_id", rec.ID),
			zap.String("request_id", rec.RequestID),
			zap.String("kind", rec.Kind),
			zap.Int("attempt", rec.Attempts+1),
		)
		finalize(ctx, finalizer, logger, rec.RequestID)
		return
	}

	if IsPermanent(err) {
		if markErr := repo.MarkFailed(ctx, rec.ID, err.Error(), StatusFailedPermanent); markErr != nil {
			logger.Error("mark side effect permanent failure failed",
				zap.String("effect_id", rec.ID),
				zap.Error(markErr),
			)
			return
		}
		metrics.EffectAttempts.WithLabelValues(rec.Kind, "failed_permanent").Inc()
		logger.Error("side effect failed permanently",
			zap.String("effect_id", rec.ID),
			zap.String("request_id", rec.RequestID),
			zap.String("kind", rec.Kind),
			zap.Error(err),
		)
		finalize(ctx, finalizer, logger, rec.RequestID)
		return
	}

	attempts := rec.Attempts + 1
	if attempts >= opts.MaxAttempts {
		if markErr := repo.MarkFailed(ctx, rec.ID, err.Error(), StatusFailedRetryable); markErr != nil {
			logger.Error("mark side effect retryable failure failed",
				zap.String("effect_id", rec.ID),
				zap.Error(markErr),
			)
			return
		}
		metrics.EffectAttempts.WithLabelValues(rec.Kind, "failed_retryable").Inc()
		logger.Warn("side effect exhausted retries",
			zap.String("effect_id", rec.ID),
			zap.String("request_id", rec.RequestID),
			zap.String("kind", rec.Kind),
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return
	}

	delay := backoffDelay(opts.BackoffBase, rec.Attempts)
	if markErr := repo.MarkRetry(ctx, rec.ID, err.Error(), time.Now().UTC().Add(delay)); markErr != nil {
		logger.Error("mark side effect retry failed",
			zap.String("effect_id", rec.ID),
			zap.Error(markErr),
		)
		return
	}
	metrics.EffectAttempts.WithLabelValues(rec.Kind, "retried").Inc()
	logger.Warn("side effect failed, retry scheduled",
		zap.String("effect_id", rec.ID),
		zap.String("request_id", rec.RequestID),
		zap.String("kind", rec.Kind),
		zap.Int("attempt", attempts),
		zap.Duration("backoff", delay),
		zap.Error(err),
	)
}

func finalize(ctx context.Context, finalizer Finalizer, logger *zap.Logger, requestID string) {
	if finalizer == nil {
		return
	}
	if err := finalizer.FinalizeSync(ctx, requestID); err != nil {
		logger.Error("finalize request sync state failed",
			zap.String("request_id", requestID),
			zap.Error(err),
		)
	}
}

// backoffDelay: eksponensial base * 2^attempts, dibatasi satu jam.
func backoffDelay(base time.Duration, attempts int) time.Duration {
	if attempts > 16 {
		return time.Hour
	}
	delay := base << uint(attempts)
	if delay > time.Hour {
		return time.Hour
	}
	return delay
}

// RunRedriveSweeper mengembalikan record failed_retryable yang sudah
// melewati masa tenang ke antrian pending.
func RunRedriveSweeper(
	ctx context.Context,
	repo Repository,
	logger *zap.Logger,
	opts ExecutorOptions,
) {
	opts.withDefaults()

	log := logger.Named("effect.sweeper")
	ticker := time.NewTicker(opts.SweepInterval)
	defer ticker.Stop()

	log.Info("redrive sweeper started",
		zap.Duration("sweep_interval", opts.SweepInterval),
		zap.Duration("redrive_after", opts.RedriveAfter),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("redrive sweeper stopped")
			return
		case <-ticker.C:
			n, err := repo.RedriveStale(ctx, opts.RedriveAfter)
			if err != nil {
				log.Error("redrive stale side effects failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("stale side effects redriven", zap.Int64("count", n))
			}
		}
	}
}
