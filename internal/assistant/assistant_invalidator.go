package assistant

import (
	"context"

	"leavehub/internal/leave"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Invalidator membuang snapshot grounding saat status cuti karyawan
// berubah, supaya jawaban asisten tidak memakai data basi.
type Invalidator struct {
	rdb    *redis.Client
	logger *zap.Logger
}

var _ leave.GroundingInvalidator = (*Invalidator)(nil)

func NewInvalidator(rdb *redis.Client, logger ...*zap.Logger) *Invalidator {
	l := zap.L().Named("assistant.invalidator")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("assistant.invalidator")
	}
	return &Invalidator{rdb: rdb, logger: l}
}

func (i *Invalidator) InvalidateEmployee(ctx context.Context, employeeID string) error {
	if i.rdb == nil {
		return nil
	}
	if err := i.rdb.Del(ctx, GroundingCacheKey(employeeID)).Err(); err != nil {
		i.logger.Warn("grounding invalidation failed",
			zap.String("employee_id", employeeID),
			zap.Error(err),
		)
		return err
	}
	return nil
}
