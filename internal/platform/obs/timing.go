package obs

import (
	"context"
	"time"

	"order-board-service/internal/platform/logger"
	"order-board-service/internal/platform/metrics"

	"go.uber.org/zap"
)

// Time starts timing op. Call the returned func with a pointer to the named
// error result: defer obs.Time(ctx, "op")(&err).
func Time(ctx context.Context, op string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		dur := time.Since(start)
		outcome := "ok"
		fields := []zap.Field{zap.String("op", op), zap.Int64("dur_ms", dur.Milliseconds())}

		if errp != nil && *errp != nil {
			outcome = "error"
			logger.WithContext(ctx).Warn("operation failed", append(fields, zap.Error(*errp))...)
		} else {
			logger.WithContext(ctx).Debug("operation finished", fields...)
		}

		metrics.Default().ObserveOp(op, outcome, dur)
	}
}
