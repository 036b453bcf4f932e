package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/examstack/exam_scheduler/internal/service"
	"github.com/examstack/exam_scheduler/pkg/logging"
)

const DefaultSweepInterval = time.Hour

// SweepRefreshTokens deletes expired refresh-token rows on a fixed
// interval until the context is cancelled. Runs in its own goroutine from
// main.
func SweepRefreshTokens(ctx context.Context, svc *service.RefreshTokenService, every time.Duration, l *slog.Logger) {
	if every <= 0 {
		every = DefaultSweepInterval
	}
	l = l.With("job", "refresh_token_sweep")

	t := time.NewTicker(every)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := svc.SweepExpired(logging.IntoContext(ctx, l))
			if err != nil {
				l.Error("sweep failed", "error", err)
				continue
			}
			if n > 0 {
				l.Info("sweep completed", "deleted", n)
			}
		}
	}
}
