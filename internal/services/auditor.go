package services

import (
	"context"
	"log/slog"
	"time"
)

type budgetAuditor interface {
	AuditActiveGames(ctx context.Context) (int, error)
}

// RunAuditor audits all active games every interval until ctx is done. A
// non-positive interval disables it.
func RunAuditor(ctx context.Context, games budgetAuditor, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			faulty, err := games.AuditActiveGames(ctx)
			if err != nil {
				slog.ErrorContext(ctx, "budget audit failed", "error", err)
				continue
			}
			if faulty > 0 {
				slog.WarnContext(ctx, "budget audit found faulty games", "count", faulty)
			}
		}
	}
}
