package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/model"
	"github.com/corridor/hallpass-backend/internal/service"
)

// ExpiryStore performs the idempotent Active→Expired convergence write.
type ExpiryStore interface {
	ExpireOverdue(ctx context.Context, now time.Time) ([]int, error)
}

// ExpiryWorker is the sweep half of the two-speed expiry design: read
// paths already treat elapsed passes as expired, this worker eventually
// rewrites stored state so rows converge even when nothing reads them.
type ExpiryWorker struct {
	passes   ExpiryStore
	audits   service.AuditStore
	rdb      *redis.Client // optional; nil disables cross-replica locking
	interval time.Duration
	log      zerolog.Logger

	now func() time.Time
}

// NewExpiryWorker creates a new ExpiryWorker.
func NewExpiryWorker(passes ExpiryStore, audits service.AuditStore, rdb *redis.Client, interval time.Duration, log zerolog.Logger) *ExpiryWorker {
	return &ExpiryWorker{
		passes:   passes,
		audits:   audits,
		rdb:      rdb,
		interval: interval,
		log:      log.With().Str("component", "expiry_worker").Logger(),
		now:      time.Now,
	}
}

// Start runs the sweep loop until the context is cancelled.
func (w *ExpiryWorker) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("ExpiryWorker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("ExpiryWorker stopped")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				w.log.Error().Err(err).Msg("Sweep failed")
			}
		}
	}
}

// SweepOnce expires every overdue pass and returns how many were
// converged. The write is idempotent, so overlapping sweeps are harmless;
// the Redis lock only avoids duplicate work across replicas.
func (w *ExpiryWorker) SweepOnce(ctx context.Context) (int, error) {
	if !w.acquireLock(ctx) {
		return 0, nil
	}

	ids, err := w.passes.ExpireOverdue(ctx, w.now())
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := w.audits.Append(ctx, model.AuditEntry{
			Action:     model.AuditPassAutoExpired,
			TargetType: "pass",
			TargetID:   id,
			Message:    "expired by sweep",
		}); err != nil {
			w.log.Warn().Err(err).Int("pass_id", id).Msg("Audit append failed")
		}
		w.publish(ctx, id)
	}

	if len(ids) > 0 {
		w.log.Info().Int("count", len(ids)).Msg("Expired overdue passes")
	}
	return len(ids), nil
}

func (w *ExpiryWorker) acquireLock(ctx context.Context) bool {
	if w.rdb == nil {
		return true
	}
	ok, err := w.rdb.SetNX(ctx, config.CacheKey.SweepLockKey(), "1", w.interval).Result()
	if err != nil {
		// Fail open: a duplicate sweep is idempotent.
		w.log.Warn().Err(err).Msg("Sweep lock unavailable")
		return true
	}
	return ok
}

func (w *ExpiryWorker) publish(ctx context.Context, passID int) {
	if w.rdb == nil {
		return
	}
	raw, err := json.Marshal(service.PassEvent{Action: model.AuditPassAutoExpired, PassID: passID})
	if err != nil {
		return
	}
	if err := w.rdb.Publish(ctx, config.CacheKey.PassEventsChannel(), raw).Err(); err != nil {
		w.log.Warn().Err(err).Msg("Event publish failed")
	}
}
