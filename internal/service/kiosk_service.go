package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/model"
)

// SnapshotStore produces the active-pass rows the kiosk view is built from.
type SnapshotStore interface {
	ListActiveSnapshots(ctx context.Context, teacherID int, now time.Time, limit int) ([]model.PassSnapshot, error)
}

const snapshotLimit = 100

// cachedKiosk is the shape persisted in the token cache. model.Kiosk hides
// its token from JSON, so the binding fields are mirrored explicitly.
type cachedKiosk struct {
	ID            int  `json:"id"`
	ClassPeriodID *int `json:"class_period_id,omitempty"`
	TeacherID     *int `json:"teacher_id,omitempty"`
}

// KioskService is the read-only projection of currently active passes.
// Every listing re-derives "active" from the clock at call time, so a pass
// past its deadline disappears even before the sweep has rewritten it. No
// method here writes pass state.
type KioskService struct {
	kiosks  KioskStore
	periods PeriodStore
	passes  SnapshotStore
	rdb     *redis.Client // optional; nil disables the token cache
	ttl     time.Duration
	log     zerolog.Logger

	now func() time.Time
}

// NewKioskService creates a new KioskService.
func NewKioskService(
	kiosks KioskStore,
	periods PeriodStore,
	passes SnapshotStore,
	rdb *redis.Client,
	ttl time.Duration,
	log zerolog.Logger,
) *KioskService {
	return &KioskService{
		kiosks:  kiosks,
		periods: periods,
		passes:  passes,
		rdb:     rdb,
		ttl:     ttl,
		log:     log.With().Str("component", "kiosk_service").Logger(),
		now:     time.Now,
	}
}

// ListActive returns the snapshot rows for the scope the token grants. An
// empty token yields the system-wide view; a token bound to a period or
// teacher narrows the listing to that teacher's assigned passes; an
// invalid token fails with ErrCredentialInvalid and never widens the view.
func (s *KioskService) ListActive(ctx context.Context, token string) ([]model.PassSnapshot, error) {
	teacherID, err := s.ScopeTeacherID(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.passes.ListActiveSnapshots(ctx, teacherID, s.now(), snapshotLimit)
}

// ScopeTeacherID resolves a kiosk token to the teacher whose assigned
// passes the view is filtered to, or 0 for the unscoped view.
func (s *KioskService) ScopeTeacherID(ctx context.Context, token string) (int, error) {
	if token == "" {
		return 0, nil
	}

	kiosk, err := s.lookupToken(ctx, token)
	if err != nil {
		return 0, err
	}

	switch {
	case kiosk.ClassPeriodID != nil:
		period, err := s.periods.GetByID(ctx, *kiosk.ClassPeriodID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return 0, ErrCredentialInvalid
			}
			return 0, err
		}
		return period.TeacherID, nil
	case kiosk.TeacherID != nil:
		return *kiosk.TeacherID, nil
	default:
		// Unbound kiosks see everything.
		return 0, nil
	}
}

// lookupToken validates a kiosk token, consulting the short-TTL cache
// first. Only successful lookups are cached: an invalid token must keep
// failing until the credential is actually reinstated.
func (s *KioskService) lookupToken(ctx context.Context, token string) (*cachedKiosk, error) {
	key := config.CacheKey.KioskTokenKey(token)

	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, key).Result(); err == nil {
			var cached cachedKiosk
			if err := json.Unmarshal([]byte(raw), &cached); err == nil {
				return &cached, nil
			}
		}
	}

	kiosk, err := s.kiosks.GetActiveByToken(ctx, token)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCredentialInvalid
		}
		return nil, err
	}

	cached := &cachedKiosk{ID: kiosk.ID, ClassPeriodID: kiosk.ClassPeriodID, TeacherID: kiosk.TeacherID}

	if s.rdb != nil {
		if raw, err := json.Marshal(cached); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Kiosk token cache write failed")
			}
		}
	}

	return cached, nil
}
