package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corridor/hallpass-backend/internal/model"
)

// OverrideRepository handles the append-only override ledger.
type OverrideRepository struct {
	pool *pgxpool.Pool
}

// NewOverrideRepository creates a new OverrideRepository.
func NewOverrideRepository(pool *pgxpool.Pool) *OverrideRepository {
	return &OverrideRepository{pool: pool}
}

// Apply records an override and moves the pass's expiry in one transaction.
// The pass row is locked so the recorded previous value is exactly what the
// update replaces. Returns ErrWrongState unless the pass is Active with an
// expiry set. Past newExpiresAt values are accepted: they force the
// lazy-expiry condition true immediately.
func (r *OverrideRepository) Apply(ctx context.Context, passID, actorID int, newExpiresAt time.Time, reason string) (*model.Override, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status model.PassStatus
		prev   *time.Time
	)
	err = tx.QueryRow(ctx,
		`SELECT status, expires_at FROM passes WHERE id = $1 FOR UPDATE`, passID,
	).Scan(&status, &prev)
	if err != nil {
		return nil, err
	}

	if status != model.PassActive || prev == nil {
		return nil, ErrWrongState
	}

	o := &model.Override{}
	err = tx.QueryRow(ctx,
		`INSERT INTO overrides (pass_id, actor_id, prev_expires_at, new_expires_at, reason)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		 RETURNING id, pass_id, actor_id, prev_expires_at, new_expires_at, COALESCE(reason, ''), created_at`,
		passID, actorID, *prev, newExpiresAt, reason,
	).Scan(&o.ID, &o.PassID, &o.ActorID, &o.PrevExpiresAt, &o.NewExpiresAt, &o.Reason, &o.CreatedAt)
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE passes SET expires_at = $2 WHERE id = $1`, passID, newExpiresAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

// ListByPass returns the full ledger for a pass in append order.
func (r *OverrideRepository) ListByPass(ctx context.Context, passID int) ([]model.Override, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, pass_id, actor_id, prev_expires_at, new_expires_at, COALESCE(reason, ''), created_at
		 FROM overrides WHERE pass_id = $1 ORDER BY id`, passID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ledger []model.Override
	for rows.Next() {
		var o model.Override
		if err := rows.Scan(&o.ID, &o.PassID, &o.ActorID,
			&o.PrevExpiresAt, &o.NewExpiresAt, &o.Reason, &o.CreatedAt); err != nil {
			return nil, err
		}
		ledger = append(ledger, o)
	}
	return ledger, rows.Err()
}
