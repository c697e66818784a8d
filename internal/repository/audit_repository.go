package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corridor/hallpass-backend/internal/model"
)

// AuditRepository appends lifecycle event facts. Browsing and export are
// handled by the reporting surface, not here.
type AuditRepository struct {
	pool *pgxpool.Pool
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(pool *pgxpool.Pool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// Append inserts one audit entry.
func (r *AuditRepository) Append(ctx context.Context, e model.AuditEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO audit_logs (actor_id, action, target_type, target_id, message)
		 VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, 0), NULLIF($5, ''))`,
		e.ActorID, e.Action, e.TargetType, e.TargetID, e.Message)
	return err
}
