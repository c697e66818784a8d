package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corridor/hallpass-backend/internal/model"
)

// KioskRepository handles kiosk credential data access.
type KioskRepository struct {
	pool *pgxpool.Pool
}

// NewKioskRepository creates a new KioskRepository.
func NewKioskRepository(pool *pgxpool.Pool) *KioskRepository {
	return &KioskRepository{pool: pool}
}

// GetActiveByToken retrieves the active kiosk holding the given bearer
// token. Returns pgx.ErrNoRows for unknown, revoked, or deactivated tokens.
func (r *KioskRepository) GetActiveByToken(ctx context.Context, token string) (*model.Kiosk, error) {
	k := &model.Kiosk{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, token, name, COALESCE(room, ''), class_period_id, teacher_id, is_active
		 FROM kiosks WHERE token = $1 AND is_active`, token,
	).Scan(&k.ID, &k.Token, &k.Name, &k.Room, &k.ClassPeriodID, &k.TeacherID, &k.IsActive)
	if err != nil {
		return nil, err
	}
	return k, nil
}
