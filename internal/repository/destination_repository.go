package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corridor/hallpass-backend/internal/model"
)

// DestinationRepository handles destination data access.
type DestinationRepository struct {
	pool *pgxpool.Pool
}

// NewDestinationRepository creates a new DestinationRepository.
func NewDestinationRepository(pool *pgxpool.Pool) *DestinationRepository {
	return &DestinationRepository{pool: pool}
}

// GetByID retrieves a destination by its ID.
func (r *DestinationRepository) GetByID(ctx context.Context, id int) (*model.Destination, error) {
	d := &model.Destination{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, default_minutes, max_concurrent
		 FROM destinations WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.DefaultMinutes, &d.MaxConcurrent)
	if err != nil {
		return nil, err
	}
	return d, nil
}

// List retrieves all destinations ordered by name.
func (r *DestinationRepository) List(ctx context.Context) ([]model.Destination, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, default_minutes, max_concurrent
		 FROM destinations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var destinations []model.Destination
	for rows.Next() {
		var d model.Destination
		if err := rows.Scan(&d.ID, &d.Name, &d.DefaultMinutes, &d.MaxConcurrent); err != nil {
			return nil, err
		}
		destinations = append(destinations, d)
	}
	return destinations, rows.Err()
}
