package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corridor/hallpass-backend/internal/model"
)

// PassRepository handles pass, assignment, and admission data access.
type PassRepository struct {
	pool *pgxpool.Pool
}

// NewPassRepository creates a new PassRepository.
func NewPassRepository(pool *pgxpool.Pool) *PassRepository {
	return &PassRepository{pool: pool}
}

const passColumns = `id, student_id, destination_id, status, requested_at, issued_at, expires_at`

func scanPass(row pgx.Row) (*model.Pass, error) {
	p := &model.Pass{}
	err := row.Scan(&p.ID, &p.StudentID, &p.DestinationID, &p.Status,
		&p.RequestedAt, &p.IssuedAt, &p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a pass by its ID.
func (r *PassRepository) GetByID(ctx context.Context, id int) (*model.Pass, error) {
	return scanPass(r.pool.QueryRow(ctx,
		`SELECT `+passColumns+` FROM passes WHERE id = $1`, id))
}

// CreateRequested inserts a Pending pass together with its immutable
// teacher assignment in one transaction, so no pass can leave Pending
// without an assignment on record.
func (r *PassRepository) CreateRequested(ctx context.Context, studentID, destinationID, teacherID int) (*model.Pass, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	p, err := scanPass(tx.QueryRow(ctx,
		`INSERT INTO passes (student_id, destination_id, status)
		 VALUES ($1, $2, $3)
		 RETURNING `+passColumns,
		studentID, destinationID, model.PassPending))
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO pass_assignments (pass_id, teacher_id) VALUES ($1, $2)`,
		p.ID, teacherID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// AssignmentTeacherID returns the teacher responsible for deciding the pass.
func (r *PassRepository) AssignmentTeacherID(ctx context.Context, passID int) (int, error) {
	var teacherID int
	err := r.pool.QueryRow(ctx,
		`SELECT teacher_id FROM pass_assignments WHERE pass_id = $1`, passID,
	).Scan(&teacherID)
	return teacherID, err
}

// HasOpenPass reports whether the student already holds a Pending or
// genuinely Active pass. A stored-Active pass whose deadline has elapsed is
// lazily expired and does not count.
func (r *PassRepository) HasOpenPass(ctx context.Context, studentID int, now time.Time) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM passes
		   WHERE student_id = $1
		     AND (status = $2 OR (status = $3 AND expires_at > $4))
		 )`, studentID, model.PassPending, model.PassActive, now,
	).Scan(&exists)
	return exists, err
}

// Activate performs the admission check and the Pending→Active write as one
// transaction. Locking the destination row serializes concurrent approvals
// for the same destination, so two approvals cannot both take the last
// slot. minutes <= 0 falls back to the destination's default duration.
//
// Returns ErrWrongState when the pass is not Pending and
// ErrCapacityExceeded when the destination is full.
func (r *PassRepository) Activate(ctx context.Context, passID, minutes int, now time.Time) (*model.Pass, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var (
		status         model.PassStatus
		destinationID  int
		defaultMinutes int
		maxConcurrent  int
	)
	err = tx.QueryRow(ctx,
		`SELECT p.status, d.id, d.default_minutes, d.max_concurrent
		 FROM passes p
		 JOIN destinations d ON d.id = p.destination_id
		 WHERE p.id = $1
		 FOR UPDATE OF p, d`, passID,
	).Scan(&status, &destinationID, &defaultMinutes, &maxConcurrent)
	if err != nil {
		return nil, err
	}

	if status != model.PassPending {
		return nil, ErrWrongState
	}

	if maxConcurrent != model.UnlimitedConcurrent {
		// Count with the same lazy-expiry comparison the read paths use,
		// so a slot held by an elapsed-but-unswept pass is free.
		var active int
		err = tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM passes
			 WHERE destination_id = $1 AND status = $2 AND expires_at > $3`,
			destinationID, model.PassActive, now,
		).Scan(&active)
		if err != nil {
			return nil, err
		}
		if active >= maxConcurrent {
			return nil, ErrCapacityExceeded
		}
	}

	if minutes <= 0 {
		minutes = defaultMinutes
	}

	p, err := scanPass(tx.QueryRow(ctx,
		`UPDATE passes
		 SET status = $2, issued_at = $3, expires_at = $4
		 WHERE id = $1
		 RETURNING `+passColumns,
		passID, model.PassActive, now, now.Add(time.Duration(minutes)*time.Minute)))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return p, nil
}

// SetStatus moves a pass to the target status if its current status is one
// of from. Returns ErrWrongState when the pass exists but sits on a
// different edge, pgx.ErrNoRows when it does not exist.
func (r *PassRepository) SetStatus(ctx context.Context, passID int, from []model.PassStatus, to model.PassStatus) (*model.Pass, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	p, err := scanPass(r.pool.QueryRow(ctx,
		`UPDATE passes SET status = $2
		 WHERE id = $1 AND status = ANY($3)
		 RETURNING `+passColumns,
		passID, to, states))
	if err == pgx.ErrNoRows {
		// Distinguish a missing pass from one on the wrong edge.
		if _, getErr := r.GetByID(ctx, passID); getErr != nil {
			return nil, getErr
		}
		return nil, ErrWrongState
	}
	return p, err
}

// ExpireOverdue performs the idempotent sweep write: every stored-Active
// pass whose deadline has elapsed becomes Expired. Returns the affected IDs.
func (r *PassRepository) ExpireOverdue(ctx context.Context, now time.Time) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`UPDATE passes SET status = $1
		 WHERE status = $2 AND expires_at <= $3
		 RETURNING id`,
		model.PassExpired, model.PassActive, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListForTeacher returns passes assigned to the teacher in any of the given
// statuses, newest first, joined with display names for the decision board.
func (r *PassRepository) ListForTeacher(ctx context.Context, teacherID int, statuses []model.PassStatus, limit int) ([]model.PassDetail, error) {
	states := make([]string, len(statuses))
	for i, s := range statuses {
		states[i] = string(s)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.student_id, p.destination_id, p.status,
		        p.requested_at, p.issued_at, p.expires_at,
		        s.full_name, d.name, t.full_name
		 FROM passes p
		 JOIN pass_assignments a ON a.pass_id = p.id
		 JOIN users s ON s.id = p.student_id
		 JOIN users t ON t.id = a.teacher_id
		 JOIN destinations d ON d.id = p.destination_id
		 WHERE a.teacher_id = $1 AND p.status = ANY($2)
		 ORDER BY p.id DESC
		 LIMIT $3`, teacherID, states, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

// ListByStudent returns the student's pass history, newest first.
func (r *PassRepository) ListByStudent(ctx context.Context, studentID, limit int) ([]model.PassDetail, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.student_id, p.destination_id, p.status,
		        p.requested_at, p.issued_at, p.expires_at,
		        s.full_name, d.name, COALESCE(t.full_name, '')
		 FROM passes p
		 JOIN users s ON s.id = p.student_id
		 JOIN destinations d ON d.id = p.destination_id
		 LEFT JOIN pass_assignments a ON a.pass_id = p.id
		 LEFT JOIN users t ON t.id = a.teacher_id
		 WHERE p.student_id = $1
		 ORDER BY p.id DESC
		 LIMIT $2`, studentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectDetails(rows)
}

// ListActiveSnapshots returns the kiosk rows for genuinely active passes at
// the given instant, applying the lazy-expiry comparison so elapsed passes
// vanish before the sweep rewrites them. teacherID 0 means unscoped.
func (r *PassRepository) ListActiveSnapshots(ctx context.Context, teacherID int, now time.Time, limit int) ([]model.PassSnapshot, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, s.full_name, d.name, p.issued_at, p.expires_at, COALESCE(t.full_name, '')
		 FROM passes p
		 JOIN users s ON s.id = p.student_id
		 JOIN destinations d ON d.id = p.destination_id
		 LEFT JOIN pass_assignments a ON a.pass_id = p.id
		 LEFT JOIN users t ON t.id = a.teacher_id
		 WHERE p.status = $1
		   AND p.expires_at > $2
		   AND ($3 = 0 OR a.teacher_id = $3)
		 ORDER BY p.issued_at DESC
		 LIMIT $4`, model.PassActive, now, teacherID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snapshots []model.PassSnapshot
	for rows.Next() {
		var snap model.PassSnapshot
		if err := rows.Scan(&snap.ID, &snap.Student, &snap.Destination,
			&snap.IssuedAt, &snap.ExpiresAt, &snap.Teacher); err != nil {
			return nil, err
		}
		remaining := int(snap.ExpiresAt.Sub(now).Seconds())
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingSeconds = remaining
		snapshots = append(snapshots, snap)
	}
	return snapshots, rows.Err()
}

func collectDetails(rows pgx.Rows) ([]model.PassDetail, error) {
	var details []model.PassDetail
	for rows.Next() {
		var d model.PassDetail
		if err := rows.Scan(&d.ID, &d.StudentID, &d.DestinationID, &d.Status,
			&d.RequestedAt, &d.IssuedAt, &d.ExpiresAt,
			&d.StudentName, &d.DestinationName, &d.TeacherName); err != nil {
			return nil, err
		}
		details = append(details, d)
	}
	return details, rows.Err()
}
