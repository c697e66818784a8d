package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corridor/hallpass-backend/internal/model"
)

// ClassPeriodRepository handles class period data access.
type ClassPeriodRepository struct {
	pool *pgxpool.Pool
}

// NewClassPeriodRepository creates a new ClassPeriodRepository.
func NewClassPeriodRepository(pool *pgxpool.Pool) *ClassPeriodRepository {
	return &ClassPeriodRepository{pool: pool}
}

const classPeriodColumns = `id, name, teacher_id,
	COALESCE(start_time, ''), COALESCE(end_time, ''),
	COALESCE(days_mask, ''), COALESCE(room, ''), is_active`

func scanClassPeriod(row pgx.Row) (*model.ClassPeriod, error) {
	p := &model.ClassPeriod{}
	err := row.Scan(&p.ID, &p.Name, &p.TeacherID,
		&p.StartTime, &p.EndTime, &p.DaysMask, &p.Room, &p.IsActive)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// GetByID retrieves a class period by its ID.
func (r *ClassPeriodRepository) GetByID(ctx context.Context, id int) (*model.ClassPeriod, error) {
	return scanClassPeriod(r.pool.QueryRow(ctx,
		`SELECT `+classPeriodColumns+` FROM class_periods WHERE id = $1`, id))
}

// ActivePeriodsForStudent returns the active class periods the student is
// actively enrolled in, restricted to periods taught by an active teacher.
// This is the candidate set assignment inference runs over.
func (r *ClassPeriodRepository) ActivePeriodsForStudent(ctx context.Context, studentID int) ([]model.ClassPeriod, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT p.id, p.name, p.teacher_id,
		        COALESCE(p.start_time, ''), COALESCE(p.end_time, ''),
		        COALESCE(p.days_mask, ''), COALESCE(p.room, ''), p.is_active
		 FROM class_periods p
		 JOIN student_enrollments e ON e.class_period_id = p.id
		 JOIN users t ON t.id = p.teacher_id
		 WHERE e.student_id = $1
		   AND e.is_active
		   AND p.is_active
		   AND t.role = $2
		   AND t.is_active
		 ORDER BY p.name`, studentID, model.RoleTeacher)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []model.ClassPeriod
	for rows.Next() {
		var p model.ClassPeriod
		if err := rows.Scan(&p.ID, &p.Name, &p.TeacherID,
			&p.StartTime, &p.EndTime, &p.DaysMask, &p.Room, &p.IsActive); err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// IsEnrolled reports whether the student holds an active enrollment in the
// given class period.
func (r *ClassPeriodRepository) IsEnrolled(ctx context.Context, studentID, periodID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM student_enrollments
		   WHERE student_id = $1 AND class_period_id = $2 AND is_active
		 )`, studentID, periodID,
	).Scan(&exists)
	return exists, err
}

// PeriodForTeacherStudent picks one active period taught by the teacher in
// which the student is actively enrolled, or nil when none exists. Used as
// the window-check heuristic at approval time.
func (r *ClassPeriodRepository) PeriodForTeacherStudent(ctx context.Context, teacherID, studentID int) (*model.ClassPeriod, error) {
	p, err := scanClassPeriod(r.pool.QueryRow(ctx,
		`SELECT p.id, p.name, p.teacher_id,
		        COALESCE(p.start_time, ''), COALESCE(p.end_time, ''),
		        COALESCE(p.days_mask, ''), COALESCE(p.room, ''), p.is_active
		 FROM class_periods p
		 JOIN student_enrollments e ON e.class_period_id = p.id
		 WHERE p.teacher_id = $1
		   AND p.is_active
		   AND e.student_id = $2
		   AND e.is_active
		 LIMIT 1`, teacherID, studentID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return p, err
}
