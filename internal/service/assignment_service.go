package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/corridor/hallpass-backend/internal/model"
)

// KioskStore looks up kiosk bearer credentials.
type KioskStore interface {
	// GetActiveByToken returns pgx.ErrNoRows for unknown or revoked tokens.
	GetActiveByToken(ctx context.Context, token string) (*model.Kiosk, error)
}

// PeriodStore provides the class period and enrollment context assignment
// resolution runs over.
type PeriodStore interface {
	GetByID(ctx context.Context, id int) (*model.ClassPeriod, error)
	ActivePeriodsForStudent(ctx context.Context, studentID int) ([]model.ClassPeriod, error)
	IsEnrolled(ctx context.Context, studentID, periodID int) (bool, error)
	PeriodForTeacherStudent(ctx context.Context, teacherID, studentID int) (*model.ClassPeriod, error)
}

// Assignment is the outcome of teacher resolution for a pass request.
type Assignment struct {
	TeacherID int
	// Period is the class period that produced the assignment, when one
	// did; it feeds the optional time-window check. Nil for teacher-bound
	// kiosks.
	Period *model.ClassPeriod
	// ViaKiosk records that a kiosk binding decided the assignment.
	ViaKiosk bool
}

// AssignmentService determines the single teacher responsible for deciding
// a pass request. Resolution is a pure decision over stored state: it
// writes nothing and fails with a typed error.
type AssignmentService struct {
	kiosks  KioskStore
	periods PeriodStore
}

// NewAssignmentService creates a new AssignmentService.
func NewAssignmentService(kiosks KioskStore, periods PeriodStore) *AssignmentService {
	return &AssignmentService{kiosks: kiosks, periods: periods}
}

// Resolve applies the assignment rules in order, first match wins:
//
//  1. kiosk token bound to a class period → that period's teacher
//  2. kiosk token bound to a teacher → that teacher
//  3. an explicitly selected period the student is actively enrolled in
//  4. unique-teacher inference over the student's active enrollments
//
// A presented token that does not validate fails resolution outright; an
// unbound kiosk contributes nothing and rules 3–4 apply. Stored kiosk
// "default teacher" settings are never consulted, so stale defaults cannot
// silently mis-assign passes. An invalid period selection is ignored
// rather than rejected, matching the request form's fallthrough.
func (s *AssignmentService) Resolve(ctx context.Context, studentID int, kioskToken string, selectedPeriodID int) (*Assignment, error) {
	if kioskToken != "" {
		kiosk, err := s.kiosks.GetActiveByToken(ctx, kioskToken)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrCredentialInvalid
			}
			return nil, err
		}

		if kiosk.ClassPeriodID != nil {
			period, err := s.periods.GetByID(ctx, *kiosk.ClassPeriodID)
			if err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					// The binding points at a period that no longer exists;
					// the credential cannot route anything.
					return nil, ErrCredentialInvalid
				}
				return nil, err
			}
			return &Assignment{TeacherID: period.TeacherID, Period: period, ViaKiosk: true}, nil
		}
		if kiosk.TeacherID != nil {
			return &Assignment{TeacherID: *kiosk.TeacherID, ViaKiosk: true}, nil
		}
	}

	if selectedPeriodID > 0 {
		enrolled, err := s.periods.IsEnrolled(ctx, studentID, selectedPeriodID)
		if err != nil {
			return nil, err
		}
		if enrolled {
			period, err := s.periods.GetByID(ctx, selectedPeriodID)
			if err != nil {
				return nil, err
			}
			return &Assignment{TeacherID: period.TeacherID, Period: period}, nil
		}
	}

	periods, err := s.periods.ActivePeriodsForStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	teachers := make(map[int]struct{}, len(periods))
	for _, p := range periods {
		teachers[p.TeacherID] = struct{}{}
	}

	switch len(teachers) {
	case 0:
		return nil, ErrAssignmentRequiresSelection
	case 1:
		return &Assignment{TeacherID: periods[0].TeacherID, Period: &periods[0]}, nil
	default:
		return nil, ErrAssignmentAmbiguous
	}
}

// ApprovalWindowPeriod picks a representative period linking the approving
// teacher and the student, for the approval-time window check. Nil when no
// such period exists.
func (s *AssignmentService) ApprovalWindowPeriod(ctx context.Context, teacherID, studentID int) (*model.ClassPeriod, error) {
	return s.periods.PeriodForTeacherStudent(ctx, teacherID, studentID)
}
