package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/model"
	"github.com/corridor/hallpass-backend/internal/repository"
)

// PassStore is the persistence contract of the pass lifecycle.
type PassStore interface {
	GetByID(ctx context.Context, id int) (*model.Pass, error)
	CreateRequested(ctx context.Context, studentID, destinationID, teacherID int) (*model.Pass, error)
	AssignmentTeacherID(ctx context.Context, passID int) (int, error)
	HasOpenPass(ctx context.Context, studentID int, now time.Time) (bool, error)
	// Activate must perform the capacity check and the Pending→Active
	// write indivisibly, returning repository.ErrCapacityExceeded or
	// repository.ErrWrongState on rejection.
	Activate(ctx context.Context, passID, minutes int, now time.Time) (*model.Pass, error)
	SetStatus(ctx context.Context, passID int, from []model.PassStatus, to model.PassStatus) (*model.Pass, error)
	ListForTeacher(ctx context.Context, teacherID int, statuses []model.PassStatus, limit int) ([]model.PassDetail, error)
	ListByStudent(ctx context.Context, studentID, limit int) ([]model.PassDetail, error)
}

// OverrideStore is the append-only override ledger contract.
type OverrideStore interface {
	// Apply must record the override and move the pass's expiry
	// atomically, returning repository.ErrWrongState for non-active passes.
	Apply(ctx context.Context, passID, actorID int, newExpiresAt time.Time, reason string) (*model.Override, error)
	ListByPass(ctx context.Context, passID int) ([]model.Override, error)
}

// AuditStore appends lifecycle event facts.
type AuditStore interface {
	Append(ctx context.Context, e model.AuditEntry) error
}

// DestinationStore looks up destinations.
type DestinationStore interface {
	GetByID(ctx context.Context, id int) (*model.Destination, error)
}

// PassEvent is published on the pass events channel after every
// successful transition, for push-based consumers.
type PassEvent struct {
	Action string `json:"action"`
	PassID int    `json:"pass_id"`
}

const (
	boardLimit   = 100
	historyLimit = 50
)

// PassService drives the pass state machine: request, approve (through
// admission), deny, cancel, override, archive. Each action is one
// short-lived unit of work; the only cross-request coordination lives in
// PassStore.Activate.
type PassService struct {
	passes       PassStore
	overrides    OverrideStore
	audits       AuditStore
	destinations DestinationStore
	resolver     *AssignmentService
	rdb          *redis.Client // optional; nil disables event publishing
	cfg          *config.Config
	log          zerolog.Logger

	now func() time.Time
}

// NewPassService creates a new PassService.
func NewPassService(
	passes PassStore,
	overrides OverrideStore,
	audits AuditStore,
	destinations DestinationStore,
	resolver *AssignmentService,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *PassService {
	return &PassService{
		passes:       passes,
		overrides:    overrides,
		audits:       audits,
		destinations: destinations,
		resolver:     resolver,
		rdb:          rdb,
		cfg:          cfg,
		log:          log.With().Str("component", "pass_service").Logger(),
		now:          time.Now,
	}
}

// RequestInput carries a student's pass request.
type RequestInput struct {
	StudentID     int
	DestinationID int
	KioskToken    string
	ClassPeriodID int
}

// Request creates a Pending pass routed to the resolved teacher. The
// one-open-pass rule is checked before resolution runs: it is cheaper and
// independent of which teacher would decide.
func (s *PassService) Request(ctx context.Context, in RequestInput) (*model.Pass, error) {
	dest, err := s.destinations.GetByID(ctx, in.DestinationID)
	if err != nil {
		return nil, fmt.Errorf("get destination: %w", err)
	}

	now := s.now()

	open, err := s.passes.HasOpenPass(ctx, in.StudentID, now)
	if err != nil {
		return nil, fmt.Errorf("check open pass: %w", err)
	}
	if open {
		return nil, ErrDuplicateActivePass
	}

	assignment, err := s.resolver.Resolve(ctx, in.StudentID, in.KioskToken, in.ClassPeriodID)
	if err != nil {
		return nil, err
	}

	if s.cfg.EnforcePeriodWindow && assignment.Period != nil && !assignment.Period.InWindow(now) {
		return nil, ErrOutsideWindow
	}

	p, err := s.passes.CreateRequested(ctx, in.StudentID, dest.ID, assignment.TeacherID)
	if err != nil {
		return nil, fmt.Errorf("create pass: %w", err)
	}

	msg := fmt.Sprintf("to_teacher:%d", assignment.TeacherID)
	if assignment.ViaKiosk {
		msg += " via_kiosk"
	}
	if assignment.Period != nil {
		msg += fmt.Sprintf(" period:%d", assignment.Period.ID)
	}
	s.audit(ctx, &in.StudentID, model.AuditPassRequested, p.ID, msg)
	s.publish(ctx, model.AuditPassRequested, p.ID)

	return p, nil
}

// Approve moves a Pending pass to Active through the admission check. Only
// the teacher the pass was routed to may approve it. minutes <= 0 uses the
// destination's default duration; a positive value is the teacher-specified
// duration at approval time.
func (s *PassService) Approve(ctx context.Context, passID, teacherID, minutes int) (*model.Pass, error) {
	now := s.now()

	if err := s.requireAssigned(ctx, passID, teacherID); err != nil {
		return nil, err
	}

	if s.cfg.EnforcePeriodWindow && !s.cfg.AllowApprovalOutsideWindow {
		p, err := s.passes.GetByID(ctx, passID)
		if err != nil {
			return nil, fmt.Errorf("get pass: %w", err)
		}
		period, err := s.resolver.ApprovalWindowPeriod(ctx, teacherID, p.StudentID)
		if err != nil {
			return nil, fmt.Errorf("window period: %w", err)
		}
		if period != nil && !period.InWindow(now) {
			return nil, ErrOutsideWindow
		}
	}

	p, err := s.passes.Activate(ctx, passID, minutes, now)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCapacityExceeded):
			return nil, ErrCapacityExceeded
		case errors.Is(err, repository.ErrWrongState):
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("activate: %w", err)
	}

	s.audit(ctx, &teacherID, model.AuditPassApproved, p.ID, "")
	s.publish(ctx, model.AuditPassApproved, p.ID)
	return p, nil
}

// Deny rejects a Pending pass. Terminal. Routed-teacher-only, like Approve.
func (s *PassService) Deny(ctx context.Context, passID, teacherID int, reason string) (*model.Pass, error) {
	if err := s.requireAssigned(ctx, passID, teacherID); err != nil {
		return nil, err
	}
	p, err := s.transition(ctx, passID, []model.PassStatus{model.PassPending}, model.PassDenied)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &teacherID, model.AuditPassDenied, p.ID, reason)
	s.publish(ctx, model.AuditPassDenied, p.ID)
	return p, nil
}

// Cancel withdraws a Pending or outstanding Active pass.
func (s *PassService) Cancel(ctx context.Context, passID, actorID int) (*model.Pass, error) {
	p, err := s.transition(ctx, passID, []model.PassStatus{model.PassPending, model.PassActive}, model.PassCancelled)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &actorID, model.AuditPassCancelled, p.ID, "")
	s.publish(ctx, model.AuditPassCancelled, p.ID)
	return p, nil
}

// Archive is the housekeeping transition out of any terminal state,
// exposed for the reporting surface.
func (s *PassService) Archive(ctx context.Context, passID, actorID int) (*model.Pass, error) {
	from := []model.PassStatus{model.PassDenied, model.PassCancelled, model.PassExpired}
	p, err := s.transition(ctx, passID, from, model.PassArchived)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, &actorID, model.AuditPassArchived, p.ID, "")
	return p, nil
}

// Override adjusts an Active pass's expiry and appends a ledger record.
// Past timestamps are permitted: they expire the pass immediately under
// the lazy-expiry comparison. Status and issued_at never change here.
func (s *PassService) Override(ctx context.Context, passID, actorID int, newExpiresAt time.Time, reason string) (*model.Override, error) {
	if newExpiresAt.IsZero() {
		return nil, ErrInvalidOverride
	}

	o, err := s.overrides.Apply(ctx, passID, actorID, newExpiresAt, reason)
	if err != nil {
		if errors.Is(err, repository.ErrWrongState) {
			return nil, ErrInvalidOverride
		}
		return nil, fmt.Errorf("apply override: %w", err)
	}

	s.audit(ctx, &actorID, model.AuditOverrideApplied, passID, reason)
	s.publish(ctx, model.AuditOverrideApplied, passID)
	return o, nil
}

// OverrideExtend is the convenience form moving the expiry forward
// relative to its current value.
func (s *PassService) OverrideExtend(ctx context.Context, passID, actorID, minutes int, reason string) (*model.Override, error) {
	if minutes <= 0 {
		return nil, ErrInvalidOverride
	}
	p, err := s.passes.GetByID(ctx, passID)
	if err != nil {
		return nil, fmt.Errorf("get pass: %w", err)
	}
	if p.Status != model.PassActive || p.ExpiresAt == nil {
		return nil, ErrInvalidOverride
	}
	return s.Override(ctx, passID, actorID, p.ExpiresAt.Add(time.Duration(minutes)*time.Minute), reason)
}

// OverrideLedger returns the append-only override history of a pass.
func (s *PassService) OverrideLedger(ctx context.Context, passID int) ([]model.Override, error) {
	return s.overrides.ListByPass(ctx, passID)
}

// TeacherBoard lists passes assigned to a teacher in the given statuses,
// defaulting to the undecided and outstanding ones.
func (s *PassService) TeacherBoard(ctx context.Context, teacherID int, statuses []model.PassStatus) ([]model.PassDetail, error) {
	if len(statuses) == 0 {
		statuses = []model.PassStatus{model.PassPending, model.PassActive}
	}
	return s.passes.ListForTeacher(ctx, teacherID, statuses, boardLimit)
}

// StudentHistory lists a student's recent passes.
func (s *PassService) StudentHistory(ctx context.Context, studentID int) ([]model.PassDetail, error) {
	return s.passes.ListByStudent(ctx, studentID, historyLimit)
}

// requireAssigned rejects a decision by anyone but the teacher recorded in
// the pass's assignment.
func (s *PassService) requireAssigned(ctx context.Context, passID, teacherID int) error {
	assigned, err := s.passes.AssignmentTeacherID(ctx, passID)
	if err != nil {
		return fmt.Errorf("get assignment: %w", err)
	}
	if assigned != teacherID {
		return ErrNotAssignedTeacher
	}
	return nil
}

func (s *PassService) transition(ctx context.Context, passID int, from []model.PassStatus, to model.PassStatus) (*model.Pass, error) {
	p, err := s.passes.SetStatus(ctx, passID, from, to)
	if err != nil {
		if errors.Is(err, repository.ErrWrongState) {
			return nil, ErrInvalidTransition
		}
		return nil, err
	}
	return p, nil
}

// audit appends an event fact. Failures are logged, not surfaced: the
// transition itself has already committed.
func (s *PassService) audit(ctx context.Context, actorID *int, action string, passID int, message string) {
	err := s.audits.Append(ctx, model.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		TargetType: "pass",
		TargetID:   passID,
		Message:    message,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("action", action).Int("pass_id", passID).Msg("Audit append failed")
	}
}

func (s *PassService) publish(ctx context.Context, action string, passID int) {
	if s.rdb == nil {
		return
	}
	raw, err := json.Marshal(PassEvent{Action: action, PassID: passID})
	if err != nil {
		return
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.PassEventsChannel(), raw).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Event publish failed")
	}
}
