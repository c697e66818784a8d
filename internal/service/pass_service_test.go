package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/corridor/hallpass-backend/internal/config"
	"github.com/corridor/hallpass-backend/internal/model"
	"github.com/corridor/hallpass-backend/internal/repository"
)

var fixedNow = time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)

type fakePassStore struct {
	passes   map[int]*model.Pass
	teachers map[int]int // passID -> assigned teacher
	nextID   int

	// capacityFull makes Activate reject with the storage capacity sentinel,
	// standing in for the row-locked admission check.
	capacityFull   bool
	defaultMinutes int
}

func newFakePassStore() *fakePassStore {
	return &fakePassStore{
		passes:         make(map[int]*model.Pass),
		teachers:       make(map[int]int),
		nextID:         1,
		defaultMinutes: 5,
	}
}

func (f *fakePassStore) GetByID(_ context.Context, id int) (*model.Pass, error) {
	p, ok := f.passes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakePassStore) CreateRequested(_ context.Context, studentID, destinationID, teacherID int) (*model.Pass, error) {
	p := &model.Pass{
		ID:            f.nextID,
		StudentID:     studentID,
		DestinationID: destinationID,
		Status:        model.PassPending,
		RequestedAt:   fixedNow,
	}
	f.nextID++
	f.passes[p.ID] = p
	f.teachers[p.ID] = teacherID
	cp := *p
	return &cp, nil
}

func (f *fakePassStore) AssignmentTeacherID(_ context.Context, passID int) (int, error) {
	tid, ok := f.teachers[passID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return tid, nil
}

func (f *fakePassStore) HasOpenPass(_ context.Context, studentID int, now time.Time) (bool, error) {
	for _, p := range f.passes {
		if p.StudentID != studentID {
			continue
		}
		if p.Status == model.PassPending {
			return true, nil
		}
		if p.Status == model.PassActive && p.ExpiresAt != nil && p.ExpiresAt.After(now) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePassStore) Activate(_ context.Context, passID, minutes int, now time.Time) (*model.Pass, error) {
	p, ok := f.passes[passID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if p.Status != model.PassPending {
		return nil, repository.ErrWrongState
	}
	if f.capacityFull {
		return nil, repository.ErrCapacityExceeded
	}
	if minutes <= 0 {
		minutes = f.defaultMinutes
	}
	expires := now.Add(time.Duration(minutes) * time.Minute)
	p.Status = model.PassActive
	p.IssuedAt = &now
	p.ExpiresAt = &expires
	cp := *p
	return &cp, nil
}

func (f *fakePassStore) SetStatus(_ context.Context, passID int, from []model.PassStatus, to model.PassStatus) (*model.Pass, error) {
	p, ok := f.passes[passID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	allowed := false
	for _, s := range from {
		if p.Status == s {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, repository.ErrWrongState
	}
	p.Status = to
	cp := *p
	return &cp, nil
}

func (f *fakePassStore) ListForTeacher(_ context.Context, teacherID int, statuses []model.PassStatus, _ int) ([]model.PassDetail, error) {
	var out []model.PassDetail
	for id, p := range f.passes {
		if f.teachers[id] != teacherID {
			continue
		}
		for _, s := range statuses {
			if p.Status == s {
				out = append(out, model.PassDetail{Pass: *p})
				break
			}
		}
	}
	return out, nil
}

func (f *fakePassStore) ListByStudent(_ context.Context, studentID, _ int) ([]model.PassDetail, error) {
	var out []model.PassDetail
	for _, p := range f.passes {
		if p.StudentID == studentID {
			out = append(out, model.PassDetail{Pass: *p})
		}
	}
	return out, nil
}

type fakeOverrideStore struct {
	passes  *fakePassStore
	entries []model.Override
}

func (f *fakeOverrideStore) Apply(_ context.Context, passID, actorID int, newExpiresAt time.Time, reason string) (*model.Override, error) {
	p, ok := f.passes.passes[passID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	if p.Status != model.PassActive || p.ExpiresAt == nil {
		return nil, repository.ErrWrongState
	}
	o := model.Override{
		ID:            len(f.entries) + 1,
		PassID:        passID,
		ActorID:       actorID,
		PrevExpiresAt: *p.ExpiresAt,
		NewExpiresAt:  newExpiresAt,
		Reason:        reason,
		CreatedAt:     fixedNow,
	}
	f.entries = append(f.entries, o)
	expires := newExpiresAt
	p.ExpiresAt = &expires
	return &o, nil
}

func (f *fakeOverrideStore) ListByPass(_ context.Context, passID int) ([]model.Override, error) {
	var out []model.Override
	for _, o := range f.entries {
		if o.PassID == passID {
			out = append(out, o)
		}
	}
	return out, nil
}

type fakeAuditStore struct {
	entries []model.AuditEntry
	err     error
}

func (f *fakeAuditStore) Append(_ context.Context, e model.AuditEntry) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, e)
	return nil
}

type fakeDestinationStore struct {
	byID map[int]*model.Destination
}

func (f *fakeDestinationStore) GetByID(_ context.Context, id int) (*model.Destination, error) {
	d, ok := f.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return d, nil
}

type passFixture struct {
	svc       *PassService
	passes    *fakePassStore
	overrides *fakeOverrideStore
	audits    *fakeAuditStore
	cfg       *config.Config
}

func newPassFixture() *passFixture {
	passes := newFakePassStore()
	overrides := &fakeOverrideStore{passes: passes}
	audits := &fakeAuditStore{}
	dests := &fakeDestinationStore{byID: map[int]*model.Destination{
		1: {ID: 1, Name: "Restroom", DefaultMinutes: 5, MaxConcurrent: 2},
		2: {ID: 2, Name: "Nurse", DefaultMinutes: 15, MaxConcurrent: model.UnlimitedConcurrent},
	}}
	resolver, _, _ := resolverFixture()
	cfg := &config.Config{AllowApprovalOutsideWindow: true}

	svc := NewPassService(passes, overrides, audits, dests, resolver, nil, cfg, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return &passFixture{svc: svc, passes: passes, overrides: overrides, audits: audits, cfg: cfg}
}

func TestRequestCreatesPendingPass(t *testing.T) {
	fx := newPassFixture()

	p, err := fx.svc.Request(context.Background(), RequestInput{StudentID: 1, DestinationID: 1})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if p.Status != model.PassPending {
		t.Errorf("Status = %s, want Pending", p.Status)
	}
	if p.IssuedAt != nil || p.ExpiresAt != nil {
		t.Error("pending pass must not carry issue or expiry times")
	}
	if tid := fx.passes.teachers[p.ID]; tid != 10 {
		t.Errorf("assigned teacher = %d, want 10", tid)
	}
	if len(fx.audits.entries) != 1 || fx.audits.entries[0].Action != model.AuditPassRequested {
		t.Errorf("audit entries = %+v, want one pass_requested", fx.audits.entries)
	}
}

func TestRequestUnknownDestination(t *testing.T) {
	fx := newPassFixture()

	_, err := fx.svc.Request(context.Background(), RequestInput{StudentID: 1, DestinationID: 99})
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want wrapped pgx.ErrNoRows", err)
	}
}

func TestRequestDuplicateOpenPass(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	if _, err := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1}); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 2})
	if !errors.Is(err, ErrDuplicateActivePass) {
		t.Fatalf("err = %v, want ErrDuplicateActivePass", err)
	}
}

func TestRequestAllowedAfterLazyExpiry(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, err := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := fx.svc.Approve(ctx, p.ID, 10, 0); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Jump past the deadline: the stored row still says Active, but the
	// open-pass check reads it as expired and a new request goes through.
	fx.svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	if _, err := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 2}); err != nil {
		t.Fatalf("request after expiry: %v", err)
	}
}

func TestRequestOutsideWindow(t *testing.T) {
	fx := newPassFixture()
	fx.cfg.EnforcePeriodWindow = true

	// Student 4 resolves through a period whose window excludes fixedNow.
	resolver, _, periods := resolverFixture()
	periods.periods[300] = &model.ClassPeriod{ID: 300, TeacherID: 30, StartTime: "13:00", EndTime: "13:50"}
	periods.enrollments[4] = []int{300}
	fx.svc.resolver = resolver

	_, err := fx.svc.Request(context.Background(), RequestInput{StudentID: 4, DestinationID: 1})
	if !errors.Is(err, ErrOutsideWindow) {
		t.Fatalf("err = %v, want ErrOutsideWindow", err)
	}
}

func TestApproveActivatesWithDefaultDuration(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	active, err := fx.svc.Approve(ctx, p.ID, 10, 0)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if active.Status != model.PassActive {
		t.Errorf("Status = %s, want Active", active.Status)
	}
	if active.IssuedAt == nil || !active.IssuedAt.Equal(fixedNow) {
		t.Errorf("IssuedAt = %v, want %v", active.IssuedAt, fixedNow)
	}
	want := fixedNow.Add(5 * time.Minute)
	if active.ExpiresAt == nil || !active.ExpiresAt.Equal(want) {
		t.Errorf("ExpiresAt = %v, want %v", active.ExpiresAt, want)
	}
}

func TestApproveCapacityExceeded(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	fx.passes.capacityFull = true

	_, err := fx.svc.Approve(ctx, p.ID, 10, 0)
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("err = %v, want ErrCapacityExceeded", err)
	}
	if got := fx.passes.passes[p.ID].Status; got != model.PassPending {
		t.Errorf("rejected pass status = %s, want still Pending", got)
	}
}

func TestApproveNonPending(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	if _, err := fx.svc.Deny(ctx, p.ID, 10, "no"); err != nil {
		t.Fatalf("deny: %v", err)
	}
	_, err := fx.svc.Approve(ctx, p.ID, 10, 0)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestApproveAndDenyRequireAssignedTeacher(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})

	if _, err := fx.svc.Approve(ctx, p.ID, 20, 0); !errors.Is(err, ErrNotAssignedTeacher) {
		t.Fatalf("approve by wrong teacher: err = %v, want ErrNotAssignedTeacher", err)
	}
	if _, err := fx.svc.Deny(ctx, p.ID, 20, ""); !errors.Is(err, ErrNotAssignedTeacher) {
		t.Fatalf("deny by wrong teacher: err = %v, want ErrNotAssignedTeacher", err)
	}
	if got := fx.passes.passes[p.ID].Status; got != model.PassPending {
		t.Errorf("status = %s, pass must stay Pending after rejected decisions", got)
	}

	// The routed teacher still decides normally.
	if _, err := fx.svc.Approve(ctx, p.ID, 10, 0); err != nil {
		t.Fatalf("approve by assigned teacher: %v", err)
	}
}

func TestApproveMissingPass(t *testing.T) {
	fx := newPassFixture()

	_, err := fx.svc.Approve(context.Background(), 999, 10, 0)
	if !errors.Is(err, pgx.ErrNoRows) {
		t.Fatalf("err = %v, want wrapped pgx.ErrNoRows", err)
	}
}

func TestApproveOutsideWindowBlocked(t *testing.T) {
	fx := newPassFixture()
	fx.cfg.EnforcePeriodWindow = true
	fx.cfg.AllowApprovalOutsideWindow = false
	ctx := context.Background()

	resolver, _, periods := resolverFixture()
	// Window open at request time, closed an hour later.
	periods.periods[300] = &model.ClassPeriod{ID: 300, TeacherID: 30, StartTime: "09:00", EndTime: "09:50"}
	periods.enrollments[4] = []int{300}
	fx.svc.resolver = resolver

	p, err := fx.svc.Request(ctx, RequestInput{StudentID: 4, DestinationID: 1})
	if err != nil {
		t.Fatalf("request: %v", err)
	}

	fx.svc.now = func() time.Time { return fixedNow.Add(time.Hour) }
	if _, err := fx.svc.Approve(ctx, p.ID, 30, 0); !errors.Is(err, ErrOutsideWindow) {
		t.Fatalf("err = %v, want ErrOutsideWindow", err)
	}

	// The lenient flag lets the same approval through.
	fx.cfg.AllowApprovalOutsideWindow = true
	if _, err := fx.svc.Approve(ctx, p.ID, 30, 0); err != nil {
		t.Fatalf("approve with lenient flag: %v", err)
	}
}

func TestDenyAndCancelTransitions(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	denied, err := fx.svc.Deny(ctx, p.ID, 10, "hall too busy")
	if err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if denied.Status != model.PassDenied {
		t.Errorf("Status = %s, want Denied", denied.Status)
	}
	// Denied is terminal.
	if _, err := fx.svc.Cancel(ctx, p.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancel denied pass: err = %v, want ErrInvalidTransition", err)
	}

	p2, _ := fx.svc.Request(ctx, RequestInput{StudentID: 2, DestinationID: 1, ClassPeriodID: 100})
	if _, err := fx.svc.Approve(ctx, p2.ID, 10, 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
	cancelled, err := fx.svc.Cancel(ctx, p2.ID, 10)
	if err != nil {
		t.Fatalf("Cancel active: %v", err)
	}
	if cancelled.Status != model.PassCancelled {
		t.Errorf("Status = %s, want Cancelled", cancelled.Status)
	}
}

func TestArchiveFromTerminalOnly(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	if _, err := fx.svc.Archive(ctx, p.ID, 10); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("archive pending: err = %v, want ErrInvalidTransition", err)
	}

	if _, err := fx.svc.Deny(ctx, p.ID, 10, ""); err != nil {
		t.Fatalf("deny: %v", err)
	}
	archived, err := fx.svc.Archive(ctx, p.ID, 10)
	if err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if archived.Status != model.PassArchived {
		t.Errorf("Status = %s, want Archived", archived.Status)
	}
}

func TestOverrideAppendsLedgerAndMovesExpiry(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	active, _ := fx.svc.Approve(ctx, p.ID, 10, 0)

	target := fixedNow.Add(20 * time.Minute)
	o, err := fx.svc.Override(ctx, p.ID, 10, target, "field trip")
	if err != nil {
		t.Fatalf("Override: %v", err)
	}
	if !o.PrevExpiresAt.Equal(*active.ExpiresAt) {
		t.Errorf("PrevExpiresAt = %v, want %v", o.PrevExpiresAt, *active.ExpiresAt)
	}
	if !o.NewExpiresAt.Equal(target) {
		t.Errorf("NewExpiresAt = %v, want %v", o.NewExpiresAt, target)
	}

	// Status and issued_at are untouched; only the deadline moved.
	stored := fx.passes.passes[p.ID]
	if stored.Status != model.PassActive || !stored.ExpiresAt.Equal(target) {
		t.Errorf("stored pass = %+v, want Active expiring at %v", stored, target)
	}
	if !stored.IssuedAt.Equal(fixedNow) {
		t.Errorf("IssuedAt moved to %v", stored.IssuedAt)
	}

	// A second override appends rather than rewrites.
	if _, err := fx.svc.Override(ctx, p.ID, 10, target.Add(5*time.Minute), ""); err != nil {
		t.Fatalf("second override: %v", err)
	}
	ledger, err := fx.svc.OverrideLedger(ctx, p.ID)
	if err != nil {
		t.Fatalf("OverrideLedger: %v", err)
	}
	if len(ledger) != 2 {
		t.Fatalf("ledger length = %d, want 2", len(ledger))
	}
	if !ledger[1].PrevExpiresAt.Equal(ledger[0].NewExpiresAt) {
		t.Error("second entry should chain from the first")
	}
}

func TestOverrideShortenExpiresImmediately(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	if _, err := fx.svc.Approve(ctx, p.ID, 10, 0); err != nil {
		t.Fatalf("approve: %v", err)
	}

	// Pulling the deadline into the past is a valid override; the pass then
	// reads as expired without any status write.
	if _, err := fx.svc.Override(ctx, p.ID, 10, fixedNow.Add(-time.Second), "recall"); err != nil {
		t.Fatalf("Override: %v", err)
	}
	stored := fx.passes.passes[p.ID]
	if stored.Status != model.PassActive {
		t.Errorf("Status = %s, override must not touch status", stored.Status)
	}
	if !stored.ExpiredBy(fixedNow) {
		t.Error("shortened pass should read as expired")
	}
}

func TestOverrideRejectsNonActiveAndZeroTime(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})

	if _, err := fx.svc.Override(ctx, p.ID, 10, time.Time{}, ""); !errors.Is(err, ErrInvalidOverride) {
		t.Fatalf("zero time: err = %v, want ErrInvalidOverride", err)
	}
	if _, err := fx.svc.Override(ctx, p.ID, 10, fixedNow.Add(time.Minute), ""); !errors.Is(err, ErrInvalidOverride) {
		t.Fatalf("pending pass: err = %v, want ErrInvalidOverride", err)
	}
}

func TestOverrideExtend(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	active, _ := fx.svc.Approve(ctx, p.ID, 10, 0)

	o, err := fx.svc.OverrideExtend(ctx, p.ID, 10, 15, "")
	if err != nil {
		t.Fatalf("OverrideExtend: %v", err)
	}
	want := active.ExpiresAt.Add(15 * time.Minute)
	if !o.NewExpiresAt.Equal(want) {
		t.Errorf("NewExpiresAt = %v, want %v", o.NewExpiresAt, want)
	}

	if _, err := fx.svc.OverrideExtend(ctx, p.ID, 10, 0, ""); !errors.Is(err, ErrInvalidOverride) {
		t.Fatalf("zero minutes: err = %v, want ErrInvalidOverride", err)
	}
}

func TestTeacherBoardDefaultsToOpenStatuses(t *testing.T) {
	fx := newPassFixture()
	ctx := context.Background()

	p1, _ := fx.svc.Request(ctx, RequestInput{StudentID: 1, DestinationID: 1})
	if _, err := fx.svc.Approve(ctx, p1.ID, 10, 0); err != nil {
		t.Fatalf("approve: %v", err)
	}
	p2, _ := fx.svc.Request(ctx, RequestInput{StudentID: 2, DestinationID: 1, ClassPeriodID: 100})
	if _, err := fx.svc.Deny(ctx, p2.ID, 10, ""); err != nil {
		t.Fatalf("deny: %v", err)
	}

	board, err := fx.svc.TeacherBoard(ctx, 10, nil)
	if err != nil {
		t.Fatalf("TeacherBoard: %v", err)
	}
	if len(board) != 1 || board[0].ID != p1.ID {
		t.Errorf("board = %+v, want only the active pass", board)
	}

	denied, err := fx.svc.TeacherBoard(ctx, 10, []model.PassStatus{model.PassDenied})
	if err != nil {
		t.Fatalf("TeacherBoard denied: %v", err)
	}
	if len(denied) != 1 || denied[0].ID != p2.ID {
		t.Errorf("denied board = %+v, want only the denied pass", denied)
	}
}

func TestAuditFailureDoesNotBlockTransition(t *testing.T) {
	fx := newPassFixture()
	fx.audits.err = errors.New("audit store down")

	p, err := fx.svc.Request(context.Background(), RequestInput{StudentID: 1, DestinationID: 1})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if p.Status != model.PassPending {
		t.Errorf("Status = %s, want Pending", p.Status)
	}
}
