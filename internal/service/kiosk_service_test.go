package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/corridor/hallpass-backend/internal/model"
)

type fakeSnapshotStore struct {
	snapshots []model.PassSnapshot

	gotTeacherID int
	gotNow       time.Time
}

func (f *fakeSnapshotStore) ListActiveSnapshots(_ context.Context, teacherID int, now time.Time, _ int) ([]model.PassSnapshot, error) {
	f.gotTeacherID = teacherID
	f.gotNow = now
	return f.snapshots, nil
}

func newKioskFixture() (*KioskService, *fakeSnapshotStore) {
	_, kiosks, periods := resolverFixture()
	store := &fakeSnapshotStore{snapshots: []model.PassSnapshot{
		{ID: 1, Student: "Ava Stone", Destination: "Restroom", RemainingSeconds: 120},
	}}
	svc := NewKioskService(kiosks, periods, store, nil, time.Second, zerolog.Nop())
	svc.now = func() time.Time { return fixedNow }
	return svc, store
}

func TestListActiveUnscoped(t *testing.T) {
	svc, store := newKioskFixture()

	out, err := svc.ListActive(context.Background(), "")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("rows = %d, want 1", len(out))
	}
	if store.gotTeacherID != 0 {
		t.Errorf("teacher scope = %d, want 0 (unscoped)", store.gotTeacherID)
	}
	// The query always runs against the service clock, so elapsed passes
	// vanish regardless of stored status.
	if !store.gotNow.Equal(fixedNow) {
		t.Errorf("query now = %v, want %v", store.gotNow, fixedNow)
	}
}

func TestListActiveScopes(t *testing.T) {
	svc, store := newKioskFixture()
	ctx := context.Background()

	// Teacher-bound token narrows to that teacher.
	if _, err := svc.ListActive(ctx, "tok-teacher"); err != nil {
		t.Fatalf("teacher token: %v", err)
	}
	if store.gotTeacherID != 10 {
		t.Errorf("teacher scope = %d, want 10", store.gotTeacherID)
	}

	// Period-bound token narrows to the period's teacher.
	if _, err := svc.ListActive(ctx, "tok-period"); err != nil {
		t.Fatalf("period token: %v", err)
	}
	if store.gotTeacherID != 20 {
		t.Errorf("period scope = %d, want 20", store.gotTeacherID)
	}

	// Unbound token sees everything.
	if _, err := svc.ListActive(ctx, "tok-unbound"); err != nil {
		t.Fatalf("unbound token: %v", err)
	}
	if store.gotTeacherID != 0 {
		t.Errorf("unbound scope = %d, want 0", store.gotTeacherID)
	}
}

func TestListActiveInvalidToken(t *testing.T) {
	svc, _ := newKioskFixture()

	// An invalid token never falls back to the wide view.
	_, err := svc.ListActive(context.Background(), "tok-nope")
	if !errors.Is(err, ErrCredentialInvalid) {
		t.Fatalf("err = %v, want ErrCredentialInvalid", err)
	}
}

func TestScopeDanglingPeriodBinding(t *testing.T) {
	svc, _ := newKioskFixture()

	_, err := svc.ScopeTeacherID(context.Background(), "tok-dangling")
	if !errors.Is(err, ErrCredentialInvalid) {
		t.Fatalf("err = %v, want ErrCredentialInvalid", err)
	}
}
