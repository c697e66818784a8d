package service

import (
	"context"

	"github.com/corridor/hallpass-backend/internal/model"
)

// UserStore lists directory users.
type UserStore interface {
	ListByRole(ctx context.Context, role model.Role) ([]model.User, error)
}

// DestinationCatalog lists every destination a pass can target.
type DestinationCatalog interface {
	List(ctx context.Context) ([]model.Destination, error)
}

// DirectoryService serves the reference data the request form renders:
// destinations to pick from, the student's selectable class periods, and
// teacher names. Read-only; managing these records is not this system's job.
type DirectoryService struct {
	users        UserStore
	destinations DestinationCatalog
	periods      PeriodStore
}

// NewDirectoryService creates a new DirectoryService.
func NewDirectoryService(users UserStore, destinations DestinationCatalog, periods PeriodStore) *DirectoryService {
	return &DirectoryService{users: users, destinations: destinations, periods: periods}
}

// Destinations lists all destinations with their defaults and caps.
func (s *DirectoryService) Destinations(ctx context.Context) ([]model.Destination, error) {
	return s.destinations.List(ctx)
}

// Teachers lists active teachers for name display.
func (s *DirectoryService) Teachers(ctx context.Context) ([]model.User, error) {
	return s.users.ListByRole(ctx, model.RoleTeacher)
}

// StudentPeriods lists the class periods a student may explicitly select
// when assignment inference alone would be ambiguous.
func (s *DirectoryService) StudentPeriods(ctx context.Context, studentID int) ([]model.ClassPeriod, error) {
	return s.periods.ActivePeriodsForStudent(ctx, studentID)
}
