package service

import "errors"

// Domain errors surfaced to the presentation layer. Every rejected action
// maps to exactly one of these so the caller can name the invariant that
// blocked it. All are recoverable by the caller; only storage failures
// propagate as plain errors.
var (
	// ErrAssignmentAmbiguous: the student's active enrollments span more
	// than one distinct teacher and nothing disambiguates.
	ErrAssignmentAmbiguous = errors.New("assignment ambiguous: multiple distinct teachers")

	// ErrAssignmentRequiresSelection: no teacher could be inferred; the
	// student must pick a class period (or use a bound kiosk).
	ErrAssignmentRequiresSelection = errors.New("assignment requires an explicit class period selection")

	// ErrCapacityExceeded: the destination has no free concurrent slot.
	ErrCapacityExceeded = errors.New("destination capacity exceeded")

	// ErrInvalidTransition: the attempted edge is not part of the pass
	// lifecycle from the pass's current status.
	ErrInvalidTransition = errors.New("transition not permitted from current status")

	// ErrNotAssignedTeacher: the acting teacher is not the one the pass
	// was routed to.
	ErrNotAssignedTeacher = errors.New("pass is assigned to a different teacher")

	// ErrInvalidOverride: override applied to a non-active pass or with a
	// malformed timestamp.
	ErrInvalidOverride = errors.New("override not applicable")

	// ErrCredentialInvalid: kiosk token unknown, revoked, or deactivated.
	ErrCredentialInvalid = errors.New("kiosk credential invalid")

	// ErrDuplicateActivePass: the student already holds a pending or
	// active pass.
	ErrDuplicateActivePass = errors.New("student already holds an open pass")

	// ErrOutsideWindow: the resolved class period's time-of-day window is
	// closed and window enforcement is on.
	ErrOutsideWindow = errors.New("outside the class period time window")
)
