package model

import "time"

// PassStatus is the lifecycle state of a pass.
type PassStatus string

const (
	PassPending   PassStatus = "Pending"
	PassActive    PassStatus = "Active"
	PassDenied    PassStatus = "Denied"
	PassCancelled PassStatus = "Cancelled"
	PassExpired   PassStatus = "Expired"
	PassArchived  PassStatus = "Archived"
)

// Terminal reports whether the status admits no further lifecycle
// transitions other than archival.
func (s PassStatus) Terminal() bool {
	switch s {
	case PassDenied, PassCancelled, PassExpired:
		return true
	}
	return false
}

// Pass is the core fact: one student's single outing to one destination,
// tracked from request to a terminal state. Passes are never hard-deleted.
type Pass struct {
	ID            int        `json:"id"`
	StudentID     int        `json:"student_id"`
	DestinationID int        `json:"destination_id"`
	Status        PassStatus `json:"status"`
	RequestedAt   time.Time  `json:"requested_at"`
	// IssuedAt and ExpiresAt stay nil until approval activates the pass.
	// After that, ExpiresAt changes only through an Override record.
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ExpiredBy reports whether the pass is lazily expired at the given
// instant: stored status still Active but the deadline has passed. Readers
// must treat such a pass as expired even before the sweep rewrites it.
func (p *Pass) ExpiredBy(now time.Time) bool {
	return p.Status == PassActive && p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// RemainingSeconds returns the whole seconds until expiry, or 0 for
// non-active or already-elapsed passes.
func (p *Pass) RemainingSeconds(now time.Time) int {
	if p.Status != PassActive || p.ExpiresAt == nil {
		return 0
	}
	remaining := int(p.ExpiresAt.Sub(now).Seconds())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// PassAssignment binds a pass to the teacher responsible for deciding it.
// Created at request time, immutable thereafter.
type PassAssignment struct {
	ID        int `json:"id"`
	PassID    int `json:"pass_id"`
	TeacherID int `json:"teacher_id"`
}

// Override is one append-only ledger entry recording a manual adjustment
// to an active pass's expiry.
type Override struct {
	ID            int       `json:"id"`
	PassID        int       `json:"pass_id"`
	ActorID       int       `json:"actor_id"`
	PrevExpiresAt time.Time `json:"prev_expires_at"`
	NewExpiresAt  time.Time `json:"new_expires_at"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// PassDetail is a pass joined with the display names the decision board
// and history listings need.
type PassDetail struct {
	Pass
	StudentName     string `json:"student_name"`
	DestinationName string `json:"destination_name"`
	TeacherName     string `json:"teacher_name,omitempty"`
}

// PassSnapshot is one row of the kiosk view, frozen at query time.
// Teacher is empty when no assignment teacher could be joined.
type PassSnapshot struct {
	ID               int       `json:"id"`
	Student          string    `json:"student"`
	Destination      string    `json:"destination"`
	IssuedAt         time.Time `json:"issued_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	RemainingSeconds int       `json:"remaining_seconds"`
	Teacher          string    `json:"teacher"`
}
