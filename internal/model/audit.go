package model

import "time"

// Audit actions recorded by the lifecycle engine. The browsing/export
// surface lives elsewhere; the engine only appends event facts.
const (
	AuditPassRequested   = "pass_requested"
	AuditPassApproved    = "pass_approved"
	AuditPassDenied      = "pass_denied"
	AuditPassCancelled   = "pass_cancelled"
	AuditPassArchived    = "pass_archived"
	AuditPassAutoExpired = "pass_auto_expired"
	AuditOverrideApplied = "pass_override"
)

// AuditEntry is one event fact: who did what to which target.
type AuditEntry struct {
	ID int `json:"id"`
	// ActorID is nil for system actions such as the expiry sweep.
	ActorID    *int      `json:"actor_id,omitempty"`
	Action     string    `json:"action"`
	TargetType string    `json:"target_type,omitempty"`
	TargetID   int       `json:"target_id,omitempty"`
	Message    string    `json:"message,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
