package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Assignment resolution ─────────────────────────────────────────
	ErrAssignmentAmbiguous ErrCode = "ASSIGNMENT_AMBIGUOUS"
	ErrAssignmentSelection ErrCode = "ASSIGNMENT_REQUIRES_SELECTION"
	ErrCredentialInvalid   ErrCode = "CREDENTIAL_INVALID"
	ErrOutsidePeriodWindow ErrCode = "OUTSIDE_PERIOD_WINDOW"

	// ─── Lifecycle ─────────────────────────────────────────────────────
	ErrCapacityExceeded    ErrCode = "CAPACITY_EXCEEDED"
	ErrInvalidTransition   ErrCode = "INVALID_TRANSITION"
	ErrNotAssignedTeacher  ErrCode = "NOT_ASSIGNED_TEACHER"
	ErrInvalidOverride     ErrCode = "INVALID_OVERRIDE"
	ErrDuplicateActivePass ErrCode = "DUPLICATE_ACTIVE_PASS"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
// Every rejection names the invariant that blocked it so the UI can show
// an actionable message.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Resource not found."

	// ─── Assignment resolution ─────────────────────────────────────────
	case ErrAssignmentAmbiguous:
		return "Multiple teachers could approve this request. Please select a class period."
	case ErrAssignmentSelection:
		return "No teacher could be determined. Please select a class period or use a kiosk."
	case ErrCredentialInvalid:
		return "The kiosk credential is unknown or has been revoked."
	case ErrOutsidePeriodWindow:
		return "Requests are restricted outside the class period time window."

	// ─── Lifecycle ─────────────────────────────────────────────────────
	case ErrCapacityExceeded:
		return "The destination is currently at capacity."
	case ErrInvalidTransition:
		return "The pass is not in a state that allows this action."
	case ErrNotAssignedTeacher:
		return "Only the teacher this pass was routed to may decide it."
	case ErrInvalidOverride:
		return "Overrides apply only to active passes with a valid timestamp."
	case ErrDuplicateActivePass:
		return "You already have a pending or active pass."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "An internal server error occurred."
	default:
		return "An unexpected error occurred."
	}
}
