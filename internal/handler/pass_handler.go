package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/corridor/hallpass-backend/internal/model"
	"github.com/corridor/hallpass-backend/internal/response"
	"github.com/corridor/hallpass-backend/internal/service"
	"github.com/corridor/hallpass-backend/internal/validator"
)

// PassHandler exposes the pass lifecycle action entry points. Actor
// identity arrives in the payload: authentication belongs to the outer
// surface, this engine only validates kiosk credential bindings.
type PassHandler struct {
	passService *service.PassService
}

// NewPassHandler creates a new PassHandler.
func NewPassHandler(passService *service.PassService) *PassHandler {
	return &PassHandler{passService: passService}
}

// RequestPassRequest is the payload for a student pass request.
type RequestPassRequest struct {
	StudentID     int    `json:"student_id" binding:"required"`
	DestinationID int    `json:"destination_id" binding:"required"`
	KioskToken    string `json:"kiosk_token" binding:"omitempty,max=64"`
	ClassPeriodID int    `json:"class_period_id" binding:"omitempty,min=1"`
}

// RequestPass godoc
// POST /api/v1/passes
// Creates a Pending pass routed to the resolved teacher.
func (h *PassHandler) RequestPass(c *gin.Context) {
	var req RequestPassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pass, err := h.passService.Request(c.Request.Context(), service.RequestInput{
		StudentID:     req.StudentID,
		DestinationID: req.DestinationID,
		KioskToken:    req.KioskToken,
		ClassPeriodID: req.ClassPeriodID,
	})
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"pass": pass})
}

// ApprovePassRequest is the payload for a teacher approval.
type ApprovePassRequest struct {
	TeacherID int `json:"teacher_id" binding:"required"`
	// DurationMinutes overrides the destination default when positive.
	DurationMinutes int `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
}

// ApprovePass godoc
// POST /api/v1/passes/:id/approve
// Activates a pending pass, subject to destination capacity admission.
func (h *PassHandler) ApprovePass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req ApprovePassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pass, err := h.passService.Approve(c.Request.Context(), id, req.TeacherID, req.DurationMinutes)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pass": pass})
}

// DenyPassRequest is the payload for a teacher denial.
type DenyPassRequest struct {
	TeacherID int    `json:"teacher_id" binding:"required"`
	Reason    string `json:"reason" binding:"omitempty,max=255"`
}

// DenyPass godoc
// POST /api/v1/passes/:id/deny
// Denies a pending pass. Terminal.
func (h *PassHandler) DenyPass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req DenyPassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pass, err := h.passService.Deny(c.Request.Context(), id, req.TeacherID, req.Reason)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pass": pass})
}

// ActorRequest is the payload for cancel and archive actions.
type ActorRequest struct {
	ActorID int `json:"actor_id" binding:"required"`
}

// CancelPass godoc
// POST /api/v1/passes/:id/cancel
// Cancels a pending or active pass.
func (h *PassHandler) CancelPass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req ActorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pass, err := h.passService.Cancel(c.Request.Context(), id, req.ActorID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pass": pass})
}

// ArchivePass godoc
// POST /api/v1/passes/:id/archive
// Moves a terminal pass to Archived; the housekeeping trigger for the
// reporting surface.
func (h *PassHandler) ArchivePass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req ActorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	pass, err := h.passService.Archive(c.Request.Context(), id, req.ActorID)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pass": pass})
}

// OverridePassRequest adjusts an active pass's expiry. Exactly one of
// new_expires_at and add_minutes must be supplied; add_minutes is the
// convenience form extending the current expiry.
type OverridePassRequest struct {
	ActorID      int        `json:"actor_id" binding:"required"`
	NewExpiresAt *time.Time `json:"new_expires_at" binding:"required_without=AddMinutes,excluded_with=AddMinutes"`
	AddMinutes   int        `json:"add_minutes" binding:"omitempty,min=1,max=480"`
	Reason       string     `json:"reason" binding:"omitempty,max=255"`
}

// OverridePass godoc
// POST /api/v1/passes/:id/override
// Appends an override record and moves the pass's expiry.
func (h *PassHandler) OverridePass(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req OverridePassRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	var record *model.Override
	if req.NewExpiresAt != nil {
		record, err = h.passService.Override(c.Request.Context(), id, req.ActorID, *req.NewExpiresAt, req.Reason)
	} else {
		record, err = h.passService.OverrideExtend(c.Request.Context(), id, req.ActorID, req.AddMinutes, req.Reason)
	}
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"override": record})
}

// GetOverrides godoc
// GET /api/v1/passes/:id/overrides
// Returns the append-only override ledger of a pass.
func (h *PassHandler) GetOverrides(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	ledger, err := h.passService.OverrideLedger(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"overrides": ledger})
}

// ListPasses godoc
// GET /api/v1/passes?teacher_id=&status=
// The teacher decision board: passes assigned to a teacher, optionally
// narrowed to one status.
func (h *PassHandler) ListPasses(c *gin.Context) {
	teacherID, err := strconv.Atoi(c.Query("teacher_id"))
	if err != nil || teacherID <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var statuses []model.PassStatus
	if raw := c.Query("status"); raw != "" {
		status := model.PassStatus(raw)
		switch status {
		case model.PassPending, model.PassActive, model.PassDenied,
			model.PassCancelled, model.PassExpired, model.PassArchived:
			statuses = append(statuses, status)
		default:
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
	}

	passes, err := h.passService.TeacherBoard(c.Request.Context(), teacherID, statuses)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"passes": passes})
}

// StudentHistory godoc
// GET /api/v1/students/:id/passes
// A student's recent passes, newest first.
func (h *PassHandler) StudentHistory(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	passes, err := h.passService.StudentHistory(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"passes": passes})
}
