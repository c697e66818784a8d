package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/corridor/hallpass-backend/internal/model"
	"github.com/corridor/hallpass-backend/internal/response"
	"github.com/corridor/hallpass-backend/internal/service"
)

// KioskHandler exposes the read-only active-pass projection polled by
// kiosk displays.
type KioskHandler struct {
	kioskService *service.KioskService
}

// NewKioskHandler creates a new KioskHandler.
func NewKioskHandler(kioskService *service.KioskService) *KioskHandler {
	return &KioskHandler{kioskService: kioskService}
}

// ListActive godoc
// GET /api/v1/kiosk/passes?token=
// Returns currently active passes for the scope the token grants. No token
// yields the system-wide view; an invalid token fails rather than
// silently widening the scope.
func (h *KioskHandler) ListActive(c *gin.Context) {
	snapshots, err := h.kioskService.ListActive(c.Request.Context(), c.Query("token"))
	if err != nil {
		failDomain(c, err)
		return
	}

	if snapshots == nil {
		snapshots = []model.PassSnapshot{}
	}
	response.Success(c, http.StatusOK, gin.H{"passes": snapshots})
}
