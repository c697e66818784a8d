package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/corridor/hallpass-backend/internal/model"
	"github.com/corridor/hallpass-backend/internal/response"
	"github.com/corridor/hallpass-backend/internal/service"
)

// DirectoryHandler exposes the read-only reference data behind the request
// form.
type DirectoryHandler struct {
	directoryService *service.DirectoryService
}

// NewDirectoryHandler creates a new DirectoryHandler.
func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directoryService: directoryService}
}

// ListDestinations godoc
// GET /api/v1/destinations
func (h *DirectoryHandler) ListDestinations(c *gin.Context) {
	destinations, err := h.directoryService.Destinations(c.Request.Context())
	if err != nil {
		failDomain(c, err)
		return
	}

	if destinations == nil {
		destinations = []model.Destination{}
	}
	response.Success(c, http.StatusOK, gin.H{"destinations": destinations})
}

// ListTeachers godoc
// GET /api/v1/teachers
func (h *DirectoryHandler) ListTeachers(c *gin.Context) {
	teachers, err := h.directoryService.Teachers(c.Request.Context())
	if err != nil {
		failDomain(c, err)
		return
	}

	if teachers == nil {
		teachers = []model.User{}
	}
	response.Success(c, http.StatusOK, gin.H{"teachers": teachers})
}

// StudentPeriods godoc
// GET /api/v1/students/:id/periods
// The periods a student may select to disambiguate a pass request.
func (h *DirectoryHandler) StudentPeriods(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	periods, err := h.directoryService.StudentPeriods(c.Request.Context(), id)
	if err != nil {
		failDomain(c, err)
		return
	}

	if periods == nil {
		periods = []model.ClassPeriod{}
	}
	response.Success(c, http.StatusOK, gin.H{"periods": periods})
}
