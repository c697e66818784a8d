package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"github.com/corridor/hallpass-backend/internal/response"
	"github.com/corridor/hallpass-backend/internal/service"
)

// failDomain maps a service error onto the HTTP status and error code the
// presentation layer expects. Unrecognized errors are storage or internal
// failures and surface as 500.
func failDomain(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAssignmentAmbiguous):
		response.Fail(c, http.StatusConflict, response.ErrAssignmentAmbiguous)
	case errors.Is(err, service.ErrAssignmentRequiresSelection):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrAssignmentSelection)
	case errors.Is(err, service.ErrCredentialInvalid):
		response.Fail(c, http.StatusUnauthorized, response.ErrCredentialInvalid)
	case errors.Is(err, service.ErrCapacityExceeded):
		response.Fail(c, http.StatusConflict, response.ErrCapacityExceeded)
	case errors.Is(err, service.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrInvalidTransition)
	case errors.Is(err, service.ErrNotAssignedTeacher):
		response.Fail(c, http.StatusForbidden, response.ErrNotAssignedTeacher)
	case errors.Is(err, service.ErrInvalidOverride):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrInvalidOverride)
	case errors.Is(err, service.ErrDuplicateActivePass):
		response.Fail(c, http.StatusConflict, response.ErrDuplicateActivePass)
	case errors.Is(err, service.ErrOutsideWindow):
		response.Fail(c, http.StatusForbidden, response.ErrOutsidePeriodWindow)
	case errors.Is(err, pgx.ErrNoRows):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
