package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"poker-planning-backend/internal/models"

	"github.com/gin-gonic/gin"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// respondError maps engine errors onto HTTP statuses. Permission denials
// keep their category and level in the body so clients can explain the
// denial; the owner-absent lockdown is flagged separately.
func respondError(c *gin.Context, err error) {
	var permErr *models.PermissionDeniedError
	if errors.As(err, &permErr) {
		c.JSON(http.StatusForbidden, gin.H{
			"error":          permErr.Error(),
			"category":       permErr.Category,
			"required_level": permErr.RequiredLevel,
			"owner_absent":   permErr.OwnerAbsent,
		})
		return
	}

	var stateErr *models.InvalidStateError
	if errors.As(err, &stateErr) {
		c.JSON(http.StatusConflict, ErrorResponse{Error: stateErr.Error()})
		return
	}

	switch {
	case errors.Is(err, models.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrIdentityMismatch):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrRoomNotFound),
		errors.Is(err, models.ErrIssueNotFound),
		errors.Is(err, models.ErrMemberNotFound),
		errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return uint(id), true
}
