package handler

import (
	"errors"
	"net/http"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"
	"recipebook/backend/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrorResponse represents a generic error response.
type ErrorResponse struct {
	Error string `json:"error" example:"An error message"`
}

// respondError maps service errors onto HTTP statuses. Anything outside
// the application error taxonomy is a 500 with a generic message.
func respondError(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
		case errors.Is(err, apperror.ErrPermission):
			status = http.StatusForbidden
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
		case errors.Is(err, apperror.ErrInvalidState):
			status = http.StatusBadRequest
		}
		c.JSON(status, ErrorResponse{Error: appErr.Message})
		return
	}
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// currentViewer builds the viewer identity for the request, or nil for
// anonymous requests. Routes using OptionalAuthMiddleware may legitimately
// have no userID set.
func currentViewer(c *gin.Context, db *gorm.DB) *service.Viewer {
	userID, exists := c.Get("userID")
	if !exists {
		return nil
	}

	var user models.User
	if err := db.First(&user, userID.(uint)).Error; err != nil {
		return nil
	}
	return &service.Viewer{ID: user.ID, IsAdmin: user.IsAdmin}
}

// mustUserID returns the authenticated user id. Only valid behind
// AuthMiddleware.
func mustUserID(c *gin.Context) uint {
	userID, _ := c.Get("userID")
	return userID.(uint)
}
