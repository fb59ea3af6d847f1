package handler

import (
	"net/http"
	"strconv"
	"time"

	"recipebook/backend/internal/models"
	"recipebook/backend/internal/service"

	"github.com/gin-gonic/gin"
)

// NotificationResponse describes one notification.
type NotificationResponse struct {
	ID            uint      `json:"id"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	RelatedUserID *uint     `json:"related_user_id,omitempty"`
	RecipeID      *uint     `json:"recipe_id,omitempty"`
	IsRead        bool      `json:"is_read"`
	CreatedAt     time.Time `json:"created_at"`
}

type NotificationHandler struct {
	notifications *service.NotificationService
}

func NewNotificationHandler(notifications *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

func notificationResponse(n models.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		Type:          string(n.Type),
		Message:       n.Message,
		RelatedUserID: n.RelatedUserID,
		RecipeID:      n.RecipeID,
		IsRead:        n.IsRead,
		CreatedAt:     n.CreatedAt,
	}
}

// ListNotifications godoc
// @Summary      List notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        unread query     bool  false  "Only unread notifications"
// @Success      200    {array}   NotificationResponse
// @Router       /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"

	notifications, err := h.notifications.List(mustUserID(c), unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]NotificationResponse, 0, len(notifications))
	for _, notification := range notifications {
		responses = append(responses, notificationResponse(notification))
	}
	c.JSON(http.StatusOK, responses)
}

// UnreadCount godoc
// @Summary      Count unread notifications
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]int64 "{"unread": 3}"
// @Router       /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notifications.UnreadCount(mustUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

// MarkRead godoc
// @Summary      Mark a notification as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Notification ID"
// @Success      200  {object}  map[string]string "{"message": "Notification marked as read"}"
// @Failure      404  {object}  ErrorResponse
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid notification ID"})
		return
	}

	if err := h.notifications.MarkRead(mustUserID(c), uint(notificationID)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}

// MarkAllRead godoc
// @Summary      Mark all notifications as read
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]string "{"message": "All notifications marked as read"}"
// @Router       /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.notifications.MarkAllRead(mustUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}
