package service

import (
	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"gorm.io/gorm"
)

// NotificationService exposes the notification inbox. Rows are written by
// the friend and share workflows as side effects; nothing here affects
// authorization.
type NotificationService struct {
	db *gorm.DB
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{db: db}
}

// createNotification records an event for a user inside the caller's
// transaction.
func createNotification(tx *gorm.DB, userID uint, typ models.NotificationType, relatedUserID, recipeID *uint, message string) error {
	notification := models.Notification{
		UserID:        userID,
		Type:          typ,
		RelatedUserID: relatedUserID,
		RecipeID:      recipeID,
		Message:       message,
	}
	return tx.Create(&notification).Error
}

// List returns the user's notifications, newest first.
func (s *NotificationService) List(userID uint, unreadOnly bool) ([]models.Notification, error) {
	query := s.db.Preload("RelatedUser").Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	var notifications []models.Notification
	err := query.Order("created_at DESC").Find(&notifications).Error
	return notifications, err
}

// UnreadCount returns the user's unread notification count.
func (s *NotificationService) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead marks one of the user's notifications as read.
func (s *NotificationService) MarkRead(userID, notificationID uint) error {
	result := s.db.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("notification")
	}
	return nil
}

// MarkAllRead marks every unread notification of the user as read.
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.db.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}
