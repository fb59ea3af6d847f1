package models

import "time"

// NotificationType identifies what a notification is about.
type NotificationType string

const (
	NotificationFriendRequest NotificationType = "friend_request"
	NotificationRecipeShared  NotificationType = "recipe_shared"
)

// Notification is a consumer-facing event record. It plays no part in
// authorization; deleting one never revokes anything.
type Notification struct {
	ID            uint             `gorm:"primaryKey"`
	UserID        uint             `gorm:"not null;index:idx_notification_user_read"`
	Type          NotificationType `gorm:"type:varchar(30);not null"`
	RelatedUserID *uint
	RecipeID      *uint
	Message       string `gorm:"type:text"`
	IsRead        bool   `gorm:"not null;default:false;index:idx_notification_user_read"`
	CreatedAt     time.Time

	User        User  `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE;"`
	RelatedUser *User `gorm:"foreignKey:RelatedUserID;constraint:OnDelete:SET NULL;"`
}
