package models

import "time"

// PendingShareStatus defines the state of a pending recipe share.
type PendingShareStatus string

const (
	PendingShareOpen     PendingShareStatus = "pending"
	PendingShareAccepted PendingShareStatus = "accepted"
	PendingShareRejected PendingShareStatus = "rejected"
)

// PendingRecipeShare holds a share whose recipient cannot receive a
// RecipeShare yet. Two variants exist:
//
//   - keyed by FriendRequestID when the recipient is a known user who is
//     not yet a friend; accepting that request materializes every attached
//     pending share in the same transaction.
//   - keyed by RecipientEmail when the recipient has no account; the
//     emailed token link lets them accept or reject once registered and
//     logged in. Email-keyed rows never expire.
type PendingRecipeShare struct {
	ID               uint  `gorm:"primaryKey"`
	RecipeID         uint  `gorm:"not null;index"`
	SharedByUserID   uint  `gorm:"not null;index"`
	SharedWithUserID *uint `gorm:"index"`
	RecipientEmail   *string `gorm:"size:255;index"`
	FriendRequestID  *uint   `gorm:"index"`
	Token            string  `gorm:"size:255;uniqueIndex;not null"`
	Status           PendingShareStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Recipe        Recipe         `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"`
	SharedBy      User           `gorm:"foreignKey:SharedByUserID;constraint:OnDelete:CASCADE;"`
	FriendRequest *FriendRequest `gorm:"foreignKey:FriendRequestID;constraint:OnDelete:CASCADE;"`
}

// Resolved reports whether the pending share has already been accepted or rejected.
func (p *PendingRecipeShare) Resolved() bool {
	return p.Status != PendingShareOpen
}
