package models

import "gorm.io/gorm"

// FriendRequestStatus defines the state of a friend request.
type FriendRequestStatus string

const (
	RequestPending   FriendRequestStatus = "pending"
	RequestAccepted  FriendRequestStatus = "accepted"
	RequestRejected  FriendRequestStatus = "rejected"
	RequestCancelled FriendRequestStatus = "cancelled"
)

// FriendRequest mediates the transition from "not friends" to "friends".
// One row exists per ordered (sender, recipient) pair; a rejected or
// cancelled request is reopened in place by a later request rather than
// inserted again, so the unique index can never see two pending rows for
// the same pair.
type FriendRequest struct {
	gorm.Model
	SenderID    uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair"`
	RecipientID uint                `gorm:"not null;uniqueIndex:idx_friend_request_pair;index"`
	Status      FriendRequestStatus `gorm:"type:varchar(20);not null;default:'pending'"`

	Sender    User `gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE;"`
	Recipient User `gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE;"`
}
