package models

import "time"

// Friendship is a symmetric link between two users. The pair is stored
// ordered (User1ID < User2ID) so that (A,B) and (B,A) collapse into one
// unique row. Always construct through NewFriendship, which enforces the
// ordering invariant.
type Friendship struct {
	ID        uint `gorm:"primaryKey"`
	User1ID   uint `gorm:"not null;uniqueIndex:idx_friendship_pair"`
	User2ID   uint `gorm:"not null;uniqueIndex:idx_friendship_pair"`
	CreatedAt time.Time

	User1 User `gorm:"foreignKey:User1ID;constraint:OnDelete:CASCADE;"`
	User2 User `gorm:"foreignKey:User2ID;constraint:OnDelete:CASCADE;"`
}

// NewFriendship builds a Friendship with the pair in canonical order.
func NewFriendship(a, b uint) Friendship {
	if a > b {
		a, b = b, a
	}
	return Friendship{User1ID: a, User2ID: b}
}

// Involves reports whether the given user is one side of the friendship.
func (f *Friendship) Involves(userID uint) bool {
	return f.User1ID == userID || f.User2ID == userID
}

// OtherUserID returns the friend of the given user.
func (f *Friendship) OtherUserID(userID uint) uint {
	if f.User1ID == userID {
		return f.User2ID
	}
	return f.User1ID
}
