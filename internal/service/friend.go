package service

import (
	"errors"
	"fmt"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"gorm.io/gorm"
)

// FriendService owns the friendship graph and the friend-request state
// machine. Requests move pending -> accepted | rejected | cancelled, all
// terminal; accepting is the only way a Friendship row comes into being.
type FriendService struct {
	db *gorm.DB
}

func NewFriendService(db *gorm.DB) *FriendService {
	return &FriendService{db: db}
}

// SendRequest creates (or reopens) a friend request from sender to
// recipient. One row exists per ordered pair; a previously rejected or
// cancelled request is flipped back to pending rather than duplicated.
func (s *FriendService) SendRequest(senderID, recipientID uint) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, apperror.Conflict("cannot send a friend request to yourself")
	}

	var recipient models.User
	if err := s.db.First(&recipient, recipientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}

	if friendshipExists(s.db, senderID, recipientID) {
		return nil, apperror.Conflict("you are already friends with this user")
	}

	var request *models.FriendRequest
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		request, err = findOrReopenRequest(tx, senderID, recipientID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

// findOrReopenRequest returns a pending request row for the ordered pair,
// creating or reopening one as needed, and emits the friend_request
// notification when a new pending row appears. Runs inside the caller's
// transaction; the share workflow reuses it for bulk shares.
func findOrReopenRequest(tx *gorm.DB, senderID, recipientID uint) (*models.FriendRequest, error) {
	var existing models.FriendRequest
	err := tx.Where("sender_id = ? AND recipient_id = ?", senderID, recipientID).First(&existing).Error
	switch {
	case err == nil:
		if existing.Status == models.RequestPending {
			return nil, apperror.Conflict("a friend request to this user is already pending")
		}
		if existing.Status == models.RequestAccepted && friendshipExists(tx, senderID, recipientID) {
			return nil, apperror.Conflict("you are already friends with this user")
		}
		// Terminal row (or a stale accepted one after an unfriend): reopen in place.
		existing.Status = models.RequestPending
		if err := tx.Save(&existing).Error; err != nil {
			return nil, err
		}
		if err := createNotification(tx, recipientID, models.NotificationFriendRequest, &senderID, nil,
			"You received a friend request"); err != nil {
			return nil, err
		}
		return &existing, nil

	case errors.Is(err, gorm.ErrRecordNotFound):
		request := models.FriendRequest{
			SenderID:    senderID,
			RecipientID: recipientID,
			Status:      models.RequestPending,
		}
		if err := tx.Create(&request).Error; err != nil {
			return nil, apperror.Conflict("a friend request to this user already exists")
		}
		if err := createNotification(tx, recipientID, models.NotificationFriendRequest, &senderID, nil,
			"You received a friend request"); err != nil {
			return nil, err
		}
		return &request, nil

	default:
		return nil, err
	}
}

// AcceptRequest accepts a pending request on behalf of its recipient.
// The friendship row, the request status flip and the materialization of
// every pending share attached to the request form one transaction; no
// reader may ever observe one without the others.
func (s *FriendService) AcceptRequest(recipientID, requestID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		request, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if request.RecipientID != recipientID {
			return apperror.PermissionDenied("only the recipient can accept a friend request")
		}
		if request.Status != models.RequestPending {
			return apperror.InvalidState("friend request is not pending")
		}

		if friendshipExists(tx, request.SenderID, request.RecipientID) {
			return apperror.Conflict("you are already friends with this user")
		}
		friendship := models.NewFriendship(request.SenderID, request.RecipientID)
		if err := tx.Create(&friendship).Error; err != nil {
			// Unique index on the ordered pair: a concurrent accept won the race.
			return apperror.Conflict("you are already friends with this user")
		}

		if err := resolvePendingSharesForRequest(tx, request); err != nil {
			return err
		}

		return tx.Model(request).Update("status", models.RequestAccepted).Error
	})
}

// RejectRequest rejects a pending request on behalf of its recipient.
// Pending shares attached to the request are rejected in the same
// transaction; leaving them open against a rejected request would let a
// later unrelated acceptance resurrect them.
func (s *FriendService) RejectRequest(recipientID, requestID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		request, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if request.RecipientID != recipientID {
			return apperror.PermissionDenied("only the recipient can reject a friend request")
		}
		if request.Status != models.RequestPending {
			return apperror.InvalidState("friend request is not pending")
		}

		if err := tx.Model(&models.PendingRecipeShare{}).
			Where("friend_request_id = ? AND status = ?", request.ID, models.PendingShareOpen).
			Update("status", models.PendingShareRejected).Error; err != nil {
			return err
		}

		return tx.Model(request).Update("status", models.RequestRejected).Error
	})
}

// CancelRequest cancels a pending request on behalf of its sender.
// No cascade: attached pending shares stay as they are.
func (s *FriendService) CancelRequest(senderID, requestID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		request, err := loadRequest(tx, requestID)
		if err != nil {
			return err
		}
		if request.SenderID != senderID {
			return apperror.PermissionDenied("only the sender can cancel a friend request")
		}
		if request.Status != models.RequestPending {
			return apperror.InvalidState("friend request is not pending")
		}
		return tx.Model(request).Update("status", models.RequestCancelled).Error
	})
}

// Unfriend removes the friendship between two users. Existing recipe
// shares are deliberately left in place; they go dormant because the
// visibility engine re-checks the friendship on every read.
func (s *FriendService) Unfriend(userID, otherID uint) error {
	pair := models.NewFriendship(userID, otherID)
	result := s.db.Where("user1_id = ? AND user2_id = ?", pair.User1ID, pair.User2ID).
		Delete(&models.Friendship{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("friendship")
	}
	return nil
}

// AreFriends reports whether a live friendship exists between two users.
func (s *FriendService) AreFriends(a, b uint) bool {
	return friendshipExists(s.db, a, b)
}

// ListFriends returns the users linked to the given user.
func (s *FriendService) ListFriends(userID uint) ([]models.User, error) {
	var friendships []models.Friendship
	if err := s.db.Where("user1_id = ? OR user2_id = ?", userID, userID).Find(&friendships).Error; err != nil {
		return nil, err
	}

	friendIDs := make([]uint, 0, len(friendships))
	for _, f := range friendships {
		friendIDs = append(friendIDs, f.OtherUserID(userID))
	}
	if len(friendIDs) == 0 {
		return []models.User{}, nil
	}

	var friends []models.User
	if err := s.db.Where("id IN ?", friendIDs).Order("username").Find(&friends).Error; err != nil {
		return nil, err
	}
	return friends, nil
}

// ListIncomingRequests returns pending requests addressed to the user.
func (s *FriendService) ListIncomingRequests(userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.db.Preload("Sender").
		Where("recipient_id = ? AND status = ?", userID, models.RequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

// ListOutgoingRequests returns pending requests the user has sent.
func (s *FriendService) ListOutgoingRequests(userID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := s.db.Preload("Recipient").
		Where("sender_id = ? AND status = ?", userID, models.RequestPending).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func loadRequest(tx *gorm.DB, requestID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := tx.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("friend request")
		}
		return nil, fmt.Errorf("load friend request: %w", err)
	}
	return &request, nil
}
