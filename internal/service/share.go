package service

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/mailer"
	"recipebook/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShareTarget is one intended recipient of a share: either a known user id
// or a bare email address.
type ShareTarget struct {
	UserID *uint
	Email  string
}

// ShareOutcome summarizes what a ShareRecipe call produced.
type ShareOutcome struct {
	Shared  []models.RecipeShare
	Pending []models.PendingRecipeShare
}

// ShareService owns the share ledger and the pending-share queue.
type ShareService struct {
	db         *gorm.DB
	visibility *VisibilityService
	mailer     mailer.Mailer
	baseURL    string
}

func NewShareService(db *gorm.DB, visibility *VisibilityService, m mailer.Mailer, baseURL string) *ShareService {
	return &ShareService{db: db, visibility: visibility, mailer: m, baseURL: baseURL}
}

type shareInvite struct {
	email      string
	recipeName string
	senderName string
	token      string
}

// ShareRecipe grants standing view access on one recipe to each target.
// Targets are partitioned three ways:
//
//   - friends get a RecipeShare immediately, plus a notification;
//   - known users who are not friends yet get one friend request from the
//     owner (shared across all recipes targeted at them) and a pending
//     share attached to it;
//   - unknown emails get an email-keyed pending share with a fresh
//     unguessable token and no friend request.
//
// All rows are written in one transaction. Invite emails go out after
// commit, best effort; a failed send is logged and changes nothing.
func (s *ShareService) ShareRecipe(ownerID, recipeID uint, targets []ShareTarget) (*ShareOutcome, error) {
	var recipe models.Recipe
	if err := s.db.Preload("Owner").First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("recipe")
		}
		return nil, err
	}
	if recipe.UserID != ownerID {
		return nil, apperror.PermissionDenied("only the owner can share a recipe")
	}
	if recipe.Tombstoned() {
		return nil, apperror.NotFound("recipe")
	}
	if recipe.Visibility != models.VisibilityPublic {
		return nil, apperror.Conflict("only public recipes can be shared")
	}
	if len(targets) == 0 {
		return nil, apperror.InvalidState("no share targets given")
	}

	outcome := &ShareOutcome{}
	var invites []shareInvite

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, target := range targets {
			recipient, email, err := resolveTarget(tx, target)
			if err != nil {
				return err
			}

			if recipient != nil {
				if recipient.ID == ownerID {
					return apperror.Conflict("cannot share a recipe with yourself")
				}
				if friendshipExists(tx, ownerID, recipient.ID) {
					share, err := createShare(tx, &recipe, ownerID, recipient.ID)
					if err != nil {
						return err
					}
					outcome.Shared = append(outcome.Shared, *share)
					continue
				}
				pending, err := s.createRequestKeyedPending(tx, &recipe, ownerID, recipient.ID)
				if err != nil {
					return err
				}
				outcome.Pending = append(outcome.Pending, *pending)
				continue
			}

			pending, err := s.createEmailKeyedPending(tx, &recipe, ownerID, email)
			if err != nil {
				return err
			}
			outcome.Pending = append(outcome.Pending, *pending)
			invites = append(invites, shareInvite{
				email:      email,
				recipeName: recipe.Name,
				senderName: recipe.Owner.Username,
				token:      pending.Token,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, invite := range invites {
		acceptURL := fmt.Sprintf("%s/shares/pending/%s", s.baseURL, invite.token)
		if err := s.mailer.SendShareInvite(invite.email, invite.recipeName, invite.senderName, acceptURL); err != nil {
			log.Printf("share invite to %s not delivered: %v", invite.email, err)
		}
	}

	return outcome, nil
}

// resolveTarget turns a target into either a registered user or a bare
// email. An email belonging to a registered account is treated as a user
// target.
func resolveTarget(tx *gorm.DB, target ShareTarget) (*models.User, string, error) {
	if target.UserID != nil {
		var user models.User
		if err := tx.First(&user, *target.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, "", apperror.NotFound("user")
			}
			return nil, "", err
		}
		return &user, "", nil
	}

	email := strings.ToLower(strings.TrimSpace(target.Email))
	if email == "" {
		return nil, "", apperror.InvalidState("share target has neither user id nor email")
	}
	var user models.User
	err := tx.Where("email = ?", email).First(&user).Error
	switch {
	case err == nil:
		return &user, "", nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, email, nil
	default:
		return nil, "", err
	}
}

func createShare(tx *gorm.DB, recipe *models.Recipe, byID, withID uint) (*models.RecipeShare, error) {
	var existing int64
	tx.Model(&models.RecipeShare{}).
		Where("recipe_id = ? AND shared_by_user_id = ? AND shared_with_user_id = ?", recipe.ID, byID, withID).
		Count(&existing)
	if existing > 0 {
		return nil, apperror.Conflict("recipe is already shared with this user")
	}

	share := models.RecipeShare{
		RecipeID:         recipe.ID,
		SharedByUserID:   byID,
		SharedWithUserID: withID,
	}
	if err := tx.Create(&share).Error; err != nil {
		// Unique triple index: concurrent duplicate.
		return nil, apperror.Conflict("recipe is already shared with this user")
	}
	share.Recipe = *recipe
	share.SharedBy = recipe.Owner
	if err := createNotification(tx, withID, models.NotificationRecipeShared, &byID, &recipe.ID,
		fmt.Sprintf("The recipe %q was shared with you", recipe.Name)); err != nil {
		return nil, err
	}
	return &share, nil
}

func (s *ShareService) createRequestKeyedPending(tx *gorm.DB, recipe *models.Recipe, ownerID, recipientID uint) (*models.PendingRecipeShare, error) {
	request, err := findPendingOrOpenRequest(tx, ownerID, recipientID)
	if err != nil {
		return nil, err
	}

	var existing int64
	tx.Model(&models.PendingRecipeShare{}).
		Where("recipe_id = ? AND shared_with_user_id = ? AND status = ?", recipe.ID, recipientID, models.PendingShareOpen).
		Count(&existing)
	if existing > 0 {
		return nil, apperror.Conflict("a share of this recipe to this user is already pending")
	}

	pending := models.PendingRecipeShare{
		RecipeID:         recipe.ID,
		SharedByUserID:   ownerID,
		SharedWithUserID: &recipientID,
		FriendRequestID:  &request.ID,
		Token:            uuid.NewString(),
		Status:           models.PendingShareOpen,
	}
	if err := tx.Create(&pending).Error; err != nil {
		return nil, err
	}
	pending.Recipe = *recipe
	pending.SharedBy = recipe.Owner
	return &pending, nil
}

// findPendingOrOpenRequest reuses the live friend request from sender to
// recipient if one exists, otherwise opens one. Bulk shares of N recipes
// to the same non-friend therefore hang off a single request.
func findPendingOrOpenRequest(tx *gorm.DB, senderID, recipientID uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	err := tx.Where("sender_id = ? AND recipient_id = ? AND status = ?",
		senderID, recipientID, models.RequestPending).First(&request).Error
	switch {
	case err == nil:
		return &request, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return findOrReopenRequest(tx, senderID, recipientID)
	default:
		return nil, err
	}
}

func (s *ShareService) createEmailKeyedPending(tx *gorm.DB, recipe *models.Recipe, ownerID uint, email string) (*models.PendingRecipeShare, error) {
	var existing int64
	tx.Model(&models.PendingRecipeShare{}).
		Where("recipe_id = ? AND recipient_email = ? AND status = ?", recipe.ID, email, models.PendingShareOpen).
		Count(&existing)
	if existing > 0 {
		return nil, apperror.Conflict("a share of this recipe to this email is already pending")
	}

	pending := models.PendingRecipeShare{
		RecipeID:       recipe.ID,
		SharedByUserID: ownerID,
		RecipientEmail: &email,
		Token:          uuid.NewString(),
		Status:         models.PendingShareOpen,
	}
	if err := tx.Create(&pending).Error; err != nil {
		return nil, err
	}
	pending.Recipe = *recipe
	pending.SharedBy = recipe.Owner
	return &pending, nil
}

// resolvePendingSharesForRequest materializes every open pending share
// attached to a friend request. Runs inside the accept transaction so the
// friendship and the resolved shares land together or not at all.
func resolvePendingSharesForRequest(tx *gorm.DB, request *models.FriendRequest) error {
	var pendings []models.PendingRecipeShare
	if err := tx.Preload("Recipe").
		Where("friend_request_id = ? AND status = ?", request.ID, models.PendingShareOpen).
		Find(&pendings).Error; err != nil {
		return err
	}

	for i := range pendings {
		pending := &pendings[i]
		if pending.SharedWithUserID == nil {
			continue
		}
		if _, err := createShare(tx, &pending.Recipe, pending.SharedByUserID, *pending.SharedWithUserID); err != nil {
			// The ledger row may already exist from an earlier direct share.
			if !errors.Is(err, apperror.ErrConflict) {
				return err
			}
		}
		if err := tx.Model(pending).Update("status", models.PendingShareAccepted).Error; err != nil {
			return err
		}
	}
	return nil
}

// Unshare revokes one share. A first-class operation, distinct from
// deleting the recipe.
func (s *ShareService) Unshare(ownerID, recipeID, withUserID uint) error {
	var recipe models.Recipe
	if err := s.db.First(&recipe, recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("recipe")
		}
		return err
	}
	if recipe.UserID != ownerID {
		return apperror.PermissionDenied("only the owner can revoke a share")
	}

	result := s.db.Where("recipe_id = ? AND shared_with_user_id = ?", recipeID, withUserID).
		Delete(&models.RecipeShare{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperror.NotFound("share")
	}
	return nil
}

// ListSharedWithMe returns the viewer's incoming share ledger entries.
// Dormant shares (friendship since removed) are included here; the
// visibility engine is what hides the recipes themselves.
func (s *ShareService) ListSharedWithMe(userID uint) ([]models.RecipeShare, error) {
	var shares []models.RecipeShare
	err := s.db.Preload("Recipe").Preload("SharedBy").
		Where("shared_with_user_id = ?", userID).
		Order("created_at DESC").
		Find(&shares).Error
	return shares, err
}

// ListPendingForUser returns open pending shares addressed to the user,
// whether keyed by their account id or by their email.
func (s *ShareService) ListPendingForUser(userID uint) ([]models.PendingRecipeShare, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}

	var pendings []models.PendingRecipeShare
	err := s.db.Preload("Recipe").Preload("SharedBy").
		Where("status = ? AND (shared_with_user_id = ? OR recipient_email = ?)",
			models.PendingShareOpen, userID, strings.ToLower(user.Email)).
		Order("created_at DESC").
		Find(&pendings).Error
	return pendings, err
}

// GetPendingByToken loads a pending share by its token on behalf of a
// logged-in user. Anonymous token fetches are rejected upstream; a token
// addressed to someone else reads as not found.
func (s *ShareService) GetPendingByToken(userID uint, token string) (*models.PendingRecipeShare, error) {
	return getPendingByToken(s.db, userID, token)
}

func getPendingByToken(db *gorm.DB, userID uint, token string) (*models.PendingRecipeShare, error) {
	var pending models.PendingRecipeShare
	err := db.Preload("Recipe").Preload("SharedBy").
		Where("token = ?", token).First(&pending).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("pending share")
		}
		return nil, err
	}

	if !pendingAddressedTo(db, &pending, userID) {
		return nil, apperror.NotFound("pending share")
	}
	return &pending, nil
}

func pendingAddressedTo(db *gorm.DB, pending *models.PendingRecipeShare, userID uint) bool {
	if pending.SharedWithUserID != nil {
		return *pending.SharedWithUserID == userID
	}
	if pending.RecipientEmail == nil {
		return false
	}
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		return false
	}
	return strings.EqualFold(user.Email, *pending.RecipientEmail)
}

// AcceptPending resolves a pending share by token: the ledger row is
// created, the friendship the share depends on is created when missing,
// and the pending row flipped, all in one transaction. A share without a
// live friendship is dormant, so accepting an invite from a stranger
// makes the two users friends. Acting on an already-resolved row is an
// error, never a duplicate effect.
func (s *ShareService) AcceptPending(userID uint, token string) (*models.RecipeShare, error) {
	var share *models.RecipeShare
	err := s.db.Transaction(func(tx *gorm.DB) error {
		pending, err := getPendingByToken(tx, userID, token)
		if err != nil {
			return err
		}
		if pending.Resolved() {
			return apperror.InvalidState("pending share has already been resolved")
		}

		share, err = createShare(tx, &pending.Recipe, pending.SharedByUserID, userID)
		if err != nil {
			return err
		}
		share.SharedBy = pending.SharedBy

		if !friendshipExists(tx, pending.SharedByUserID, userID) {
			friendship := models.NewFriendship(pending.SharedByUserID, userID)
			if err := tx.Create(&friendship).Error; err != nil {
				// Unique index on the ordered pair: a concurrent accept won the race.
				return apperror.Conflict("you are already friends with this user")
			}
		}

		// A request-keyed pending accepted by token settles the friend
		// request too; the friendship just created must never coexist with
		// open shares still hanging off that request.
		if pending.FriendRequestID != nil {
			var request models.FriendRequest
			if err := tx.First(&request, *pending.FriendRequestID).Error; err == nil &&
				request.Status == models.RequestPending {
				if err := resolvePendingSharesForRequest(tx, &request); err != nil {
					return err
				}
				if err := tx.Model(&request).Update("status", models.RequestAccepted).Error; err != nil {
					return err
				}
			}
		}

		updates := map[string]interface{}{
			"status":              models.PendingShareAccepted,
			"shared_with_user_id": userID,
		}
		return tx.Model(&models.PendingRecipeShare{}).Where("id = ?", pending.ID).Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return share, nil
}

// RejectPending declines a pending share by token. Nothing is created.
func (s *ShareService) RejectPending(userID uint, token string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		pending, err := getPendingByToken(tx, userID, token)
		if err != nil {
			return err
		}
		if pending.Resolved() {
			return apperror.InvalidState("pending share has already been resolved")
		}

		updates := map[string]interface{}{
			"status":              models.PendingShareRejected,
			"shared_with_user_id": userID,
		}
		return tx.Model(&models.PendingRecipeShare{}).Where("id = ?", pending.ID).Updates(updates).Error
	})
}

// LinkPendingSharesToUser attaches email-keyed pending shares to a freshly
// registered account. The rows stay pending: accepting is always an
// explicit act by the recipient, never a side effect of registration.
func LinkPendingSharesToUser(tx *gorm.DB, userID uint, email string) error {
	return tx.Model(&models.PendingRecipeShare{}).
		Where("recipient_email = ? AND shared_with_user_id IS NULL", strings.ToLower(strings.TrimSpace(email))).
		Update("shared_with_user_id", userID).Error
}
