package service

import (
	"testing"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userTarget(id uint) ShareTarget {
	return ShareTarget{UserID: &id}
}

func TestShareWithFriend(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)

	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	outcome, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{userTarget(friend.ID)})
	require.NoError(t, err)
	require.Len(t, outcome.Shared, 1)
	assert.Empty(t, outcome.Pending)

	var notifications []models.Notification
	require.NoError(t, db.Where("user_id = ?", friend.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationRecipeShared, notifications[0].Type)
}

func TestShareGuards(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)

	private := createRecipe(t, db, owner.ID, "Private", models.VisibilityPrivate)
	public := createRecipe(t, db, owner.ID, "Public", models.VisibilityPublic)

	_, err := shares.ShareRecipe(owner.ID, private.ID, []ShareTarget{userTarget(friend.ID)})
	assert.ErrorIs(t, err, apperror.ErrConflict, "only public recipes are shareable")

	_, err = shares.ShareRecipe(friend.ID, public.ID, []ShareTarget{userTarget(owner.ID)})
	assert.ErrorIs(t, err, apperror.ErrPermission, "only the owner shares")

	_, err = shares.ShareRecipe(owner.ID, public.ID, nil)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)

	_, err = shares.ShareRecipe(owner.ID, public.ID, []ShareTarget{userTarget(owner.ID)})
	assert.ErrorIs(t, err, apperror.ErrConflict, "no self-shares")
}

func TestShareTwiceWithSameUser(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	_, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{userTarget(friend.ID)})
	require.NoError(t, err)

	_, err = shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{userTarget(friend.ID)})
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestShareWithNonFriendOpensFriendRequest(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)
	friends := NewFriendService(db)

	owner := createPublisher(t, db, "owner")
	other := createUser(t, db, "other")

	first := createRecipe(t, db, owner.ID, "First", models.VisibilityPublic)
	second := createRecipe(t, db, owner.ID, "Second", models.VisibilityPublic)

	// Bulk share of several recipes to the same non-friend hangs off a
	// single friend request.
	outcome, err := shares.ShareRecipe(owner.ID, first.ID, []ShareTarget{userTarget(other.ID)})
	require.NoError(t, err)
	require.Len(t, outcome.Pending, 1)
	require.NotNil(t, outcome.Pending[0].FriendRequestID)
	requestID := *outcome.Pending[0].FriendRequestID

	outcome, err = shares.ShareRecipe(owner.ID, second.ID, []ShareTarget{userTarget(other.ID)})
	require.NoError(t, err)
	require.Len(t, outcome.Pending, 1)
	require.NotNil(t, outcome.Pending[0].FriendRequestID)
	assert.Equal(t, requestID, *outcome.Pending[0].FriendRequestID)

	var requestCount int64
	db.Model(&models.FriendRequest{}).Count(&requestCount)
	assert.EqualValues(t, 1, requestCount)

	// Accepting the request materializes both shares atomically.
	require.NoError(t, friends.AcceptRequest(other.ID, requestID))

	var shareCount int64
	db.Model(&models.RecipeShare{}).Where("shared_with_user_id = ?", other.ID).Count(&shareCount)
	assert.EqualValues(t, 2, shareCount)

	var open int64
	db.Model(&models.PendingRecipeShare{}).Where("status = ?", models.PendingShareOpen).Count(&open)
	assert.EqualValues(t, 0, open)
}

func TestRejectRequestRejectsAttachedPendingShares(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)
	friends := NewFriendService(db)

	owner := createPublisher(t, db, "owner")
	other := createUser(t, db, "other")
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	outcome, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{userTarget(other.ID)})
	require.NoError(t, err)
	requestID := *outcome.Pending[0].FriendRequestID

	require.NoError(t, friends.RejectRequest(other.ID, requestID))

	var pending models.PendingRecipeShare
	require.NoError(t, db.First(&pending, outcome.Pending[0].ID).Error)
	assert.Equal(t, models.PendingShareRejected, pending.Status)

	var shareCount int64
	db.Model(&models.RecipeShare{}).Count(&shareCount)
	assert.EqualValues(t, 0, shareCount)
}

func TestShareToUnknownEmails(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)

	owner := createPublisher(t, db, "owner")
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	outcome, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{
		{Email: "one@example.org"},
		{Email: "two@example.org"},
		{Email: "Three@Example.org"},
	})
	require.NoError(t, err)
	require.Len(t, outcome.Pending, 3)
	assert.Empty(t, outcome.Shared)

	tokens := map[string]bool{}
	for _, pending := range outcome.Pending {
		assert.Nil(t, pending.SharedWithUserID)
		assert.Nil(t, pending.FriendRequestID)
		require.NotNil(t, pending.RecipientEmail)
		tokens[pending.Token] = true
	}
	assert.Len(t, tokens, 3, "every invite carries its own token")
	assert.Equal(t, "three@example.org", *outcome.Pending[2].RecipientEmail)

	// No friend requests for email-keyed invites.
	var requests int64
	db.Model(&models.FriendRequest{}).Count(&requests)
	assert.EqualValues(t, 0, requests)
}

func TestShareToEmailOfRegisteredUser(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	// An email belonging to an account resolves to that account.
	outcome, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{{Email: "Friend@Example.com"}})
	require.NoError(t, err)
	require.Len(t, outcome.Shared, 1)
	assert.Equal(t, friend.ID, outcome.Shared[0].SharedWithUserID)
}

func TestEmailTokenLifecycle(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)
	friends := NewFriendService(db)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	outcome, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{{Email: "new@example.org"}})
	require.NoError(t, err)
	token := outcome.Pending[0].Token

	// The recipient registers later; the invite is linked but stays open.
	newcomer := models.User{Username: "newcomer", Email: "new@example.org", PasswordHash: "irrelevant"}
	require.NoError(t, db.Create(&newcomer).Error)
	require.NoError(t, LinkPendingSharesToUser(db, newcomer.ID, "new@example.org"))

	pending, err := shares.GetPendingByToken(newcomer.ID, token)
	require.NoError(t, err)
	assert.Equal(t, models.PendingShareOpen, pending.Status)

	share, err := shares.AcceptPending(newcomer.ID, token)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, share.RecipeID)
	assert.Equal(t, newcomer.ID, share.SharedWithUserID)

	// Accepting makes the sharer and the newcomer friends, so the share
	// is live immediately: the recipe shows up in the newcomer's listing.
	assert.True(t, friends.AreFriends(owner.ID, newcomer.ID))

	_, err = visibility.GetRecipe(&Viewer{ID: newcomer.ID}, recipe.ID)
	require.NoError(t, err)

	visible, err := visibility.ListVisible(&Viewer{ID: newcomer.ID})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, recipe.ID, visible[0].ID)

	// Resolving twice is an error, never a duplicate effect.
	_, err = shares.AcceptPending(newcomer.ID, token)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestAcceptPendingByTokenSettlesFriendRequest(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)
	friends := NewFriendService(db)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	other := createUser(t, db, "other")

	first := createRecipe(t, db, owner.ID, "First", models.VisibilityPublic)
	second := createRecipe(t, db, owner.ID, "Second", models.VisibilityPublic)

	outcome, err := shares.ShareRecipe(owner.ID, first.ID, []ShareTarget{userTarget(other.ID)})
	require.NoError(t, err)
	requestID := *outcome.Pending[0].FriendRequestID
	token := outcome.Pending[0].Token

	_, err = shares.ShareRecipe(owner.ID, second.ID, []ShareTarget{userTarget(other.ID)})
	require.NoError(t, err)

	// Going through the token link instead of the friend request must
	// leave the same end state: friendship made, request accepted, every
	// share attached to the request materialized and visible.
	_, err = shares.AcceptPending(other.ID, token)
	require.NoError(t, err)

	assert.True(t, friends.AreFriends(owner.ID, other.ID))

	var request models.FriendRequest
	require.NoError(t, db.First(&request, requestID).Error)
	assert.Equal(t, models.RequestAccepted, request.Status)

	var open int64
	db.Model(&models.PendingRecipeShare{}).Where("status = ?", models.PendingShareOpen).Count(&open)
	assert.EqualValues(t, 0, open)

	visible, err := visibility.ListVisible(&Viewer{ID: other.ID})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
}

func TestPendingTokenAddressedToSomeoneElse(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)

	owner := createPublisher(t, db, "owner")
	interloper := createUser(t, db, "interloper")
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	outcome, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{{Email: "someone@example.org"}})
	require.NoError(t, err)

	_, err = shares.GetPendingByToken(interloper.ID, outcome.Pending[0].Token)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = shares.AcceptPending(interloper.ID, outcome.Pending[0].Token)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRejectPending(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)

	owner := createPublisher(t, db, "owner")
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)

	outcome, err := shares.ShareRecipe(owner.ID, recipe.ID, []ShareTarget{{Email: "new@example.org"}})
	require.NoError(t, err)
	token := outcome.Pending[0].Token

	newcomer := models.User{Username: "newcomer", Email: "new@example.org", PasswordHash: "irrelevant"}
	require.NoError(t, db.Create(&newcomer).Error)

	require.NoError(t, shares.RejectPending(newcomer.ID, token))

	var shareCount int64
	db.Model(&models.RecipeShare{}).Count(&shareCount)
	assert.EqualValues(t, 0, shareCount)

	err = shares.RejectPending(newcomer.ID, token)
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestUnshare(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)
	shareDirect(t, db, recipe.ID, owner.ID, friend.ID)

	err := shares.Unshare(friend.ID, recipe.ID, friend.ID)
	assert.ErrorIs(t, err, apperror.ErrPermission)

	require.NoError(t, shares.Unshare(owner.ID, recipe.ID, friend.ID))

	_, err = visibility.GetRecipe(&Viewer{ID: friend.ID}, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = shares.Unshare(owner.ID, recipe.ID, friend.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestListSharedWithMeIncludesDormant(t *testing.T) {
	db := newTestDB(t)
	shares := newTestShareService(db)
	friends := NewFriendService(db)

	owner := createPublisher(t, db, "owner")
	reader := createUser(t, db, "reader")
	makeFriends(t, db, owner.ID, reader.ID)
	recipe := createRecipe(t, db, owner.ID, "Stew", models.VisibilityPublic)
	shareDirect(t, db, recipe.ID, owner.ID, reader.ID)

	require.NoError(t, friends.Unfriend(owner.ID, reader.ID))

	list, err := shares.ListSharedWithMe(reader.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1, "the ledger keeps dormant shares")
}
