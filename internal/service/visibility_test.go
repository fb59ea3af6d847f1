package service

import (
	"testing"
	"time"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymousViewerSeesNothing(t *testing.T) {
	db := newTestDB(t)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	recipe := createRecipe(t, db, owner.ID, "Public Stew", models.VisibilityPublic)

	_, err := visibility.GetRecipe(nil, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	recipes, err := visibility.ListVisible(nil)
	require.NoError(t, err)
	assert.Empty(t, recipes)
}

func TestOwnerSeesOwnRecipesExceptTombstoned(t *testing.T) {
	db := newTestDB(t)
	visibility := NewVisibilityService(db)

	owner := createUser(t, db, "owner")
	viewer := &Viewer{ID: owner.ID}

	kept := createRecipe(t, db, owner.ID, "Kept", models.VisibilityPrivate)
	gone := createRecipe(t, db, owner.ID, "Gone", models.VisibilityPublic)
	now := time.Now()
	require.NoError(t, db.Model(&gone).Update("deleted_at", now).Error)

	got, err := visibility.GetRecipe(viewer, kept.ID)
	require.NoError(t, err)
	assert.Equal(t, kept.ID, got.ID)

	_, err = visibility.GetRecipe(viewer, gone.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	recipes, err := visibility.ListVisible(viewer)
	require.NoError(t, err)
	require.Len(t, recipes, 1)
	assert.Equal(t, kept.ID, recipes[0].ID)
}

func TestShareGrantsAccessOnlyWhileFriends(t *testing.T) {
	db := newTestDB(t)
	visibility := NewVisibilityService(db)
	friends := NewFriendService(db)

	owner := createPublisher(t, db, "owner")
	reader := createUser(t, db, "reader")
	viewer := &Viewer{ID: reader.ID}

	recipe := createRecipe(t, db, owner.ID, "Shared Stew", models.VisibilityPublic)
	makeFriends(t, db, owner.ID, reader.ID)
	shareDirect(t, db, recipe.ID, owner.ID, reader.ID)

	_, err := visibility.GetRecipe(viewer, recipe.ID)
	require.NoError(t, err)

	// Unfriending leaves the share row in place but makes it dormant.
	require.NoError(t, friends.Unfriend(owner.ID, reader.ID))

	_, err = visibility.GetRecipe(viewer, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	var shares int64
	db.Model(&models.RecipeShare{}).Where("recipe_id = ?", recipe.ID).Count(&shares)
	assert.EqualValues(t, 1, shares)

	// Becoming friends again revives the dormant share, nothing recreated.
	makeFriends(t, db, owner.ID, reader.ID)
	_, err = visibility.GetRecipe(viewer, recipe.ID)
	assert.NoError(t, err)
}

func TestShareWithoutFriendshipGrantsNothing(t *testing.T) {
	db := newTestDB(t)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	stranger := createUser(t, db, "stranger")

	recipe := createRecipe(t, db, owner.ID, "Not For You", models.VisibilityPublic)
	shareDirect(t, db, recipe.ID, owner.ID, stranger.ID)

	_, err := visibility.GetRecipe(&Viewer{ID: stranger.ID}, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTombstonedRecipeStaysVisibleToRecipients(t *testing.T) {
	db := newTestDB(t)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	reader := createUser(t, db, "reader")
	makeFriends(t, db, owner.ID, reader.ID)

	recipe := createRecipe(t, db, owner.ID, "Heirloom", models.VisibilityPublic)
	shareDirect(t, db, recipe.ID, owner.ID, reader.ID)
	now := time.Now()
	require.NoError(t, db.Model(&recipe).Update("deleted_at", now).Error)

	_, err := visibility.GetRecipe(&Viewer{ID: owner.ID}, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound, "owner loses sight of a tombstoned recipe")

	_, err = visibility.GetRecipe(&Viewer{ID: reader.ID}, recipe.ID)
	assert.NoError(t, err, "share recipient keeps access to a tombstoned recipe")
}

func TestAdminSeesEverything(t *testing.T) {
	db := newTestDB(t)
	visibility := NewVisibilityService(db)

	owner := createUser(t, db, "owner")
	admin := createAdmin(t, db, "admin")

	recipe := createRecipe(t, db, owner.ID, "Hidden Draft", models.VisibilityIncomplete)
	tombstoned := createRecipe(t, db, owner.ID, "Removed", models.VisibilityPublic)
	now := time.Now()
	require.NoError(t, db.Model(&tombstoned).Update("deleted_at", now).Error)

	adminViewer := &Viewer{ID: admin.ID, IsAdmin: true}

	_, err := visibility.GetRecipe(adminViewer, recipe.ID)
	assert.NoError(t, err)
	_, err = visibility.GetRecipe(adminViewer, tombstoned.ID)
	assert.NoError(t, err)

	recipes, err := visibility.ListVisible(adminViewer)
	require.NoError(t, err)
	assert.Len(t, recipes, 2)
}

func TestListVisibleMergesOwnAndShared(t *testing.T) {
	db := newTestDB(t)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	reader := createUser(t, db, "reader")
	makeFriends(t, db, owner.ID, reader.ID)

	mine := createRecipe(t, db, reader.ID, "Mine", models.VisibilityPrivate)
	shared := createRecipe(t, db, owner.ID, "Theirs", models.VisibilityPublic)
	unshared := createRecipe(t, db, owner.ID, "Withheld", models.VisibilityPublic)
	shareDirect(t, db, shared.ID, owner.ID, reader.ID)

	recipes, err := visibility.ListVisible(&Viewer{ID: reader.ID})
	require.NoError(t, err)
	require.Len(t, recipes, 2)

	ids := map[uint]bool{recipes[0].ID: true, recipes[1].ID: true}
	assert.True(t, ids[mine.ID])
	assert.True(t, ids[shared.ID])
	assert.False(t, ids[unshared.ID])
}
