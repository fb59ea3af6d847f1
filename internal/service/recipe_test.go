package service

import (
	"strings"
	"testing"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestRecipeService(db *gorm.DB) *RecipeService {
	return NewRecipeService(db, NewVisibilityService(db))
}

func TestCreateRecipeRequiresName(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	user := createUser(t, db, "cook")

	_, err := recipes.CreateRecipe(user.ID, RecipeInput{Name: "   "})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestCreateRecipeDefaultsToIncomplete(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	user := createUser(t, db, "cook")

	recipe, err := recipes.CreateRecipe(user.ID, RecipeInput{Name: "Morning Oats"})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityIncomplete, recipe.Visibility)
	assert.Equal(t, "morning-oats", recipe.Slug)
	assert.Nil(t, recipe.PublishedAt)
}

func TestCreatePublicRequiresPermission(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	plain := createUser(t, db, "plain")
	publisher := createPublisher(t, db, "publisher")

	_, err := recipes.CreateRecipe(plain.ID, RecipeInput{Name: "Nope", Visibility: models.VisibilityPublic})
	assert.ErrorIs(t, err, apperror.ErrPermission)

	recipe, err := recipes.CreateRecipe(publisher.ID, RecipeInput{Name: "Yep", Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	assert.NotNil(t, recipe.PublishedAt)
}

func TestCreateRecipeRejectsUnknownVisibility(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	user := createUser(t, db, "cook")

	_, err := recipes.CreateRecipe(user.ID, RecipeInput{Name: "Oops", Visibility: "secret"})
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestSlugCollisionGetsSuffix(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	user := createUser(t, db, "cook")

	first, err := recipes.CreateRecipe(user.ID, RecipeInput{Name: "Pancakes"})
	require.NoError(t, err)
	second, err := recipes.CreateRecipe(user.ID, RecipeInput{Name: "Pancakes"})
	require.NoError(t, err)

	assert.Equal(t, "pancakes", first.Slug)
	assert.Equal(t, "pancakes-2", second.Slug)
}

func TestCreatePublicMigratesPersonalTags(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	user := createPublisher(t, db, "cook")

	recipe, err := recipes.CreateRecipe(user.ID, RecipeInput{
		Name:       "Family Chili",
		Notes:      "Grandma's version.",
		Visibility: models.VisibilityPublic,
		Tags:       []string{"spicy", "weeknight"},
	})
	require.NoError(t, err)

	assert.Empty(t, recipe.Tags, "a public recipe never carries personal tags")
	assert.Contains(t, recipe.Notes, "Personal tags: SPICY, WEEKNIGHT")
	assert.True(t, strings.HasPrefix(recipe.Notes, "Grandma's version."))
}

func TestTagNamesResolveToSystemTagsFirst(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)
	tags := NewTagService(db)

	user := createPublisher(t, db, "cook")

	system, err := tags.GetOrCreateSystem("vegetarian")
	require.NoError(t, err)

	// A name matching a system tag attaches that tag; no personal
	// duplicate is created, so publishing keeps it attached instead of
	// shunting it into the notes line.
	recipe, err := recipes.CreateRecipe(user.ID, RecipeInput{
		Name:       "Garden Bowl",
		Visibility: models.VisibilityPublic,
		Tags:       []string{"Vegetarian", "family favorite"},
	})
	require.NoError(t, err)

	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, system.ID, recipe.Tags[0].ID)
	assert.Contains(t, recipe.Notes, "Personal tags: FAMILY FAVORITE")
	assert.NotContains(t, recipe.Notes, "VEGETARIAN")

	var personalCount int64
	db.Model(&models.Tag{}).
		Where("scope = ? AND name = ?", models.TagScopePersonal, "VEGETARIAN").
		Count(&personalCount)
	assert.EqualValues(t, 0, personalCount)
}

func TestUpdateVisibilityFrozenWithActiveShares(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)

	recipe, err := recipes.CreateRecipe(owner.ID, RecipeInput{Name: "Stew", Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	shareDirect(t, db, recipe.ID, owner.ID, friend.ID)

	_, err = recipes.UpdateRecipe(owner.ID, recipe.ID, RecipeInput{
		Name:       "Stew",
		Visibility: models.VisibilityPrivate,
	})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	// Revoking the share unfreezes visibility.
	require.NoError(t, db.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeShare{}).Error)

	updated, err := recipes.UpdateRecipe(owner.ID, recipe.ID, RecipeInput{
		Name:       "Stew",
		Visibility: models.VisibilityPrivate,
	})
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPrivate, updated.Visibility)
}

func TestUpdateToPublicMigratesTagsAndSetsPublishedAt(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	owner := createPublisher(t, db, "owner")

	recipe, err := recipes.CreateRecipe(owner.ID, RecipeInput{
		Name: "Draft Curry",
		Tags: []string{"comfort"},
	})
	require.NoError(t, err)
	require.Len(t, recipe.Tags, 1)

	updated, err := recipes.UpdateRecipe(owner.ID, recipe.ID, RecipeInput{
		Name:       "Draft Curry",
		Visibility: models.VisibilityPublic,
	})
	require.NoError(t, err)
	assert.Empty(t, updated.Tags)
	assert.Contains(t, updated.Notes, "Personal tags: COMFORT")
	assert.NotNil(t, updated.PublishedAt)
}

func TestUpdateByNonOwner(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	owner := createUser(t, db, "owner")
	other := createUser(t, db, "other")
	admin := createAdmin(t, db, "admin")

	recipe, err := recipes.CreateRecipe(owner.ID, RecipeInput{Name: "Mine"})
	require.NoError(t, err)

	_, err = recipes.UpdateRecipe(other.ID, recipe.ID, RecipeInput{Name: "Stolen"})
	assert.ErrorIs(t, err, apperror.ErrPermission)

	// Admins may edit for moderation.
	updated, err := recipes.UpdateRecipe(admin.ID, recipe.ID, RecipeInput{Name: "Moderated"})
	require.NoError(t, err)
	assert.Equal(t, "Moderated", updated.Name)
	assert.Equal(t, owner.ID, updated.UserID)
}

func TestDeleteWithActiveSharesTombstones(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)
	visibility := NewVisibilityService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)

	recipe, err := recipes.CreateRecipe(owner.ID, RecipeInput{Name: "Heirloom", Visibility: models.VisibilityPublic})
	require.NoError(t, err)
	shareDirect(t, db, recipe.ID, owner.ID, friend.ID)

	tombstoned, err := recipes.DeleteRecipe(owner.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, tombstoned)

	_, err = visibility.GetRecipe(&Viewer{ID: owner.ID}, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = visibility.GetRecipe(&Viewer{ID: friend.ID}, recipe.ID)
	assert.NoError(t, err, "the recipient keeps access after the owner deletes")
}

func TestDeleteWithoutSharesRemovesEverything(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	owner := createUser(t, db, "owner")
	recipe, err := recipes.CreateRecipe(owner.ID, RecipeInput{Name: "Scratch", Tags: []string{"solo"}})
	require.NoError(t, err)

	tombstoned, err := recipes.DeleteRecipe(owner.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, tombstoned)

	var rows int64
	db.Model(&models.Recipe{}).Where("id = ?", recipe.ID).Count(&rows)
	assert.EqualValues(t, 0, rows)

	// The now-unused personal tag is swept in the same transaction.
	var tags int64
	db.Model(&models.Tag{}).Where("name = ?", "SOLO").Count(&tags)
	assert.EqualValues(t, 0, tags)
}

func TestDeleteIsOwnerOnlyEvenForAdmins(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	owner := createUser(t, db, "owner")
	admin := createAdmin(t, db, "admin")

	recipe, err := recipes.CreateRecipe(owner.ID, RecipeInput{Name: "Untouchable"})
	require.NoError(t, err)

	_, err = recipes.DeleteRecipe(admin.ID, recipe.ID)
	assert.ErrorIs(t, err, apperror.ErrPermission)
}

func TestListUserRecipesFiltersTombstones(t *testing.T) {
	db := newTestDB(t)
	recipes := newTestRecipeService(db)

	owner := createPublisher(t, db, "owner")
	friend := createUser(t, db, "friend")
	makeFriends(t, db, owner.ID, friend.ID)

	_, err := recipes.CreateRecipe(owner.ID, RecipeInput{Name: "Draft"})
	require.NoError(t, err)
	public, err := recipes.CreateRecipe(owner.ID, RecipeInput{Name: "Published", Visibility: models.VisibilityPublic})
	require.NoError(t, err)

	shareDirect(t, db, public.ID, owner.ID, friend.ID)
	_, err = recipes.DeleteRecipe(owner.ID, public.ID)
	require.NoError(t, err)

	all, err := recipes.ListUserRecipes(owner.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	publics, err := recipes.ListUserRecipes(owner.ID, models.VisibilityPublic)
	require.NoError(t, err)
	assert.Empty(t, publics)
}
