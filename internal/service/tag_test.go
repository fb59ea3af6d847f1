package service

import (
	"testing"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagNamesAreNormalized(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	user := createUser(t, db, "cook")

	tag, err := tags.GetOrCreatePersonal(user.ID, "  weeknight Dinner ")
	require.NoError(t, err)
	assert.Equal(t, "WEEKNIGHT DINNER", tag.Name)
	assert.Equal(t, "weeknight-dinner", tag.Slug)

	again, err := tags.GetOrCreatePersonal(user.ID, "Weeknight dinner")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, again.ID)

	_, err = tags.GetOrCreatePersonal(user.ID, "   ")
	assert.ErrorIs(t, err, apperror.ErrInvalidState)
}

func TestPersonalTagsAreNamespacedPerUser(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	aliceTag, err := tags.GetOrCreatePersonal(alice.ID, "spicy")
	require.NoError(t, err)
	bobTag, err := tags.GetOrCreatePersonal(bob.ID, "spicy")
	require.NoError(t, err)

	assert.NotEqual(t, aliceTag.ID, bobTag.ID)

	system, err := tags.GetOrCreateSystem("spicy")
	require.NoError(t, err)
	assert.NotEqual(t, aliceTag.ID, system.ID)
	assert.Nil(t, system.UserID)
}

func TestListForUser(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	_, err := tags.GetOrCreateSystem("vegetarian")
	require.NoError(t, err)
	_, err = tags.GetOrCreatePersonal(alice.ID, "mine")
	require.NoError(t, err)
	_, err = tags.GetOrCreatePersonal(bob.ID, "his")
	require.NoError(t, err)

	list, err := tags.ListForUser(alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "MINE", list[0].Name)
	assert.Equal(t, "VEGETARIAN", list[1].Name)
}

func TestCleanupNeverTouchesSystemTags(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	user := createUser(t, db, "cook")

	orphanSystem, err := tags.GetOrCreateSystem("untagged-system")
	require.NoError(t, err)
	orphanPersonal, err := tags.GetOrCreatePersonal(user.ID, "untagged-personal")
	require.NoError(t, err)

	used, err := tags.GetOrCreatePersonal(user.ID, "in-use")
	require.NoError(t, err)
	recipe := createRecipe(t, db, user.ID, "Stew", models.VisibilityPrivate)
	require.NoError(t, db.Model(&recipe).Association("Tags").Append(used))

	removed, err := tags.CleanupOrphanedTags(nil)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var count int64
	db.Model(&models.Tag{}).Where("id = ?", orphanSystem.ID).Count(&count)
	assert.EqualValues(t, 1, count, "system tags survive cleanup even with zero recipes")

	db.Model(&models.Tag{}).Where("id = ?", orphanPersonal.ID).Count(&count)
	assert.EqualValues(t, 0, count)

	db.Model(&models.Tag{}).Where("id = ?", used.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestCleanupScopedToUser(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	_, err := tags.GetOrCreatePersonal(alice.ID, "hers")
	require.NoError(t, err)
	bobTag, err := tags.GetOrCreatePersonal(bob.ID, "his")
	require.NoError(t, err)

	removed, err := tags.CleanupOrphanedTags(&alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	var count int64
	db.Model(&models.Tag{}).Where("id = ?", bobTag.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestConvertPersonalToSystem(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	aliceTag, err := tags.GetOrCreatePersonal(alice.ID, "vegetarian")
	require.NoError(t, err)
	bobTag, err := tags.GetOrCreatePersonal(bob.ID, "vegetarian")
	require.NoError(t, err)

	aliceRecipe := createRecipe(t, db, alice.ID, "Salad", models.VisibilityPrivate)
	bobRecipe := createRecipe(t, db, bob.ID, "Soup", models.VisibilityPrivate)
	require.NoError(t, db.Model(&aliceRecipe).Association("Tags").Append(aliceTag))
	require.NoError(t, db.Model(&bobRecipe).Association("Tags").Append(bobTag))

	merged, err := tags.ConvertPersonalToSystem("Vegetarian")
	require.NoError(t, err)
	assert.Equal(t, 2, merged)

	var remaining []models.Tag
	require.NoError(t, db.Where("name = ?", "VEGETARIAN").Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, models.TagScopeSystem, remaining[0].Scope)

	var joins int64
	db.Table("recipe_tags").Where("tag_id = ?", remaining[0].ID).Count(&joins)
	assert.EqualValues(t, 2, joins, "both recipes now carry the system tag")
}

func TestConvertPersonalToSystemAvoidsDuplicateJoins(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	user := createUser(t, db, "cook")

	personal, err := tags.GetOrCreatePersonal(user.ID, "spicy")
	require.NoError(t, err)
	system, err := tags.GetOrCreateSystem("spicy")
	require.NoError(t, err)

	// A recipe carrying both variants must end with exactly one join row.
	recipe := createRecipe(t, db, user.ID, "Chili", models.VisibilityPrivate)
	require.NoError(t, db.Model(&recipe).Association("Tags").Append(personal, system))

	merged, err := tags.ConvertPersonalToSystem("spicy")
	require.NoError(t, err)
	assert.Equal(t, 1, merged)

	var joins int64
	db.Table("recipe_tags").Where("recipe_id = ?", recipe.ID).Count(&joins)
	assert.EqualValues(t, 1, joins)
}

func TestDeleteTagGuards(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	user := createUser(t, db, "cook")

	system, err := tags.GetOrCreateSystem("vegetarian")
	require.NoError(t, err)
	err = tags.DeleteTag(system.ID)
	assert.ErrorIs(t, err, apperror.ErrPermission)

	used, err := tags.GetOrCreatePersonal(user.ID, "in-use")
	require.NoError(t, err)
	recipe := createRecipe(t, db, user.ID, "Stew", models.VisibilityPrivate)
	require.NoError(t, db.Model(&recipe).Association("Tags").Append(used))
	err = tags.DeleteTag(used.ID)
	assert.ErrorIs(t, err, apperror.ErrConflict)

	free, err := tags.GetOrCreatePersonal(user.ID, "free")
	require.NoError(t, err)
	require.NoError(t, tags.DeleteTag(free.ID))

	err = tags.DeleteTag(free.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestRenameTag(t *testing.T) {
	db := newTestDB(t)
	tags := NewTagService(db)

	user := createUser(t, db, "cook")

	tag, err := tags.GetOrCreatePersonal(user.ID, "quick")
	require.NoError(t, err)

	renamed, err := tags.RenameTag(tag.ID, "quick weeknight")
	require.NoError(t, err)
	assert.Equal(t, "QUICK WEEKNIGHT", renamed.Name)
	assert.Equal(t, "quick-weeknight", renamed.Slug)

	recipe := createRecipe(t, db, user.ID, "Stew", models.VisibilityPrivate)
	require.NoError(t, db.Model(&recipe).Association("Tags").Append(renamed))

	_, err = tags.RenameTag(tag.ID, "nope")
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
