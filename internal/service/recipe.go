package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// RecipeInput carries the writable recipe fields. Tags is a full
// replacement set when non-nil; an empty Visibility keeps the current one.
type RecipeInput struct {
	Name         string
	Description  string
	Instructions string
	Notes        string
	PrepTime     int
	CookTime     int
	Servings     string
	Visibility   models.RecipeVisibility
	Tags         []string
}

// RecipeService owns the recipe lifecycle: creation, update with the
// visibility-change guard and tag-scope transition, and the soft-delete
// policy.
type RecipeService struct {
	db         *gorm.DB
	visibility *VisibilityService
}

func NewRecipeService(db *gorm.DB, visibility *VisibilityService) *RecipeService {
	return &RecipeService{db: db, visibility: visibility}
}

// GetRecipe loads one recipe through the visibility engine.
func (s *RecipeService) GetRecipe(viewer *Viewer, recipeID uint) (*models.Recipe, error) {
	return s.visibility.GetRecipe(viewer, recipeID)
}

// ListRecipes lists everything the viewer may see.
func (s *RecipeService) ListRecipes(viewer *Viewer) ([]models.Recipe, error) {
	return s.visibility.ListVisible(viewer)
}

// CreateRecipe creates a recipe for the user. Publishing straight to
// public requires the publish permission and runs the personal-tag
// migration immediately, so a public recipe never carries personal tags.
func (s *RecipeService) CreateRecipe(userID uint, input RecipeInput) (*models.Recipe, error) {
	user, err := loadUser(s.db, userID)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(input.Name) == "" {
		return nil, apperror.InvalidState("recipe name is required")
	}

	visibility := input.Visibility
	if visibility == "" {
		visibility = models.VisibilityIncomplete
	}
	if err := validateVisibility(visibility); err != nil {
		return nil, err
	}
	if visibility == models.VisibilityPublic && !user.CanPublishPublicRecipes() {
		return nil, apperror.PermissionDenied("you are not allowed to publish public recipes")
	}

	recipe := models.Recipe{
		UserID:       userID,
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Instructions: input.Instructions,
		Notes:        input.Notes,
		PrepTime:     input.PrepTime,
		CookTime:     input.CookTime,
		Servings:     input.Servings,
		Visibility:   visibility,
	}
	if visibility == models.VisibilityPublic {
		now := time.Now()
		recipe.PublishedAt = &now
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		recipe.Slug = uniqueSlug(tx, recipe.Name)
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		if len(input.Tags) > 0 {
			if err := replaceTags(tx, &recipe, userID, input.Tags); err != nil {
				return err
			}
		}
		if recipe.Visibility == models.VisibilityPublic {
			return migratePersonalTagsToNotes(tx, &recipe)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.visibility.GetRecipe(&Viewer{ID: userID}, recipe.ID)
}

// UpdateRecipe applies a full update. A visibility change on a recipe with
// active shares is rejected outright; a transition into public detaches
// every personal tag into the notes field within the same transaction.
func (s *RecipeService) UpdateRecipe(actorID, recipeID uint, input RecipeInput) (*models.Recipe, error) {
	actor, err := loadUser(s.db, actorID)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("recipe")
			}
			return err
		}
		if recipe.Tombstoned() {
			return apperror.NotFound("recipe")
		}
		if recipe.UserID != actorID && !actor.IsAdmin {
			return apperror.PermissionDenied("only the owner can edit this recipe")
		}

		if input.Visibility != "" && input.Visibility != recipe.Visibility {
			if err := validateVisibility(input.Visibility); err != nil {
				return err
			}

			var shares int64
			tx.Model(&models.RecipeShare{}).Where("recipe_id = ?", recipe.ID).Count(&shares)
			if shares > 0 {
				return apperror.Conflict("visibility is frozen while the recipe has active shares; revoke every share first")
			}

			if input.Visibility == models.VisibilityPublic {
				if !actor.CanPublishPublicRecipes() {
					return apperror.PermissionDenied("you are not allowed to publish public recipes")
				}
				if recipe.PublishedAt == nil {
					now := time.Now()
					recipe.PublishedAt = &now
				}
			}
			recipe.Visibility = input.Visibility
		}

		if strings.TrimSpace(input.Name) != "" && strings.TrimSpace(input.Name) != recipe.Name {
			recipe.Name = strings.TrimSpace(input.Name)
			recipe.Slug = uniqueSlug(tx, recipe.Name)
		}
		recipe.Description = input.Description
		recipe.Instructions = input.Instructions
		recipe.Notes = input.Notes
		recipe.PrepTime = input.PrepTime
		recipe.CookTime = input.CookTime
		recipe.Servings = input.Servings

		if err := tx.Save(&recipe).Error; err != nil {
			return err
		}

		if input.Tags != nil {
			if err := replaceTags(tx, &recipe, recipe.UserID, input.Tags); err != nil {
				return err
			}
		}

		if recipe.Visibility == models.VisibilityPublic {
			return migratePersonalTagsToNotes(tx, &recipe)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.visibility.GetRecipe(&Viewer{ID: actorID, IsAdmin: actor.IsAdmin}, recipeID)
}

// DeleteRecipe implements the soft-delete policy. Owner only, admins
// included: deletion stays with the person whose collection it is.
//
// With active shares the recipe is tombstoned so recipients keep access;
// without any it is removed outright together with its dependent rows,
// followed by an owner-scoped orphaned-tag cleanup.
func (s *RecipeService) DeleteRecipe(userID, recipeID uint) (tombstoned bool, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("recipe")
			}
			return err
		}
		if recipe.Tombstoned() {
			return apperror.NotFound("recipe")
		}
		if recipe.UserID != userID {
			return apperror.PermissionDenied("only the owner can delete a recipe")
		}

		var shares int64
		tx.Model(&models.RecipeShare{}).Where("recipe_id = ?", recipe.ID).Count(&shares)
		if shares > 0 {
			tombstoned = true
			return tx.Model(&recipe).Update("deleted_at", time.Now()).Error
		}

		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.PendingRecipeShare{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&recipe).Error; err != nil {
			return err
		}

		_, err := cleanupOrphanedTags(tx, &userID)
		return err
	})
	return tombstoned, err
}

// ListUserRecipes returns the owner's own listing, tombstones excluded,
// optionally filtered by visibility.
func (s *RecipeService) ListUserRecipes(userID uint, visibility models.RecipeVisibility) ([]models.Recipe, error) {
	query := s.db.Where("user_id = ? AND deleted_at IS NULL", userID)
	if visibility != "" {
		query = query.Where("visibility = ?", visibility)
	}

	var recipes []models.Recipe
	err := query.Order("updated_at DESC").Find(&recipes).Error
	return recipes, err
}

// replaceTags swaps the recipe's tag set for the given names. Each name
// resolves against the appropriate scope: an existing system tag with
// that name wins, otherwise the owner's personal tag is found or created.
func replaceTags(tx *gorm.DB, recipe *models.Recipe, ownerID uint, names []string) error {
	tags := make([]*models.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		normalized := normalizeTagName(name)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true

		var system models.Tag
		err := tx.Where("scope = ? AND name = ?", models.TagScopeSystem, normalized).First(&system).Error
		switch {
		case err == nil:
			tags = append(tags, &system)
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		tag, err := getOrCreateTag(tx, models.TagScopePersonal, &ownerID, normalized)
		if err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return tx.Model(recipe).Association("Tags").Replace(tags)
}

// migratePersonalTagsToNotes detaches every personal tag from the recipe
// and appends their names as a labeled line in the notes field. System
// tags stay attached. Part of the same transaction as the visibility
// change that triggered it.
func migratePersonalTagsToNotes(tx *gorm.DB, recipe *models.Recipe) error {
	var tags []models.Tag
	if err := tx.Model(recipe).Association("Tags").Find(&tags); err != nil {
		return err
	}

	var personal []*models.Tag
	var names []string
	for i := range tags {
		if tags[i].Scope == models.TagScopePersonal {
			personal = append(personal, &tags[i])
			names = append(names, tags[i].Name)
		}
	}
	if len(personal) == 0 {
		return nil
	}
	sort.Strings(names)

	if err := tx.Model(recipe).Association("Tags").Delete(personal); err != nil {
		return err
	}

	notes := recipe.Notes
	if notes != "" {
		notes += "\n\n"
	}
	notes += "Personal tags: " + strings.Join(names, ", ")
	recipe.Notes = notes

	return tx.Model(recipe).Update("notes", notes).Error
}

func validateVisibility(v models.RecipeVisibility) error {
	switch v {
	case models.VisibilityIncomplete, models.VisibilityPrivate, models.VisibilityPublic:
		return nil
	default:
		return apperror.InvalidState(fmt.Sprintf("invalid visibility %q", v))
	}
}

// uniqueSlug derives a slug from the recipe name, suffixing a counter on
// collision.
func uniqueSlug(tx *gorm.DB, name string) string {
	base := slug.Make(name)
	candidate := base
	for i := 2; ; i++ {
		var count int64
		tx.Model(&models.Recipe{}).Where("slug = ?", candidate).Count(&count)
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
}

func loadUser(db *gorm.DB, userID uint) (*models.User, error) {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("user")
		}
		return nil, err
	}
	return &user, nil
}
