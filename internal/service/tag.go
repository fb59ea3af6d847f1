package service

import (
	"errors"
	"strings"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// TagService manages tags and the admin-only scope maintenance operations.
type TagService struct {
	db *gorm.DB
}

func NewTagService(db *gorm.DB) *TagService {
	return &TagService{db: db}
}

// Tag names are stored upper-cased with lower-dash slugs.
func normalizeTagName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// getOrCreateTag resolves a tag name within the appropriate namespace:
// system tags globally, personal tags per user. Runs on whatever handle
// the caller is in, so tag resolution joins the caller's transaction.
func getOrCreateTag(tx *gorm.DB, scope models.TagScope, userID *uint, name string) (*models.Tag, error) {
	name = normalizeTagName(name)
	if name == "" {
		return nil, apperror.InvalidState("tag name is empty")
	}

	query := tx.Where("scope = ? AND name = ?", scope, name)
	if scope == models.TagScopePersonal {
		query = query.Where("user_id = ?", userID)
	}

	var tag models.Tag
	err := query.First(&tag).Error
	switch {
	case err == nil:
		return &tag, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		tag = models.Tag{
			Name:  name,
			Slug:  slug.Make(name),
			Scope: scope,
		}
		if scope == models.TagScopePersonal {
			tag.UserID = userID
		}
		if err := tx.Create(&tag).Error; err != nil {
			return nil, err
		}
		return &tag, nil
	default:
		return nil, err
	}
}

// GetOrCreatePersonal resolves a personal tag for the given user.
func (s *TagService) GetOrCreatePersonal(userID uint, name string) (*models.Tag, error) {
	return getOrCreateTag(s.db, models.TagScopePersonal, &userID, name)
}

// GetOrCreateSystem resolves a system tag.
func (s *TagService) GetOrCreateSystem(name string) (*models.Tag, error) {
	return getOrCreateTag(s.db, models.TagScopeSystem, nil, name)
}

// ListForUser returns all system tags plus the user's own personal tags.
func (s *TagService) ListForUser(userID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.Where("scope = ? OR (scope = ? AND user_id = ?)",
		models.TagScopeSystem, models.TagScopePersonal, userID).
		Order("name").
		Find(&tags).Error
	return tags, err
}

// CleanupOrphanedTags deletes personal tags with no recipes attached,
// optionally scoped to one user. System tags are never touched, no matter
// how many recipes they have.
func (s *TagService) CleanupOrphanedTags(userID *uint) (int64, error) {
	return cleanupOrphanedTags(s.db, userID)
}

func cleanupOrphanedTags(tx *gorm.DB, userID *uint) (int64, error) {
	query := tx.Where("scope = ?", models.TagScopePersonal).
		Where("id NOT IN (?)", tx.Table("recipe_tags").Select("tag_id"))
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	result := query.Delete(&models.Tag{})
	return result.RowsAffected, result.Error
}

// ConvertPersonalToSystem merges every user's personal tag with the given
// name into a single system tag, re-pointing all recipe associations, and
// returns the number of personal tags merged.
func (s *TagService) ConvertPersonalToSystem(name string) (int, error) {
	name = normalizeTagName(name)
	if name == "" {
		return 0, apperror.InvalidState("tag name is empty")
	}

	merged := 0
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var personals []models.Tag
		if err := tx.Where("scope = ? AND name = ?", models.TagScopePersonal, name).
			Find(&personals).Error; err != nil {
			return err
		}
		if len(personals) == 0 {
			return nil
		}

		systemTag, err := getOrCreateTag(tx, models.TagScopeSystem, nil, name)
		if err != nil {
			return err
		}

		// Recipes already carrying the system tag must not get a second
		// join row when a personal variant is re-pointed.
		var taggedRecipeIDs []uint
		if err := tx.Table("recipe_tags").Where("tag_id = ?", systemTag.ID).
			Pluck("recipe_id", &taggedRecipeIDs).Error; err != nil {
			return err
		}
		tagged := make(map[uint]bool, len(taggedRecipeIDs))
		for _, id := range taggedRecipeIDs {
			tagged[id] = true
		}

		for i := range personals {
			personal := &personals[i]

			var recipeIDs []uint
			if err := tx.Table("recipe_tags").Where("tag_id = ?", personal.ID).
				Pluck("recipe_id", &recipeIDs).Error; err != nil {
				return err
			}
			for _, recipeID := range recipeIDs {
				if tagged[recipeID] {
					continue
				}
				if err := tx.Exec("INSERT INTO recipe_tags (recipe_id, tag_id) VALUES (?, ?)",
					recipeID, systemTag.ID).Error; err != nil {
					return err
				}
				tagged[recipeID] = true
			}

			if err := tx.Exec("DELETE FROM recipe_tags WHERE tag_id = ?", personal.ID).Error; err != nil {
				return err
			}
			if err := tx.Delete(personal).Error; err != nil {
				return err
			}
			merged++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return merged, nil
}

// DeleteTag removes a tag by id. System tags are never deletable, and a
// tag still attached to recipes has to be detached first.
func (s *TagService) DeleteTag(tagID uint) error {
	var tag models.Tag
	if err := s.db.First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("tag")
		}
		return err
	}

	if tag.Scope == models.TagScopeSystem {
		return apperror.PermissionDenied("system tags cannot be deleted")
	}

	var inUse int64
	s.db.Table("recipe_tags").Where("tag_id = ?", tag.ID).Count(&inUse)
	if inUse > 0 {
		return apperror.Conflict("tag is still attached to recipes")
	}

	return s.db.Delete(&tag).Error
}

// RenameTag updates a tag's name and slug. Tags in use keep their name so
// recipes never silently change labels.
func (s *TagService) RenameTag(tagID uint, newName string) (*models.Tag, error) {
	newName = normalizeTagName(newName)
	if newName == "" {
		return nil, apperror.InvalidState("tag name is empty")
	}

	var tag models.Tag
	if err := s.db.First(&tag, tagID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("tag")
		}
		return nil, err
	}

	var inUse int64
	s.db.Table("recipe_tags").Where("tag_id = ?", tag.ID).Count(&inUse)
	if inUse > 0 {
		return nil, apperror.Conflict("tag is still attached to recipes")
	}

	tag.Name = newName
	tag.Slug = slug.Make(newName)
	if err := s.db.Save(&tag).Error; err != nil {
		return nil, err
	}
	return &tag, nil
}
