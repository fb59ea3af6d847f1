package service

import (
	"errors"
	"sort"

	"recipebook/backend/internal/apperror"
	"recipebook/backend/internal/models"

	"gorm.io/gorm"
)

// Viewer identifies who is asking. A nil *Viewer means an anonymous request.
type Viewer struct {
	ID      uint
	IsAdmin bool
}

// capability is the single consolidated answer to "what standing does this
// viewer have on this recipe". Every read path resolves one of these
// instead of re-checking ownership/admin/shares ad hoc.
type capability int

const (
	capNone capability = iota
	capShared
	capOwner
	capAdmin
)

// VisibilityService computes recipe accessibility. Every read path in the
// system goes through it; a recipe it does not return simply does not
// exist as far as the caller can tell.
type VisibilityService struct {
	db *gorm.DB
}

func NewVisibilityService(db *gorm.DB) *VisibilityService {
	return &VisibilityService{db: db}
}

// capabilityFor resolves the viewer's standing on a recipe.
//
// A share only grants standing while a friendship between the owner and
// the viewer currently exists; both are re-checked on every call, so a
// share whose friendship was removed yields capNone without the share row
// being touched.
func (s *VisibilityService) capabilityFor(viewer *Viewer, recipe *models.Recipe) capability {
	if viewer == nil {
		return capNone
	}
	if viewer.IsAdmin {
		return capAdmin
	}
	if recipe.UserID == viewer.ID {
		return capOwner
	}

	var shares int64
	s.db.Model(&models.RecipeShare{}).
		Where("recipe_id = ? AND shared_with_user_id = ?", recipe.ID, viewer.ID).
		Count(&shares)
	if shares == 0 {
		return capNone
	}
	if !friendshipExists(s.db, recipe.UserID, viewer.ID) {
		return capNone
	}
	return capShared
}

// CanView reports whether the viewer may see the recipe.
//
// Owners lose sight of their own tombstoned recipes; share recipients do
// not, which is the entire point of tombstoning. Anonymous viewers see
// nothing: "public" means shareable, not globally discoverable.
func (s *VisibilityService) CanView(viewer *Viewer, recipe *models.Recipe) bool {
	switch s.capabilityFor(viewer, recipe) {
	case capAdmin:
		return true
	case capOwner:
		return !recipe.Tombstoned()
	case capShared:
		return true
	default:
		return false
	}
}

// GetRecipe loads a single recipe on behalf of the viewer. An existing but
// inaccessible recipe is reported identically to a missing one.
func (s *VisibilityService) GetRecipe(viewer *Viewer, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.Preload("Owner").Preload("Tags").First(&recipe, recipeID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("recipe")
		}
		return nil, err
	}

	if !s.CanView(viewer, &recipe) {
		return nil, apperror.NotFound("recipe")
	}
	return &recipe, nil
}

// ListVisible returns every recipe the viewer may see: their own
// non-tombstoned recipes plus recipes shared with them by current friends,
// deduplicated and ordered by last update descending.
func (s *VisibilityService) ListVisible(viewer *Viewer) ([]models.Recipe, error) {
	if viewer == nil {
		return []models.Recipe{}, nil
	}

	if viewer.IsAdmin {
		// Moderation listing: everything, tombstones included.
		var recipes []models.Recipe
		if err := s.db.Preload("Owner").Order("updated_at DESC").Find(&recipes).Error; err != nil {
			return nil, err
		}
		return recipes, nil
	}

	var own []models.Recipe
	if err := s.db.Preload("Owner").
		Where("user_id = ? AND deleted_at IS NULL", viewer.ID).
		Find(&own).Error; err != nil {
		return nil, err
	}

	var shared []models.Recipe
	if err := s.db.Preload("Owner").
		Joins("JOIN recipe_shares ON recipe_shares.recipe_id = recipes.id AND recipe_shares.shared_with_user_id = ?", viewer.ID).
		Joins("JOIN friendships ON (friendships.user1_id = recipes.user_id AND friendships.user2_id = ?) OR (friendships.user1_id = ? AND friendships.user2_id = recipes.user_id)",
			viewer.ID, viewer.ID).
		Find(&shared).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(own)+len(shared))
	merged := make([]models.Recipe, 0, len(own)+len(shared))
	for _, r := range append(own, shared...) {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		merged = append(merged, r)
	}
	sort.Slice(merged, func(i, j int) bool {
		return merged[i].UpdatedAt.After(merged[j].UpdatedAt)
	})

	return merged, nil
}

// friendshipExists checks for a live friendship between two users.
func friendshipExists(db *gorm.DB, a, b uint) bool {
	pair := models.NewFriendship(a, b)
	var count int64
	db.Model(&models.Friendship{}).
		Where("user1_id = ? AND user2_id = ?", pair.User1ID, pair.User2ID).
		Count(&count)
	return count > 0
}
