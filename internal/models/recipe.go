package models

import "time"

// RecipeVisibility defines who a recipe may be exposed to.
// Note that "public" means shareable with friends, not globally discoverable:
// no recipe is ever listed for users it was not explicitly shared with.
type RecipeVisibility string

const (
	VisibilityIncomplete RecipeVisibility = "incomplete"
	VisibilityPrivate    RecipeVisibility = "private"
	VisibilityPublic     RecipeVisibility = "public"
)

// Recipe is the main recipe record.
//
// DeletedAt is a plain tombstone column, deliberately not gorm.DeletedAt:
// a tombstoned recipe must stay queryable for existing share recipients,
// so the visibility engine applies its own filtering instead of GORM's
// soft-delete scoping.
type Recipe struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"not null;index"`
	Name         string `gorm:"size:200;not null"`
	Slug         string `gorm:"size:250;uniqueIndex"`
	Description  string `gorm:"type:text"`
	Instructions string `gorm:"type:text"`
	Notes        string `gorm:"type:text"`
	PrepTime     int
	CookTime     int
	Servings     string           `gorm:"size:50"`
	Visibility   RecipeVisibility `gorm:"type:varchar(20);not null;default:'incomplete';index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PublishedAt  *time.Time
	DeletedAt    *time.Time `gorm:"index"`

	Owner User   `gorm:"foreignKey:UserID"`
	Tags  []*Tag `gorm:"many2many:recipe_tags;"`
}

// Tombstoned reports whether the recipe has been soft-deleted by its owner.
func (r *Recipe) Tombstoned() bool {
	return r.DeletedAt != nil
}

// TotalTime returns prep plus cook time in minutes.
func (r *Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}
