package models

import "time"

// TagScope separates globally shared labels from per-user ones.
type TagScope string

const (
	// TagScopeSystem tags are namespaced by name alone, shared by all users
	// and never removed by orphan cleanup.
	TagScopeSystem TagScope = "system"
	// TagScopePersonal tags are namespaced per (name, user) and are removed
	// by cleanup once no recipes reference them.
	TagScopePersonal TagScope = "personal"
)

// Tag is a classification label attached to recipes.
// UserID is nil exactly when Scope is system.
type Tag struct {
	ID        uint     `gorm:"primaryKey"`
	Name      string   `gorm:"size:100;not null;index:idx_tag_scope_name"`
	Slug      string   `gorm:"size:100;not null"`
	Scope     TagScope `gorm:"type:varchar(20);not null;default:'personal';index:idx_tag_scope_name"`
	UserID    *uint    `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Recipes []*Recipe `gorm:"many2many:recipe_tags;"`
}
