package models

import "time"

// RecipeShare records that the owner granted one friend standing view
// access to one recipe. The grant never expires and survives the
// friendship that enabled it; the visibility engine re-checks the live
// friendship on every read, so a share without a friendship is dormant,
// not deleted.
type RecipeShare struct {
	ID               uint `gorm:"primaryKey"`
	RecipeID         uint `gorm:"not null;uniqueIndex:idx_recipe_share_triple;index"`
	SharedByUserID   uint `gorm:"not null;uniqueIndex:idx_recipe_share_triple"`
	SharedWithUserID uint `gorm:"not null;uniqueIndex:idx_recipe_share_triple;index"`
	CreatedAt        time.Time

	Recipe     Recipe `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE;"`
	SharedBy   User   `gorm:"foreignKey:SharedByUserID;constraint:OnDelete:CASCADE;"`
	SharedWith User   `gorm:"foreignKey:SharedWithUserID;constraint:OnDelete:CASCADE;"`
}
