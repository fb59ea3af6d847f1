package models

import "gorm.io/gorm"

// User represents a user account in the system.
type User struct {
	gorm.Model
	Username     string `gorm:"size:50;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	DisplayName  string `gorm:"size:100"`
	IsAdmin      bool   `gorm:"not null;default:false;index"`

	// CanPublishPublic controls whether the user may set a recipe's
	// visibility to public (and therefore make it shareable).
	CanPublishPublic bool `gorm:"not null;default:false"`

	Recipes []Recipe `gorm:"foreignKey:UserID"`
}

// CanPublishPublicRecipes reports whether the user may publish shareable recipes.
func (u *User) CanPublishPublicRecipes() bool {
	return u.IsAdmin || u.CanPublishPublic
}
