package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"recipebook/backend/internal/database"
	"recipebook/backend/internal/mailer"
	"recipebook/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database, one per test, with the full
// schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newTestShareService(db *gorm.DB) *ShareService {
	return NewShareService(db, NewVisibilityService(db), mailer.NoopMailer{}, "http://localhost:8080")
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "irrelevant",
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

func createPublisher(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := createUser(t, db, username)
	require.NoError(t, db.Model(&user).Update("can_publish_public", true).Error)
	user.CanPublishPublic = true
	return user
}

func createAdmin(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := createUser(t, db, username)
	require.NoError(t, db.Model(&user).Update("is_admin", true).Error)
	user.IsAdmin = true
	return user
}

var slugCounter atomic.Int64

func createRecipe(t *testing.T, db *gorm.DB, ownerID uint, name string, visibility models.RecipeVisibility) models.Recipe {
	t.Helper()
	recipe := models.Recipe{
		UserID:     ownerID,
		Name:       name,
		Slug:       fmt.Sprintf("fixture-%d", slugCounter.Add(1)),
		Visibility: visibility,
	}
	require.NoError(t, db.Create(&recipe).Error)
	return recipe
}

func makeFriends(t *testing.T, db *gorm.DB, a, b uint) {
	t.Helper()
	friendship := models.NewFriendship(a, b)
	require.NoError(t, db.Create(&friendship).Error)
}

func shareDirect(t *testing.T, db *gorm.DB, recipeID, byID, withID uint) {
	t.Helper()
	share := models.RecipeShare{RecipeID: recipeID, SharedByUserID: byID, SharedWithUserID: withID}
	require.NoError(t, db.Create(&share).Error)
}
