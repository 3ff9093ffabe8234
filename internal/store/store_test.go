package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/db"
	"foodgram/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func mustUser(t *testing.T, database *gorm.DB, username string) models.User {
	t.Helper()

	user := models.User{
		Email:        username + "@foodgram.test",
		Username:     username,
		FirstName:    "First",
		LastName:     "Last",
		PasswordHash: "unused",
	}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func mustIngredient(t *testing.T, database *gorm.DB, name, unit string) models.Ingredient {
	t.Helper()

	ingredient := models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := database.Create(&ingredient).Error; err != nil {
		t.Fatalf("create ingredient %s: %v", name, err)
	}
	return ingredient
}

func mustTag(t *testing.T, database *gorm.DB, slug string) models.Tag {
	t.Helper()

	tag := models.Tag{Name: "Tag " + slug, Slug: slug}
	if err := database.Create(&tag).Error; err != nil {
		t.Fatalf("create tag %s: %v", slug, err)
	}
	return tag
}

func mustRecipe(t *testing.T, database *gorm.DB, authorID uint, name string, tags []uint, items ...IngredientAmount) models.Recipe {
	t.Helper()

	recipe, err := CreateRecipe(context.Background(), database, authorID, RecipeInput{
		Name:        name,
		Text:        "Cook " + name,
		CookingTime: 10,
		Image:       fmt.Sprintf("recipes/%s.png", uuid.NewString()),
		Ingredients: items,
		TagIDs:      tags,
	})
	if err != nil {
		t.Fatalf("create recipe %s: %v", name, err)
	}
	return recipe
}

func validationField(t *testing.T, err error) string {
	t.Helper()

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	return verr.Field
}
