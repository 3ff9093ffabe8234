package mock

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/db"
	applog "foodgram/internal/log"
	"foodgram/models"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "foodgram-demo"

// New returns an in-memory sqlite database seeded with a few users, tags,
// ingredients and one recipe so the API can be explored without Postgres.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := "file:foodgram-mock-" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		chef := models.User{
			Email:        "chef@foodgram.app",
			Username:     "chef",
			FirstName:    "Mira",
			LastName:     "Castell",
			PasswordHash: string(password),
		}
		guest := models.User{
			Email:        "guest@foodgram.app",
			Username:     "guest",
			FirstName:    "Oskar",
			LastName:     "Lind",
			PasswordHash: string(password),
		}
		if err := tx.Create(&chef).Error; err != nil {
			return err
		}
		if err := tx.Create(&guest).Error; err != nil {
			return err
		}

		tags := []models.Tag{
			{Name: "Breakfast", Slug: "breakfast"},
			{Name: "Lunch", Slug: "lunch"},
			{Name: "Dinner", Slug: "dinner"},
		}
		if err := tx.Create(&tags).Error; err != nil {
			return err
		}

		ingredients := []models.Ingredient{
			{Name: "Salt", MeasurementUnit: "g"},
			{Name: "Water", MeasurementUnit: "ml"},
			{Name: "Potato", MeasurementUnit: "g"},
			{Name: "Onion", MeasurementUnit: "pcs"},
			{Name: "Olive oil", MeasurementUnit: "tbsp"},
		}
		if err := tx.Create(&ingredients).Error; err != nil {
			return err
		}

		soup := models.Recipe{
			AuthorID:    chef.ID,
			Name:        "Potato soup",
			Image:       "recipes/potato-soup.png",
			Text:        "Simmer diced potatoes and onion in salted water until tender, then blend with olive oil.",
			CookingTime: 35,
			Ingredients: []models.RecipeIngredient{
				{IngredientID: ingredients[0].ID, Amount: 5},
				{IngredientID: ingredients[1].ID, Amount: 800},
				{IngredientID: ingredients[2].ID, Amount: 600},
				{IngredientID: ingredients[3].ID, Amount: 1},
				{IngredientID: ingredients[4].ID, Amount: 2},
			},
			Tags: []models.Tag{tags[1], tags[2]},
		}
		if err := tx.Create(&soup).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.Subscription{UserID: guest.ID, AuthorID: chef.ID}).Error; err != nil {
			return err
		}
		if err := tx.Create(&models.ShoppingCart{UserID: guest.ID, RecipeID: soup.ID}).Error; err != nil {
			return err
		}

		applog.Debug(ctx, "mock database seeded", "recipe_id", soup.ID)
		return nil
	})
}
