package store

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodgram/models"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func ListTags(ctx context.Context, db *gorm.DB) ([]models.Tag, error) {
	var tags []models.Tag
	if err := db.WithContext(ctx).Order("id").Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

func GetTag(ctx context.Context, db *gorm.DB, id uint) (models.Tag, error) {
	var tag models.Tag
	if err := db.WithContext(ctx).First(&tag, id).Error; err != nil {
		return models.Tag{}, translateNotFound(err)
	}
	return tag, nil
}

// ListIngredients returns ingredients whose name starts with prefix, ignoring case.
func ListIngredients(ctx context.Context, db *gorm.DB, prefix string) ([]models.Ingredient, error) {
	query := db.WithContext(ctx).Order("name").Order("measurement_unit")
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		pattern := likeEscaper.Replace(strings.ToLower(prefix)) + "%"
		query = query.Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern)
	}

	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("list ingredients: %w", err)
	}
	return ingredients, nil
}

func GetIngredient(ctx context.Context, db *gorm.DB, id uint) (models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return models.Ingredient{}, translateNotFound(err)
	}
	return ingredient, nil
}

// ImportIngredients inserts ingredients, skipping (name, unit) pairs that already
// exist. It returns the number of inserted rows.
func ImportIngredients(ctx context.Context, db *gorm.DB, ingredients []models.Ingredient) (int64, error) {
	if len(ingredients) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&ingredients, 500)
	if result.Error != nil {
		return 0, fmt.Errorf("import ingredients: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// ImportTags inserts tags, skipping names or slugs that already exist.
func ImportTags(ctx context.Context, db *gorm.DB, tags []models.Tag) (int64, error) {
	if len(tags) == 0 {
		return 0, nil
	}
	for _, tag := range tags {
		if !models.ValidSlug(tag.Slug) {
			return 0, invalid("slug", fmt.Sprintf("%q is not a valid slug", tag.Slug))
		}
	}
	result := db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(&tags, 500)
	if result.Error != nil {
		return 0, fmt.Errorf("import tags: %w", result.Error)
	}
	return result.RowsAffected, nil
}
