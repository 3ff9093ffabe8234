package store

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"foodgram/models"
)

const maxRecipeNameLength = 256

// IngredientAmount references an ingredient and the quantity a recipe needs.
type IngredientAmount struct {
	IngredientID uint
	Amount       int
}

// RecipeInput is the writable part of a recipe. Image is a media storage key and
// may be empty on update to keep the current image.
type RecipeInput struct {
	Name        string
	Text        string
	CookingTime int
	Image       string
	Ingredients []IngredientAmount
	TagIDs      []uint
}

// RecipeFilter narrows ListRecipes. Zero values disable a filter.
type RecipeFilter struct {
	TagSlugs    []string
	AuthorID    uint
	FavoritedBy uint
	InCartOf    uint
}

// ValidateRecipe checks the input against the catalog without writing anything.
// requireImage is set on create.
func ValidateRecipe(ctx context.Context, db *gorm.DB, input RecipeInput, requireImage bool) error {
	switch {
	case strings.TrimSpace(input.Name) == "":
		return invalid("name", "this field is required")
	case utf8.RuneCountInString(input.Name) > maxRecipeNameLength:
		return invalid("name", fmt.Sprintf("must be at most %d characters", maxRecipeNameLength))
	case strings.TrimSpace(input.Text) == "":
		return invalid("text", "this field is required")
	case input.CookingTime < 1:
		return invalid("cooking_time", "must be at least 1")
	case requireImage && input.Image == "":
		return invalid("image", "this field is required")
	}

	if len(input.Ingredients) == 0 {
		return invalid("ingredients", "at least one ingredient is required")
	}
	ingredientIDs := make([]uint, 0, len(input.Ingredients))
	seenIngredients := make(map[uint]struct{}, len(input.Ingredients))
	for _, item := range input.Ingredients {
		if item.Amount < 1 {
			return invalid("ingredients", fmt.Sprintf("amount for ingredient %d must be at least 1", item.IngredientID))
		}
		if _, dup := seenIngredients[item.IngredientID]; dup {
			return invalid("ingredients", fmt.Sprintf("ingredient %d is listed more than once", item.IngredientID))
		}
		seenIngredients[item.IngredientID] = struct{}{}
		ingredientIDs = append(ingredientIDs, item.IngredientID)
	}

	if len(input.TagIDs) == 0 {
		return invalid("tags", "at least one tag is required")
	}
	seenTags := make(map[uint]struct{}, len(input.TagIDs))
	for _, id := range input.TagIDs {
		if _, dup := seenTags[id]; dup {
			return invalid("tags", fmt.Sprintf("tag %d is listed more than once", id))
		}
		seenTags[id] = struct{}{}
	}

	if err := requireAll(ctx, db, &models.Ingredient{}, ingredientIDs, "ingredients"); err != nil {
		return err
	}
	return requireAll(ctx, db, &models.Tag{}, input.TagIDs, "tags")
}

func requireAll(ctx context.Context, db *gorm.DB, model any, ids []uint, field string) error {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id IN ?", ids).Count(&count).Error; err != nil {
		return fmt.Errorf("check %s: %w", field, err)
	}
	if int(count) != len(ids) {
		return invalid(field, "references an unknown id")
	}
	return nil
}

// CreateRecipe validates input and writes the recipe, its ingredient rows and tag
// links in one transaction.
func CreateRecipe(ctx context.Context, db *gorm.DB, authorID uint, input RecipeInput) (models.Recipe, error) {
	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        strings.TrimSpace(input.Name),
		Image:       input.Image,
		Text:        input.Text,
		CookingTime: input.CookingTime,
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ValidateRecipe(ctx, tx, input, true); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(&recipe).Error; err != nil {
			return fmt.Errorf("create recipe: %w", err)
		}
		return writeRecipeRelations(tx, &recipe, input)
	})
	if err != nil {
		return models.Recipe{}, err
	}
	return GetRecipe(ctx, db, recipe.ID)
}

// UpdateRecipe replaces the recipe fields, ingredient rows and tag set. It returns
// the updated recipe and the image key that was replaced, if any.
func UpdateRecipe(ctx context.Context, db *gorm.DB, recipeID uint, input RecipeInput) (models.Recipe, string, error) {
	var replacedImage string

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			return translateNotFound(err)
		}
		if err := ValidateRecipe(ctx, tx, input, false); err != nil {
			return err
		}

		updates := map[string]any{
			"name":         strings.TrimSpace(input.Name),
			"text":         input.Text,
			"cooking_time": input.CookingTime,
		}
		if input.Image != "" && input.Image != recipe.Image {
			updates["image"] = input.Image
			replacedImage = recipe.Image
		}
		if err := tx.Model(&recipe).Updates(updates).Error; err != nil {
			return fmt.Errorf("update recipe: %w", err)
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("clear recipe ingredients: %w", err)
		}
		return writeRecipeRelations(tx, &recipe, input)
	})
	if err != nil {
		return models.Recipe{}, "", err
	}

	recipe, err := GetRecipe(ctx, db, recipeID)
	if err != nil {
		return models.Recipe{}, "", err
	}
	return recipe, replacedImage, nil
}

func writeRecipeRelations(tx *gorm.DB, recipe *models.Recipe, input RecipeInput) error {
	rows := make([]models.RecipeIngredient, 0, len(input.Ingredients))
	for _, item := range input.Ingredients {
		rows = append(rows, models.RecipeIngredient{
			RecipeID:     recipe.ID,
			IngredientID: item.IngredientID,
			Amount:       item.Amount,
		})
	}
	if err := tx.Omit("Ingredient").Create(&rows).Error; err != nil {
		return fmt.Errorf("create recipe ingredients: %w", err)
	}

	var tags []models.Tag
	if err := tx.Where("id IN ?", input.TagIDs).Find(&tags).Error; err != nil {
		return fmt.Errorf("load tags: %w", err)
	}
	if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
		return fmt.Errorf("replace tags: %w", err)
	}
	return nil
}

// DeleteRecipe removes the recipe and everything hanging off it. It returns the
// image key so the caller can drop the stored file once the delete committed.
func DeleteRecipe(ctx context.Context, db *gorm.DB, recipeID uint) (string, error) {
	var image string

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			return translateNotFound(err)
		}
		image = recipe.Image

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeIngredient{}).Error; err != nil {
			return fmt.Errorf("delete recipe ingredients: %w", err)
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("delete recipe tags: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.Favorite{}).Error; err != nil {
			return fmt.Errorf("delete favorites: %w", err)
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.ShoppingCart{}).Error; err != nil {
			return fmt.Errorf("delete cart rows: %w", err)
		}
		if err := tx.Delete(&recipe).Error; err != nil {
			return fmt.Errorf("delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return image, nil
}

func preloadRecipe(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB { return db.Order("recipe_ingredients.id") }).
		Preload("Ingredients.Ingredient").
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order("tags.id") })
}

// GetRecipe loads a recipe with author, ingredients and tags.
func GetRecipe(ctx context.Context, db *gorm.DB, id uint) (models.Recipe, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).Scopes(preloadRecipe).First(&recipe, id).Error; err != nil {
		return models.Recipe{}, translateNotFound(err)
	}
	return recipe, nil
}

// RecipeAuthor returns the author id of a recipe.
func RecipeAuthor(ctx context.Context, db *gorm.DB, id uint) (uint, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).Select("id", "author_id").First(&recipe, id).Error; err != nil {
		return 0, translateNotFound(err)
	}
	return recipe.AuthorID, nil
}

func (f RecipeFilter) scope(db *gorm.DB) *gorm.DB {
	if len(f.TagSlugs) > 0 {
		db = db.Where("recipes.id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Table("recipe_tags").
			Select("recipe_tags.recipe_id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs))
	}
	if f.AuthorID != 0 {
		db = db.Where("recipes.author_id = ?", f.AuthorID)
	}
	if f.FavoritedBy != 0 {
		db = db.Where("recipes.id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&models.Favorite{}).
			Select("recipe_id").
			Where("user_id = ?", f.FavoritedBy))
	}
	if f.InCartOf != 0 {
		db = db.Where("recipes.id IN (?)", db.Session(&gorm.Session{NewDB: true}).
			Model(&models.ShoppingCart{}).
			Select("recipe_id").
			Where("user_id = ?", f.InCartOf))
	}
	return db
}

// ListRecipes returns one page of recipes, newest first, and the filtered total.
func ListRecipes(ctx context.Context, db *gorm.DB, filter RecipeFilter, page Page) ([]models.Recipe, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&models.Recipe{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := db.WithContext(ctx).
		Model(&models.Recipe{}).
		Scopes(filter.scope, preloadRecipe, page.scope).
		Order("recipes.created_at DESC").
		Order("recipes.id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list recipes: %w", err)
	}
	return recipes, total, nil
}

// NoLimit disables the per-author cap in AuthorRecipes.
const NoLimit = -1

// AuthorRecipes returns, per author, the newest recipes (at most limit unless
// limit is NoLimit) and the total number of recipes each author has.
func AuthorRecipes(ctx context.Context, db *gorm.DB, authorIDs []uint, limit int) (map[uint][]models.Recipe, map[uint]int64, error) {
	recipes := make(map[uint][]models.Recipe, len(authorIDs))
	counts := make(map[uint]int64, len(authorIDs))
	if len(authorIDs) == 0 {
		return recipes, counts, nil
	}

	var rows []struct {
		AuthorID uint
		Total    int64
	}
	err := db.WithContext(ctx).
		Model(&models.Recipe{}).
		Select("author_id, COUNT(*) AS total").
		Where("author_id IN ?", authorIDs).
		Group("author_id").
		Scan(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("count author recipes: %w", err)
	}
	for _, row := range rows {
		counts[row.AuthorID] = row.Total
	}

	var all []models.Recipe
	err = db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Order("created_at DESC").
		Order("id DESC").
		Find(&all).Error
	if err != nil {
		return nil, nil, fmt.Errorf("list author recipes: %w", err)
	}
	for _, recipe := range all {
		if limit >= 0 && len(recipes[recipe.AuthorID]) >= limit {
			continue
		}
		recipes[recipe.AuthorID] = append(recipes[recipe.AuthorID], recipe)
	}
	return recipes, counts, nil
}
