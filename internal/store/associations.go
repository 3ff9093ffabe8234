package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"foodgram/models"
)

// AddFavorite marks the recipe as a favorite of the user and returns the recipe.
func AddFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) (models.Recipe, error) {
	return addRecipeLink(ctx, db, recipeID, &models.Favorite{UserID: userID, RecipeID: recipeID})
}

func RemoveFavorite(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	return removeRecipeLink(ctx, db, userID, recipeID, &models.Favorite{})
}

// AddToCart places the recipe in the user's shopping cart and returns the recipe.
func AddToCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) (models.Recipe, error) {
	return addRecipeLink(ctx, db, recipeID, &models.ShoppingCart{UserID: userID, RecipeID: recipeID})
}

func RemoveFromCart(ctx context.Context, db *gorm.DB, userID, recipeID uint) error {
	return removeRecipeLink(ctx, db, userID, recipeID, &models.ShoppingCart{})
}

func addRecipeLink(ctx context.Context, db *gorm.DB, recipeID uint, link any) (models.Recipe, error) {
	var recipe models.Recipe
	if err := db.WithContext(ctx).First(&recipe, recipeID).Error; err != nil {
		return models.Recipe{}, translateNotFound(err)
	}
	if err := db.WithContext(ctx).Omit("User", "Recipe").Create(link).Error; err != nil {
		if isDuplicate(err) {
			return models.Recipe{}, ErrAlreadyExists
		}
		return models.Recipe{}, fmt.Errorf("create %T: %w", link, err)
	}
	return recipe, nil
}

func removeRecipeLink(ctx context.Context, db *gorm.DB, userID, recipeID uint, model any) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.Recipe{}).Where("id = ?", recipeID).Count(&count).Error; err != nil {
		return fmt.Errorf("find recipe: %w", err)
	}
	if count == 0 {
		return ErrNotFound
	}

	result := db.WithContext(ctx).Where("user_id = ? AND recipe_id = ?", userID, recipeID).Delete(model)
	if result.Error != nil {
		return fmt.Errorf("delete %T: %w", model, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Subscribe makes userID follow authorID and returns the author.
func Subscribe(ctx context.Context, db *gorm.DB, userID, authorID uint) (models.User, error) {
	if userID == authorID {
		return models.User{}, ErrSelfSubscription
	}
	author, err := GetUser(ctx, db, authorID)
	if err != nil {
		return models.User{}, err
	}
	link := models.Subscription{UserID: userID, AuthorID: authorID}
	if err := db.WithContext(ctx).Omit("User", "Author").Create(&link).Error; err != nil {
		if isDuplicate(err) {
			return models.User{}, ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("create subscription: %w", err)
	}
	return author, nil
}

func Unsubscribe(ctx context.Context, db *gorm.DB, userID, authorID uint) error {
	if userID == authorID {
		return ErrSelfSubscription
	}
	if _, err := GetUser(ctx, db, authorID); err != nil {
		return err
	}
	result := db.WithContext(ctx).Where("user_id = ? AND author_id = ?", userID, authorID).Delete(&models.Subscription{})
	if result.Error != nil {
		return fmt.Errorf("delete subscription: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListSubscriptions returns one page of authors the user follows, ordered by
// subscription time, and the total number of subscriptions.
func ListSubscriptions(ctx context.Context, db *gorm.DB, userID uint, page Page) ([]models.User, int64, error) {
	var total int64
	if err := db.WithContext(ctx).Model(&models.Subscription{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count subscriptions: %w", err)
	}

	var authors []models.User
	err := db.WithContext(ctx).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID).
		Order("subscriptions.id").
		Scopes(page.scope).
		Find(&authors).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list subscriptions: %w", err)
	}
	return authors, total, nil
}

// RecipeFlags reports which of recipeIDs the user has favorited and which are in
// the user's cart.
func RecipeFlags(ctx context.Context, db *gorm.DB, userID uint, recipeIDs []uint) (favorited, inCart map[uint]bool, err error) {
	favorited = make(map[uint]bool)
	inCart = make(map[uint]bool)
	if userID == 0 || len(recipeIDs) == 0 {
		return favorited, inCart, nil
	}

	var ids []uint
	if err := db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, nil, fmt.Errorf("load favorites: %w", err)
	}
	for _, id := range ids {
		favorited[id] = true
	}

	ids = ids[:0]
	if err := db.WithContext(ctx).Model(&models.ShoppingCart{}).
		Where("user_id = ? AND recipe_id IN ?", userID, recipeIDs).
		Pluck("recipe_id", &ids).Error; err != nil {
		return nil, nil, fmt.Errorf("load cart: %w", err)
	}
	for _, id := range ids {
		inCart[id] = true
	}
	return favorited, inCart, nil
}

// SubscribedTo reports which of authorIDs the user follows.
func SubscribedTo(ctx context.Context, db *gorm.DB, userID uint, authorIDs []uint) (map[uint]bool, error) {
	subscribed := make(map[uint]bool)
	if userID == 0 || len(authorIDs) == 0 {
		return subscribed, nil
	}

	var ids []uint
	if err := db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", userID, authorIDs).
		Pluck("author_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load subscriptions: %w", err)
	}
	for _, id := range ids {
		subscribed[id] = true
	}
	return subscribed, nil
}
