package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"foodgram/models"
)

func TestAddToCartTwiceConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	author := mustUser(t, database, "anna")
	buyer := mustUser(t, database, "ben")
	salt := mustIngredient(t, database, "Salt", "g")
	dinner := mustTag(t, database, "dinner")
	recipe := mustRecipe(t, database, author.ID, "Soup", []uint{dinner.ID}, IngredientAmount{IngredientID: salt.ID, Amount: 5})

	added, err := AddToCart(ctx, database, buyer.ID, recipe.ID)
	if err != nil {
		t.Fatalf("AddToCart() error = %v", err)
	}
	if added.ID != recipe.ID || added.Name != "Soup" {
		t.Fatalf("AddToCart() returned %+v", added)
	}
	if _, err := AddToCart(ctx, database, buyer.ID, recipe.ID); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("second AddToCart() error = %v, want ErrAlreadyExists", err)
	}

	var count int64
	if err := database.Model(&models.ShoppingCart{}).Where("user_id = ? AND recipe_id = ?", buyer.ID, recipe.ID).Count(&count).Error; err != nil {
		t.Fatalf("count cart rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("cart rows = %d, want 1", count)
	}
}

func TestConcurrentAddToCartKeepsOneRow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	author := mustUser(t, database, "anna")
	buyer := mustUser(t, database, "ben")
	salt := mustIngredient(t, database, "Salt", "g")
	dinner := mustTag(t, database, "dinner")
	recipe := mustRecipe(t, database, author.ID, "Soup", []uint{dinner.ID}, IngredientAmount{IngredientID: salt.ID, Amount: 5})

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = AddToCart(ctx, database, buyer.ID, recipe.ID)
		}()
	}
	wg.Wait()

	var added, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrAlreadyExists):
			conflicts++
		default:
			t.Fatalf("AddToCart() unexpected error = %v", err)
		}
	}
	if added != 1 || conflicts != workers-1 {
		t.Fatalf("added = %d, conflicts = %d, want 1 and %d", added, conflicts, workers-1)
	}

	var count int64
	if err := database.Model(&models.ShoppingCart{}).Where("user_id = ? AND recipe_id = ?", buyer.ID, recipe.ID).Count(&count).Error; err != nil {
		t.Fatalf("count cart rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("cart rows = %d, want 1", count)
	}
}

func TestFavoriteAddRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	author := mustUser(t, database, "anna")
	reader := mustUser(t, database, "ben")
	salt := mustIngredient(t, database, "Salt", "g")
	dinner := mustTag(t, database, "dinner")
	recipe := mustRecipe(t, database, author.ID, "Soup", []uint{dinner.ID}, IngredientAmount{IngredientID: salt.ID, Amount: 5})

	if err := RemoveFavorite(ctx, database, reader.ID, recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("RemoveFavorite() before add error = %v, want ErrNotFound", err)
	}
	if _, err := AddFavorite(ctx, database, reader.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AddFavorite() unknown recipe error = %v, want ErrNotFound", err)
	}
	if _, err := AddFavorite(ctx, database, reader.ID, recipe.ID); err != nil {
		t.Fatalf("AddFavorite() error = %v", err)
	}

	favorited, inCart, err := RecipeFlags(ctx, database, reader.ID, []uint{recipe.ID})
	if err != nil {
		t.Fatalf("RecipeFlags() error = %v", err)
	}
	if !favorited[recipe.ID] || inCart[recipe.ID] {
		t.Fatalf("flags = favorited %v, in cart %v", favorited, inCart)
	}

	if err := RemoveFavorite(ctx, database, reader.ID, recipe.ID); err != nil {
		t.Fatalf("RemoveFavorite() error = %v", err)
	}
	if err := RemoveFavorite(ctx, database, reader.ID, recipe.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second RemoveFavorite() error = %v, want ErrNotFound", err)
	}
}

func TestSelfSubscriptionAlwaysFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	user := mustUser(t, database, "anna")

	if _, err := Subscribe(ctx, database, user.ID, user.ID); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("Subscribe() self error = %v, want ErrSelfSubscription", err)
	}
	// A row that slipped in some other way must not change the outcome.
	if err := database.Create(&models.Subscription{UserID: user.ID, AuthorID: user.ID}).Error; err != nil {
		t.Fatalf("insert self subscription: %v", err)
	}
	if _, err := Subscribe(ctx, database, user.ID, user.ID); !errors.Is(err, ErrSelfSubscription) {
		t.Fatalf("Subscribe() self with existing row error = %v, want ErrSelfSubscription", err)
	}
}

func TestSubscriptions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	reader := mustUser(t, database, "reader")
	anna := mustUser(t, database, "anna")
	ben := mustUser(t, database, "ben")
	mustUser(t, database, "carl")

	if _, err := Subscribe(ctx, database, reader.ID, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Subscribe() unknown author error = %v, want ErrNotFound", err)
	}
	for _, author := range []uint{ben.ID, anna.ID} {
		if _, err := Subscribe(ctx, database, reader.ID, author); err != nil {
			t.Fatalf("Subscribe(%d) error = %v", author, err)
		}
	}
	if _, err := Subscribe(ctx, database, reader.ID, anna.ID); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("duplicate Subscribe() error = %v, want ErrAlreadyExists", err)
	}

	authors, total, err := ListSubscriptions(ctx, database, reader.ID, Page{Number: 1, Size: 10})
	if err != nil {
		t.Fatalf("ListSubscriptions() error = %v", err)
	}
	if total != 2 || len(authors) != 2 || authors[0].ID != ben.ID || authors[1].ID != anna.ID {
		t.Fatalf("subscriptions = %+v (total %d)", authors, total)
	}

	subscribed, err := SubscribedTo(ctx, database, reader.ID, []uint{anna.ID, ben.ID, reader.ID})
	if err != nil {
		t.Fatalf("SubscribedTo() error = %v", err)
	}
	if !subscribed[anna.ID] || !subscribed[ben.ID] || subscribed[reader.ID] {
		t.Fatalf("subscribed = %v", subscribed)
	}

	if err := Unsubscribe(ctx, database, reader.ID, anna.ID); err != nil {
		t.Fatalf("Unsubscribe() error = %v", err)
	}
	if err := Unsubscribe(ctx, database, reader.ID, anna.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Unsubscribe() error = %v, want ErrNotFound", err)
	}
}
