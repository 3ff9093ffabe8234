package store

import (
	"context"
	"errors"
	"testing"
)

func TestAssignShortLinkIsStable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	database := newTestDB(t)
	author := mustUser(t, database, "anna")
	salt := mustIngredient(t, database, "Salt", "g")
	dinner := mustTag(t, database, "dinner")
	recipe := mustRecipe(t, database, author.ID, "Soup", []uint{dinner.ID}, IngredientAmount{IngredientID: salt.ID, Amount: 5})

	first, err := AssignShortLink(ctx, database, recipe.ID)
	if err != nil {
		t.Fatalf("AssignShortLink() error = %v", err)
	}
	if len(first) != shortLinkLength {
		t.Fatalf("token %q has length %d, want %d", first, len(first), shortLinkLength)
	}
	second, err := AssignShortLink(ctx, database, recipe.ID)
	if err != nil {
		t.Fatalf("second AssignShortLink() error = %v", err)
	}
	if first != second {
		t.Fatalf("tokens differ: %q then %q", first, second)
	}

	id, err := ResolveShortLink(ctx, database, first)
	if err != nil || id != recipe.ID {
		t.Fatalf("ResolveShortLink() = %d, %v; want %d", id, err, recipe.ID)
	}
	if _, err := ResolveShortLink(ctx, database, "nope00"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ResolveShortLink() unknown error = %v, want ErrNotFound", err)
	}
	if _, err := AssignShortLink(ctx, database, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AssignShortLink() unknown recipe error = %v, want ErrNotFound", err)
	}
}

func TestAssignShortLinkRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	author := mustUser(t, database, "anna")
	salt := mustIngredient(t, database, "Salt", "g")
	dinner := mustTag(t, database, "dinner")
	item := IngredientAmount{IngredientID: salt.ID, Amount: 5}
	first := mustRecipe(t, database, author.ID, "Soup", []uint{dinner.ID}, item)
	second := mustRecipe(t, database, author.ID, "Stew", []uint{dinner.ID}, item)

	tokens := []string{"AAAAAA", "AAAAAA", "AAAAAA", "BBBBBB"}
	calls := 0
	original := newShortLinkToken
	newShortLinkToken = func() (string, error) {
		token := tokens[calls]
		calls++
		return token, nil
	}
	t.Cleanup(func() { newShortLinkToken = original })

	if token, err := AssignShortLink(ctx, database, first.ID); err != nil || token != "AAAAAA" {
		t.Fatalf("AssignShortLink(first) = %q, %v", token, err)
	}
	token, err := AssignShortLink(ctx, database, second.ID)
	if err != nil {
		t.Fatalf("AssignShortLink(second) error = %v", err)
	}
	if token != "BBBBBB" {
		t.Fatalf("AssignShortLink(second) = %q, want BBBBBB", token)
	}
	if calls != 4 {
		t.Fatalf("token generator called %d times, want 4", calls)
	}
}

func TestAssignShortLinkGivesUpAfterRepeatedCollisions(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	author := mustUser(t, database, "anna")
	salt := mustIngredient(t, database, "Salt", "g")
	dinner := mustTag(t, database, "dinner")
	item := IngredientAmount{IngredientID: salt.ID, Amount: 5}
	first := mustRecipe(t, database, author.ID, "Soup", []uint{dinner.ID}, item)
	second := mustRecipe(t, database, author.ID, "Stew", []uint{dinner.ID}, item)

	original := newShortLinkToken
	newShortLinkToken = func() (string, error) { return "CCCCCC", nil }
	t.Cleanup(func() { newShortLinkToken = original })

	if _, err := AssignShortLink(ctx, database, first.ID); err != nil {
		t.Fatalf("AssignShortLink(first) error = %v", err)
	}
	if _, err := AssignShortLink(ctx, database, second.ID); !errors.Is(err, ErrShortLinkExhausted) {
		t.Fatalf("AssignShortLink(second) error = %v, want ErrShortLinkExhausted", err)
	}
}

func TestRandomTokenAlphabet(t *testing.T) {
	t.Parallel()

	for i := 0; i < 50; i++ {
		token, err := randomToken()
		if err != nil {
			t.Fatalf("randomToken() error = %v", err)
		}
		for _, r := range token {
			if !('0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
				t.Fatalf("token %q contains %q", token, r)
			}
		}
	}
}
