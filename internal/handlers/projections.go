package handlers

import (
	"net/http"
	"strings"

	"foodgram/internal/store"
	"foodgram/models"
)

type userResponse struct {
	ID           uint   `json:"id"`
	Email        string `json:"email"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	IsSubscribed bool   `json:"is_subscribed"`
	Avatar       string `json:"avatar"`
}

type tagResponse struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type ingredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
}

type recipeIngredientResponse struct {
	ID              uint   `json:"id"`
	Name            string `json:"name"`
	MeasurementUnit string `json:"measurement_unit"`
	Amount          int    `json:"amount"`
}

type recipeResponse struct {
	ID               uint                       `json:"id"`
	Tags             []tagResponse              `json:"tags"`
	Author           userResponse               `json:"author"`
	Ingredients      []recipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
}

type recipeMiniResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Image       string `json:"image"`
	CookingTime int    `json:"cooking_time"`
}

type subscriptionResponse struct {
	userResponse
	Recipes      []recipeMiniResponse `json:"recipes"`
	RecipesCount int64                `json:"recipes_count"`
}

// mediaURL turns a storage key into an absolute URL.
func mediaURL(r *http.Request, key string) string {
	if key == "" || mediaStorage == nil {
		return ""
	}
	u := mediaStorage.URL(key)
	if strings.HasPrefix(u, "/") {
		return origin(r) + u
	}
	return u
}

func newUserResponse(r *http.Request, user models.User, subscribed bool) userResponse {
	var avatar string
	if user.Avatar != "" {
		avatar = mediaURL(r, user.Avatar)
	}
	return userResponse{
		ID:           user.ID,
		Email:        user.Email,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		IsSubscribed: subscribed,
		Avatar:       avatar,
	}
}

func newTagResponse(tag models.Tag) tagResponse {
	return tagResponse{ID: tag.ID, Name: tag.Name, Slug: tag.Slug}
}

func newIngredientResponse(ingredient models.Ingredient) ingredientResponse {
	return ingredientResponse{ID: ingredient.ID, Name: ingredient.Name, MeasurementUnit: ingredient.MeasurementUnit}
}

func newRecipeMini(r *http.Request, recipe models.Recipe) recipeMiniResponse {
	return recipeMiniResponse{
		ID:          recipe.ID,
		Name:        recipe.Name,
		Image:       mediaURL(r, recipe.Image),
		CookingTime: recipe.CookingTime,
	}
}

// userResponses projects users for the viewer, resolving is_subscribed in one query.
func userResponses(r *http.Request, viewer uint, users []models.User) ([]userResponse, error) {
	ids := make([]uint, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	subscribed, err := store.SubscribedTo(r.Context(), database, viewer, ids)
	if err != nil {
		return nil, err
	}

	out := make([]userResponse, 0, len(users))
	for _, user := range users {
		out = append(out, newUserResponse(r, user, subscribed[user.ID]))
	}
	return out, nil
}

// recipeResponses projects recipes for the viewer. Flags are loaded for the
// whole batch rather than per recipe.
func recipeResponses(r *http.Request, viewer uint, recipes []models.Recipe) ([]recipeResponse, error) {
	recipeIDs := make([]uint, 0, len(recipes))
	authorIDs := make([]uint, 0, len(recipes))
	for _, recipe := range recipes {
		recipeIDs = append(recipeIDs, recipe.ID)
		authorIDs = append(authorIDs, recipe.AuthorID)
	}

	favorited, inCart, err := store.RecipeFlags(r.Context(), database, viewer, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := store.SubscribedTo(r.Context(), database, viewer, authorIDs)
	if err != nil {
		return nil, err
	}

	out := make([]recipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		tags := make([]tagResponse, 0, len(recipe.Tags))
		for _, tag := range recipe.Tags {
			tags = append(tags, newTagResponse(tag))
		}
		ingredients := make([]recipeIngredientResponse, 0, len(recipe.Ingredients))
		for _, item := range recipe.Ingredients {
			ingredients = append(ingredients, recipeIngredientResponse{
				ID:              item.IngredientID,
				Name:            item.Ingredient.Name,
				MeasurementUnit: item.Ingredient.MeasurementUnit,
				Amount:          item.Amount,
			})
		}
		out = append(out, recipeResponse{
			ID:               recipe.ID,
			Tags:             tags,
			Author:           newUserResponse(r, recipe.Author, subscribed[recipe.AuthorID]),
			Ingredients:      ingredients,
			IsFavorited:      favorited[recipe.ID],
			IsInShoppingCart: inCart[recipe.ID],
			Name:             recipe.Name,
			Image:            mediaURL(r, recipe.Image),
			Text:             recipe.Text,
			CookingTime:      recipe.CookingTime,
		})
	}
	return out, nil
}

func recipeDetail(r *http.Request, viewer uint, recipe models.Recipe) (recipeResponse, error) {
	out, err := recipeResponses(r, viewer, []models.Recipe{recipe})
	if err != nil {
		return recipeResponse{}, err
	}
	return out[0], nil
}

// subscriptionResponses projects followed authors with their newest recipes.
// recipesLimit is store.NoLimit or a per-author cap.
func subscriptionResponses(r *http.Request, authors []models.User, recipesLimit int) ([]subscriptionResponse, error) {
	ids := make([]uint, 0, len(authors))
	for _, author := range authors {
		ids = append(ids, author.ID)
	}
	recipes, counts, err := store.AuthorRecipes(r.Context(), database, ids, recipesLimit)
	if err != nil {
		return nil, err
	}

	out := make([]subscriptionResponse, 0, len(authors))
	for _, author := range authors {
		minis := make([]recipeMiniResponse, 0, len(recipes[author.ID]))
		for _, recipe := range recipes[author.ID] {
			minis = append(minis, newRecipeMini(r, recipe))
		}
		out = append(out, subscriptionResponse{
			userResponse: newUserResponse(r, author, true),
			Recipes:      minis,
			RecipesCount: counts[author.ID],
		})
	}
	return out, nil
}
