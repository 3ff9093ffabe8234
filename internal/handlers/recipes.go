package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"gorm.io/gorm"

	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
	"foodgram/internal/store"
	"foodgram/internal/views/shoppinglist"
	"foodgram/models"
)

const recipeImagePrefix = "recipes"

type recipeIngredientRequest struct {
	ID     uint `json:"id" validate:"required"`
	Amount int  `json:"amount" validate:"required,min=1"`
}

type recipeRequest struct {
	Ingredients []recipeIngredientRequest `json:"ingredients" validate:"required,min=1,unique=ID,dive"`
	Tags        []uint                    `json:"tags" validate:"required,min=1,unique"`
	Image       string                    `json:"image"`
	Name        string                    `json:"name" validate:"required,max=256"`
	Text        string                    `json:"text" validate:"required"`
	CookingTime int                       `json:"cooking_time" validate:"required,min=1"`
}

type shortLinkResponse struct {
	ShortLink string `json:"short-link"`
}

func (req recipeRequest) input(image string) store.RecipeInput {
	items := make([]store.IngredientAmount, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		items = append(items, store.IngredientAmount{IngredientID: item.ID, Amount: item.Amount})
	}
	return store.RecipeInput{
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       image,
		Ingredients: items,
		TagIDs:      req.Tags,
	}
}

// truthy matches the boolean query values the API accepts.
func truthy(value string) bool {
	switch value {
	case "1", "true", "True":
		return true
	default:
		return false
	}
}

func recipeFilter(r *http.Request) (store.RecipeFilter, error) {
	query := r.URL.Query()
	filter := store.RecipeFilter{TagSlugs: query["tags"]}

	if raw := query.Get("author"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return store.RecipeFilter{}, &store.ValidationError{Field: "author", Message: "must be a user id"}
		}
		filter.AuthorID = uint(id)
	}

	if viewer := viewerID(r); viewer != 0 {
		if truthy(query.Get("is_favorited")) {
			filter.FavoritedBy = viewer
		}
		if truthy(query.Get("is_in_shopping_cart")) {
			filter.InCartOf = viewer
		}
	}
	return filter, nil
}

// ListRecipes serves a page of recipes, newest first, filtered by tags, author,
// and for authenticated users by favorites or cart.
func ListRecipes(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	filter, err := recipeFilter(r)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	page, err := pageFromRequest(r)
	if err != nil {
		writePageError(w, r)
		return
	}

	recipes, total, err := store.ListRecipes(r.Context(), database, filter, page)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !pageInRange(page, total) {
		writePageError(w, r)
		return
	}

	results, err := recipeResponses(r, viewerID(r), recipes)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, paginate(r, page, total, results))
}

func GetRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}
	writeRecipe(w, r, http.StatusOK, id)
}

func writeRecipe(w http.ResponseWriter, r *http.Request, status int, id uint) {
	recipe, err := store.GetRecipe(r.Context(), database, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	respondRecipe(w, r, status, recipe)
}

func respondRecipe(w http.ResponseWriter, r *http.Request, status int, recipe models.Recipe) {
	resp, err := recipeDetail(r, viewerID(r), recipe)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, status, resp)
}

// CreateRecipe validates the request before the image is written, then stores
// the image and the recipe. The image is removed again if the insert fails.
func CreateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	var req recipeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Image == "" {
		writeFieldError(w, r, "image", "this field is required")
		return
	}
	if err := store.ValidateRecipe(r.Context(), database, req.input(""), false); err != nil {
		metrics.RecordRecipeWrite("create", outcome(err))
		writeStoreError(w, r, err)
		return
	}

	key, ok := storeImage(w, r, req.Image, "image", recipeImagePrefix)
	if !ok {
		return
	}

	recipe, err := store.CreateRecipe(r.Context(), database, viewerID(r), req.input(key))
	metrics.RecordRecipeWrite("create", outcome(err))
	if err != nil {
		discardImage(r, key)
		writeStoreError(w, r, err)
		return
	}

	applog.Info(r.Context(), "recipe created", "recipe_id", recipe.ID, "author_id", recipe.AuthorID)
	respondRecipe(w, r, http.StatusCreated, recipe)
}

// authorizeAuthor resolves the recipe in the path and checks the viewer wrote
// it. It writes 404 or 403 itself.
func authorizeAuthor(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return 0, false
	}
	authorID, err := store.RecipeAuthor(r.Context(), database, id)
	if err != nil {
		writeStoreError(w, r, err)
		return 0, false
	}
	if authorID != viewerID(r) {
		applog.Debug(r.Context(), "recipe change by non-author rejected", "recipe_id", id, "user_id", viewerID(r))
		writeJSONError(w, r, http.StatusForbidden, "you do not have permission to perform this action")
		return 0, false
	}
	return id, true
}

// UpdateRecipe handles PUT and PATCH. Ingredients and tags are always required;
// the image is replaced only when one is sent.
func UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := authorizeAuthor(w, r)
	if !ok {
		return
	}
	var req recipeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if err := store.ValidateRecipe(r.Context(), database, req.input(""), false); err != nil {
		metrics.RecordRecipeWrite("update", outcome(err))
		writeStoreError(w, r, err)
		return
	}

	var key string
	if req.Image != "" {
		if key, ok = storeImage(w, r, req.Image, "image", recipeImagePrefix); !ok {
			return
		}
	}

	recipe, replaced, err := store.UpdateRecipe(r.Context(), database, id, req.input(key))
	metrics.RecordRecipeWrite("update", outcome(err))
	if err != nil {
		discardImage(r, key)
		writeStoreError(w, r, err)
		return
	}
	discardImage(r, replaced)

	applog.Info(r.Context(), "recipe updated", "recipe_id", id)
	respondRecipe(w, r, http.StatusOK, recipe)
}

func DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := authorizeAuthor(w, r)
	if !ok {
		return
	}

	image, err := store.DeleteRecipe(r.Context(), database, id)
	metrics.RecordRecipeWrite("delete", outcome(err))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	discardImage(r, image)

	applog.Info(r.Context(), "recipe deleted", "recipe_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// GetLink returns the recipe's short link, assigning a token on first use.
func GetLink(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}
	token, err := store.AssignShortLink(r.Context(), database, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, shortLinkResponse{ShortLink: origin(r) + "/s/" + token})
}

func AddFavorite(w http.ResponseWriter, r *http.Request) {
	addRecipeLink(w, r, "favorite", store.AddFavorite, "recipe is already in favorites")
}

func RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	removeRecipeLink(w, r, "favorite", store.RemoveFavorite, "recipe is not in favorites")
}

func AddToCart(w http.ResponseWriter, r *http.Request) {
	addRecipeLink(w, r, "cart", store.AddToCart, "recipe is already in the shopping cart")
}

func RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	removeRecipeLink(w, r, "cart", store.RemoveFromCart, "recipe is not in the shopping cart")
}

type addLinkFunc func(ctx context.Context, db *gorm.DB, userID, recipeID uint) (models.Recipe, error)

type removeLinkFunc func(ctx context.Context, db *gorm.DB, userID, recipeID uint) error

func addRecipeLink(w http.ResponseWriter, r *http.Request, kind string, add addLinkFunc, conflictMessage string) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}

	recipe, err := add(r.Context(), database, viewerID(r), id)
	metrics.RecordAssociation(kind, "add", outcome(err))
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		writeJSONError(w, r, http.StatusBadRequest, conflictMessage)
	case err != nil:
		writeStoreError(w, r, err)
	default:
		writeJSON(w, r, http.StatusCreated, newRecipeMini(r, recipe))
	}
}

func removeRecipeLink(w http.ResponseWriter, r *http.Request, kind string, remove removeLinkFunc, missingMessage string) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}

	err := remove(r.Context(), database, viewerID(r), id)
	metrics.RecordAssociation(kind, "remove", outcome(err))
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, r, http.StatusNotFound, missingMessage)
	case err != nil:
		writeStoreError(w, r, err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// DownloadShoppingCart serves the aggregated cart as a text attachment.
func DownloadShoppingCart(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	items, err := store.ShoppingList(r.Context(), database, viewerID(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	metrics.ShoppingListDownloadsTotal.Inc()

	w.Header().Set("Content-Type", shoppinglist.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+shoppinglist.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if err := shoppinglist.List(items).Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render shopping list", "error", err)
	}
}
