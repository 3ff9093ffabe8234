package handlers

import (
	"net/http"

	"foodgram/internal/store"
)

func ListTags(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	tags, err := store.ListTags(r.Context(), database)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	out := make([]tagResponse, 0, len(tags))
	for _, tag := range tags {
		out = append(out, newTagResponse(tag))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func GetTag(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}
	tag, err := store.GetTag(r.Context(), database, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newTagResponse(tag))
}

// ListIngredients supports ?name=<prefix>, matched case-insensitively.
func ListIngredients(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	ingredients, err := store.ListIngredients(r.Context(), database, r.URL.Query().Get("name"))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	out := make([]ingredientResponse, 0, len(ingredients))
	for _, ingredient := range ingredients {
		out = append(out, newIngredientResponse(ingredient))
	}
	writeJSON(w, r, http.StatusOK, out)
}

func GetIngredient(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}
	ingredient, err := store.GetIngredient(r.Context(), database, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newIngredientResponse(ingredient))
}
