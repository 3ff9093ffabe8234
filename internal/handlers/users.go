package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	applog "foodgram/internal/log"
	"foodgram/internal/media"
	"foodgram/internal/metrics"
	"foodgram/internal/store"
	"foodgram/models"
)

const avatarPrefix = "avatars"

type registerRequest struct {
	Email     string `json:"email" validate:"required,email,max=254"`
	Username  string `json:"username" validate:"required,max=150"`
	FirstName string `json:"first_name" validate:"required,max=150"`
	LastName  string `json:"last_name" validate:"required,max=150"`
	Password  string `json:"password" validate:"required"`
}

type registeredUserResponse struct {
	ID        uint   `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type setPasswordRequest struct {
	NewPassword     string `json:"new_password" validate:"required"`
	CurrentPassword string `json:"current_password" validate:"required"`
}

type avatarRequest struct {
	Avatar string `json:"avatar" validate:"required"`
}

type avatarResponse struct {
	Avatar string `json:"avatar"`
}

// pathID parses a positive numeric URL parameter.
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(chi.URLParam(r, name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func ListUsers(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	page, err := pageFromRequest(r)
	if err != nil {
		writePageError(w, r)
		return
	}

	users, total, err := store.ListUsers(r.Context(), database, page)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !pageInRange(page, total) {
		writePageError(w, r)
		return
	}

	results, err := userResponses(r, viewerID(r), users)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, paginate(r, page, total, results))
}

func CreateUser(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := store.CreateUser(r.Context(), database, store.NewUser{
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	applog.Info(r.Context(), "user registered", "user_id", user.ID)
	writeJSON(w, r, http.StatusCreated, registeredUserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func GetUser(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}

	user, err := store.GetUser(r.Context(), database, id)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	subscribed, err := store.SubscribedTo(r.Context(), database, viewerID(r), []uint{user.ID})
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newUserResponse(r, user, subscribed[user.ID]))
}

func Me(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	user, err := store.GetUser(r.Context(), database, viewerID(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newUserResponse(r, user, false))
}

func SetPassword(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	var req setPasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := store.SetPassword(r.Context(), database, viewerID(r), req.CurrentPassword, req.NewPassword); err != nil {
		writeStoreError(w, r, err)
		return
	}
	applog.Info(r.Context(), "password changed", "user_id", viewerID(r))
	w.WriteHeader(http.StatusNoContent)
}

// PutAvatar stores a new avatar and deletes the previous file once the row points at the new one.
func PutAvatar(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	var req avatarRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	key, ok := storeImage(w, r, req.Avatar, "avatar", avatarPrefix)
	if !ok {
		return
	}

	previous, err := store.SetAvatar(r.Context(), database, viewerID(r), key)
	if err != nil {
		discardImage(r, key)
		writeStoreError(w, r, err)
		return
	}
	discardImage(r, previous)

	writeJSON(w, r, http.StatusOK, avatarResponse{Avatar: mediaURL(r, key)})
}

func DeleteAvatar(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	previous, err := store.ClearAvatar(r.Context(), database, viewerID(r))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	discardImage(r, previous)
	w.WriteHeader(http.StatusNoContent)
}

// recipesLimit reads ?recipes_limit. Absent means no limit, zero means no recipes.
func recipesLimit(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("recipes_limit")
	if raw == "" {
		return store.NoLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func Subscriptions(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	limit, ok := recipesLimit(r)
	if !ok {
		writeFieldError(w, r, "recipes_limit", "must be a non-negative integer")
		return
	}
	page, err := pageFromRequest(r)
	if err != nil {
		writePageError(w, r)
		return
	}

	authors, total, err := store.ListSubscriptions(r.Context(), database, viewerID(r), page)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	if !pageInRange(page, total) {
		writePageError(w, r)
		return
	}

	results, err := subscriptionResponses(r, authors, limit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, paginate(r, page, total, results))
}

func Subscribe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	authorID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}
	limit, ok := recipesLimit(r)
	if !ok {
		writeFieldError(w, r, "recipes_limit", "must be a non-negative integer")
		return
	}

	author, err := store.Subscribe(r.Context(), database, viewerID(r), authorID)
	metrics.RecordAssociation("subscription", "add", outcome(err))
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		writeJSONError(w, r, http.StatusBadRequest, "already subscribed to this author")
		return
	case err != nil:
		writeStoreError(w, r, err)
		return
	}

	results, err := subscriptionResponses(r, []models.User{author}, limit)
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, results[0])
}

func Unsubscribe(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	authorID, ok := pathID(r, "id")
	if !ok {
		writeJSONError(w, r, http.StatusNotFound, "not found")
		return
	}

	err := store.Unsubscribe(r.Context(), database, viewerID(r), authorID)
	metrics.RecordAssociation("subscription", "remove", outcome(err))
	if err != nil {
		writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// storeImage decodes a data URI and saves it. It writes a 400 naming field on
// bad input and returns false.
func storeImage(w http.ResponseWriter, r *http.Request, raw, field, prefix string) (string, bool) {
	img, err := media.DecodeDataURI(raw, maxImageBytes)
	if err != nil {
		applog.Debug(r.Context(), "rejected image upload", "field", field, "error", err)
		writeFieldError(w, r, field, err.Error())
		return "", false
	}
	if mediaStorage == nil {
		writeJSONError(w, r, http.StatusServiceUnavailable, "media storage not available")
		return "", false
	}
	key, err := media.Put(r.Context(), mediaStorage, prefix, img)
	if err != nil {
		applog.Error(r.Context(), "failed to store image", "field", field, "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "internal server error")
		return "", false
	}
	return key, true
}

// discardImage deletes a stored image, logging failures. Empty keys are ignored.
func discardImage(r *http.Request, key string) {
	if key == "" || mediaStorage == nil {
		return
	}
	if err := mediaStorage.Delete(r.Context(), key); err != nil {
		applog.Error(r.Context(), "failed to delete image", "key", key, "error", err)
	}
}

// outcome labels a store result for metrics.
func outcome(err error) string {
	var verr *store.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrAlreadyExists):
		return "conflict"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, store.ErrSelfSubscription), errors.As(err, &verr):
		return "invalid"
	default:
		return "error"
	}
}
