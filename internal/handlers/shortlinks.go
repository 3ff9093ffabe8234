package handlers

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	applog "foodgram/internal/log"
	"foodgram/internal/metrics"
	"foodgram/internal/store"
)

// ResolveShortLink redirects /s/{token} to the recipe page it was issued for.
func ResolveShortLink(w http.ResponseWriter, r *http.Request) {
	if !requireDatabase(w, r) {
		return
	}
	token := chi.URLParam(r, "token")
	id, err := store.ResolveShortLink(r.Context(), database, token)
	metrics.RecordShortLinkResolution(err == nil)
	if err != nil {
		applog.Debug(r.Context(), "short link lookup failed", "token", token, "error", err)
		writeStoreError(w, r, err)
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/recipes/%d/", id), http.StatusFound)
}
