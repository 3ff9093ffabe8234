package handlers

import (
	"errors"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"foodgram/internal/store"
)

var errInvalidPage = errors.New("invalid page")

type paginatedResponse struct {
	Count    int64   `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  any     `json:"results"`
}

// pageFromRequest reads ?page and ?limit. A malformed page is an error; a
// malformed or oversized limit falls back to the configured bounds.
func pageFromRequest(r *http.Request) (store.Page, error) {
	query := r.URL.Query()
	page := store.Page{Number: 1, Size: pageSize}

	if raw := query.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return store.Page{}, errInvalidPage
		}
		page.Number = n
	}
	if raw := query.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			page.Size = n
		}
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}
	// Number*Size must stay representable for offsets and next links.
	if page.Number > math.MaxInt/page.Size {
		return store.Page{}, errInvalidPage
	}
	return page, nil
}

// pageInRange reports whether the page exists for total rows. The first page
// always exists so empty lists paginate cleanly.
func pageInRange(page store.Page, total int64) bool {
	if page.Number == 1 {
		return true
	}
	return int64((page.Number-1)*page.Size) < total
}

func paginate(r *http.Request, page store.Page, total int64, results any) paginatedResponse {
	resp := paginatedResponse{Count: total, Results: results}
	if int64(page.Number*page.Size) < total {
		next := pageURL(r, page.Number+1)
		resp.Next = &next
	}
	if page.Number > 1 {
		previous := pageURL(r, page.Number-1)
		resp.Previous = &previous
	}
	return resp
}

func pageURL(r *http.Request, number int) string {
	query := r.URL.Query()
	if number == 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(number))
	}
	u := url.URL{Path: r.URL.Path, RawQuery: query.Encode()}
	return origin(r) + u.String()
}

// origin is the externally visible scheme and host.
func origin(r *http.Request) string {
	if publicURL != "" {
		return strings.TrimRight(publicURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if forwarded := r.Header.Get("X-Forwarded-Proto"); forwarded != "" {
		scheme = forwarded
	}
	return scheme + "://" + r.Host
}

func writePageError(w http.ResponseWriter, r *http.Request) {
	writeJSONError(w, r, http.StatusNotFound, errInvalidPage.Error())
}
