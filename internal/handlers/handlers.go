package handlers

import (
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"gorm.io/gorm"

	"foodgram/internal/media"
)

const (
	defaultPageSize      = 6
	defaultMaxPageSize   = 100
	defaultMaxImageBytes = 10 << 20
)

// Dependencies are the shared services the HTTP handlers use.
type Dependencies struct {
	Sessions      *scs.SessionManager
	Database      *gorm.DB
	Media         media.Storage
	PublicURL     string
	PageSize      int
	MaxPageSize   int
	MaxImageBytes int64
}

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	mediaStorage   media.Storage
	publicURL      string
	pageSize       = defaultPageSize
	maxPageSize    = defaultMaxPageSize
	maxImageBytes  int64 = defaultMaxImageBytes
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(deps Dependencies) {
	sessionManager = deps.Sessions
	database = deps.Database
	mediaStorage = deps.Media
	publicURL = deps.PublicURL

	pageSize = defaultPageSize
	if deps.PageSize > 0 {
		pageSize = deps.PageSize
	}
	maxPageSize = defaultMaxPageSize
	if deps.MaxPageSize > 0 {
		maxPageSize = deps.MaxPageSize
	}
	maxImageBytes = defaultMaxImageBytes
	if deps.MaxImageBytes > 0 {
		maxImageBytes = deps.MaxImageBytes
	}
}

// API returns the router serving the JSON API. It is mounted under /api.
func API() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.StripSlashes)
	r.Use(Identify)

	r.Post("/auth/token/login", Login)
	r.With(RequireAuthentication).Post("/auth/token/logout", Logout)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", ListUsers)
		r.Post("/", CreateUser)
		r.Group(func(r chi.Router) {
			r.Use(RequireAuthentication)
			r.Get("/me", Me)
			r.Post("/set_password", SetPassword)
			r.Put("/me/avatar", PutAvatar)
			r.Patch("/me/avatar", PutAvatar)
			r.Delete("/me/avatar", DeleteAvatar)
			r.Get("/subscriptions", Subscriptions)
			r.Post("/{id}/subscribe", Subscribe)
			r.Delete("/{id}/subscribe", Unsubscribe)
		})
		r.Get("/{id}", GetUser)
	})

	r.Get("/tags", ListTags)
	r.Get("/tags/{id}", GetTag)
	r.Get("/ingredients", ListIngredients)
	r.Get("/ingredients/{id}", GetIngredient)

	r.Route("/recipes", func(r chi.Router) {
		r.Get("/", ListRecipes)
		r.With(RequireAuthentication).Post("/", CreateRecipe)
		r.With(RequireAuthentication).Get("/download_shopping_cart", DownloadShoppingCart)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", GetRecipe)
			r.Get("/get-link", GetLink)
			r.Group(func(r chi.Router) {
				r.Use(RequireAuthentication)
				r.Put("/", UpdateRecipe)
				r.Patch("/", UpdateRecipe)
				r.Delete("/", DeleteRecipe)
				r.Post("/favorite", AddFavorite)
				r.Delete("/favorite", RemoveFavorite)
				r.Post("/shopping_cart", AddToCart)
				r.Delete("/shopping_cart", RemoveFromCart)
			})
		})
	})

	return r
}
