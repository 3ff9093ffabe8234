package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	applog "foodgram/internal/log"
	"foodgram/internal/store"
	"foodgram/models"
)

const (
	sessionUserIDKey    = "auth:user:id"
	sessionUserEmailKey = "auth:user:email"

	tokenScheme = "Token"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AuthToken string `json:"auth_token"`
}

// Identify loads the session named by an "Authorization: Token <t>" header or,
// failing that, the session cookie. Requests without either get an empty session.
func Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sessionManager == nil {
			next.ServeHTTP(w, r)
			return
		}

		token := tokenFromHeader(r.Header.Get("Authorization"))
		if token == "" {
			if cookie, err := r.Cookie(sessionManager.Cookie.Name); err == nil {
				token = cookie.Value
			}
		}

		ctx, err := sessionManager.Load(r.Context(), token)
		if err != nil {
			applog.Error(r.Context(), "failed to load session", "error", err)
			writeJSONError(w, r, http.StatusInternalServerError, "internal server error")
			return
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func tokenFromHeader(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, tokenScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuthentication rejects requests without an authenticated session with 401.
func RequireAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := currentUserID(r); !ok {
			applog.Debug(r.Context(), "unauthenticated request rejected", "path", r.URL.Path)
			writeJSONError(w, r, http.StatusUnauthorized, "authentication credentials were not provided")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// currentUserID returns the authenticated user id, if any.
func currentUserID(r *http.Request) (uint, bool) {
	if sessionManager == nil || !sessionManager.Exists(r.Context(), sessionUserIDKey) {
		return 0, false
	}
	id := sessionManager.GetInt(r.Context(), sessionUserIDKey)
	if id <= 0 {
		return 0, false
	}
	return uint(id), true
}

// viewerID returns the authenticated user id or 0 for anonymous requests.
func viewerID(r *http.Request) uint {
	id, _ := currentUserID(r)
	return id
}

// Login exchanges email and password for a session token.
func Login(w http.ResponseWriter, r *http.Request) {
	if sessionManager == nil || database == nil {
		applog.Debug(r.Context(), "login dependencies unavailable", "hasSession", sessionManager != nil, "hasDatabase", database != nil)
		writeJSONError(w, r, http.StatusServiceUnavailable, "authentication not available")
		return
	}

	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := store.Authenticate(r.Context(), database, req.Email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		applog.Debug(r.Context(), "login rejected", "email", strings.ToLower(req.Email))
		writeJSONError(w, r, http.StatusBadRequest, "unable to log in with provided credentials")
		return
	}
	if err != nil {
		writeStoreError(w, r, err)
		return
	}

	token, expiry, err := establishSession(r, user)
	if err != nil {
		applog.Error(r.Context(), "failed to establish session", "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	sessionManager.WriteSessionCookie(r.Context(), w, token, expiry)

	applog.Info(r.Context(), "user logged in", "user_id", user.ID)
	writeJSON(w, r, http.StatusOK, tokenResponse{AuthToken: token})
}

func establishSession(r *http.Request, user models.User) (string, time.Time, error) {
	ctx := r.Context()
	if err := sessionManager.RenewToken(ctx); err != nil {
		return "", time.Time{}, err
	}
	sessionManager.Put(ctx, sessionUserIDKey, int(user.ID))
	sessionManager.Put(ctx, sessionUserEmailKey, user.Email)
	return sessionManager.Commit(ctx)
}

// Logout destroys the current session so its token stops working.
func Logout(w http.ResponseWriter, r *http.Request) {
	if err := sessionManager.Destroy(r.Context()); err != nil {
		applog.Error(r.Context(), "failed to destroy session", "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}
	sessionManager.WriteSessionCookie(r.Context(), w, "", time.Time{})
	w.WriteHeader(http.StatusNoContent)
}
