package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	applog "foodgram/internal/log"
	"foodgram/internal/store"
)

type errorResponse struct {
	Error  string              `json:"error"`
	Fields map[string][]string `json:"fields,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(r.Context(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, message string) {
	writeJSON(w, r, status, errorResponse{Error: message})
}

func writeFieldError(w http.ResponseWriter, r *http.Request, field, message string) {
	writeJSON(w, r, http.StatusBadRequest, errorResponse{
		Error:  field + ": " + message,
		Fields: map[string][]string{field: {message}},
	})
}

// requireDatabase writes 503 and returns false when no database is configured.
func requireDatabase(w http.ResponseWriter, r *http.Request) bool {
	if database == nil {
		applog.Debug(r.Context(), "request without database", "path", r.URL.Path)
		writeJSONError(w, r, http.StatusServiceUnavailable, "service unavailable")
		return false
	}
	return true
}

// decodeAndValidate reads a JSON body into dst and runs struct validation.
// It writes the 400 response itself and returns false on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes*2+1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		applog.Debug(r.Context(), "failed to decode request body", "error", err)
		writeJSONError(w, r, http.StatusBadRequest, "invalid JSON body")
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			applog.Error(r.Context(), "request validation failed unexpectedly", "error", err)
			writeJSONError(w, r, http.StatusBadRequest, "invalid request")
			return false
		}
		fields := make(map[string][]string, len(verrs))
		messages := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			field := topLevelField(fe.Namespace())
			msg := validationMessage(fe)
			fields[field] = append(fields[field], msg)
			messages = append(messages, field+": "+msg)
		}
		applog.Debug(r.Context(), "request validation failed", "fields", strings.Join(messages, "; "))
		writeJSON(w, r, http.StatusBadRequest, errorResponse{
			Error:  strings.Join(messages, "; "),
			Fields: fields,
		})
		return false
	}
	return true
}

// topLevelField maps "recipeRequest.ingredients[0].amount" to "ingredients".
func topLevelField(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		namespace = namespace[i+1:]
	}
	if i := strings.IndexAny(namespace, ".["); i >= 0 {
		namespace = namespace[:i]
	}
	return namespace
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "enter a valid email address"
	case "min":
		switch fe.Kind() {
		case reflect.Slice:
			return "must contain at least " + fe.Param() + " items"
		case reflect.String:
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "unique":
		return "contains duplicates"
	default:
		return "invalid value"
	}
}

// writeStoreError maps store errors onto HTTP responses.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *store.ValidationError
	switch {
	case errors.As(err, &verr):
		applog.Debug(r.Context(), "store rejected input", "field", verr.Field, "message", verr.Message)
		writeFieldError(w, r, verr.Field, verr.Message)
	case errors.Is(err, store.ErrNotFound):
		writeJSONError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, store.ErrAlreadyExists):
		writeJSONError(w, r, http.StatusBadRequest, "already exists")
	case errors.Is(err, store.ErrSelfSubscription):
		writeJSONError(w, r, http.StatusBadRequest, store.ErrSelfSubscription.Error())
	default:
		applog.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSONError(w, r, http.StatusInternalServerError, "internal server error")
	}
}
