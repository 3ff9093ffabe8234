package handlers

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/db"
	"foodgram/internal/media"
	"foodgram/models"
)

const testOrigin = "http://foodgram.test"

var pngDataURI = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\nfake"))

type apiFixture struct {
	db        *gorm.DB
	handler   http.Handler
	mediaRoot string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	database, err := gorm.Open(sqlite.Open(dsn), db.GormConfig(logger.Silent))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	root := t.TempDir()
	storage, err := media.NewLocalStorage(root, "/media/")
	if err != nil {
		t.Fatalf("local storage: %v", err)
	}

	Configure(Dependencies{
		Sessions:  scs.New(),
		Database:  database,
		Media:     storage,
		PublicURL: testOrigin,
	})
	t.Cleanup(func() {
		Configure(Dependencies{})
		_ = sqlDB.Close()
	})

	return &apiFixture{db: database, handler: API(), mediaRoot: root}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

// register creates an account through the API and logs it in.
func (f *apiFixture) register(t *testing.T, username string) (string, uint) {
	t.Helper()

	w := f.do(t, http.MethodPost, "/users/", "", map[string]string{
		"email":      username + "@foodgram.test",
		"username":   username,
		"first_name": "First",
		"last_name":  "Last",
		"password":   "correct-horse",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var created registeredUserResponse
	decode(t, w, &created)

	w = f.do(t, http.MethodPost, "/auth/token/login/", "", map[string]string{
		"email":    username + "@foodgram.test",
		"password": "correct-horse",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", username, w.Code, w.Body.String())
	}
	var token tokenResponse
	decode(t, w, &token)
	if token.AuthToken == "" {
		t.Fatalf("login %s: empty token", username)
	}
	return token.AuthToken, created.ID
}

func (f *apiFixture) catalog(t *testing.T) (salt, water models.Ingredient, dinner, lunch models.Tag) {
	t.Helper()

	salt = models.Ingredient{Name: "Salt", MeasurementUnit: "g"}
	water = models.Ingredient{Name: "Water", MeasurementUnit: "ml"}
	dinner = models.Tag{Name: "Dinner", Slug: "dinner"}
	lunch = models.Tag{Name: "Lunch", Slug: "lunch"}
	for _, value := range []any{&salt, &water, &dinner, &lunch} {
		if err := f.db.Create(value).Error; err != nil {
			t.Fatalf("seed %T: %v", value, err)
		}
	}
	return salt, water, dinner, lunch
}

func recipeBody(name string, tags []uint, ingredients ...[2]uint) map[string]any {
	items := make([]map[string]any, 0, len(ingredients))
	for _, item := range ingredients {
		items = append(items, map[string]any{"id": item[0], "amount": item[1]})
	}
	return map[string]any{
		"ingredients":  items,
		"tags":         tags,
		"image":        pngDataURI,
		"name":         name,
		"text":         "Cook it well.",
		"cooking_time": 10,
	}
}

func (f *apiFixture) createRecipe(t *testing.T, token string, body map[string]any) recipeResponse {
	t.Helper()

	w := f.do(t, http.MethodPost, "/recipes/", token, body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create recipe: status %d body %s", w.Code, w.Body.String())
	}
	var recipe recipeResponse
	decode(t, w, &recipe)
	return recipe
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d; body %s", w.Code, want, w.Body.String())
	}
}

func expectField(t *testing.T, w *httptest.ResponseRecorder, field string) {
	t.Helper()
	expectStatus(t, w, http.StatusBadRequest)
	var resp errorResponse
	decode(t, w, &resp)
	if len(resp.Fields[field]) == 0 {
		t.Fatalf("expected error on field %q, got %+v", field, resp)
	}
}
