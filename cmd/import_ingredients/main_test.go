package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"foodgram/internal/db"
	"foodgram/models"
)

func useTestDatabase(t *testing.T) *gorm.DB {
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

	original := openDatabaseFunc
	openDatabaseFunc = func() (*gorm.DB, error) { return database, nil }
	t.Cleanup(func() {
		openDatabaseFunc = original
		_ = sqlDB.Close()
	})
	return database
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestImportIngredientsCSVIsIdempotent(t *testing.T) {
	database := useTestDatabase(t)
	path := writeFile(t, "ingredients.csv", "name,measurement_unit\nSalt,g\nWater, ml\n\"Sugar, brown\",g\n")

	out, err := execute(t, "ingredients", path)
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	if !strings.Contains(out, "Imported 3 of 3 ingredients from ingredients.csv") {
		t.Fatalf("unexpected output %q", out)
	}

	out, err = execute(t, "ingredients", path)
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if !strings.Contains(out, "Imported 0 of 3 ingredients") {
		t.Fatalf("expected repeat import to skip rows, got %q", out)
	}

	var water models.Ingredient
	if err := database.Where("name = ?", "Water").First(&water).Error; err != nil {
		t.Fatalf("find water: %v", err)
	}
	if water.MeasurementUnit != "ml" {
		t.Fatalf("expected trimmed unit, got %q", water.MeasurementUnit)
	}
}

func TestImportIngredientsJSON(t *testing.T) {
	database := useTestDatabase(t)
	path := writeFile(t, "ingredients.json", `[{"name":"Flour","measurement_unit":"g"},{"name":"Milk","measurement_unit":"ml"}]`)

	if _, err := execute(t, "ingredients", path); err != nil {
		t.Fatalf("import: %v", err)
	}
	var count int64
	if err := database.Model(&models.Ingredient{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 ingredients, got %d", count)
	}
}

func TestImportTags(t *testing.T) {
	database := useTestDatabase(t)
	path := writeFile(t, "tags.txt", "Breakfast,breakfast\nDinner,dinner\n")

	if _, err := execute(t, "tags", "--format", "csv", path); err != nil {
		t.Fatalf("import: %v", err)
	}
	var slugs []string
	if err := database.Model(&models.Tag{}).Order("slug").Pluck("slug", &slugs).Error; err != nil {
		t.Fatalf("pluck slugs: %v", err)
	}
	if strings.Join(slugs, ",") != "breakfast,dinner" {
		t.Fatalf("unexpected slugs %v", slugs)
	}

	bad := writeFile(t, "bad.csv", "Late dinner,late dinner\n")
	if _, err := execute(t, "tags", bad); err == nil {
		t.Fatal("expected invalid slug to be rejected")
	}
}

func TestImportRejectsMalformedInput(t *testing.T) {
	useTestDatabase(t)

	tests := []struct {
		name    string
		file    string
		content string
		args    []string
	}{
		{name: "missing column", file: "one.csv", content: "Salt\n"},
		{name: "empty unit", file: "blank.csv", content: "Salt,\n"},
		{name: "bad json", file: "broken.json", content: `{"name":`},
		{name: "unknown format", file: "x.csv", content: "Salt,g\n", args: []string{"--format", "xml"}},
	}
	for _, tt := range tests {
		path := writeFile(t, tt.file, tt.content)
		args := append(append([]string{"ingredients"}, tt.args...), path)
		if _, err := execute(t, args...); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}

	if _, err := execute(t, "ingredients", filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
