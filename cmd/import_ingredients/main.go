package main

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"foodgram/internal/config"
	"foodgram/internal/db"
	applog "foodgram/internal/log"
	"foodgram/internal/store"
	"foodgram/models"
)

const (
	formatAuto = "auto"
	formatCSV  = "csv"
	formatJSON = "json"
)

// openDatabaseFunc connects to the configured database and migrates it.
var openDatabaseFunc = func() (*gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := applog.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	return db.Configure(cfg.Database)
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "import failed: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "import_ingredients",
		Short: "Load the ingredient and tag catalogs into the database",
		Long: `Loads catalog rows from CSV or JSON files. Rows that already exist are
skipped, so the same file can be imported repeatedly.

Ingredient files hold name and measurement unit pairs; tag files hold
name and slug pairs.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().String("format", formatAuto, "input format: auto, csv or json")

	root.AddCommand(&cobra.Command{
		Use:   "ingredients FILE",
		Short: "Import ingredients (name, measurement_unit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(cmd, args[0], "measurement_unit")
			if err != nil {
				return err
			}
			ingredients := make([]models.Ingredient, 0, len(rows))
			for _, row := range rows {
				ingredients = append(ingredients, models.Ingredient{Name: row[0], MeasurementUnit: row[1]})
			}
			return importRows(cmd, "ingredients", args[0], len(ingredients), func(ctx context.Context, database *gorm.DB) (int64, error) {
				return store.ImportIngredients(ctx, database, ingredients)
			})
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "tags FILE",
		Short: "Import tags (name, slug)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(cmd, args[0], "slug")
			if err != nil {
				return err
			}
			tags := make([]models.Tag, 0, len(rows))
			for _, row := range rows {
				tags = append(tags, models.Tag{Name: row[0], Slug: row[1]})
			}
			return importRows(cmd, "tags", args[0], len(tags), func(ctx context.Context, database *gorm.DB) (int64, error) {
				return store.ImportTags(ctx, database, tags)
			})
		},
	})

	return root
}

func importRows(cmd *cobra.Command, kind, path string, total int, insert func(context.Context, *gorm.DB) (int64, error)) error {
	database, err := openDatabaseFunc()
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	inserted, err := insert(cmd.Context(), database)
	if err != nil {
		return err
	}
	applog.Debug(cmd.Context(), "catalog import finished", "kind", kind, "read", total, "inserted", inserted)
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d %s from %s\n", inserted, total, kind, filepath.Base(path))
	return nil
}

// readRows returns name/second-column pairs from a CSV or JSON file. JSON
// files are a list of objects keyed by "name" and secondKey.
func readRows(cmd *cobra.Command, path, secondKey string) ([][2]string, error) {
	format, _ := cmd.Flags().GetString("format")
	if format == formatAuto {
		format = formatCSV
		if strings.EqualFold(filepath.Ext(path), ".json") {
			format = formatJSON
		}
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	var rows [][2]string
	switch format {
	case formatCSV:
		rows, err = parseCSV(file, secondKey)
	case formatJSON:
		rows, err = parseJSON(file, secondKey)
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// parseCSV reads two-column rows. A leading header row naming the columns is
// skipped.
func parseCSV(r io.Reader, secondKey string) ([][2]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	var rows [][2]string
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}
		if len(record) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(record))
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "name") &&
			strings.EqualFold(strings.TrimSpace(record[1]), secondKey) {
			continue
		}
		row, err := newRow(record[0], record[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func parseJSON(r io.Reader, secondKey string) ([][2]string, error) {
	var items []map[string]string
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, err
	}
	rows := make([][2]string, 0, len(items))
	for i, item := range items {
		row, err := newRow(item["name"], item[secondKey])
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i+1, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func newRow(first, second string) ([2]string, error) {
	first, second = strings.TrimSpace(first), strings.TrimSpace(second)
	if first == "" || second == "" {
		return [2]string{}, errors.New("both columns are required")
	}
	return [2]string{first, second}, nil
}
