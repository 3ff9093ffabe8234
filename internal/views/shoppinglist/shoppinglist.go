// Package shoppinglist renders an aggregated shopping list as plain text.
// List lives in list.templ; run `templ generate` after editing it.
package shoppinglist

import (
	"fmt"

	"foodgram/internal/store"
)

const (
	ContentType = "text/plain; charset=utf-8"
	Filename    = "shopping_list.txt"
)

// line formats one entry as "<n>. <name> (<unit>) - <amount>". The text is
// written raw so names are never HTML-escaped.
func line(n int, item store.ShoppingListItem) string {
	return fmt.Sprintf("%d. %s (%s) - %d\n", n, item.Name, item.MeasurementUnit, item.TotalAmount)
}
