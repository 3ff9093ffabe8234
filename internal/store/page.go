package store

import "gorm.io/gorm"

// Page selects a 1-based window of Size rows.
type Page struct {
	Number int
	Size   int
}

func (p Page) offset() int {
	if p.Number <= 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

func (p Page) scope(db *gorm.DB) *gorm.DB {
	if p.Size <= 0 {
		return db
	}
	return db.Offset(p.offset()).Limit(p.Size)
}
