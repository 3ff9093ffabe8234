package models

import "regexp"

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

type Tag struct {
	ID   uint   `gorm:"primaryKey"`
	Name string `gorm:"type:varchar(32);uniqueIndex;not null"`
	Slug string `gorm:"type:varchar(32);uniqueIndex;not null"`
}

// ValidSlug reports whether the value is usable as a tag slug.
func ValidSlug(value string) bool {
	return slugPattern.MatchString(value)
}
