package models

import (
	"time"
)

type Recipe struct {
	ID          uint      `gorm:"primaryKey"`
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
	AuthorID    uint   `gorm:"not null;index"`
	Author      User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE"`
	Name        string `gorm:"type:varchar(256);not null"`
	Image       string `gorm:"type:varchar(255);not null"` // media storage key
	Text        string `gorm:"type:text;not null"`
	CookingTime int    `gorm:"not null;check:chk_recipes_cooking_time,cooking_time >= 1"`
	// ShortLink is assigned once on first request and never changes afterwards.
	ShortLink *string `gorm:"type:varchar(16);uniqueIndex"`

	Ingredients []RecipeIngredient `gorm:"foreignKey:RecipeID;constraint:OnDelete:CASCADE"`
	Tags        []Tag              `gorm:"many2many:recipe_tags;constraint:OnDelete:CASCADE"`
}
