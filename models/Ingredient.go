package models

type Ingredient struct {
	ID              uint   `gorm:"primaryKey"`
	Name            string `gorm:"type:varchar(128);not null;uniqueIndex:idx_ingredient_name_unit"`
	MeasurementUnit string `gorm:"type:varchar(64);not null;uniqueIndex:idx_ingredient_name_unit"`
}
