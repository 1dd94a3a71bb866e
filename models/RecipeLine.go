package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type RecipeLine struct {
	gorm.Model
	RecipeID     uint            `gorm:"index;not null" json:"recipe_id"`
	IngredientID uint            `gorm:"index;not null" json:"ingredient_id"`
	Quantity     float64         `gorm:"not null" json:"quantity"` // usage units per recipe unit
	UnitCost     decimal.Decimal `gorm:"type:numeric(24,12);not null" json:"unit_cost"`
	LineCost     decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"line_cost"`

	Ingredient *Ingredient `gorm:"foreignKey:IngredientID" json:"ingredient,omitempty"`
}
