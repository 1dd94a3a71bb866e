package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleLine struct {
	gorm.Model
	SaleID    uint            `gorm:"index;not null" json:"sale_id"`
	RecipeID  uint            `gorm:"index;not null" json:"recipe_id"`
	Quantity  float64         `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"unit_price"`
	LineTotal decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"line_total"`

	Recipe *Recipe `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
}
