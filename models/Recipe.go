package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Recipe is a sellable product. TotalCost is the sum of its line costs when it was
// last saved and is not refreshed when ingredient costs change afterwards.
type Recipe struct {
	gorm.Model
	Name      string          `gorm:"uniqueIndex;not null" json:"name"`
	Price     decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"price"`
	TotalCost decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"total_cost"`
	Lines     []RecipeLine    `gorm:"foreignKey:RecipeID" json:"lines"`
}

// Margin is the sale price minus the cost snapshot.
func (r Recipe) Margin() decimal.Decimal {
	return r.Price.Sub(r.TotalCost)
}
