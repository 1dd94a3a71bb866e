package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Ingredient is a raw material tracked by package cost and on-hand quantity.
// Quantities are kept in the usage unit (g, mL or unit).
type Ingredient struct {
	gorm.Model
	Name                      string          `gorm:"uniqueIndex;not null" json:"name"`
	PurchaseUnit              string          `gorm:"type:varchar(8);not null" json:"purchase_unit"`
	UsageUnit                 string          `gorm:"type:varchar(8);not null" json:"usage_unit"`
	PackageQuantity           float64         `gorm:"not null" json:"package_quantity"`
	NormalizedPackageQuantity float64         `gorm:"not null" json:"normalized_package_quantity"`
	PackageCost               decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"package_cost"`
	UnitCost                  decimal.Decimal `gorm:"type:numeric(24,12);not null" json:"unit_cost"`
	OnHand                    float64         `gorm:"not null;default:0" json:"on_hand"`
	MinimumStock              float64         `gorm:"not null;default:0" json:"minimum_stock"`
}

// BelowMinimum reports whether on-hand stock has dropped under the minimum target.
func (i Ingredient) BelowMinimum() bool {
	return i.OnHand < i.MinimumStock
}
