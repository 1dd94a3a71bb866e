package models

import "gorm.io/gorm"

// Consignment tracks a batch of one recipe handed to a seller. Delivered is fixed
// at creation and Sold only grows.
type Consignment struct {
	gorm.Model
	SellerID  uint    `gorm:"index;not null" json:"seller_id"`
	RecipeID  uint    `gorm:"index;not null" json:"recipe_id"`
	Delivered float64 `gorm:"not null" json:"delivered"`
	Sold      float64 `gorm:"not null;default:0" json:"sold"`

	Seller *Seller `gorm:"foreignKey:SellerID" json:"seller,omitempty"`
	Recipe *Recipe `gorm:"foreignKey:RecipeID" json:"recipe,omitempty"`
}

// InHand is the quantity still with the seller.
func (c Consignment) InHand() float64 {
	return c.Delivered - c.Sold
}
