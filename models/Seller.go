package models

import "gorm.io/gorm"

// Seller is an external reseller holding consigned products.
type Seller struct {
	gorm.Model
	Name  string `gorm:"uniqueIndex;not null" json:"name"`
	Phone string `json:"phone"`
	Notes string `gorm:"type:text" json:"notes"`
}
