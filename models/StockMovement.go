package models

import "gorm.io/gorm"

type MovementKind string

const (
	MovementInitial     MovementKind = "initial"
	MovementAdjustment  MovementKind = "adjustment"
	MovementSale        MovementKind = "sale"
	MovementConsignment MovementKind = "consignment"
)

// StockMovement records a single change to an ingredient's on-hand quantity.
type StockMovement struct {
	gorm.Model
	IngredientID   uint         `gorm:"index;not null" json:"ingredient_id"`
	Kind           MovementKind `gorm:"type:varchar(16);not null" json:"kind"`
	Delta          float64      `gorm:"not null" json:"delta"`
	PreviousOnHand float64      `json:"previous_on_hand"`
	NewOnHand      float64      `json:"new_on_hand"`
	Reference      string       `json:"reference"`
	Reason         string       `json:"reason"`
}
