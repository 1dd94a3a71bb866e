package models

import (
	"strings"

	"gorm.io/gorm"
)

// User is an operator account allowed to use the back office.
type User struct {
	gorm.Model
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Name         string
}

// NormalizeEmail lower-cases and trims an email address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// All lists every model managed by migrations, in dependency order.
func All() []any {
	return []any{
		&User{},
		&Ingredient{},
		&Recipe{},
		&RecipeLine{},
		&Sale{},
		&SaleLine{},
		&CashEntry{},
		&Seller{},
		&Consignment{},
		&StockMovement{},
	}
}
