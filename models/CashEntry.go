package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CashDirection string

const (
	CashIn  CashDirection = "in"
	CashOut CashDirection = "out"
)

// CashEntry is one append-only movement in the cash ledger. Amount is always
// positive; Direction carries the sign.
type CashEntry struct {
	gorm.Model
	Description string          `gorm:"not null" json:"description"`
	Amount      decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"amount"`
	Direction   CashDirection   `gorm:"type:varchar(8);not null" json:"direction"`
	Category    string          `gorm:"type:varchar(64)" json:"category"`
	OccurredAt  time.Time       `gorm:"index;not null" json:"occurred_at"`
	SaleID      *uint           `json:"sale_id,omitempty"`
}
