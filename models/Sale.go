package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleStatus string

const (
	SaleStatusInProduction SaleStatus = "in_production"
	SaleStatusCompleted    SaleStatus = "completed"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
)

type PaymentMethod string

const (
	PaymentPix      PaymentMethod = "pix"
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentTransfer PaymentMethod = "transfer"
)

// ValidPaymentMethod reports whether the value is a supported payment method.
func ValidPaymentMethod(value PaymentMethod) bool {
	switch value {
	case PaymentPix, PaymentCash, PaymentCard, PaymentTransfer:
		return true
	}
	return false
}

type DeliveryType string

const (
	DeliveryPickup   DeliveryType = "pickup"
	DeliveryDelivery DeliveryType = "delivery"
)

type SaleChannel string

const (
	ChannelCounter     SaleChannel = "counter"
	ChannelConsignment SaleChannel = "consignment"
)

// Sale is a customer order. Total is the sum of line totals at order time.
type Sale struct {
	gorm.Model
	Reference       string          `gorm:"uniqueIndex;not null" json:"reference"`
	Customer        string          `json:"customer"`
	OrderedAt       time.Time       `gorm:"index;not null" json:"ordered_at"`
	Channel         SaleChannel     `gorm:"type:varchar(16);not null" json:"channel"`
	DeliveryType    DeliveryType    `gorm:"type:varchar(16);not null" json:"delivery_type"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryDate    *time.Time      `json:"delivery_date,omitempty"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(16);not null" json:"payment_method"`
	ItemSummary     string          `gorm:"type:text" json:"item_summary"`
	Total           decimal.Decimal `gorm:"type:numeric(18,6);not null" json:"total"`
	Status          SaleStatus      `gorm:"type:varchar(16);index;not null" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(16);not null" json:"payment_status"`
	ConsignmentID   *uint           `json:"consignment_id,omitempty"`
	Lines           []SaleLine      `gorm:"foreignKey:SaleID" json:"lines"`
}
