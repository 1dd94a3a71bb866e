package bakery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sagradodoce/internal/costing"
	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

// SaleOrder is a counter sale ready to be finalized.
type SaleOrder struct {
	Customer        string
	Lines           []OrderLine
	PaymentMethod   models.PaymentMethod
	Paid            bool
	DeliveryType    models.DeliveryType
	DeliveryAddress string
	DeliveryDate    *time.Time
}

// SaleResult is a finalized sale plus any ingredients it drove below zero.
type SaleResult struct {
	Sale      *models.Sale `json:"sale"`
	Shortages []Shortage   `json:"shortages"`
}

// SaleFilter narrows ListSales.
type SaleFilter struct {
	Status        models.SaleStatus
	PaymentStatus models.PaymentStatus
	Channel       models.SaleChannel
}

const salesCategory = "sales"

// FinalizeSale records the sale, its lines, the ingredient depletion for every line
// and, for a paid sale, the cash inflow. Either all of it persists or none does.
func (s *Service) FinalizeSale(ctx context.Context, order SaleOrder) (*SaleResult, error) {
	lines, err := validateOrder(&order)
	if err != nil {
		return nil, err
	}

	var result SaleResult
	err = s.transact(ctx, "finalize sale", func(tx *gorm.DB) error {
		recipes, err := loadRecipes(tx, lines)
		if err != nil {
			return err
		}

		sale := models.Sale{
			Reference:       s.opts.NewReference(),
			Customer:        strings.TrimSpace(order.Customer),
			OrderedAt:       s.opts.Now(),
			Channel:         models.ChannelCounter,
			DeliveryType:    order.DeliveryType,
			DeliveryAddress: strings.TrimSpace(order.DeliveryAddress),
			DeliveryDate:    order.DeliveryDate,
			PaymentMethod:   order.PaymentMethod,
			Status:          models.SaleStatusInProduction,
			PaymentStatus:   models.PaymentPending,
		}
		if order.Paid {
			sale.PaymentStatus = models.PaymentPaid
		}
		sale.Lines, sale.Total, sale.ItemSummary = priceLines(lines, recipes, decimal.Zero)

		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		touched := make(map[uint]*models.Ingredient)
		for _, line := range lines {
			depleted, err := depleteForRecipe(tx, recipes[line.RecipeID], line.Quantity, models.MovementSale, sale.Reference)
			if err != nil {
				return err
			}
			for id, ingredient := range depleted {
				touched[id] = ingredient
			}
		}

		shortages := shortagesOf(touched)
		if len(shortages) > 0 && s.opts.RejectNegativeStock {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, describeShortages(shortages))
		}

		if order.Paid {
			if err := bookSaleCash(tx, &sale, salesCategory, s.opts.Now()); err != nil {
				return err
			}
		}

		result = SaleResult{Sale: &sale, Shortages: shortages}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(result.Shortages) > 0 {
		applog.Info(ctx, "sale drove stock below zero", "sale", result.Sale.Reference, "shortages", describeShortages(result.Shortages))
	}
	applog.Info(ctx, "sale finalized", "sale", result.Sale.Reference, "total", result.Sale.Total.String(), "lines", len(result.Sale.Lines))
	return &result, nil
}

// CompleteSale marks an in-production sale as completed.
func (s *Service) CompleteSale(ctx context.Context, id uint) (*models.Sale, error) {
	err := s.transact(ctx, "complete sale", func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.First(&sale, id).Error; err != nil {
			return lookupError("load sale", "sale", id, err)
		}
		if sale.Status != models.SaleStatusInProduction {
			return fmt.Errorf("%w: sale %s is already %s", ErrInvalidTransition, sale.Reference, sale.Status)
		}
		return tx.Model(&sale).Update("status", models.SaleStatusCompleted).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, id)
}

// MarkSalePaid moves a pending sale to paid and books the cash inflow.
func (s *Service) MarkSalePaid(ctx context.Context, id uint) (*models.Sale, error) {
	err := s.transact(ctx, "mark sale paid", func(tx *gorm.DB) error {
		var sale models.Sale
		if err := tx.First(&sale, id).Error; err != nil {
			return lookupError("load sale", "sale", id, err)
		}
		if sale.PaymentStatus != models.PaymentPending {
			return fmt.Errorf("%w: sale %s is already %s", ErrInvalidTransition, sale.Reference, sale.PaymentStatus)
		}
		if err := tx.Model(&sale).Update("payment_status", models.PaymentPaid).Error; err != nil {
			return err
		}
		category := salesCategory
		if sale.Channel == models.ChannelConsignment {
			category = consignmentCategory
		}
		return bookSaleCash(tx, &sale, category, s.opts.Now())
	})
	if err != nil {
		return nil, err
	}
	return s.GetSale(ctx, id)
}

// GetSale loads a sale with its lines and their recipes.
func (s *Service) GetSale(ctx context.Context, id uint) (*models.Sale, error) {
	var sale models.Sale
	if err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Lines.Recipe").
		First(&sale, id).Error; err != nil {
		return nil, lookupError("load sale", "sale", id, err)
	}
	return &sale, nil
}

// ListSales returns sales matching the filter, newest first.
func (s *Service) ListSales(ctx context.Context, filter SaleFilter) ([]models.Sale, error) {
	query := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Order("ordered_at desc, id desc")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Channel != "" {
		query = query.Where("channel = ?", filter.Channel)
	}
	var sales []models.Sale
	if err := query.Find(&sales).Error; err != nil {
		return nil, storageError("list sales", err)
	}
	return sales, nil
}

func validateOrder(order *SaleOrder) ([]OrderLine, error) {
	if len(order.Lines) == 0 {
		return nil, invalid("a sale needs at least one item")
	}
	for _, line := range order.Lines {
		if line.RecipeID == 0 {
			return nil, invalid("recipe_id is required")
		}
		if err := requirePositive("quantity", line.Quantity); err != nil {
			return nil, err
		}
	}
	if !models.ValidPaymentMethod(order.PaymentMethod) {
		return nil, invalid("unsupported payment method %q", order.PaymentMethod)
	}
	switch order.DeliveryType {
	case "":
		order.DeliveryType = models.DeliveryPickup
	case models.DeliveryPickup:
	case models.DeliveryDelivery:
		if strings.TrimSpace(order.DeliveryAddress) == "" {
			return nil, invalid("delivery_address is required for deliveries")
		}
	default:
		return nil, invalid("unsupported delivery type %q", order.DeliveryType)
	}
	return mergeOrderLines(order.Lines), nil
}

func loadRecipes(tx *gorm.DB, lines []OrderLine) (map[uint]models.Recipe, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.RecipeID)
	}
	var recipes []models.Recipe
	if err := tx.Preload("Lines").Where("id IN ?", ids).Find(&recipes).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Recipe, len(recipes))
	for _, recipe := range recipes {
		byID[recipe.ID] = recipe
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, notFound("recipe", id)
		}
	}
	return byID, nil
}

// priceLines snapshots each recipe's price, less a per-unit discount, into sale lines.
func priceLines(lines []OrderLine, recipes map[uint]models.Recipe, discount decimal.Decimal) ([]models.SaleLine, decimal.Decimal, string) {
	saleLines := make([]models.SaleLine, 0, len(lines))
	total := decimal.Zero
	summary := make([]string, 0, len(lines))
	for _, line := range lines {
		recipe := recipes[line.RecipeID]
		unitPrice := recipe.Price.Sub(discount)
		lineTotal := costing.LineCost(line.Quantity, unitPrice)
		saleLines = append(saleLines, models.SaleLine{
			RecipeID:  line.RecipeID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			LineTotal: lineTotal,
		})
		total = total.Add(lineTotal)
		summary = append(summary, fmt.Sprintf("%gx %s", line.Quantity, recipe.Name))
	}
	return saleLines, total, strings.Join(summary, ", ")
}

// bookSaleCash records the inflow of a paid sale. A sale discounted to nothing
// brings no money in and books no entry.
func bookSaleCash(tx *gorm.DB, sale *models.Sale, category string, at time.Time) error {
	if !sale.Total.IsPositive() {
		return nil
	}
	label := sale.Customer
	if label == "" {
		label = sale.Reference
	}
	saleID := sale.ID
	return tx.Create(&models.CashEntry{
		Description: fmt.Sprintf("Sale %s", label),
		Amount:      sale.Total,
		Direction:   models.CashIn,
		Category:    category,
		OccurredAt:  at,
		SaleID:      &saleID,
	}).Error
}

func describeShortages(shortages []Shortage) string {
	parts := make([]string, 0, len(shortages))
	for _, shortage := range shortages {
		parts = append(parts, fmt.Sprintf("%s at %g %s", shortage.Name, shortage.OnHand, shortage.Unit))
	}
	return strings.Join(parts, "; ")
}
