package bakery

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

const consignmentCategory = "consignment"

// SellerSpec registers an external seller.
type SellerSpec struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Notes string `json:"notes"`
}

// Settlement reports units a seller has sold out of a consignment.
type Settlement struct {
	ConsignmentID uint
	Quantity      float64
	// Discount is taken off the recipe price per unit.
	Discount      decimal.Decimal
	Collected     bool
	PaymentMethod models.PaymentMethod
}

// SettlementResult is the updated consignment and the sale recorded for it.
type SettlementResult struct {
	Consignment *models.Consignment `json:"consignment"`
	Sale        *models.Sale        `json:"sale"`
}

// ConsignmentResult is a new consignment plus any ingredients its production drove below zero.
type ConsignmentResult struct {
	Consignment *models.Consignment `json:"consignment"`
	Shortages   []Shortage          `json:"shortages"`
}

// CreateSeller registers a seller.
func (s *Service) CreateSeller(ctx context.Context, spec SellerSpec) (*models.Seller, error) {
	name, err := requireName("name", spec.Name)
	if err != nil {
		return nil, err
	}

	seller := models.Seller{Name: name, Phone: strings.TrimSpace(spec.Phone), Notes: strings.TrimSpace(spec.Notes)}
	err = s.transact(ctx, "create seller", func(tx *gorm.DB) error {
		var clash int64
		if err := tx.Model(&models.Seller{}).Where("lower(name) = ?", strings.ToLower(name)).Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return invalid("a seller named %q already exists", name)
		}
		return tx.Create(&seller).Error
	})
	if err != nil {
		return nil, err
	}
	return &seller, nil
}

// ListSellers returns every seller ordered by name.
func (s *Service) ListSellers(ctx context.Context) ([]models.Seller, error) {
	var sellers []models.Seller
	if err := s.db.WithContext(ctx).Order("name asc").Find(&sellers).Error; err != nil {
		return nil, storageError("list sellers", err)
	}
	return sellers, nil
}

// CreateConsignment hands delivered units of a recipe to a seller. The ingredients
// leave central inventory here, not when the seller later resells.
func (s *Service) CreateConsignment(ctx context.Context, sellerID, recipeID uint, delivered float64) (*ConsignmentResult, error) {
	if sellerID == 0 {
		return nil, invalid("seller_id is required")
	}
	if recipeID == 0 {
		return nil, invalid("recipe_id is required")
	}
	if err := requirePositive("delivered", delivered); err != nil {
		return nil, err
	}

	var result ConsignmentResult
	err := s.transact(ctx, "create consignment", func(tx *gorm.DB) error {
		var seller models.Seller
		if err := tx.First(&seller, sellerID).Error; err != nil {
			return lookupError("load seller", "seller", sellerID, err)
		}
		var recipe models.Recipe
		if err := tx.Preload("Lines").First(&recipe, recipeID).Error; err != nil {
			return lookupError("load recipe", "recipe", recipeID, err)
		}

		consignment := models.Consignment{SellerID: sellerID, RecipeID: recipeID, Delivered: delivered}
		if err := tx.Create(&consignment).Error; err != nil {
			return err
		}

		touched, err := depleteForRecipe(tx, recipe, delivered, models.MovementConsignment, fmt.Sprintf("consignment-%d", consignment.ID))
		if err != nil {
			return err
		}
		shortages := shortagesOf(touched)
		if len(shortages) > 0 && s.opts.RejectNegativeStock {
			return fmt.Errorf("%w: %s", ErrInsufficientStock, describeShortages(shortages))
		}

		consignment.Seller = &seller
		consignment.Recipe = &recipe
		result = ConsignmentResult{Consignment: &consignment, Shortages: shortages}
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "consignment delivered", "consignment", result.Consignment.ID, "seller", sellerID, "recipe", recipeID, "delivered", delivered)
	return &result, nil
}

// ListConsignments returns consignments, optionally for one seller, newest first.
func (s *Service) ListConsignments(ctx context.Context, sellerID uint) ([]models.Consignment, error) {
	query := s.db.WithContext(ctx).Preload("Seller").Preload("Recipe").Order("id desc")
	if sellerID != 0 {
		query = query.Where("seller_id = ?", sellerID)
	}
	var consignments []models.Consignment
	if err := query.Find(&consignments).Error; err != nil {
		return nil, storageError("list consignments", err)
	}
	return consignments, nil
}

// SettleConsignment records units sold by the seller: the consignment's sold count
// grows and a completed consignment sale is booked, paid with a cash inflow when
// the money was collected. Inventory is not touched.
func (s *Service) SettleConsignment(ctx context.Context, settlement Settlement) (*SettlementResult, error) {
	if settlement.ConsignmentID == 0 {
		return nil, invalid("consignment_id is required")
	}
	if err := requirePositive("quantity", settlement.Quantity); err != nil {
		return nil, err
	}
	if settlement.Discount.IsNegative() {
		return nil, invalid("discount must not be negative")
	}
	if settlement.PaymentMethod == "" {
		settlement.PaymentMethod = models.PaymentCash
	}
	if !models.ValidPaymentMethod(settlement.PaymentMethod) {
		return nil, invalid("unsupported payment method %q", settlement.PaymentMethod)
	}

	var result SettlementResult
	err := s.transact(ctx, "settle consignment", func(tx *gorm.DB) error {
		var consignment models.Consignment
		if err := tx.Preload("Seller").Preload("Recipe").First(&consignment, settlement.ConsignmentID).Error; err != nil {
			return lookupError("load consignment", "consignment", settlement.ConsignmentID, err)
		}
		if consignment.Recipe == nil {
			return notFound("recipe", consignment.RecipeID)
		}
		recipe := *consignment.Recipe

		if settlement.Quantity > consignment.InHand() {
			return fmt.Errorf("%w: consignment %d has %g in hand, %g reported sold",
				ErrInsufficientStock, consignment.ID, consignment.InHand(), settlement.Quantity)
		}
		if settlement.Discount.GreaterThan(recipe.Price) {
			return invalid("discount %s exceeds the price of %q", settlement.Discount, recipe.Name)
		}

		if err := tx.Model(&models.Consignment{}).
			Where("id = ?", consignment.ID).
			Update("sold", gorm.Expr("sold + ?", settlement.Quantity)).Error; err != nil {
			return err
		}

		consignmentID := consignment.ID
		sale := models.Sale{
			Reference:     s.opts.NewReference(),
			OrderedAt:     s.opts.Now(),
			Channel:       models.ChannelConsignment,
			DeliveryType:  models.DeliveryPickup,
			PaymentMethod: settlement.PaymentMethod,
			Status:        models.SaleStatusCompleted,
			PaymentStatus: models.PaymentPending,
			ConsignmentID: &consignmentID,
		}
		if consignment.Seller != nil {
			sale.Customer = consignment.Seller.Name
		}
		if settlement.Collected {
			sale.PaymentStatus = models.PaymentPaid
		}
		lines := []OrderLine{{RecipeID: recipe.ID, Quantity: settlement.Quantity}}
		sale.Lines, sale.Total, sale.ItemSummary = priceLines(lines, map[uint]models.Recipe{recipe.ID: recipe}, settlement.Discount)
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		if settlement.Collected {
			if err := bookSaleCash(tx, &sale, consignmentCategory, s.opts.Now()); err != nil {
				return err
			}
		}

		if err := tx.First(&consignment, consignment.ID).Error; err != nil {
			return err
		}
		result = SettlementResult{Consignment: &consignment, Sale: &sale}
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "consignment settled", "consignment", result.Consignment.ID, "sold", settlement.Quantity, "inHand", result.Consignment.InHand(), "total", result.Sale.Total.String())
	return &result, nil
}
