package bakery

import (
	"context"
	"time"

	"sagradodoce/internal/costing"
	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

// PurchaseReport is the purchase plan at a point in time.
type PurchaseReport struct {
	costing.PurchasePlan
	GeneratedAt time.Time `json:"generated_at"`
	OpenSales   int64     `json:"open_sales"`
}

type ingredientNeed struct {
	IngredientID uint
	Need         float64
}

// PurchasePlan computes, for every ingredient, what open production still needs
// on top of its minimum stock and what buying the shortfall would cost.
func (s *Service) PurchasePlan(ctx context.Context) (*PurchaseReport, error) {
	db := s.db.WithContext(ctx)

	var needs []ingredientNeed
	if err := db.Table("sale_lines").
		Select("recipe_lines.ingredient_id AS ingredient_id, SUM(recipe_lines.quantity * sale_lines.quantity) AS need").
		Joins("JOIN sales ON sales.id = sale_lines.sale_id AND sales.deleted_at IS NULL").
		Joins("JOIN recipe_lines ON recipe_lines.recipe_id = sale_lines.recipe_id AND recipe_lines.deleted_at IS NULL").
		Where("sale_lines.deleted_at IS NULL AND sales.status = ?", models.SaleStatusInProduction).
		Group("recipe_lines.ingredient_id").
		Scan(&needs).Error; err != nil {
		return nil, storageError("aggregate production need", err)
	}

	var openSales int64
	if err := db.Model(&models.Sale{}).
		Where("status = ?", models.SaleStatusInProduction).
		Count(&openSales).Error; err != nil {
		return nil, storageError("count open sales", err)
	}

	var ingredients []models.Ingredient
	if err := db.Order("name asc").Find(&ingredients).Error; err != nil {
		return nil, storageError("list ingredients", err)
	}

	need := make(map[uint]float64, len(needs))
	for _, n := range needs {
		need[n.IngredientID] = n.Need
	}
	positions := make([]costing.StockPosition, 0, len(ingredients))
	for _, ingredient := range ingredients {
		positions = append(positions, costing.StockPosition{
			IngredientID: ingredient.ID,
			Name:         ingredient.Name,
			Unit:         ingredient.UsageUnit,
			OnHand:       ingredient.OnHand,
			MinimumStock: ingredient.MinimumStock,
			UnitCost:     ingredient.UnitCost,
		})
	}

	report := &PurchaseReport{
		PurchasePlan: costing.PlanPurchases(positions, need),
		GeneratedAt:  s.opts.Now(),
		OpenSales:    openSales,
	}
	applog.Debug(ctx, "purchase plan computed", "ingredients", len(report.Lines), "short", len(report.Short()), "openSales", openSales)
	return report, nil
}
