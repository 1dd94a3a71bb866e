package bakery

import (
	"context"
	"math"
	"sort"

	"gorm.io/gorm"

	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

// Shortage describes an ingredient whose on-hand quantity ended below zero.
type Shortage struct {
	IngredientID uint    `json:"ingredient_id"`
	Name         string  `json:"name"`
	Unit         string  `json:"unit"`
	OnHand       float64 `json:"on_hand"`
}

// AdjustStock adds delta (either sign) to an ingredient's on-hand quantity and
// records the movement. The result may be negative.
func (s *Service) AdjustStock(ctx context.Context, ingredientID uint, delta float64, reason string) (*models.Ingredient, error) {
	if ingredientID == 0 {
		return nil, invalid("ingredient_id is required")
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) || delta == 0 {
		return nil, invalid("delta must be a non-zero number")
	}

	var updated *models.Ingredient
	err := s.transact(ctx, "adjust stock", func(tx *gorm.DB) error {
		ingredient, err := applyStockDelta(tx, ingredientID, delta, models.MovementAdjustment, "", reason)
		if err != nil {
			return err
		}
		updated = ingredient
		return nil
	})
	if err != nil {
		return nil, err
	}

	applog.Info(ctx, "stock adjusted", "ingredient", updated.ID, "delta", delta, "onHand", updated.OnHand)
	return updated, nil
}

// ListStockMovements returns an ingredient's movement history, newest first.
func (s *Service) ListStockMovements(ctx context.Context, ingredientID uint) ([]models.StockMovement, error) {
	if _, err := s.GetIngredient(ctx, ingredientID); err != nil {
		return nil, err
	}
	var movements []models.StockMovement
	if err := s.db.WithContext(ctx).
		Where("ingredient_id = ?", ingredientID).
		Order("id desc").
		Find(&movements).Error; err != nil {
		return nil, storageError("list stock movements", err)
	}
	return movements, nil
}

// applyStockDelta changes on-hand stock inside tx and records the movement.
func applyStockDelta(tx *gorm.DB, ingredientID uint, delta float64, kind models.MovementKind, reference, reason string) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := tx.First(&ingredient, ingredientID).Error; err != nil {
		return nil, lookupError("load ingredient", "ingredient", ingredientID, err)
	}

	previous := ingredient.OnHand
	if err := tx.Model(&models.Ingredient{}).
		Where("id = ?", ingredientID).
		Update("on_hand", gorm.Expr("on_hand + ?", delta)).Error; err != nil {
		return nil, err
	}
	ingredient = models.Ingredient{}
	if err := tx.First(&ingredient, ingredientID).Error; err != nil {
		return nil, err
	}

	movement := models.StockMovement{
		IngredientID:   ingredientID,
		Kind:           kind,
		Delta:          delta,
		PreviousOnHand: previous,
		NewOnHand:      ingredient.OnHand,
		Reference:      reference,
		Reason:         reason,
	}
	if err := tx.Create(&movement).Error; err != nil {
		return nil, err
	}
	return &ingredient, nil
}

// depleteForRecipe consumes every ingredient of the recipe for qty units. The
// returned map holds the resulting on-hand quantity per ingredient touched.
func depleteForRecipe(tx *gorm.DB, recipe models.Recipe, qty float64, kind models.MovementKind, reference string) (map[uint]*models.Ingredient, error) {
	touched := make(map[uint]*models.Ingredient, len(recipe.Lines))
	for _, line := range recipe.Lines {
		ingredient, err := applyStockDelta(tx, line.IngredientID, -(line.Quantity * qty), kind, reference, recipe.Name)
		if err != nil {
			return nil, err
		}
		touched[line.IngredientID] = ingredient
	}
	return touched, nil
}

func shortagesOf(touched map[uint]*models.Ingredient) []Shortage {
	var shortages []Shortage
	for _, ingredient := range touched {
		if ingredient.OnHand < 0 {
			shortages = append(shortages, Shortage{
				IngredientID: ingredient.ID,
				Name:         ingredient.Name,
				Unit:         ingredient.UsageUnit,
				OnHand:       ingredient.OnHand,
			})
		}
	}
	sort.Slice(shortages, func(i, j int) bool {
		return shortages[i].Name < shortages[j].Name
	})
	return shortages
}
