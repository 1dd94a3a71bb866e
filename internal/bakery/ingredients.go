package bakery

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"sagradodoce/internal/costing"
	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

// IngredientSpec is the registration or edit form for an ingredient. MinimumStock
// and InitialStock are expressed in the usage unit; InitialStock only applies when
// the ingredient is created.
type IngredientSpec struct {
	ID              uint
	Name            string
	PurchaseUnit    string
	PackageQuantity float64
	PackageCost     decimal.Decimal
	MinimumStock    float64
	InitialStock    float64
}

// SaveIngredient validates the spec, normalizes the package into usage units and
// stores the recomputed unit cost. Recipe cost snapshots are left untouched.
func (s *Service) SaveIngredient(ctx context.Context, spec IngredientSpec) (*models.Ingredient, error) {
	name, err := requireName("name", spec.Name)
	if err != nil {
		return nil, err
	}
	unit, err := costing.ParseUnit(spec.PurchaseUnit)
	if err != nil {
		return nil, err
	}
	normalized, err := costing.Normalize(unit, spec.PackageQuantity)
	if err != nil {
		return nil, err
	}
	unitCost, err := costing.UnitCost(spec.PackageCost, normalized.Value)
	if err != nil {
		return nil, err
	}
	if err := requireNonNegative("minimum_stock", spec.MinimumStock); err != nil {
		return nil, err
	}
	if err := requireNonNegative("initial_stock", spec.InitialStock); err != nil {
		return nil, err
	}

	var saved models.Ingredient
	err = s.transact(ctx, "save ingredient", func(tx *gorm.DB) error {
		var clash int64
		if err := tx.Model(&models.Ingredient{}).
			Where("lower(name) = ? AND id <> ?", strings.ToLower(name), spec.ID).
			Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return invalid("an ingredient named %q already exists", name)
		}

		if spec.ID == 0 {
			saved = models.Ingredient{
				Name:                      name,
				PurchaseUnit:              string(unit),
				UsageUnit:                 string(normalized.Unit),
				PackageQuantity:           spec.PackageQuantity,
				NormalizedPackageQuantity: normalized.Value,
				PackageCost:               spec.PackageCost,
				UnitCost:                  unitCost,
				OnHand:                    spec.InitialStock,
				MinimumStock:              spec.MinimumStock,
			}
			if err := tx.Create(&saved).Error; err != nil {
				return err
			}
			if spec.InitialStock > 0 {
				return tx.Create(&models.StockMovement{
					IngredientID: saved.ID,
					Kind:         models.MovementInitial,
					Delta:        spec.InitialStock,
					NewOnHand:    spec.InitialStock,
					Reason:       "initial stock",
				}).Error
			}
			return nil
		}

		if err := tx.First(&saved, spec.ID).Error; err != nil {
			return lookupError("load ingredient", "ingredient", spec.ID, err)
		}
		if saved.UsageUnit != string(normalized.Unit) {
			if err := ensureUnitChangeable(tx, &saved, normalized.Unit); err != nil {
				return err
			}
		}
		updates := map[string]any{
			"name":                        name,
			"purchase_unit":               string(unit),
			"usage_unit":                  string(normalized.Unit),
			"package_quantity":            spec.PackageQuantity,
			"normalized_package_quantity": normalized.Value,
			"package_cost":                spec.PackageCost,
			"unit_cost":                   unitCost,
			"minimum_stock":               spec.MinimumStock,
		}
		if err := tx.Model(&saved).Updates(updates).Error; err != nil {
			return err
		}
		return tx.First(&saved, spec.ID).Error
	})
	if err != nil {
		return nil, err
	}

	applog.Debug(ctx, "ingredient saved", "id", saved.ID, "unitCost", saved.UnitCost.String(), "usageUnit", saved.UsageUnit)
	return &saved, nil
}

// ensureUnitChangeable refuses to move an ingredient to another usage unit once
// quantities have been recorded in the old one: stock, movements and recipe lines
// would otherwise be read in the wrong unit.
func ensureUnitChangeable(tx *gorm.DB, ingredient *models.Ingredient, to costing.Unit) error {
	if ingredient.OnHand != 0 {
		return invalid("ingredient %q holds stock in %s and cannot switch to %s", ingredient.Name, ingredient.UsageUnit, to)
	}
	var movements int64
	if err := tx.Model(&models.StockMovement{}).Where("ingredient_id = ?", ingredient.ID).Count(&movements).Error; err != nil {
		return err
	}
	if movements > 0 {
		return invalid("ingredient %q has stock history in %s and cannot switch to %s", ingredient.Name, ingredient.UsageUnit, to)
	}
	var lines int64
	if err := tx.Model(&models.RecipeLine{}).Where("ingredient_id = ?", ingredient.ID).Count(&lines).Error; err != nil {
		return err
	}
	if lines > 0 {
		return invalid("ingredient %q is used by %d recipe line(s) in %s and cannot switch to %s", ingredient.Name, lines, ingredient.UsageUnit, to)
	}
	return nil
}

// GetIngredient loads one ingredient.
func (s *Service) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		return nil, lookupError("load ingredient", "ingredient", id, err)
	}
	return &ingredient, nil
}

// ListIngredients returns every ingredient ordered by name. When belowMinimum is
// set only ingredients under their minimum stock are returned.
func (s *Service) ListIngredients(ctx context.Context, belowMinimum bool) ([]models.Ingredient, error) {
	query := s.db.WithContext(ctx).Order("name asc")
	if belowMinimum {
		query = query.Where("on_hand < minimum_stock")
	}
	var ingredients []models.Ingredient
	if err := query.Find(&ingredients).Error; err != nil {
		return nil, storageError("list ingredients", err)
	}
	return ingredients, nil
}

// DeleteIngredient removes an ingredient that no recipe uses, along with its stock history.
func (s *Service) DeleteIngredient(ctx context.Context, id uint) error {
	return s.transact(ctx, "delete ingredient", func(tx *gorm.DB) error {
		var ingredient models.Ingredient
		if err := tx.First(&ingredient, id).Error; err != nil {
			return lookupError("load ingredient", "ingredient", id, err)
		}

		var uses int64
		if err := tx.Model(&models.RecipeLine{}).Where("ingredient_id = ?", id).Count(&uses).Error; err != nil {
			return err
		}
		if uses > 0 {
			return referenced("ingredient %q is used by %d recipe line(s)", ingredient.Name, uses)
		}

		if err := tx.Unscoped().Where("ingredient_id = ?", id).Delete(&models.StockMovement{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&ingredient).Error
	})
}
