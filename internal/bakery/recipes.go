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

// RecipeSpec is the full definition of a recipe. Saving replaces every line.
type RecipeSpec struct {
	ID    uint
	Name  string
	Price decimal.Decimal
	Lines []costing.LineInput
}

// SaveRecipe prices every line at the ingredients' current unit costs and stores the
// lines together with the total cost snapshot. Repeated ingredients are merged.
func (s *Service) SaveRecipe(ctx context.Context, spec RecipeSpec) (*models.Recipe, error) {
	name, err := requireName("name", spec.Name)
	if err != nil {
		return nil, err
	}
	if spec.Price.IsNegative() {
		return nil, invalid("price must not be negative")
	}
	if len(spec.Lines) == 0 {
		return nil, invalid("a recipe needs at least one ingredient")
	}

	var recipeID uint
	err = s.transact(ctx, "save recipe", func(tx *gorm.DB) error {
		var clash int64
		if err := tx.Model(&models.Recipe{}).
			Where("lower(name) = ? AND id <> ?", strings.ToLower(name), spec.ID).
			Count(&clash).Error; err != nil {
			return err
		}
		if clash > 0 {
			return invalid("a recipe named %q already exists", name)
		}

		unitCosts, err := currentUnitCosts(tx, spec.Lines)
		if err != nil {
			return err
		}
		cost, err := costing.CostRecipe(spec.Lines, unitCosts)
		if err != nil {
			return err
		}

		recipe := models.Recipe{Name: name, Price: spec.Price, TotalCost: cost.Total}
		if spec.ID == 0 {
			if err := tx.Create(&recipe).Error; err != nil {
				return err
			}
		} else {
			if err := tx.First(&recipe, spec.ID).Error; err != nil {
				return lookupError("load recipe", "recipe", spec.ID, err)
			}
			if err := tx.Model(&recipe).Updates(map[string]any{
				"name":       name,
				"price":      spec.Price,
				"total_cost": cost.Total,
			}).Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeLine{}).Error; err != nil {
				return err
			}
		}

		lines := make([]models.RecipeLine, 0, len(cost.Lines))
		for _, line := range cost.Lines {
			lines = append(lines, models.RecipeLine{
				RecipeID:     recipe.ID,
				IngredientID: line.IngredientID,
				Quantity:     line.Quantity,
				UnitCost:     line.UnitCost,
				LineCost:     line.LineCost,
			})
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}

		recipeID = recipe.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	saved, err := s.GetRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	applog.Debug(ctx, "recipe saved", "id", saved.ID, "totalCost", saved.TotalCost.String(), "lines", len(saved.Lines))
	return saved, nil
}

func currentUnitCosts(tx *gorm.DB, lines []costing.LineInput) (map[uint]decimal.Decimal, error) {
	ids := make([]uint, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.IngredientID)
	}

	var ingredients []models.Ingredient
	if err := tx.Where("id IN ?", ids).Find(&ingredients).Error; err != nil {
		return nil, err
	}

	costs := make(map[uint]decimal.Decimal, len(ingredients))
	for _, ingredient := range ingredients {
		costs[ingredient.ID] = ingredient.UnitCost
	}
	for _, id := range ids {
		if id == 0 {
			return nil, invalid("ingredient_id is required")
		}
		if _, ok := costs[id]; !ok {
			return nil, notFound("ingredient", id)
		}
	}
	return costs, nil
}

// GetRecipe loads a recipe with its lines and their ingredients.
func (s *Service) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Lines.Ingredient").
		First(&recipe, id).Error; err != nil {
		return nil, lookupError("load recipe", "recipe", id, err)
	}
	return &recipe, nil
}

// ListRecipes returns every recipe with its lines, ordered by name.
func (s *Service) ListRecipes(ctx context.Context) ([]models.Recipe, error) {
	var recipes []models.Recipe
	if err := s.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Lines.Ingredient").
		Order("name asc").
		Find(&recipes).Error; err != nil {
		return nil, storageError("list recipes", err)
	}
	return recipes, nil
}

// DeleteRecipe removes a recipe that has never been sold or consigned.
func (s *Service) DeleteRecipe(ctx context.Context, id uint) error {
	return s.transact(ctx, "delete recipe", func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, id).Error; err != nil {
			return lookupError("load recipe", "recipe", id, err)
		}

		var sold int64
		if err := tx.Model(&models.SaleLine{}).Where("recipe_id = ?", id).Count(&sold).Error; err != nil {
			return err
		}
		if sold > 0 {
			return referenced("recipe %q appears on %d sale line(s)", recipe.Name, sold)
		}

		var consigned int64
		if err := tx.Model(&models.Consignment{}).Where("recipe_id = ?", id).Count(&consigned).Error; err != nil {
			return err
		}
		if consigned > 0 {
			return referenced("recipe %q has %d consignment(s)", recipe.Name, consigned)
		}

		if err := tx.Unscoped().Where("recipe_id = ?", id).Delete(&models.RecipeLine{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&recipe).Error
	})
}
