package costing

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// UnitCostPlaces is the precision kept for per-base-unit costs. It matches the
	// numeric(24,12) unit cost columns so bulk packages priced per mL or g keep a
	// non-zero cost.
	UnitCostPlaces = 12
	// MoneyPlaces is the precision kept for line costs, totals and cash amounts.
	MoneyPlaces = 4
)

// UnitCost derives the cost of one usage unit from a package's cost and its
// normalized quantity.
func UnitCost(packageCost decimal.Decimal, normalizedQty float64) (decimal.Decimal, error) {
	if packageCost.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: package cost must not be negative", ErrInvalidInput)
	}
	if err := checkPositive("normalized package quantity", normalizedQty); err != nil {
		return decimal.Zero, err
	}
	return packageCost.Div(decimal.NewFromFloat(normalizedQty)).Round(UnitCostPlaces), nil
}

// LineInput is one requested ingredient usage within a recipe.
type LineInput struct {
	IngredientID uint    `json:"ingredient_id"`
	Quantity     float64 `json:"quantity"`
}

// CostedLine is a recipe line priced at save time.
type CostedLine struct {
	IngredientID uint
	Quantity     float64
	UnitCost     decimal.Decimal
	LineCost     decimal.Decimal
}

// RecipeCost is the snapshot stored alongside a recipe.
type RecipeCost struct {
	Lines []CostedLine
	Total decimal.Decimal
}

// MergeLines folds repeated ingredients into a single line by summing their
// quantities. The first occurrence decides the line order.
func MergeLines(lines []LineInput) []LineInput {
	merged := make([]LineInput, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if pos, ok := index[line.IngredientID]; ok {
			merged[pos].Quantity += line.Quantity
			continue
		}
		index[line.IngredientID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// LineCost prices a quantity of usage units at the given unit cost.
func LineCost(qty float64, unitCost decimal.Decimal) decimal.Decimal {
	return decimal.NewFromFloat(qty).Mul(unitCost).Round(MoneyPlaces)
}

// CostRecipe merges duplicate ingredients and prices every line with the unit costs
// supplied. Every ingredient referenced must have a unit cost.
func CostRecipe(lines []LineInput, unitCosts map[uint]decimal.Decimal) (RecipeCost, error) {
	if len(lines) == 0 {
		return RecipeCost{}, fmt.Errorf("%w: a recipe needs at least one ingredient", ErrInvalidInput)
	}
	for _, line := range lines {
		if line.IngredientID == 0 {
			return RecipeCost{}, fmt.Errorf("%w: ingredient_id is required", ErrInvalidInput)
		}
		if err := checkPositive("ingredient quantity", line.Quantity); err != nil {
			return RecipeCost{}, err
		}
	}

	merged := MergeLines(lines)
	result := RecipeCost{Lines: make([]CostedLine, 0, len(merged)), Total: decimal.Zero}
	for _, line := range merged {
		unitCost, ok := unitCosts[line.IngredientID]
		if !ok {
			return RecipeCost{}, fmt.Errorf("%w: no unit cost for ingredient %d", ErrInvalidInput, line.IngredientID)
		}
		cost := LineCost(line.Quantity, unitCost)
		result.Lines = append(result.Lines, CostedLine{
			IngredientID: line.IngredientID,
			Quantity:     line.Quantity,
			UnitCost:     unitCost,
			LineCost:     cost,
		})
		result.Total = result.Total.Add(cost)
	}
	return result, nil
}
