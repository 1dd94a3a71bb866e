package bakery

import (
	"time"

	"github.com/shopspring/decimal"

	"sagradodoce/internal/costing"
	"sagradodoce/models"
)

// OrderLine is a requested quantity of one recipe.
type OrderLine struct {
	RecipeID uint    `json:"recipe_id"`
	Quantity float64 `json:"quantity"`
}

func mergeOrderLines(lines []OrderLine) []OrderLine {
	merged := make([]OrderLine, 0, len(lines))
	index := make(map[uint]int, len(lines))
	for _, line := range lines {
		if pos, ok := index[line.RecipeID]; ok {
			merged[pos].Quantity += line.Quantity
			continue
		}
		index[line.RecipeID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// SaleDraft accumulates a sale before it is finalized. It is owned by the caller
// (the HTTP layer keeps one per session) and nothing is persisted until
// FinalizeSale receives its Order.
type SaleDraft struct {
	Customer        string               `json:"customer"`
	Lines           []OrderLine          `json:"lines"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	Paid            bool                 `json:"paid"`
	DeliveryType    models.DeliveryType  `json:"delivery_type"`
	DeliveryAddress string               `json:"delivery_address"`
	DeliveryDate    *time.Time           `json:"delivery_date,omitempty"`
}

// Add appends qty units of a recipe, merging with an existing line for it.
func (d *SaleDraft) Add(recipeID uint, qty float64) error {
	if recipeID == 0 {
		return invalid("recipe_id is required")
	}
	if err := requirePositive("quantity", qty); err != nil {
		return err
	}
	d.Lines = mergeOrderLines(append(d.Lines, OrderLine{RecipeID: recipeID, Quantity: qty}))
	return nil
}

// Remove drops the line for a recipe, if any.
func (d *SaleDraft) Remove(recipeID uint) {
	kept := d.Lines[:0]
	for _, line := range d.Lines {
		if line.RecipeID != recipeID {
			kept = append(kept, line)
		}
	}
	d.Lines = kept
}

// Empty reports whether the draft has no lines.
func (d *SaleDraft) Empty() bool {
	return len(d.Lines) == 0
}

// Order converts the draft into the input of FinalizeSale.
func (d *SaleDraft) Order() SaleOrder {
	lines := make([]OrderLine, len(d.Lines))
	copy(lines, d.Lines)
	return SaleOrder{
		Customer:        d.Customer,
		Lines:           lines,
		PaymentMethod:   d.PaymentMethod,
		Paid:            d.Paid,
		DeliveryType:    d.DeliveryType,
		DeliveryAddress: d.DeliveryAddress,
		DeliveryDate:    d.DeliveryDate,
	}
}

// RecipeDraft accumulates ingredient lines while a recipe is being composed.
type RecipeDraft struct {
	ID    uint                `json:"id,omitempty"`
	Name  string              `json:"name"`
	Price decimal.Decimal     `json:"price"`
	Lines []costing.LineInput `json:"lines"`
}

// Add appends qty usage units of an ingredient, merging repeats.
func (d *RecipeDraft) Add(ingredientID uint, qty float64) error {
	if ingredientID == 0 {
		return invalid("ingredient_id is required")
	}
	if err := requirePositive("quantity", qty); err != nil {
		return err
	}
	d.Lines = costing.MergeLines(append(d.Lines, costing.LineInput{IngredientID: ingredientID, Quantity: qty}))
	return nil
}

// Remove drops the line for an ingredient, if any.
func (d *RecipeDraft) Remove(ingredientID uint) {
	kept := d.Lines[:0]
	for _, line := range d.Lines {
		if line.IngredientID != ingredientID {
			kept = append(kept, line)
		}
	}
	d.Lines = kept
}

// Spec converts the draft into the input of SaveRecipe.
func (d *RecipeDraft) Spec() RecipeSpec {
	lines := make([]costing.LineInput, len(d.Lines))
	copy(lines, d.Lines)
	return RecipeSpec{ID: d.ID, Name: d.Name, Price: d.Price, Lines: lines}
}
