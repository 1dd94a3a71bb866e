package costing

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// shortfallEpsilon absorbs float residue so a fully covered requirement reports zero.
const shortfallEpsilon = 1e-9

// StockPosition is the planner's view of a single ingredient.
type StockPosition struct {
	IngredientID uint
	Name         string
	Unit         string
	OnHand       float64
	MinimumStock float64
	UnitCost     decimal.Decimal
}

// PlanLine is the purchase requirement for one ingredient.
type PlanLine struct {
	IngredientID          uint            `json:"ingredient_id"`
	Name                  string          `json:"name"`
	Unit                  string          `json:"unit"`
	ProductionNeed        float64         `json:"production_need"`
	MinimumStock          float64         `json:"minimum_stock"`
	TotalRequired         float64         `json:"total_required"`
	OnHand                float64         `json:"on_hand"`
	Shortfall             float64         `json:"shortfall"`
	UnitCost              decimal.Decimal `json:"unit_cost"`
	EstimatedPurchaseCost decimal.Decimal `json:"estimated_purchase_cost"`
}

// PurchasePlan aggregates requirements across every ingredient.
type PurchasePlan struct {
	Lines              []PlanLine      `json:"lines"`
	TotalEstimatedCost decimal.Decimal `json:"total_estimated_cost"`
}

// Short returns the lines that need purchasing.
func (p PurchasePlan) Short() []PlanLine {
	out := make([]PlanLine, 0, len(p.Lines))
	for _, line := range p.Lines {
		if line.Shortfall > 0 {
			out = append(out, line)
		}
	}
	return out
}

// PlanPurchases computes the net shortfall per ingredient from open production
// need (keyed by ingredient ID) plus each ingredient's minimum stock target.
func PlanPurchases(positions []StockPosition, need map[uint]float64) PurchasePlan {
	plan := PurchasePlan{Lines: make([]PlanLine, 0, len(positions)), TotalEstimatedCost: decimal.Zero}
	for _, pos := range positions {
		production := need[pos.IngredientID]
		required := production + pos.MinimumStock
		shortfall := required - pos.OnHand
		if shortfall < shortfallEpsilon {
			shortfall = 0
		}

		cost := decimal.Zero
		if shortfall > 0 {
			cost = LineCost(shortfall, pos.UnitCost)
		}

		plan.Lines = append(plan.Lines, PlanLine{
			IngredientID:          pos.IngredientID,
			Name:                  pos.Name,
			Unit:                  pos.Unit,
			ProductionNeed:        production,
			MinimumStock:          pos.MinimumStock,
			TotalRequired:         required,
			OnHand:                pos.OnHand,
			Shortfall:             shortfall,
			UnitCost:              pos.UnitCost,
			EstimatedPurchaseCost: cost,
		})
		plan.TotalEstimatedCost = plan.TotalEstimatedCost.Add(cost)
	}

	sort.SliceStable(plan.Lines, func(i, j int) bool {
		return strings.ToLower(plan.Lines[i].Name) < strings.ToLower(plan.Lines[j].Name)
	})
	return plan
}
