package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"sagradodoce/internal/bakery"
	"sagradodoce/internal/costing"
)

// FormatQuantity renders a quantity using two decimal places and a trailing unit.
// Countable units are shown without decimals.
func FormatQuantity(value float64, unit string) string {
	if strings.EqualFold(unit, "unit") {
		return fmt.Sprintf("%.0f %s", value, unit)
	}
	return fmt.Sprintf("%.2f %s", value, unit)
}

// FormatMoney renders an amount with two decimal places.
func FormatMoney(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormatUnitCost renders a per-usage-unit cost with six decimal places, or with
// every stored digit when six would hide some of it.
func FormatUnitCost(amount decimal.Decimal) string {
	if amount.Round(displayUnitCostPlaces).Equal(amount) {
		return amount.StringFixed(displayUnitCostPlaces)
	}
	return amount.Round(costing.UnitCostPlaces).String()
}

const displayUnitCostPlaces = 6

// FormatDate renders the supplied time using a report-friendly layout.
func FormatDate(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006 15:04")
}

// FormatDay renders a cash range bound, which is always a calendar day.
func FormatDay(v time.Time) string {
	if v.IsZero() {
		return ""
	}
	return v.Format("02 Jan 2006")
}

// OpenOrders describes how many open sales fed the purchase plan.
func OpenOrders(n int64) string {
	if n == 1 {
		return "1 open order"
	}
	return fmt.Sprintf("%d open orders", n)
}

// LineState tags a plan line as "short" when something has to be bought.
func LineState(line costing.PlanLine) string {
	if line.Shortfall > 0 {
		return "short"
	}
	return "covered"
}

// CashPeriod describes the range a summary covers, or "" for the whole ledger.
func CashPeriod(summary *bakery.CashSummary) string {
	switch {
	case summary.From != nil && summary.To != nil:
		return fmt.Sprintf("From %s to %s", FormatDay(*summary.From), FormatDay(*summary.To))
	case summary.From != nil:
		return "Since " + FormatDay(*summary.From)
	case summary.To != nil:
		return "Until " + FormatDay(*summary.To)
	default:
		return ""
	}
}
