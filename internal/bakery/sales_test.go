package bakery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sagradodoce/internal/costing"
	"sagradodoce/models"
)

func TestFinalizeSaleDepletesRecipeIngredients(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, Options{NewReference: func() string { return "SALE-1" }})
	sugar, cake := sugarAndCake(t, s)
	cocoa := mustIngredient(t, s, IngredientSpec{Name: "Cocoa", PurchaseUnit: "g", PackageQuantity: 200, PackageCost: decimal.NewFromInt(12), InitialStock: 400})

	result, err := s.FinalizeSale(ctx, SaleOrder{
		Customer:      "Marta",
		Lines:         []OrderLine{{RecipeID: cake.ID, Quantity: 2}},
		PaymentMethod: models.PaymentPix,
	})
	if err != nil {
		t.Fatalf("finalize sale: %v", err)
	}

	sale := result.Sale
	if sale.Reference != "SALE-1" {
		t.Fatalf("expected generated reference, got %q", sale.Reference)
	}
	if !sale.Total.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("expected total 40, got %s", sale.Total)
	}
	if sale.Status != models.SaleStatusInProduction || sale.PaymentStatus != models.PaymentPending {
		t.Fatalf("unexpected initial state %s/%s", sale.Status, sale.PaymentStatus)
	}
	if sale.Channel != models.ChannelCounter || sale.DeliveryType != models.DeliveryPickup {
		t.Fatalf("unexpected channel %s or delivery %s", sale.Channel, sale.DeliveryType)
	}
	if sale.ItemSummary != "2x Cake" {
		t.Fatalf("unexpected item summary %q", sale.ItemSummary)
	}
	if len(result.Shortages) != 0 {
		t.Fatalf("expected no shortages, got %+v", result.Shortages)
	}

	if got := onHand(t, s, sugar.ID); got != 0 {
		t.Fatalf("expected sugar depleted by 1000 to 0, got %v", got)
	}
	if got := onHand(t, s, cocoa.ID); got != 400 {
		t.Fatalf("expected cocoa untouched, got %v", got)
	}

	movements, err := s.ListStockMovements(ctx, sugar.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected initial and sale movements, got %d", len(movements))
	}
	last := movements[0]
	if last.Kind != models.MovementSale || last.Delta != -1000 || last.PreviousOnHand != 1000 || last.NewOnHand != 0 || last.Reference != "SALE-1" {
		t.Fatalf("unexpected sale movement %+v", last)
	}

	if n := countRows(t, s, &models.CashEntry{}); n != 0 {
		t.Fatalf("unpaid sale must not book cash, found %d entries", n)
	}
}

func TestFinalizeSaleMergesLinesAndBooksCashWhenPaid(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, Options{})
	sugar, cake := sugarAndCake(t, s)
	delivery := testClock.Add(48 * time.Hour)

	result, err := s.FinalizeSale(ctx, SaleOrder{
		Customer:        "Joana",
		Lines:           []OrderLine{{RecipeID: cake.ID, Quantity: 1}, {RecipeID: cake.ID, Quantity: 0.5}},
		PaymentMethod:   models.PaymentCash,
		Paid:            true,
		DeliveryType:    models.DeliveryDelivery,
		DeliveryAddress: "Rua das Flores, 12",
		DeliveryDate:    &delivery,
	})
	if err != nil {
		t.Fatalf("finalize sale: %v", err)
	}

	if len(result.Sale.Lines) != 1 || result.Sale.Lines[0].Quantity != 1.5 {
		t.Fatalf("expected one merged line of 1.5, got %+v", result.Sale.Lines)
	}
	if !result.Sale.Total.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected total 30, got %s", result.Sale.Total)
	}
	if got := onHand(t, s, sugar.ID); got != 250 {
		t.Fatalf("expected 250 g sugar left, got %v", got)
	}

	entries, err := s.ListCashEntries(ctx, CashRange{})
	if err != nil {
		t.Fatalf("list cash: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one cash entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Direction != models.CashIn || !entry.Amount.Equal(decimal.NewFromInt(30)) || entry.Description != "Sale Joana" {
		t.Fatalf("unexpected cash entry %+v", entry)
	}
	if entry.SaleID == nil || *entry.SaleID != result.Sale.ID {
		t.Fatalf("expected cash entry linked to sale %d", result.Sale.ID)
	}
}

func TestFinalizeSaleReportsShortages(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, Options{})
	sugar, cake := sugarAndCake(t, s)

	result, err := s.FinalizeSale(ctx, SaleOrder{Lines: []OrderLine{{RecipeID: cake.ID, Quantity: 3}}, PaymentMethod: models.PaymentCard})
	if err != nil {
		t.Fatalf("finalize sale: %v", err)
	}
	if len(result.Shortages) != 1 {
		t.Fatalf("expected one shortage, got %+v", result.Shortages)
	}
	shortage := result.Shortages[0]
	if shortage.IngredientID != sugar.ID || shortage.OnHand != -500 || shortage.Unit != "g" {
		t.Fatalf("unexpected shortage %+v", shortage)
	}
	if got := onHand(t, s, sugar.ID); got != -500 {
		t.Fatalf("expected negative stock to persist, got %v", got)
	}
}

func TestFinalizeSaleRollsBackWhenNegativeStockRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, Options{RejectNegativeStock: true})
	sugar, cake := sugarAndCake(t, s)
	flour := mustIngredient(t, s, IngredientSpec{Name: "Flour", PurchaseUnit: "kg", PackageQuantity: 1, PackageCost: decimal.NewFromInt(5), InitialStock: 5000})
	pie := mustRecipe(t, s, RecipeSpec{Name: "Pie", Price: decimal.NewFromInt(15), Lines: []costing.LineInput{{IngredientID: flour.ID, Quantity: 300}}})

	_, err := s.FinalizeSale(ctx, SaleOrder{
		Lines:         []OrderLine{{RecipeID: pie.ID, Quantity: 1}, {RecipeID: cake.ID, Quantity: 3}},
		PaymentMethod: models.PaymentPix,
		Paid:          true,
	})
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	if got := onHand(t, s, sugar.ID); got != 1000 {
		t.Fatalf("sugar must be restored, got %v", got)
	}
	if got := onHand(t, s, flour.ID); got != 5000 {
		t.Fatalf("flour must be restored, got %v", got)
	}
	for _, model := range []any{&models.Sale{}, &models.SaleLine{}, &models.CashEntry{}} {
		if n := countRows(t, s, model); n != 0 {
			t.Fatalf("expected no %T rows after rollback, found %d", model, n)
		}
	}
	if n := countRows(t, s, &models.StockMovement{}); n != 2 {
		t.Fatalf("expected only the two initial movements, found %d", n)
	}
}

func TestFinalizeSaleRollsBackOnUnknownRecipe(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, Options{})
	sugar, cake := sugarAndCake(t, s)

	_, err := s.FinalizeSale(ctx, SaleOrder{
		Lines:         []OrderLine{{RecipeID: cake.ID, Quantity: 1}, {RecipeID: 404, Quantity: 1}},
		PaymentMethod: models.PaymentPix,
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := onHand(t, s, sugar.ID); got != 1000 {
		t.Fatalf("expected untouched stock, got %v", got)
	}
	if n := countRows(t, s, &models.Sale{}); n != 0 {
		t.Fatalf("expected no sale, found %d", n)
	}
}

func TestFinalizeSaleValidatesOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		order SaleOrder
	}{
		{name: "no lines", order: SaleOrder{PaymentMethod: models.PaymentPix}},
		{name: "zero quantity", order: SaleOrder{Lines: []OrderLine{{RecipeID: 1, Quantity: 0}}, PaymentMethod: models.PaymentPix}},
		{name: "missing recipe", order: SaleOrder{Lines: []OrderLine{{Quantity: 1}}, PaymentMethod: models.PaymentPix}},
		{name: "unknown payment", order: SaleOrder{Lines: []OrderLine{{RecipeID: 1, Quantity: 1}}, PaymentMethod: "barter"}},
		{name: "delivery without address", order: SaleOrder{Lines: []OrderLine{{RecipeID: 1, Quantity: 1}}, PaymentMethod: models.PaymentPix, DeliveryType: models.DeliveryDelivery}},
		{name: "unknown delivery type", order: SaleOrder{Lines: []OrderLine{{RecipeID: 1, Quantity: 1}}, PaymentMethod: models.PaymentPix, DeliveryType: "drone"}},
	}

	s := newTestService(t, Options{})
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.FinalizeSale(context.Background(), tt.order); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestSaleStatusTransitions(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, Options{})
	_, cake := sugarAndCake(t, s)

	result, err := s.FinalizeSale(ctx, SaleOrder{Customer: "Rita", Lines: []OrderLine{{RecipeID: cake.ID, Quantity: 1}}, PaymentMethod: models.PaymentTransfer})
	if err != nil {
		t.Fatalf("finalize sale: %v", err)
	}
	id := result.Sale.ID

	completed, err := s.CompleteSale(ctx, id)
	if err != nil {
		t.Fatalf("complete sale: %v", err)
	}
	if completed.Status != models.SaleStatusCompleted {
		t.Fatalf("expected completed, got %s", completed.Status)
	}
	if _, err := s.CompleteSale(ctx, id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second completion, got %v", err)
	}

	paid, err := s.MarkSalePaid(ctx, id)
	if err != nil {
		t.Fatalf("mark paid: %v", err)
	}
	if paid.PaymentStatus != models.PaymentPaid {
		t.Fatalf("expected paid, got %s", paid.PaymentStatus)
	}
	if _, err := s.MarkSalePaid(ctx, id); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on second payment, got %v", err)
	}

	summary, err := s.CashSummary(ctx, CashRange{})
	if err != nil {
		t.Fatalf("cash summary: %v", err)
	}
	if !summary.Inflow.Equal(decimal.NewFromInt(20)) || summary.Entries != 1 {
		t.Fatalf("expected a single 20.00 inflow, got %+v", summary)
	}

	if _, err := s.CompleteSale(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListSalesFiltersByStatus(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestService(t, Options{})
	_, cake := sugarAndCake(t, s)

	first, err := s.FinalizeSale(ctx, SaleOrder{Lines: []OrderLine{{RecipeID: cake.ID, Quantity: 1}}, PaymentMethod: models.PaymentPix})
	if err != nil {
		t.Fatalf("finalize first sale: %v", err)
	}
	if _, err := s.FinalizeSale(ctx, SaleOrder{Lines: []OrderLine{{RecipeID: cake.ID, Quantity: 1}}, PaymentMethod: models.PaymentPix, Paid: true}); err != nil {
		t.Fatalf("finalize second sale: %v", err)
	}
	if _, err := s.CompleteSale(ctx, first.Sale.ID); err != nil {
		t.Fatalf("complete sale: %v", err)
	}

	all, err := s.ListSales(ctx, SaleFilter{})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(all) != 2 || all[0].ID == first.Sale.ID {
		t.Fatalf("expected two sales newest first, got %+v", all)
	}

	open, err := s.ListSales(ctx, SaleFilter{Status: models.SaleStatusInProduction})
	if err != nil {
		t.Fatalf("list open sales: %v", err)
	}
	if len(open) != 1 || open[0].PaymentStatus != models.PaymentPaid {
		t.Fatalf("expected the paid open sale only, got %+v", open)
	}
	if len(open[0].Lines) != 1 {
		t.Fatalf("expected lines preloaded, got %+v", open[0].Lines)
	}
}

func TestSaleDraftBuildsOrder(t *testing.T) {
	t.Parallel()

	var draft SaleDraft
	if err := draft.Add(1, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := draft.Add(2, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := draft.Add(1, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := draft.Add(3, 0); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected zero quantity to be rejected, got %v", err)
	}
	if len(draft.Lines) != 2 || draft.Lines[0].Quantity != 3 {
		t.Fatalf("expected merged lines, got %+v", draft.Lines)
	}

	draft.Remove(2)
	order := draft.Order()
	if len(order.Lines) != 1 || order.Lines[0].RecipeID != 1 {
		t.Fatalf("unexpected order lines %+v", order.Lines)
	}

	draft.Remove(1)
	if !draft.Empty() {
		t.Fatal("expected empty draft")
	}
	if len(order.Lines) != 1 {
		t.Fatal("order must not share lines with the draft")
	}
}

func TestRecipeDraftBuildsSpec(t *testing.T) {
	t.Parallel()

	draft := RecipeDraft{Name: "Brigadeiro", Price: decimal.RequireFromString("2.5")}
	if err := draft.Add(7, 20); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := draft.Add(7, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := draft.Add(0, 5); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected missing ingredient to be rejected, got %v", err)
	}

	spec := draft.Spec()
	if spec.Name != "Brigadeiro" || len(spec.Lines) != 1 || spec.Lines[0].Quantity != 25 {
		t.Fatalf("unexpected spec %+v", spec)
	}
	draft.Remove(7)
	if len(draft.Lines) != 0 || len(spec.Lines) != 1 {
		t.Fatal("expected draft cleared without touching the spec")
	}
}
