package server

import (
	"context"
	"net/http"

	"sagradodoce/internal/handlers"
	applog "sagradodoce/internal/log"
	"sagradodoce/internal/metrics"
)

type route struct {
	pattern   string
	handler   http.HandlerFunc
	protected bool
}

var routes = []route{
	{"/healthz", handlers.Health, false},
	{"/api/session", handlers.Session, false},
	{"/api/ingredients", handlers.IngredientResource, true},
	{"/api/ingredients/", handlers.IngredientResource, true},
	{"/api/recipes", handlers.RecipeResource, true},
	{"/api/recipes/", handlers.RecipeResource, true},
	{"/api/sales", handlers.SaleResource, true},
	{"/api/sales/", handlers.SaleResource, true},
	{"/api/drafts/sale", handlers.SaleDraftResource, true},
	{"/api/drafts/sale/", handlers.SaleDraftResource, true},
	{"/api/drafts/recipe", handlers.RecipeDraftResource, true},
	{"/api/drafts/recipe/", handlers.RecipeDraftResource, true},
	{"/api/purchase-plan", handlers.PurchasePlan, true},
	{"/api/sellers", handlers.SellerResource, true},
	{"/api/consignments", handlers.ConsignmentResource, true},
	{"/api/consignments/", handlers.ConsignmentResource, true},
	{"/api/cash", handlers.CashResource, true},
	{"/api/cash/summary", handlers.CashSummary, true},
}

func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")
	mux.Handle("/metrics", metrics.Handler())
	for _, rt := range routes {
		var h http.Handler = rt.handler
		if rt.protected {
			h = handlers.RequireAuthentication(h)
		}
		mux.Handle(rt.pattern, h)
		applog.Debug(context.Background(), "route registered", "path", rt.pattern, "protected", rt.protected)
	}
	return mux
}
