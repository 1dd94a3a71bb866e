package handlers

import (
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"sagradodoce/internal/bakery"
	applog "sagradodoce/internal/log"
)

type ingredientRequest struct {
	Name            string          `json:"name"`
	PurchaseUnit    string          `json:"purchase_unit"`
	PackageQuantity float64         `json:"package_quantity"`
	PackageCost     decimal.Decimal `json:"package_cost"`
	MinimumStock    float64         `json:"minimum_stock"`
	InitialStock    float64         `json:"initial_stock"`
}

type adjustRequest struct {
	Delta  float64 `json:"delta"`
	Reason string  `json:"reason"`
}

// IngredientResource serves /api/ingredients and its sub-resources.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}

	segments := resourcePath(r, "/api/ingredients")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			saveIngredient(w, r, 0)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		applog.Debug(r.Context(), "invalid ingredient path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	if len(segments) == 2 {
		switch {
		case segments[1] == "adjust" && r.Method == http.MethodPost:
			adjustStock(w, r, id)
		case segments[1] == "movements" && r.Method == http.MethodGet:
			listMovements(w, r, id)
		case segments[1] == "adjust" || segments[1] == "movements":
			w.WriteHeader(http.StatusMethodNotAllowed)
		default:
			http.NotFound(w, r)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		ingredient, err := service.GetIngredient(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, "load ingredient", err)
			return
		}
		writeJSON(w, http.StatusOK, ingredient)
	case http.MethodPut:
		saveIngredient(w, r, id)
	case http.MethodDelete:
		if err := service.DeleteIngredient(r.Context(), id); err != nil {
			writeServiceError(w, r, "delete ingredient", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	belowMinimum, _ := strconv.ParseBool(r.URL.Query().Get("below_minimum"))
	ingredients, err := service.ListIngredients(r.Context(), belowMinimum)
	if err != nil {
		writeServiceError(w, r, "list ingredients", err)
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func saveIngredient(w http.ResponseWriter, r *http.Request, id uint) {
	var payload ingredientRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	ingredient, err := service.SaveIngredient(r.Context(), bakery.IngredientSpec{
		ID:              id,
		Name:            payload.Name,
		PurchaseUnit:    payload.PurchaseUnit,
		PackageQuantity: payload.PackageQuantity,
		PackageCost:     payload.PackageCost,
		MinimumStock:    payload.MinimumStock,
		InitialStock:    payload.InitialStock,
	})
	if err != nil {
		writeServiceError(w, r, "save ingredient", err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, ingredient)
}

func adjustStock(w http.ResponseWriter, r *http.Request, id uint) {
	var payload adjustRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	ingredient, err := service.AdjustStock(r.Context(), id, payload.Delta, payload.Reason)
	if err != nil {
		writeServiceError(w, r, "adjust stock", err)
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func listMovements(w http.ResponseWriter, r *http.Request, id uint) {
	movements, err := service.ListStockMovements(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "list stock movements", err)
		return
	}
	writeJSON(w, http.StatusOK, movements)
}
