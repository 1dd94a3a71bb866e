package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"sagradodoce/internal/bakery"
	"sagradodoce/internal/costing"
	applog "sagradodoce/internal/log"
)

type recipeRequest struct {
	Name  string              `json:"name"`
	Price decimal.Decimal     `json:"price"`
	Lines []costing.LineInput `json:"lines"`
}

// RecipeResource serves /api/recipes.
func RecipeResource(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}

	segments := resourcePath(r, "/api/recipes")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			recipes, err := service.ListRecipes(r.Context())
			if err != nil {
				writeServiceError(w, r, "list recipes", err)
				return
			}
			writeJSON(w, http.StatusOK, recipes)
		case http.MethodPost:
			saveRecipe(w, r, 0)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok || len(segments) > 1 {
		applog.Debug(r.Context(), "invalid recipe path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		recipe, err := service.GetRecipe(r.Context(), id)
		if err != nil {
			writeServiceError(w, r, "load recipe", err)
			return
		}
		writeJSON(w, http.StatusOK, recipe)
	case http.MethodPut:
		saveRecipe(w, r, id)
	case http.MethodDelete:
		if err := service.DeleteRecipe(r.Context(), id); err != nil {
			writeServiceError(w, r, "delete recipe", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func saveRecipe(w http.ResponseWriter, r *http.Request, id uint) {
	var payload recipeRequest
	if !decodeJSON(w, r, &payload) {
		return
	}

	recipe, err := service.SaveRecipe(r.Context(), bakery.RecipeSpec{
		ID:    id,
		Name:  payload.Name,
		Price: payload.Price,
		Lines: payload.Lines,
	})
	if err != nil {
		writeServiceError(w, r, "save recipe", err)
		return
	}

	status := http.StatusOK
	if id == 0 {
		status = http.StatusCreated
	}
	writeJSON(w, status, recipe)
}
