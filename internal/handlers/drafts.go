package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"sagradodoce/internal/bakery"
	applog "sagradodoce/internal/log"
	"sagradodoce/models"
)

const (
	sessionSaleDraftKey   = "draft:sale"
	sessionRecipeDraftKey = "draft:recipe"
)

type draftLineRequest struct {
	ID       uint    `json:"id"`
	Quantity float64 `json:"quantity"`
}

type saleDraftHeaderRequest struct {
	Customer        string               `json:"customer"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	Paid            bool                 `json:"paid"`
	DeliveryType    models.DeliveryType  `json:"delivery_type"`
	DeliveryAddress string               `json:"delivery_address"`
	DeliveryDate    *time.Time           `json:"delivery_date,omitempty"`
}

type recipeDraftHeaderRequest struct {
	ID    uint            `json:"id,omitempty"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// loadDraft decodes the session's draft stored under key into dst. A missing
// draft leaves dst untouched.
func loadDraft(r *http.Request, key string, dst any) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	raw := sessionManager.GetString(r.Context(), key)
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), dst)
}

func storeDraft(r *http.Request, key string, draft any) error {
	if sessionManager == nil {
		return errors.New("session manager not configured")
	}
	encoded, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	sessionManager.Put(r.Context(), key, string(encoded))
	return nil
}

func clearDraft(r *http.Request, key string) {
	if sessionManager != nil {
		sessionManager.Remove(r.Context(), key)
	}
}

// SaleDraftResource keeps the sale being assembled at the counter in the session:
//
//	GET    /api/drafts/sale               current draft
//	PUT    /api/drafts/sale               customer, payment and delivery details
//	DELETE /api/drafts/sale               discard
//	POST   /api/drafts/sale/lines         add {"id": recipe, "quantity": n}
//	DELETE /api/drafts/sale/lines/{id}    remove a recipe
//	POST   /api/drafts/sale/finalize      record the sale and discard the draft
func SaleDraftResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var draft bakery.SaleDraft
	if err := loadDraft(r, sessionSaleDraftKey, &draft); err != nil {
		applog.Error(ctx, "failed to load sale draft", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load sale draft")
		return
	}

	segments := resourcePath(r, "/api/drafts/sale")
	switch {
	case len(segments) == 0:
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, draft)
			return
		case http.MethodPut:
			var payload saleDraftHeaderRequest
			if !decodeJSON(w, r, &payload) {
				return
			}
			draft.Customer = payload.Customer
			draft.PaymentMethod = payload.PaymentMethod
			draft.Paid = payload.Paid
			draft.DeliveryType = payload.DeliveryType
			draft.DeliveryAddress = payload.DeliveryAddress
			draft.DeliveryDate = payload.DeliveryDate
		case http.MethodDelete:
			clearDraft(r, sessionSaleDraftKey)
			w.WriteHeader(http.StatusNoContent)
			return
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	case segments[0] == "lines" && len(segments) == 1 && r.Method == http.MethodPost:
		var payload draftLineRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		if err := draft.Add(payload.ID, payload.Quantity); err != nil {
			writeServiceError(w, r, "add sale draft line", err)
			return
		}
	case segments[0] == "lines" && len(segments) == 2 && r.Method == http.MethodDelete:
		id, ok := parseID(segments[1])
		if !ok {
			http.NotFound(w, r)
			return
		}
		draft.Remove(id)
	case segments[0] == "finalize" && len(segments) == 1 && r.Method == http.MethodPost:
		if !requireService(w, r) {
			return
		}
		if finalizeSale(w, r, draft.Order()) {
			clearDraft(r, sessionSaleDraftKey)
		}
		return
	default:
		applog.Debug(ctx, "unsupported sale draft request", "method", r.Method, "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	if err := storeDraft(r, sessionSaleDraftKey, draft); err != nil {
		applog.Error(ctx, "failed to store sale draft", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to store sale draft")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// RecipeDraftResource mirrors SaleDraftResource for a recipe being composed;
// POST /api/drafts/recipe/save persists it through SaveRecipe.
func RecipeDraftResource(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var draft bakery.RecipeDraft
	if err := loadDraft(r, sessionRecipeDraftKey, &draft); err != nil {
		applog.Error(ctx, "failed to load recipe draft", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load recipe draft")
		return
	}

	segments := resourcePath(r, "/api/drafts/recipe")
	switch {
	case len(segments) == 0:
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, draft)
			return
		case http.MethodPut:
			var payload recipeDraftHeaderRequest
			if !decodeJSON(w, r, &payload) {
				return
			}
			draft.ID = payload.ID
			draft.Name = payload.Name
			draft.Price = payload.Price
		case http.MethodDelete:
			clearDraft(r, sessionRecipeDraftKey)
			w.WriteHeader(http.StatusNoContent)
			return
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
	case segments[0] == "lines" && len(segments) == 1 && r.Method == http.MethodPost:
		var payload draftLineRequest
		if !decodeJSON(w, r, &payload) {
			return
		}
		if err := draft.Add(payload.ID, payload.Quantity); err != nil {
			writeServiceError(w, r, "add recipe draft line", err)
			return
		}
	case segments[0] == "lines" && len(segments) == 2 && r.Method == http.MethodDelete:
		id, ok := parseID(segments[1])
		if !ok {
			http.NotFound(w, r)
			return
		}
		draft.Remove(id)
	case segments[0] == "save" && len(segments) == 1 && r.Method == http.MethodPost:
		if !requireService(w, r) {
			return
		}
		recipe, err := service.SaveRecipe(ctx, draft.Spec())
		if err != nil {
			writeServiceError(w, r, "save recipe", err)
			return
		}
		clearDraft(r, sessionRecipeDraftKey)
		status := http.StatusCreated
		if draft.ID != 0 {
			status = http.StatusOK
		}
		writeJSON(w, status, recipe)
		return
	default:
		applog.Debug(ctx, "unsupported recipe draft request", "method", r.Method, "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	if err := storeDraft(r, sessionRecipeDraftKey, draft); err != nil {
		applog.Error(ctx, "failed to store recipe draft", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to store recipe draft")
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
