package handlers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"sagradodoce/internal/bakery"
	applog "sagradodoce/internal/log"
	"sagradodoce/internal/metrics"
	"sagradodoce/models"
)

type consignmentRequest struct {
	SellerID  uint    `json:"seller_id"`
	RecipeID  uint    `json:"recipe_id"`
	Delivered float64 `json:"delivered"`
}

type settlementRequest struct {
	Quantity      float64              `json:"quantity"`
	Discount      decimal.Decimal      `json:"discount"`
	Collected     bool                 `json:"collected"`
	PaymentMethod models.PaymentMethod `json:"payment_method"`
}

// SellerResource serves /api/sellers.
func SellerResource(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}
	if len(resourcePath(r, "/api/sellers")) > 0 {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		sellers, err := service.ListSellers(r.Context())
		if err != nil {
			writeServiceError(w, r, "list sellers", err)
			return
		}
		writeJSON(w, http.StatusOK, sellers)
	case http.MethodPost:
		var payload bakery.SellerSpec
		if !decodeJSON(w, r, &payload) {
			return
		}
		seller, err := service.CreateSeller(r.Context(), payload)
		if err != nil {
			writeServiceError(w, r, "create seller", err)
			return
		}
		writeJSON(w, http.StatusCreated, seller)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ConsignmentResource serves /api/consignments and settlement of a consignment.
func ConsignmentResource(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}

	segments := resourcePath(r, "/api/consignments")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			var sellerID uint
			if raw := r.URL.Query().Get("seller_id"); raw != "" {
				id, ok := parseID(raw)
				if !ok {
					writeJSONError(w, http.StatusBadRequest, "seller_id must be a positive integer")
					return
				}
				sellerID = id
			}
			consignments, err := service.ListConsignments(r.Context(), sellerID)
			if err != nil {
				writeServiceError(w, r, "list consignments", err)
				return
			}
			writeJSON(w, http.StatusOK, consignments)
		case http.MethodPost:
			createConsignment(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok || len(segments) != 2 || segments[1] != "settle" {
		applog.Debug(r.Context(), "invalid consignment path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	settleConsignment(w, r, id)
}

func createConsignment(w http.ResponseWriter, r *http.Request) {
	var payload consignmentRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	result, err := service.CreateConsignment(r.Context(), payload.SellerID, payload.RecipeID, payload.Delivered)
	if err != nil {
		writeServiceError(w, r, "create consignment", err)
		return
	}
	recordShortages(result.Shortages)
	writeJSON(w, http.StatusCreated, result)
}

func settleConsignment(w http.ResponseWriter, r *http.Request, id uint) {
	var payload settlementRequest
	if !decodeJSON(w, r, &payload) {
		return
	}
	result, err := service.SettleConsignment(r.Context(), bakery.Settlement{
		ConsignmentID: id,
		Quantity:      payload.Quantity,
		Discount:      payload.Discount,
		Collected:     payload.Collected,
		PaymentMethod: payload.PaymentMethod,
	})
	if err != nil {
		writeServiceError(w, r, "settle consignment", err)
		return
	}

	metrics.SalesCounter.WithLabelValues(string(models.ChannelConsignment)).Inc()
	if payload.Collected {
		metrics.CashCounter.WithLabelValues(string(models.CashIn)).Inc()
	}
	writeJSON(w, http.StatusOK, result)
}
