package handlers

import (
	"net/http"
	"time"

	"sagradodoce/internal/bakery"
	applog "sagradodoce/internal/log"
	"sagradodoce/internal/metrics"
	"sagradodoce/models"
)

type saleRequest struct {
	Customer        string               `json:"customer"`
	Lines           []bakery.OrderLine   `json:"lines"`
	PaymentMethod   models.PaymentMethod `json:"payment_method"`
	Paid            bool                 `json:"paid"`
	DeliveryType    models.DeliveryType  `json:"delivery_type"`
	DeliveryAddress string               `json:"delivery_address"`
	DeliveryDate    *time.Time           `json:"delivery_date,omitempty"`
}

func (p saleRequest) order() bakery.SaleOrder {
	return bakery.SaleOrder{
		Customer:        p.Customer,
		Lines:           p.Lines,
		PaymentMethod:   p.PaymentMethod,
		Paid:            p.Paid,
		DeliveryType:    p.DeliveryType,
		DeliveryAddress: p.DeliveryAddress,
		DeliveryDate:    p.DeliveryDate,
	}
}

// SaleResource serves /api/sales and the status transitions beneath it.
func SaleResource(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}

	segments := resourcePath(r, "/api/sales")
	if len(segments) == 0 {
		switch r.Method {
		case http.MethodGet:
			listSales(w, r)
		case http.MethodPost:
			var payload saleRequest
			if !decodeJSON(w, r, &payload) {
				return
			}
			finalizeSale(w, r, payload.order())
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	id, ok := parseID(segments[0])
	if !ok || len(segments) > 2 {
		applog.Debug(r.Context(), "invalid sale path", "path", r.URL.Path)
		http.NotFound(w, r)
		return
	}

	if len(segments) == 2 {
		var (
			sale *models.Sale
			err  error
		)
		switch segments[1] {
		case "complete":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			sale, err = service.CompleteSale(r.Context(), id)
		case "pay":
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}
			sale, err = service.MarkSalePaid(r.Context(), id)
			if err == nil {
				metrics.CashCounter.WithLabelValues(string(models.CashIn)).Inc()
			}
		default:
			http.NotFound(w, r)
			return
		}
		if err != nil {
			writeServiceError(w, r, segments[1]+" sale", err)
			return
		}
		writeJSON(w, http.StatusOK, sale)
		return
	}

	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sale, err := service.GetSale(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, "load sale", err)
		return
	}
	writeJSON(w, http.StatusOK, sale)
}

func listSales(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sales, err := service.ListSales(r.Context(), bakery.SaleFilter{
		Status:        models.SaleStatus(query.Get("status")),
		PaymentStatus: models.PaymentStatus(query.Get("payment_status")),
		Channel:       models.SaleChannel(query.Get("channel")),
	})
	if err != nil {
		writeServiceError(w, r, "list sales", err)
		return
	}
	writeJSON(w, http.StatusOK, sales)
}

// finalizeSale is shared by direct sale creation and draft finalization.
func finalizeSale(w http.ResponseWriter, r *http.Request, order bakery.SaleOrder) bool {
	result, err := service.FinalizeSale(r.Context(), order)
	if err != nil {
		writeServiceError(w, r, "finalize sale", err)
		return false
	}

	metrics.SalesCounter.WithLabelValues(string(models.ChannelCounter)).Inc()
	if order.Paid {
		metrics.CashCounter.WithLabelValues(string(models.CashIn)).Inc()
	}
	recordShortages(result.Shortages)
	writeJSON(w, http.StatusCreated, result)
	return true
}
