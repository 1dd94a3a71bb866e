package handlers

import (
	"net/http"

	"github.com/a-h/templ"

	"sagradodoce/internal/bakery"
	applog "sagradodoce/internal/log"
	"sagradodoce/internal/views/reports"
)

// PurchasePlan answers with the purchase plan as JSON, or as a printable page when
// requested with ?format=html.
func PurchasePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireService(w, r) {
		return
	}

	report, err := service.PurchasePlan(r.Context())
	if err != nil {
		writeServiceError(w, r, "compute purchase plan", err)
		return
	}

	if wantsHTML(r) {
		renderReport(w, r, reports.Page("Purchase plan", reports.PurchasePlan(report)))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// CashSummary totals the cash ledger between the optional ?from= and ?to= dates.
func CashSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !requireService(w, r) {
		return
	}

	cashRange, ok := parseCashRange(w, r)
	if !ok {
		return
	}
	summary, err := service.CashSummary(r.Context(), cashRange)
	if err != nil {
		writeServiceError(w, r, "summarize cash", err)
		return
	}

	if wantsHTML(r) {
		entries, err := service.ListCashEntries(r.Context(), cashRange)
		if err != nil {
			writeServiceError(w, r, "list cash entries", err)
			return
		}
		renderReport(w, r, reports.Page("Cash summary", reports.CashSummary(summary, entries)))
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func parseCashRange(w http.ResponseWriter, r *http.Request) (bakery.CashRange, bool) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "from must be a date (YYYY-MM-DD) or RFC 3339 time")
		return bakery.CashRange{}, false
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "to must be a date (YYYY-MM-DD) or RFC 3339 time")
		return bakery.CashRange{}, false
	}
	return bakery.CashRange{From: from, To: to}, true
}

func renderReport(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		applog.Error(r.Context(), "failed to render report", "error", err)
		http.Error(w, "unable to render report", http.StatusInternalServerError)
	}
}
