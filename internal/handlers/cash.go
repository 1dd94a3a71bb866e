package handlers

import (
	"net/http"

	"sagradodoce/internal/bakery"
	"sagradodoce/internal/metrics"
)

// CashResource lists (GET, with optional ?from=&to=) and records (POST) cash ledger entries.
func CashResource(w http.ResponseWriter, r *http.Request) {
	if !requireService(w, r) {
		return
	}

	switch r.Method {
	case http.MethodGet:
		cashRange, ok := parseCashRange(w, r)
		if !ok {
			return
		}
		entries, err := service.ListCashEntries(r.Context(), cashRange)
		if err != nil {
			writeServiceError(w, r, "list cash entries", err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case http.MethodPost:
		var payload bakery.CashEntrySpec
		if !decodeJSON(w, r, &payload) {
			return
		}
		entry, err := service.RecordCashEntry(r.Context(), payload)
		if err != nil {
			writeServiceError(w, r, "record cash entry", err)
			return
		}
		metrics.CashCounter.WithLabelValues(string(entry.Direction)).Inc()
		writeJSON(w, http.StatusCreated, entry)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
