package handler

import (
	"net/http"
	"time"
)

type statsResponse struct {
	TotalPayments      int64      `json:"total_payments"`
	SuccessfulPayments int64      `json:"successful_payments"`
	AcceptedPayments   int64      `json:"accepted_payments"`
	PendingPayments    int64      `json:"pending_payments"`
	FailedPayments     int64      `json:"failed_payments"`
	TotalAmount        int64      `json:"total_amount"`
	SuccessfulAmount   int64      `json:"successful_amount"`
	AveragePayment     float64    `json:"average_payment"`
	LastPaymentDate    *time.Time `json:"last_payment_date,omitempty"`
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.Stats(r.Context())
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalPayments:      stats.TotalPayments,
		SuccessfulPayments: stats.SuccessfulPayments,
		AcceptedPayments:   stats.AcceptedPayments,
		PendingPayments:    stats.PendingPayments,
		FailedPayments:     stats.FailedPayments,
		TotalAmount:        stats.TotalAmount,
		SuccessfulAmount:   stats.SuccessfulAmount,
		AveragePayment:     stats.AveragePayment,
		LastPaymentDate:    stats.LastPaymentDate,
	})
}

// Export streams the filtered ledger as a file download. Unlike the other
// endpoints it writes raw bytes, not the JSON envelope.
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	format := r.URL.Query().Get("format")
	data, contentType, err := h.reportService.Export(r.Context(), format, filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	filename := "payouts." + format
	if format == "" {
		filename = "payouts.csv"
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
