package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/movaware/payout-engine/internal/core/service"
)

// Handlers wires the payout services to the HTTP surface.
type Handlers struct {
	dispatchService   *service.DispatchService
	retryService      *service.RetryService
	settlementService *service.SettlementService
	reportService     *service.ReportService
	queryService      *service.QueryService
	logger            *slog.Logger
}

func NewHandlers(
	dispatchService *service.DispatchService,
	retryService *service.RetryService,
	settlementService *service.SettlementService,
	reportService *service.ReportService,
	queryService *service.QueryService,
	logger *slog.Logger,
) *Handlers {
	return &Handlers{
		dispatchService:   dispatchService,
		retryService:      retryService,
		settlementService: settlementService,
		reportService:     reportService,
		queryService:      queryService,
		logger:            logger,
	}
}

// NewRouter builds the API routes. The batch endpoint is exempt from the
// request timeout because a large payroll run legitimately outlives it.
func (h *Handlers) NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.Use(Recovery(h.logger))
	r.Use(Logging(h.logger))

	r.HandleFunc("/healthz", h.Healthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/payouts/batch", h.DispatchBatch).Methods(http.MethodPost)

	queries := api.NewRoute().Subrouter()
	queries.Use(Timeout(15 * time.Second))
	queries.HandleFunc("/payouts", h.ListPayouts).Methods(http.MethodGet)
	queries.HandleFunc("/payouts/stats", h.Stats).Methods(http.MethodGet)
	queries.HandleFunc("/payouts/export", h.Export).Methods(http.MethodGet)
	queries.HandleFunc("/payouts/{id}", h.GetPayout).Methods(http.MethodGet)
	queries.HandleFunc("/payouts/{id}/retry", h.RetryPayout).Methods(http.MethodPost)
	queries.HandleFunc("/gateway/result", h.GatewayResult).Methods(http.MethodPost)
	queries.HandleFunc("/gateway/timeout", h.GatewayTimeout).Methods(http.MethodPost)

	return r
}

func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
