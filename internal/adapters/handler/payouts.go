package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

type batchRequest struct {
	Instructions []domain.PayoutInstruction `json:"instructions"`
}

type transactionResponse struct {
	ID                  uuid.UUID  `json:"id"`
	Reference           string     `json:"reference"`
	EmployeeID          string     `json:"employee_id"`
	EmployeeName        string     `json:"employee_name,omitempty"`
	EmployeeNumber      string     `json:"employee_number,omitempty"`
	Phone               string     `json:"phone"`
	Amount              int64      `json:"amount"`
	Status              string     `json:"status"`
	ConversationID      *string    `json:"conversation_id,omitempty"`
	Receipt             *string    `json:"receipt,omitempty"`
	ResponseDescription *string    `json:"response_description,omitempty"`
	FailureReason       *string    `json:"failure_reason,omitempty"`
	AttemptCount        int        `json:"attempt_count"`
	NextRetryAt         *time.Time `json:"next_retry_at,omitempty"`
	InitiatedAt         time.Time  `json:"initiated_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
}

type failedPayoutResponse struct {
	Instruction   domain.PayoutInstruction `json:"instruction"`
	Reason        string                   `json:"reason"`
	TransactionID *string                  `json:"transaction_id,omitempty"`
}

type batchResponse struct {
	Successful       []transactionResponse  `json:"successful"`
	Failed           []failedPayoutResponse `json:"failed"`
	TotalAmount      int64                  `json:"total_amount"`
	SuccessfulAmount int64                  `json:"successful_amount"`
	FailedAmount     int64                  `json:"failed_amount"`
	WindowCount      int                    `json:"window_count"`
	StartedAt        time.Time              `json:"started_at"`
	FinishedAt       time.Time              `json:"finished_at"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:                  tx.ID,
		Reference:           tx.Reference,
		EmployeeID:          tx.EmployeeID,
		EmployeeName:        tx.EmployeeName,
		EmployeeNumber:      tx.EmployeeNumber,
		Phone:               tx.Phone,
		Amount:              tx.Amount,
		Status:              string(tx.Status),
		ConversationID:      tx.ConversationID,
		Receipt:             tx.Receipt,
		ResponseDescription: tx.ResponseDescription,
		FailureReason:       tx.FailureReason,
		AttemptCount:        tx.AttemptCount,
		NextRetryAt:         tx.NextRetryAt,
		InitiatedAt:         tx.InitiatedAt,
		CompletedAt:         tx.CompletedAt,
	}
}

func toBatchResponse(result *domain.BatchResult) batchResponse {
	resp := batchResponse{
		Successful:       make([]transactionResponse, 0, len(result.Successful)),
		Failed:           make([]failedPayoutResponse, 0, len(result.Failed)),
		TotalAmount:      result.TotalAmount,
		SuccessfulAmount: result.SuccessfulAmount,
		FailedAmount:     result.FailedAmount,
		WindowCount:      result.WindowCount,
		StartedAt:        result.StartedAt,
		FinishedAt:       result.FinishedAt,
	}
	for _, tx := range result.Successful {
		resp.Successful = append(resp.Successful, toTransactionResponse(tx))
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, failedPayoutResponse{
			Instruction:   f.Instruction,
			Reason:        f.Reason,
			TransactionID: f.TransactionID,
		})
	}
	return resp
}

// DispatchBatch runs a payroll batch synchronously and returns the full
// accounting. Partial failure is a 200 with entries in the failed list.
func (h *Handlers) DispatchBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.NewMissingFieldError("instructions"), h.logger)
		return
	}

	result, err := h.dispatchService.ProcessBatch(r.Context(), req.Instructions)
	if err != nil {
		if result != nil && errors.Is(err, r.Context().Err()) {
			// cancelled mid-batch: the windows already joined keep their
			// outcomes, surface them with a partial-content status
			writeJSON(w, http.StatusPartialContent, toBatchResponse(result))
			return
		}
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toBatchResponse(result))
}

func (h *Handlers) RetryPayout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.NewMissingFieldError("id"), h.logger)
		return
	}

	tx, err := h.retryService.Retry(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handlers) GetPayout(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, domain.NewMissingFieldError("id"), h.logger)
		return
	}

	tx, err := h.queryService.FindByID(r.Context(), id)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

func (h *Handlers) ListPayouts(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	txs, err := h.queryService.List(r.Context(), filter)
	if err != nil {
		writeError(w, err, h.logger)
		return
	}

	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	writeJSON(w, http.StatusOK, out)
}

func filterFromQuery(r *http.Request) (ports.TransactionFilter, error) {
	q := r.URL.Query()
	filter := ports.TransactionFilter{
		EmployeeID: q.Get("employee_id"),
		Status:     domain.TransactionStatus(q.Get("status")),
	}

	if v := q.Get("page"); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil {
			return filter, domain.NewMissingFieldError("page")
		}
		filter.Page = page
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return filter, domain.NewMissingFieldError("limit")
		}
		filter.Limit = limit
	}
	if v := q.Get("from"); v != "" {
		from, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, domain.NewMissingFieldError("from")
		}
		filter.From = from
	}
	if v := q.Get("to"); v != "" {
		to, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, domain.NewMissingFieldError("to")
		}
		filter.To = to
	}

	return filter, nil
}
