package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/movaware/payout-engine/internal/core/domain"
)

// resultCallback is the gateway's asynchronous settlement verdict. ResultCode
// zero means the money moved; anything else is a settlement failure.
type resultCallback struct {
	Result struct {
		ResultType               int             `json:"ResultType"`
		ResultCode               json.Number     `json:"ResultCode"`
		ResultDesc               string          `json:"ResultDesc"`
		OriginatorConversationID string          `json:"OriginatorConversationID"`
		ConversationID           string          `json:"ConversationID"`
		TransactionID            string          `json:"TransactionID"`
		ResultParameters         resultParamList `json:"ResultParameters"`
	} `json:"Result"`
}

type resultParamList struct {
	ResultParameter []resultParam `json:"ResultParameter"`
}

type resultParam struct {
	Key   string          `json:"Key"`
	Value json.RawMessage `json:"Value"`
}

func (l resultParamList) stringValue(key string) string {
	for _, p := range l.ResultParameter {
		if p.Key != key {
			continue
		}
		var s string
		if err := json.Unmarshal(p.Value, &s); err == nil {
			return s
		}
		return string(p.Value)
	}
	return ""
}

const completedTimeLayout = "02.01.2006 15:04:05"

// GatewayResult receives the settlement verdict for a previously accepted
// payout. The gateway retries undelivered callbacks, so the handler must
// answer 200 for verdicts it has already applied.
func (h *Handlers) GatewayResult(w http.ResponseWriter, r *http.Request) {
	var cb resultCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeError(w, domain.NewMissingFieldError("Result"), h.logger)
		return
	}
	if cb.Result.ConversationID == "" {
		writeError(w, domain.NewMissingFieldError("ConversationID"), h.logger)
		return
	}

	outcome := domain.SettlementOutcome{
		Succeeded:   cb.Result.ResultCode.String() == "0",
		Receipt:     cb.Result.TransactionID,
		ResultCode:  cb.Result.ResultCode.String(),
		Description: cb.Result.ResultDesc,
	}
	if receipt := cb.Result.ResultParameters.stringValue("TransactionReceipt"); receipt != "" {
		outcome.Receipt = receipt
	}
	if raw := cb.Result.ResultParameters.stringValue("TransactionCompletedDateTime"); raw != "" {
		if at, err := time.Parse(completedTimeLayout, raw); err == nil {
			outcome.CompletedAt = at
		}
	}

	tx, err := h.settlementService.FinalizeTransaction(r.Context(), cb.Result.ConversationID, outcome)
	if err != nil {
		// duplicate delivery of an already-applied verdict must be acked,
		// otherwise the gateway keeps redelivering it
		if domain.IsErrorCode(err, domain.ErrCodeInvalidTransition) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "already finalized"})
			return
		}
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}

type timeoutCallback struct {
	Result struct {
		OriginatorConversationID string `json:"OriginatorConversationID"`
		ConversationID           string `json:"ConversationID"`
		ResultDesc               string `json:"ResultDesc"`
	} `json:"Result"`
}

// GatewayTimeout receives queue-timeout notifications: the payout expired in
// the gateway's queue without being attempted.
func (h *Handlers) GatewayTimeout(w http.ResponseWriter, r *http.Request) {
	var cb timeoutCallback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		writeError(w, domain.NewMissingFieldError("Result"), h.logger)
		return
	}
	if cb.Result.OriginatorConversationID == "" {
		writeError(w, domain.NewMissingFieldError("OriginatorConversationID"), h.logger)
		return
	}

	tx, err := h.settlementService.HandleQueueTimeout(r.Context(), cb.Result.OriginatorConversationID)
	if err != nil {
		if domain.IsErrorCode(err, domain.ErrCodeInvalidTransition) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "already finalized"})
			return
		}
		writeError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, toTransactionResponse(tx))
}
