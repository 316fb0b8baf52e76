package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/movaware/payout-engine/internal/config"
	"github.com/movaware/payout-engine/internal/core/domain"
	"github.com/movaware/payout-engine/internal/core/ports"
)

// HTTPGatewayClient talks to the external disbursement gateway. Transport
// failures and non-success response codes surface as *GatewayError; the
// service layer converts them into FAILED transactions so a single payout's
// failure never aborts a batch.
type HTTPGatewayClient struct {
	cfg        config.GatewayConfig
	httpClient *http.Client
	tokens     *tokenSource
}

func NewGatewayClient(cfg config.GatewayConfig) ports.GatewayPort {
	c := &HTTPGatewayClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.ConnTimeout,
		},
	}
	c.tokens = newTokenSource(c.fetchToken)
	return c
}

// Authenticate returns a cached access token, refreshing it when stale.
func (c *HTTPGatewayClient) Authenticate(ctx context.Context) (*domain.AccessToken, error) {
	return c.tokens.Token(ctx)
}

func (c *HTTPGatewayClient) fetchToken(ctx context.Context) (*domain.AccessToken, error) {
	url := c.cfg.BaseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating token request: %w", err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &GatewayError{Code: "auth_transport", Message: "token request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, gatewayErrorFromResponse(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("error decoding token response: %w", err)
	}

	ttl, err := strconv.Atoi(tr.ExpiresIn)
	if err != nil || ttl <= 0 {
		ttl = 3600
	}

	return &domain.AccessToken{
		Value:     tr.AccessToken,
		ExpiresAt: time.Now().Add(time.Duration(ttl) * time.Second),
	}, nil
}

// SubmitPayout sends one B2C salary payment request and returns the
// gateway's immediate acknowledgment.
func (c *HTTPGatewayClient) SubmitPayout(ctx context.Context, req domain.PayoutRequest) (*domain.PayoutAck, error) {
	body := paymentRequest{
		InitiatorName:            c.cfg.InitiatorName,
		SecurityCredential:       c.cfg.SecurityCredential,
		CommandID:                domain.CommandSalaryPayment,
		Amount:                   req.Amount,
		PartyA:                   c.cfg.SourceShortcode,
		PartyB:                   req.Phone,
		Remarks:                  req.Remarks,
		Occasion:                 req.Occasion,
		OriginatorConversationID: req.Reference,
		QueueTimeOutURL:          c.cfg.TimeoutURL,
		ResultURL:                c.cfg.ResultURL,
	}

	var ack paymentResponse
	if err := c.postJSON(ctx, "/mpesa/b2c/v3/paymentrequest", body, &ack); err != nil {
		return nil, err
	}

	return &domain.PayoutAck{
		ConversationID:           ack.ConversationID,
		OriginatorConversationID: ack.OriginatorConversationID,
		ResponseCode:             ack.ResponseCode,
		ResponseDescription:      ack.ResponseDescription,
	}, nil
}

// QueryStatus asks the gateway for the settlement state of an accepted
// payout, used by the reconciler when no result callback arrived.
func (c *HTTPGatewayClient) QueryStatus(ctx context.Context, conversationID string) (*domain.PayoutStatus, error) {
	body := statusRequest{
		Initiator:          c.cfg.InitiatorName,
		SecurityCredential: c.cfg.SecurityCredential,
		CommandID:          "TransactionStatusQuery",
		ConversationID:     conversationID,
		PartyA:             c.cfg.SourceShortcode,
		ResultURL:          c.cfg.ResultURL,
		QueueTimeOutURL:    c.cfg.TimeoutURL,
	}

	var sr statusResponse
	if err := c.postJSON(ctx, "/mpesa/transactionstatus/v1/query", body, &sr); err != nil {
		return nil, err
	}

	status := &domain.PayoutStatus{
		ConversationID:    sr.ConversationID,
		Settled:           sr.TransactionSettled,
		Succeeded:         sr.TransactionSettled && sr.ResultCode == domain.GatewaySuccessCode,
		Receipt:           sr.TransactionID,
		ResultCode:        sr.ResultCode,
		ResultDescription: sr.ResultDesc,
	}
	if sr.CompletedTime != "" {
		if at, err := time.Parse("20060102150405", sr.CompletedTime); err == nil {
			status.CompletedAt = at
		}
	}
	return status, nil
}

// postJSON is the shared helper for authenticated POSTs to the gateway.
func (c *HTTPGatewayClient) postJSON(ctx context.Context, path string, body, out any) error {
	token, err := c.Authenticate(ctx)
	if err != nil {
		return err
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("error marshalling json: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token.Value)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &GatewayError{Code: "transport", Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// stale credential; next call re-authenticates
		c.tokens.Invalidate()
	}

	if resp.StatusCode != http.StatusOK {
		return gatewayErrorFromResponse(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("error decoding json response: %w", err)
	}

	return nil
}

func gatewayErrorFromResponse(resp *http.Response) *GatewayError {
	raw, _ := io.ReadAll(resp.Body)

	ge := &GatewayError{
		Code:       "http_" + strconv.Itoa(resp.StatusCode),
		Message:    string(raw),
		StatusCode: resp.StatusCode,
	}

	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.ErrorCode != "" {
		ge.Code = er.ErrorCode
		ge.Message = er.ErrorMessage
	}

	return ge
}
