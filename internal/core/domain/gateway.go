package domain

import "time"

// GatewaySuccessCode is the response code the gateway returns when a payout
// request has been accepted for asynchronous processing.
const GatewaySuccessCode = "0"

// CommandSalaryPayment is the B2C command type for payroll disbursements.
const CommandSalaryPayment = "SalaryPayment"

// AccessToken is a short-lived gateway credential.
type AccessToken struct {
	Value     string
	ExpiresAt time.Time
}

// Valid reports whether the token is still usable at the given instant,
// allowing for the supplied expiry skew.
func (t *AccessToken) Valid(now time.Time, skew time.Duration) bool {
	return t != nil && t.Value != "" && now.Add(skew).Before(t.ExpiresAt)
}

// PayoutRequest is a single outbound disbursement request.
type PayoutRequest struct {
	Reference string // originator conversation id, the idempotency key
	Amount    int64
	Phone     string // destination, normalized 254 form
	Remarks   string
	Occasion  string
}

// PayoutAck is the gateway's immediate acknowledgment. It is not final
// settlement; the result callback or a status query delivers that later.
type PayoutAck struct {
	ConversationID           string
	OriginatorConversationID string
	ResponseCode             string
	ResponseDescription      string
}

// Accepted reports whether the gateway queued the payout for processing.
func (a PayoutAck) Accepted() bool {
	return a.ResponseCode == GatewaySuccessCode
}

// PayoutStatus is the answer to an out-of-band status query for a
// previously accepted payout.
type PayoutStatus struct {
	ConversationID    string
	Settled           bool
	Succeeded         bool
	Receipt           string
	ResultCode        string
	ResultDescription string
	CompletedAt       time.Time
}

// SettlementOutcome carries the gateway's deferred final verdict, delivered
// through the result webhook.
type SettlementOutcome struct {
	Succeeded   bool
	Receipt     string
	ResultCode  string
	Description string
	CompletedAt time.Time
}
