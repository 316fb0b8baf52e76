package gateway

// Wire shapes for the disbursement gateway API.

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"` // seconds, sent as a string
}

type paymentRequest struct {
	InitiatorName            string `json:"InitiatorName"`
	SecurityCredential       string `json:"SecurityCredential"`
	CommandID                string `json:"CommandID"`
	Amount                   int64  `json:"Amount"`
	PartyA                   string `json:"PartyA"`
	PartyB                   string `json:"PartyB"`
	Remarks                  string `json:"Remarks"`
	Occasion                 string `json:"Occasion,omitempty"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	QueueTimeOutURL          string `json:"QueueTimeOutURL"`
	ResultURL                string `json:"ResultURL"`
}

type paymentResponse struct {
	ConversationID           string `json:"ConversationID"`
	OriginatorConversationID string `json:"OriginatorConversationID"`
	ResponseCode             string `json:"ResponseCode"`
	ResponseDescription      string `json:"ResponseDescription"`
}

type statusRequest struct {
	Initiator          string `json:"Initiator"`
	SecurityCredential string `json:"SecurityCredential"`
	CommandID          string `json:"CommandID"`
	ConversationID     string `json:"ConversationID"`
	PartyA             string `json:"PartyA"`
	ResultURL          string `json:"ResultURL"`
	QueueTimeOutURL    string `json:"QueueTimeOutURL"`
}

type statusResponse struct {
	ConversationID     string `json:"ConversationID"`
	ResultCode         string `json:"ResultCode"`
	ResultDesc         string `json:"ResultDesc"`
	TransactionID      string `json:"TransactionID"`
	TransactionSettled bool   `json:"TransactionSettled"`
	CompletedTime      string `json:"CompletedTime,omitempty"` // 20060102150405
}

type errorResponse struct {
	RequestID    string `json:"requestId"`
	ErrorCode    string `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
}
