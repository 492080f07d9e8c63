package model

type DepositRequest struct {
	UserID string `json:"-" validate:"required,max=36"`
	Phone  string `json:"phone" validate:"required,max=20"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type DepositResponse struct {
	CheckoutID string `json:"checkoutId"`
	MerchantID string `json:"merchantId"`
	Amount     int64  `json:"amount"`
	Message    string `json:"message"`
}

type DepositStatusRequest struct {
	UserID     string `json:"-" validate:"required,max=36"`
	CheckoutID string `json:"-" validate:"required,max=64"`
}

type DepositStatusResponse struct {
	CheckoutID    string `json:"checkoutId"`
	Status        string `json:"status"`
	ReceiptNumber string `json:"receiptNumber,omitempty"`
	FailureReason string `json:"failureReason,omitempty"`
}

type WithdrawRequest struct {
	UserID string `json:"-" validate:"required,max=36"`
	Phone  string `json:"phone" validate:"required,max=20"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type WithdrawResponse struct {
	PayoutID       string `json:"payoutId"`
	ConversationID string `json:"conversationId"`
	Amount         int64  `json:"amount"`
	Status         string `json:"status"`
}

// GatewayResult is the normalized verdict the reconciler consumes, whichever
// entry point produced it.
type GatewayResult struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Receipt     string `json:"receipt,omitempty"`
}

// CallbackItem is the gateway's name/value metadata pair.
type CallbackItem struct {
	Name  string      `json:"Name"`
	Value interface{} `json:"Value,omitempty"`
}

// DepositCallback is the inbound STK push result webhook body.
type DepositCallback struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []CallbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ReceiptNumber pulls the gateway receipt out of the callback metadata list.
func (c *DepositCallback) ReceiptNumber() string {
	for _, item := range c.Body.StkCallback.CallbackMetadata.Item {
		if item.Name == "MpesaReceiptNumber" {
			if s, ok := item.Value.(string); ok {
				return s
			}
		}
	}
	return ""
}

// PayoutCallback is the inbound B2C result (and timeout) webhook body.
type PayoutCallback struct {
	Result struct {
		ResultType               int    `json:"ResultType"`
		ResultCode               int    `json:"ResultCode"`
		ResultDesc               string `json:"ResultDesc"`
		OriginatorConversationID string `json:"OriginatorConversationID"`
		ConversationID           string `json:"ConversationID"`
		TransactionID            string `json:"TransactionID"`
		ResultParameters         struct {
			ResultParameter []CallbackItem `json:"ResultParameter"`
		} `json:"ResultParameters"`
	} `json:"Result"`
}

// GatewayAck is the fixed 200 body every webhook answers with, regardless of
// internal outcome.
type GatewayAck struct {
	ResultCode int    `json:"ResultCode"`
	ResultDesc string `json:"ResultDesc"`
}

// StatusCheckPayload is the asynq task payload for the delayed poll.
type StatusCheckPayload struct {
	CheckoutID string `json:"checkoutId"`
}
