package model

import "time"

type GetBalanceRequest struct {
	UserID string `json:"-" validate:"required,max=36"`
}

type BalanceResponse struct {
	UserID    string    `json:"userId"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type ListTransactionsRequest struct {
	UserID string `json:"-" validate:"required,max=36"`
	Limit  int    `json:"limit" validate:"min=0,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
}

type TransactionResponse struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	Amount         int64                  `json:"amount"`
	GatewayReceipt string                 `json:"gatewayReceipt,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
}
