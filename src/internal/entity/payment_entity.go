package entity

import "time"

// States for pending deposits and payouts.
const (
	PaymentStatusPending   = "PENDING"
	PaymentStatusCompleted = "COMPLETED"
	PaymentStatusFailed    = "FAILED"
)

// PendingTransaction is one outstanding deposit push awaiting the gateway's
// verdict. PENDING -> COMPLETED is terminal; PENDING -> FAILED is terminal
// unless a success callback arrives within the rescue window.
type PendingTransaction struct {
	ID                string     `gorm:"primaryKey;size:36" json:"id"`
	UserID            string     `gorm:"size:36;index;not null" json:"userId"`
	GatewayCheckoutID string     `gorm:"size:64;uniqueIndex;not null" json:"gatewayCheckoutId"`
	GatewayMerchantID string     `gorm:"size:64" json:"gatewayMerchantId"`
	Phone             string     `gorm:"size:20;not null" json:"phone"`
	Amount            int64      `gorm:"not null" json:"amount"`
	Status            string     `gorm:"size:20;index;not null" json:"status"`
	RetryCount        int        `gorm:"not null" json:"retryCount"`
	ResultCode        int        `json:"resultCode"`
	FailureReason     string     `gorm:"size:255" json:"failureReason,omitempty"`
	ReceiptNumber     string     `gorm:"size:64" json:"receiptNumber,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	LastCheckedAt     *time.Time `json:"lastCheckedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
	FailedAt          *time.Time `json:"failedAt,omitempty"`
}

// PayoutTransaction mirrors the withdrawal flow. The wallet debit happens at
// initiation; LinkedTransactionID points at that ledger entry so a failed
// payout can annotate it as reversed.
type PayoutTransaction struct {
	ID                    string     `gorm:"primaryKey;size:36" json:"id"`
	UserID                string     `gorm:"size:36;index;not null" json:"userId"`
	Phone                 string     `gorm:"size:20;not null" json:"phone"`
	Amount                int64      `gorm:"not null" json:"amount"`
	OriginatorID          string     `gorm:"size:64;uniqueIndex;not null" json:"originatorId"`
	GatewayConversationID *string    `gorm:"size:64;uniqueIndex" json:"gatewayConversationId,omitempty"`
	Status                string     `gorm:"size:20;index;not null" json:"status"`
	LinkedTransactionID   string     `gorm:"size:36;not null" json:"linkedTransactionId"`
	ResultCode            int        `json:"resultCode"`
	FailureReason         string     `gorm:"size:255" json:"failureReason,omitempty"`
	ReceiptNumber         string     `gorm:"size:64" json:"receiptNumber,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	CompletedAt           *time.Time `json:"completedAt,omitempty"`
}
