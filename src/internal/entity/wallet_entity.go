package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Transaction types on the wallet ledger.
const (
	TransactionTypeDeposit    = "DEPOSIT"
	TransactionTypeWithdrawal = "WITHDRAWAL"
	TransactionTypeEntryFee   = "ENTRY_FEE"
	TransactionTypePrize      = "PRIZE"
	TransactionTypeRefund     = "REFUND"
	TransactionTypeTransfer   = "TRANSFER"
)

// Wallet holds a user balance in integer minor units. Created lazily on the
// first credit.
type Wallet struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;uniqueIndex;not null" json:"userId"`
	Balance   int64     `gorm:"not null" json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Metadata is the schemaless bag attached to ledger transactions. Gateway
// payloads differ per flow, so values stay untyped; the ledger core fields
// remain columns.
type Metadata map[string]interface{}

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *Metadata) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported metadata column type")
	}
	return json.Unmarshal(data, m)
}

// Transaction is the append-only ledger entry. Rows are never mutated after
// creation except to annotate metadata (late receipt numbers, reversal
// marks). Gateway idempotency keys are mirrored into indexed columns so the
// duplicate check does not depend on JSON lookups.
type Transaction struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	WalletID          string    `gorm:"size:36;index;not null" json:"walletId"`
	Type              string    `gorm:"size:20;not null" json:"type"`
	Amount            int64     `gorm:"not null" json:"amount"`
	GatewayCheckoutID *string   `gorm:"size:64;index" json:"gatewayCheckoutId,omitempty"`
	GatewayReceipt    *string   `gorm:"size:64;index" json:"gatewayReceipt,omitempty"`
	Metadata          Metadata  `gorm:"type:json" json:"metadata,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}
