package repository

import (
	"errors"
	"time"

	"competition-service/src/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Metadata keys the ledger mirrors into indexed transaction columns.
const (
	MetaCheckoutID    = "checkout_id"
	MetaReceiptNumber = "receipt_number"
)

// ledgerScope implements LedgerScope on an open gorm transaction. Wallet
// rows are locked with SELECT ... FOR UPDATE before every mutation.
type ledgerScope struct {
	tx *gorm.DB
}

func (s ledgerScope) lockWallet(userID string) (*entity.Wallet, error) {
	var wallet entity.Wallet
	err := s.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ?", userID).
		First(&wallet).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

func (s ledgerScope) Credit(userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.lockWallet(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Wallets are created lazily on first credit.
		wallet = &entity.Wallet{
			ID:     uuid.NewString(),
			UserID: userID,
		}
		if err := s.tx.Create(wallet).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	wallet.Balance += amount
	if err := s.tx.Model(&entity.Wallet{}).
		Where("id = ?", wallet.ID).
		Update("balance", wallet.Balance).Error; err != nil {
		return nil, err
	}

	return s.insertTransaction(wallet.ID, txType, amount, meta)
}

func (s ledgerScope) Debit(userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	wallet, err := s.lockWallet(userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInsufficientFunds
	}
	if err != nil {
		return nil, err
	}
	if wallet.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	wallet.Balance -= amount
	if err := s.tx.Model(&entity.Wallet{}).
		Where("id = ?", wallet.ID).
		Update("balance", wallet.Balance).Error; err != nil {
		return nil, err
	}

	return s.insertTransaction(wallet.ID, txType, amount, meta)
}

func (s ledgerScope) insertTransaction(walletID, txType string, amount int64, meta entity.Metadata) (*entity.Transaction, error) {
	txn := &entity.Transaction{
		ID:        uuid.NewString(),
		WalletID:  walletID,
		Type:      txType,
		Amount:    amount,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if checkout, ok := meta[MetaCheckoutID].(string); ok && checkout != "" {
		txn.GatewayCheckoutID = &checkout
	}
	if receipt, ok := meta[MetaReceiptNumber].(string); ok && receipt != "" {
		txn.GatewayReceipt = &receipt
	}
	if err := s.tx.Create(txn).Error; err != nil {
		return nil, err
	}
	return txn, nil
}

func (s ledgerScope) FindTransactionByGatewayRef(checkoutID, receipt string) (*entity.Transaction, error) {
	if checkoutID == "" && receipt == "" {
		return nil, nil
	}
	query := s.tx.Model(&entity.Transaction{})
	switch {
	case checkoutID != "" && receipt != "":
		query = query.Where("gateway_checkout_id = ? OR gateway_receipt = ?", checkoutID, receipt)
	case checkoutID != "":
		query = query.Where("gateway_checkout_id = ?", checkoutID)
	default:
		query = query.Where("gateway_receipt = ?", receipt)
	}

	var txn entity.Transaction
	if err := query.First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// AnnotateTransaction merges meta into an existing ledger entry. The only
// mutation the append-only log permits.
func (s ledgerScope) AnnotateTransaction(id string, meta entity.Metadata) error {
	var txn entity.Transaction
	if err := s.tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&txn).Error; err != nil {
		return err
	}
	if txn.Metadata == nil {
		txn.Metadata = entity.Metadata{}
	}
	for k, v := range meta {
		txn.Metadata[k] = v
	}
	updates := map[string]interface{}{"metadata": txn.Metadata}
	if receipt, ok := meta[MetaReceiptNumber].(string); ok && receipt != "" && txn.GatewayReceipt == nil {
		updates["gateway_receipt"] = receipt
	}
	return s.tx.Model(&entity.Transaction{}).Where("id = ?", id).Updates(updates).Error
}
