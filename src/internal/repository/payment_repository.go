package repository

import (
	"context"
	"errors"

	"competition-service/src/internal/entity"
	"competition-service/src/pkg/databases/mysql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PaymentRepository struct {
	DB mysql.DBInterface
}

func NewPaymentRepository(db mysql.DBInterface) *PaymentRepository {
	return &PaymentRepository{
		DB: db,
	}
}

type pendingScope struct {
	ledgerScope
}

func (s pendingScope) SavePending(p *entity.PendingTransaction) error {
	return s.tx.Save(p).Error
}

type payoutScope struct {
	ledgerScope
}

func (s payoutScope) SavePayout(p *entity.PayoutTransaction) error {
	return s.tx.Save(p).Error
}

func (r *PaymentRepository) CreatePending(ctx context.Context, p *entity.PendingTransaction) error {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Create(p).Error
}

func (r *PaymentRepository) FindPendingByCheckoutID(ctx context.Context, checkoutID string) (*entity.PendingTransaction, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}

	var pending entity.PendingTransaction
	err = gormDB.WithContext(ctx).
		Where("gateway_checkout_id = ?", checkoutID).
		First(&pending).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPendingNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pending, nil
}

// ReconcilePending holds a FOR UPDATE lock on the pending row for the whole
// unit, so the webhook and the poll path serialize no matter how they
// interleave. Any error from fn rolls the unit back.
func (r *PaymentRepository) ReconcilePending(ctx context.Context, checkoutID string, fn func(scope PendingScope, p *entity.PendingTransaction) error) error {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var pending entity.PendingTransaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_checkout_id = ?", checkoutID).
			First(&pending).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPendingNotFound
		}
		if err != nil {
			return err
		}
		return fn(pendingScope{ledgerScope{tx: tx}}, &pending)
	})
}

func (r *PaymentRepository) CreatePayoutWithDebit(ctx context.Context, payout *entity.PayoutTransaction, debitMeta entity.Metadata) (*entity.Transaction, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}

	var txn *entity.Transaction
	err = gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debited, err := ledgerScope{tx: tx}.Debit(
			payout.UserID, payout.Amount, entity.TransactionTypeWithdrawal, debitMeta)
		if err != nil {
			return err
		}
		payout.LinkedTransactionID = debited.ID
		if err := tx.Create(payout).Error; err != nil {
			return err
		}
		txn = debited
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *PaymentRepository) SetPayoutConversationID(ctx context.Context, payoutID, conversationID string) error {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return err
	}
	return gormDB.WithContext(ctx).Model(&entity.PayoutTransaction{}).
		Where("id = ?", payoutID).
		Update("gateway_conversation_id", conversationID).Error
}

func (r *PaymentRepository) ReconcilePayout(ctx context.Context, conversationID, originatorID string, fn func(scope PayoutScope, p *entity.PayoutTransaction) error) error {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return err
	}

	return gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var payout entity.PayoutTransaction
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gateway_conversation_id = ? OR originator_id = ?", conversationID, originatorID).
			First(&payout).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPayoutNotFound
		}
		if err != nil {
			return err
		}
		return fn(payoutScope{ledgerScope{tx: tx}}, &payout)
	})
}
