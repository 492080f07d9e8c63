package repository

import (
	"context"
	"errors"
	"time"

	"competition-service/src/internal/entity"
	"competition-service/src/pkg/databases/mysql"

	"gorm.io/gorm"
)

type WalletRepository struct {
	DB mysql.DBInterface
}

func NewWalletRepository(db mysql.DBInterface) *WalletRepository {
	return &WalletRepository{
		DB: db,
	}
}

func (r *WalletRepository) Credit(ctx context.Context, userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}

	var txn *entity.Transaction
	err = gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := ledgerScope{tx: tx}.Credit(userID, amount, txType, meta)
		if err != nil {
			return err
		}
		txn = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *WalletRepository) Debit(ctx context.Context, userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}

	var txn *entity.Transaction
	err = gormDB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := ledgerScope{tx: tx}.Debit(userID, amount, txType, meta)
		if err != nil {
			return err
		}
		txn = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (r *WalletRepository) FindByUserID(ctx context.Context, userID string) (*entity.Wallet, error) {
	gormDB, err := r.DB.GetGorm()
	if err != nil {
		return nil, err
	}

	var wallet entity.Wallet
	err = gormDB.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWalletNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

type transactionRow struct {
	ID                string          `db:"id"`
	WalletID          string          `db:"wallet_id"`
	Type              string          `db:"type"`
	Amount            int64           `db:"amount"`
	GatewayCheckoutID *string         `db:"gateway_checkout_id"`
	GatewayReceipt    *string         `db:"gateway_receipt"`
	Metadata          entity.Metadata `db:"metadata"`
	CreatedAt         time.Time       `db:"created_at"`
}

func (r *WalletRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]entity.Transaction, error) {
	db, err := r.DB.GetDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows []transactionRow
	query := `
		SELECT
			t.id,
			t.wallet_id,
			t.type,
			t.amount,
			t.gateway_checkout_id,
			t.gateway_receipt,
			t.metadata,
			t.created_at
		FROM transactions t
		JOIN wallets w ON w.id = t.wallet_id
		WHERE w.user_id = ?
		ORDER BY t.created_at DESC
		LIMIT ? OFFSET ?
	`

	if err := db.SelectContext(ctx, &rows, query, userID, limit, offset); err != nil {
		return nil, err
	}

	txns := make([]entity.Transaction, 0, len(rows))
	for _, row := range rows {
		txns = append(txns, entity.Transaction{
			ID:                row.ID,
			WalletID:          row.WalletID,
			Type:              row.Type,
			Amount:            row.Amount,
			GatewayCheckoutID: row.GatewayCheckoutID,
			GatewayReceipt:    row.GatewayReceipt,
			Metadata:          row.Metadata,
			CreatedAt:         row.CreatedAt,
		})
	}
	return txns, nil
}
