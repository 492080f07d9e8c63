package converter

import (
	"competition-service/src/internal/entity"
	"competition-service/src/internal/model"
)

func WalletToBalanceResponse(wallet *entity.Wallet) *model.BalanceResponse {
	return &model.BalanceResponse{
		UserID:    wallet.UserID,
		Balance:   wallet.Balance,
		UpdatedAt: wallet.UpdatedAt,
	}
}

func TransactionToResponse(txn *entity.Transaction) *model.TransactionResponse {
	resp := &model.TransactionResponse{
		ID:        txn.ID,
		Type:      txn.Type,
		Amount:    txn.Amount,
		Metadata:  txn.Metadata,
		CreatedAt: txn.CreatedAt,
	}
	if txn.GatewayReceipt != nil {
		resp.GatewayReceipt = *txn.GatewayReceipt
	}
	return resp
}

func TransactionsToResponse(txns []entity.Transaction) []model.TransactionResponse {
	out := make([]model.TransactionResponse, 0, len(txns))
	for i := range txns {
		out = append(out, *TransactionToResponse(&txns[i]))
	}
	return out
}
