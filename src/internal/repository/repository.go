package repository

import (
	"context"
	"errors"
	"time"

	"competition-service/src/internal/entity"
)

var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrWalletNotFound      = errors.New("wallet not found")
	ErrPendingNotFound     = errors.New("pending transaction not found")
	ErrPayoutNotFound      = errors.New("payout transaction not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrGameNotFound        = errors.New("game not found")
)

// LedgerScope is the set of wallet-ledger operations available inside an
// open database transaction. Every implementation locks the wallet row
// before mutating it, so concurrent mutations on one wallet serialize.
type LedgerScope interface {
	Credit(userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error)
	Debit(userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error)
	FindTransactionByGatewayRef(checkoutID, receipt string) (*entity.Transaction, error)
	AnnotateTransaction(id string, meta entity.Metadata) error
}

type WalletStore interface {
	Credit(ctx context.Context, userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error)
	Debit(ctx context.Context, userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error)
	FindByUserID(ctx context.Context, userID string) (*entity.Wallet, error)
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]entity.Transaction, error)
}

// PendingScope is what the reconciler may touch while it holds the
// exclusive lock on a pending deposit row.
type PendingScope interface {
	LedgerScope
	SavePending(p *entity.PendingTransaction) error
}

// PayoutScope is the payout counterpart.
type PayoutScope interface {
	LedgerScope
	SavePayout(p *entity.PayoutTransaction) error
}

type PaymentStore interface {
	CreatePending(ctx context.Context, p *entity.PendingTransaction) error
	FindPendingByCheckoutID(ctx context.Context, checkoutID string) (*entity.PendingTransaction, error)
	// ReconcilePending runs fn inside one transaction holding a FOR UPDATE
	// lock on the pending row identified by checkoutID. This is the only
	// path that may resolve a pending deposit.
	ReconcilePending(ctx context.Context, checkoutID string, fn func(scope PendingScope, p *entity.PendingTransaction) error) error
	// CreatePayoutWithDebit atomically debits the user wallet and inserts
	// the payout row, linking it to the debit transaction.
	CreatePayoutWithDebit(ctx context.Context, payout *entity.PayoutTransaction, debitMeta entity.Metadata) (*entity.Transaction, error)
	SetPayoutConversationID(ctx context.Context, payoutID, conversationID string) error
	// ReconcilePayout locks the payout row matching either gateway id.
	ReconcilePayout(ctx context.Context, conversationID, originatorID string, fn func(scope PayoutScope, p *entity.PayoutTransaction) error) error
}

// CompetitionScope is what settlement logic may touch while it holds the
// exclusive lock on a competition row.
type CompetitionScope interface {
	LedgerScope
	Players() ([]entity.CompetitionPlayer, error)
	SaveCompetition(c *entity.Competition) error
	InsertPlayer(p *entity.CompetitionPlayer) error
	SavePlayer(p *entity.CompetitionPlayer) error
	DeletePlayer(p *entity.CompetitionPlayer) error
	DeleteCompetition(c *entity.Competition) error
	FindGame(id string) (*entity.Game, error)
}

type CompetitionStore interface {
	// CreateCompetition inserts comp and runs fn (entry-fee escrow, creator
	// player row) in the same transaction.
	CreateCompetition(ctx context.Context, comp *entity.Competition, fn func(scope CompetitionScope) error) error
	// WithCompetitionByCode runs fn under a FOR UPDATE lock on the
	// competition row. All state transitions go through here.
	WithCompetitionByCode(ctx context.Context, code string, fn func(scope CompetitionScope, comp *entity.Competition) error) error
	FindByCode(ctx context.Context, code string) (*entity.Competition, []entity.CompetitionPlayer, error)
	ListPublic(ctx context.Context, limit int) ([]entity.Competition, error)
	ListCodesDueToStart(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListCodesOverdue(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type GameStore interface {
	FindByID(ctx context.Context, id string) (*entity.Game, error)
}
