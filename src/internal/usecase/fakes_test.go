package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"competition-service/src/internal/entity"
	"competition-service/src/internal/gateway/mpesa"
	"competition-service/src/internal/model"
	"competition-service/src/internal/repository"
	"competition-service/src/pkg/log"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

func newTestLogger() log.Log {
	v := viper.New()
	v.Set("log.level", "ERROR")
	v.Set("app.name", "competition-service-test")
	log.InitLogger(v)
	return log.GetLogger()
}

func newTestViper() *viper.Viper {
	return viper.New()
}

func newTestValidator() *validator.Validate {
	return validator.New()
}

// fakeLedger is an in-memory LedgerScope shared by the store fakes.
type fakeLedger struct {
	balances map[string]int64
	txns     []entity.Transaction
	seq      int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[string]int64{}}
}

func (f *fakeLedger) insert(userID, txType string, amount int64, meta entity.Metadata) *entity.Transaction {
	f.seq++
	txn := entity.Transaction{
		ID:        fmt.Sprintf("txn-%d", f.seq),
		WalletID:  userID,
		Type:      txType,
		Amount:    amount,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if checkout, ok := meta[repository.MetaCheckoutID].(string); ok && checkout != "" {
		txn.GatewayCheckoutID = &checkout
	}
	if receipt, ok := meta[repository.MetaReceiptNumber].(string); ok && receipt != "" {
		txn.GatewayReceipt = &receipt
	}
	f.txns = append(f.txns, txn)
	return &f.txns[len(f.txns)-1]
}

func (f *fakeLedger) Credit(userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, repository.ErrInvalidAmount
	}
	f.balances[userID] += amount
	return f.insert(userID, txType, amount, meta), nil
}

func (f *fakeLedger) Debit(userID string, amount int64, txType string, meta entity.Metadata) (*entity.Transaction, error) {
	if amount <= 0 {
		return nil, repository.ErrInvalidAmount
	}
	if f.balances[userID] < amount {
		return nil, repository.ErrInsufficientFunds
	}
	f.balances[userID] -= amount
	return f.insert(userID, txType, amount, meta), nil
}

func (f *fakeLedger) FindTransactionByGatewayRef(checkoutID, receipt string) (*entity.Transaction, error) {
	for i := range f.txns {
		t := &f.txns[i]
		if checkoutID != "" && t.GatewayCheckoutID != nil && *t.GatewayCheckoutID == checkoutID {
			return t, nil
		}
		if receipt != "" && t.GatewayReceipt != nil && *t.GatewayReceipt == receipt {
			return t, nil
		}
	}
	return nil, nil
}

func (f *fakeLedger) AnnotateTransaction(id string, meta entity.Metadata) error {
	for i := range f.txns {
		if f.txns[i].ID != id {
			continue
		}
		if f.txns[i].Metadata == nil {
			f.txns[i].Metadata = entity.Metadata{}
		}
		for k, v := range meta {
			f.txns[i].Metadata[k] = v
		}
		if receipt, ok := meta[repository.MetaReceiptNumber].(string); ok && receipt != "" && f.txns[i].GatewayReceipt == nil {
			f.txns[i].GatewayReceipt = &receipt
		}
		return nil
	}
	return errors.New("transaction not found")
}

func (f *fakeLedger) creditsOf(userID, txType string) []entity.Transaction {
	var out []entity.Transaction
	for _, t := range f.txns {
		if t.WalletID == userID && t.Type == txType {
			out = append(out, t)
		}
	}
	return out
}

// fakePaymentStore is an in-memory PaymentStore.
type fakePaymentStore struct {
	ledger   *fakeLedger
	pendings map[string]*entity.PendingTransaction
	payouts  []*entity.PayoutTransaction
}

func newFakePaymentStore(ledger *fakeLedger) *fakePaymentStore {
	return &fakePaymentStore{
		ledger:   ledger,
		pendings: map[string]*entity.PendingTransaction{},
	}
}

type fakePendingScope struct {
	*fakeLedger
	store *fakePaymentStore
}

func (s fakePendingScope) SavePending(p *entity.PendingTransaction) error {
	copied := *p
	s.store.pendings[p.GatewayCheckoutID] = &copied
	return nil
}

type fakePayoutScope struct {
	*fakeLedger
	store *fakePaymentStore
}

func (s fakePayoutScope) SavePayout(p *entity.PayoutTransaction) error {
	for i := range s.store.payouts {
		if s.store.payouts[i].ID == p.ID {
			copied := *p
			s.store.payouts[i] = &copied
			return nil
		}
	}
	return errors.New("payout not found")
}

func (f *fakePaymentStore) CreatePending(ctx context.Context, p *entity.PendingTransaction) error {
	if _, ok := f.pendings[p.GatewayCheckoutID]; ok {
		return errors.New("duplicate checkout id")
	}
	copied := *p
	f.pendings[p.GatewayCheckoutID] = &copied
	return nil
}

func (f *fakePaymentStore) FindPendingByCheckoutID(ctx context.Context, checkoutID string) (*entity.PendingTransaction, error) {
	p, ok := f.pendings[checkoutID]
	if !ok {
		return nil, repository.ErrPendingNotFound
	}
	copied := *p
	return &copied, nil
}

func (f *fakePaymentStore) ReconcilePending(ctx context.Context, checkoutID string, fn func(scope repository.PendingScope, p *entity.PendingTransaction) error) error {
	p, ok := f.pendings[checkoutID]
	if !ok {
		return repository.ErrPendingNotFound
	}
	work := *p
	return fn(fakePendingScope{fakeLedger: f.ledger, store: f}, &work)
}

func (f *fakePaymentStore) CreatePayoutWithDebit(ctx context.Context, payout *entity.PayoutTransaction, debitMeta entity.Metadata) (*entity.Transaction, error) {
	txn, err := f.ledger.Debit(payout.UserID, payout.Amount, entity.TransactionTypeWithdrawal, debitMeta)
	if err != nil {
		return nil, err
	}
	payout.LinkedTransactionID = txn.ID
	copied := *payout
	f.payouts = append(f.payouts, &copied)
	return txn, nil
}

func (f *fakePaymentStore) SetPayoutConversationID(ctx context.Context, payoutID, conversationID string) error {
	for _, p := range f.payouts {
		if p.ID == payoutID {
			p.GatewayConversationID = &conversationID
			return nil
		}
	}
	return repository.ErrPayoutNotFound
}

func (f *fakePaymentStore) ReconcilePayout(ctx context.Context, conversationID, originatorID string, fn func(scope repository.PayoutScope, p *entity.PayoutTransaction) error) error {
	for _, p := range f.payouts {
		matched := (conversationID != "" && p.GatewayConversationID != nil && *p.GatewayConversationID == conversationID) ||
			(originatorID != "" && p.OriginatorID == originatorID)
		if matched {
			work := *p
			return fn(fakePayoutScope{fakeLedger: f.ledger, store: f}, &work)
		}
	}
	return repository.ErrPayoutNotFound
}

// fakeCompetitionStore is an in-memory CompetitionStore plus GameStore.
type fakeCompetitionStore struct {
	ledger  *fakeLedger
	comps   map[string]*entity.Competition
	players map[string][]*entity.CompetitionPlayer
	games   map[string]*entity.Game
	deleted []string
}

func newFakeCompetitionStore(ledger *fakeLedger) *fakeCompetitionStore {
	return &fakeCompetitionStore{
		ledger:  ledger,
		comps:   map[string]*entity.Competition{},
		players: map[string][]*entity.CompetitionPlayer{},
		games:   map[string]*entity.Game{},
	}
}

type fakeCompetitionScope struct {
	*fakeLedger
	store *fakeCompetitionStore
	comp  *entity.Competition
}

func (s fakeCompetitionScope) Players() ([]entity.CompetitionPlayer, error) {
	stored := s.store.players[s.comp.ID]
	out := make([]entity.CompetitionPlayer, 0, len(stored))
	for _, p := range stored {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	return out, nil
}

func (s fakeCompetitionScope) SaveCompetition(c *entity.Competition) error {
	copied := *c
	s.store.comps[c.Code] = &copied
	return nil
}

func (s fakeCompetitionScope) InsertPlayer(p *entity.CompetitionPlayer) error {
	for _, existing := range s.store.players[p.CompetitionID] {
		if existing.UserID == p.UserID {
			return errors.New("duplicate player")
		}
	}
	copied := *p
	s.store.players[p.CompetitionID] = append(s.store.players[p.CompetitionID], &copied)
	return nil
}

func (s fakeCompetitionScope) SavePlayer(p *entity.CompetitionPlayer) error {
	for i, existing := range s.store.players[p.CompetitionID] {
		if existing.ID == p.ID {
			copied := *p
			s.store.players[p.CompetitionID][i] = &copied
			return nil
		}
	}
	return errors.New("player not found")
}

func (s fakeCompetitionScope) DeletePlayer(p *entity.CompetitionPlayer) error {
	list := s.store.players[p.CompetitionID]
	for i, existing := range list {
		if existing.ID == p.ID {
			s.store.players[p.CompetitionID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errors.New("player not found")
}

func (s fakeCompetitionScope) DeleteCompetition(c *entity.Competition) error {
	delete(s.store.comps, c.Code)
	delete(s.store.players, c.ID)
	s.store.deleted = append(s.store.deleted, c.Code)
	return nil
}

func (s fakeCompetitionScope) FindGame(id string) (*entity.Game, error) {
	game, ok := s.store.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

func (f *fakeCompetitionStore) CreateCompetition(ctx context.Context, comp *entity.Competition, fn func(scope repository.CompetitionScope) error) error {
	copied := *comp
	f.comps[comp.Code] = &copied
	return fn(fakeCompetitionScope{fakeLedger: f.ledger, store: f, comp: comp})
}

func (f *fakeCompetitionStore) WithCompetitionByCode(ctx context.Context, code string, fn func(scope repository.CompetitionScope, comp *entity.Competition) error) error {
	comp, ok := f.comps[code]
	if !ok {
		return repository.ErrCompetitionNotFound
	}
	work := *comp
	return fn(fakeCompetitionScope{fakeLedger: f.ledger, store: f, comp: &work}, &work)
}

func (f *fakeCompetitionStore) FindByCode(ctx context.Context, code string) (*entity.Competition, []entity.CompetitionPlayer, error) {
	comp, ok := f.comps[code]
	if !ok {
		return nil, nil, repository.ErrCompetitionNotFound
	}
	copied := *comp
	players, _ := fakeCompetitionScope{fakeLedger: f.ledger, store: f, comp: &copied}.Players()
	return &copied, players, nil
}

func (f *fakeCompetitionStore) ListPublic(ctx context.Context, limit int) ([]entity.Competition, error) {
	var out []entity.Competition
	for _, comp := range f.comps {
		if comp.Privacy == entity.CompetitionPrivacyPublic && !comp.Terminal() {
			out = append(out, *comp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (f *fakeCompetitionStore) ListCodesDueToStart(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var codes []string
	for code, comp := range f.comps {
		if comp.Status == entity.CompetitionStatusUpcoming && !comp.StartsAt.After(now) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

func (f *fakeCompetitionStore) ListCodesOverdue(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var codes []string
	for code, comp := range f.comps {
		if !comp.Terminal() && !comp.EndsAt.After(now) {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes, nil
}

type fakeGameStore struct {
	games map[string]*entity.Game
}

func (f *fakeGameStore) FindByID(ctx context.Context, id string) (*entity.Game, error) {
	game, ok := f.games[id]
	if !ok {
		return nil, repository.ErrGameNotFound
	}
	copied := *game
	return &copied, nil
}

// fakeGateway scripts payment gateway responses.
type fakeGateway struct {
	depositResult *mpesa.DepositResult
	depositErr    error
	statusResult  *model.GatewayResult
	statusErr     error
	payoutResult  *mpesa.PayoutResult
	payoutErr     error

	statusCalls int
}

func (g *fakeGateway) ValidateAmount(amount int64) error {
	if amount < 1 || amount > 250000 {
		return &mpesa.RequestError{Code: 400, Description: "amount out of bounds"}
	}
	return nil
}

func (g *fakeGateway) RequestDeposit(ctx context.Context, phone string, amount int64, reference string) (*mpesa.DepositResult, error) {
	if g.depositErr != nil {
		return nil, g.depositErr
	}
	return g.depositResult, nil
}

func (g *fakeGateway) QueryDepositStatus(ctx context.Context, checkoutID string) (*model.GatewayResult, error) {
	g.statusCalls++
	if g.statusErr != nil {
		return nil, g.statusErr
	}
	return g.statusResult, nil
}

func (g *fakeGateway) RequestPayout(ctx context.Context, originatorID, phone string, amount int64, remarks string) (*mpesa.PayoutResult, error) {
	if g.payoutErr != nil {
		return nil, g.payoutErr
	}
	return g.payoutResult, nil
}
