package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"competition-service/src/internal/entity"
	"competition-service/src/internal/model"
	httpError "competition-service/src/pkg/http-error"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCompetitionFixture(t *testing.T) (*CompetitionUseCase, *fakeCompetitionStore, *fakeLedger) {
	t.Helper()
	ledger := newFakeLedger()
	store := newFakeCompetitionStore(ledger)
	store.games["game-1"] = &entity.Game{ID: "game-1", Name: "Trivia Rush", MinPlayers: 2}

	uc := NewCompetitionUseCase(
		newTestLogger(),
		newTestValidator(),
		newTestViper(),
		store,
		&fakeGameStore{games: store.games},
		nil,
		nil,
	)
	return uc, store, ledger
}

func seedComp(store *fakeCompetitionStore, code, status string, fee int64, privacy string, endsIn time.Duration) *entity.Competition {
	now := time.Now().UTC()
	comp := &entity.Competition{
		ID:        uuid.NewString(),
		Code:      code,
		CreatorID: "creator",
		GameID:    "game-1",
		Privacy:   privacy,
		EntryFee:  fee,
		Status:    status,
		StartsAt:  now.Add(-time.Hour),
		EndsAt:    now.Add(endsIn),
	}
	store.comps[code] = comp
	return comp
}

func addPlayer(store *fakeCompetitionStore, comp *entity.Competition, userID string, joinedOffset time.Duration, played bool, score int64) {
	p := &entity.CompetitionPlayer{
		ID:            uuid.NewString(),
		CompetitionID: comp.ID,
		UserID:        userID,
		Score:         score,
		HasPlayed:     played,
		Paid:          comp.EntryFee > 0,
		JoinedAt:      time.Now().UTC().Add(-time.Hour + joinedOffset),
	}
	if played {
		playedAt := time.Now().UTC().Add(-30 * time.Minute)
		p.PlayedAt = &playedAt
	}
	store.players[comp.ID] = append(store.players[comp.ID], p)
	comp.TotalPrizePool += netEntry(comp.EntryFee, comp.Privacy)
}

func requireCommonError(t *testing.T, err error, code int) {
	t.Helper()
	var common *httpError.CommonError
	require.True(t, errors.As(err, &common), "expected CommonError, got %v", err)
	assert.Equal(t, code, common.Code)
}

func TestCreateDebitsCreatorAndSeedsPool(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	ledger.balances["creator"] = 1000

	now := time.Now().UTC()
	result := uc.Create(context.Background(), &model.CreateCompetitionRequest{
		UserID:   "creator",
		GameID:   "game-1",
		Privacy:  entity.CompetitionPrivacyPrivate,
		EntryFee: 100,
		StartsAt: now.Add(-time.Minute),
		EndsAt:   now.Add(time.Hour),
	})
	require.NoError(t, result.Error)

	resp := result.Data.(*model.CompetitionResponse)
	assert.Equal(t, entity.CompetitionStatusOngoing, resp.Status)
	assert.Equal(t, int64(85), resp.TotalPrizePool)
	assert.Equal(t, 1, resp.PlayerCount)
	assert.Equal(t, int64(900), ledger.balances["creator"])

	stored := store.comps[resp.Code]
	require.NotNil(t, stored)
	assert.Equal(t, int64(85), stored.TotalPrizePool)
}

func TestCreateStartsUpcomingWhenStartInFuture(t *testing.T) {
	uc, _, ledger := newCompetitionFixture(t)
	ledger.balances["creator"] = 1000

	now := time.Now().UTC()
	result := uc.Create(context.Background(), &model.CreateCompetitionRequest{
		UserID:   "creator",
		GameID:   "game-1",
		Privacy:  entity.CompetitionPrivacyPublic,
		EntryFee: 0,
		StartsAt: now.Add(time.Hour),
		EndsAt:   now.Add(2 * time.Hour),
	})
	require.NoError(t, result.Error)
	assert.Equal(t, entity.CompetitionStatusUpcoming, result.Data.(*model.CompetitionResponse).Status)
}

func TestCreateInsufficientFunds(t *testing.T) {
	uc, _, ledger := newCompetitionFixture(t)
	ledger.balances["creator"] = 10

	now := time.Now().UTC()
	result := uc.Create(context.Background(), &model.CreateCompetitionRequest{
		UserID:   "creator",
		GameID:   "game-1",
		Privacy:  entity.CompetitionPrivacyPrivate,
		EntryFee: 100,
		StartsAt: now,
		EndsAt:   now.Add(time.Hour),
	})
	requireCommonError(t, result.Error, 400)
}

func TestJoinDebitsAndGrowsPool(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 100, entity.CompetitionPrivacyPrivate, time.Hour)
	addPlayer(store, comp, "creator", 0, false, 0)
	ledger.balances["joiner"] = 500

	result := uc.Join(context.Background(), &model.CompetitionActionRequest{
		UserID: "joiner",
		Code:   comp.Code,
	})
	require.NoError(t, result.Error)

	assert.Equal(t, int64(400), ledger.balances["joiner"])
	assert.Equal(t, int64(170), store.comps[comp.Code].TotalPrizePool)
	assert.Len(t, store.players[comp.ID], 2)
}

func TestJoinRejections(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 100, entity.CompetitionPrivacyPrivate, time.Hour)
	comp.MaxPlayers = 2
	addPlayer(store, comp, "creator", 0, false, 0)
	ledger.balances["joiner"] = 500

	t.Run("already joined", func(t *testing.T) {
		result := uc.Join(context.Background(), &model.CompetitionActionRequest{UserID: "creator", Code: comp.Code})
		requireCommonError(t, result.Error, 409)
	})

	t.Run("full", func(t *testing.T) {
		addPlayer(store, comp, "second", time.Minute, false, 0)
		result := uc.Join(context.Background(), &model.CompetitionActionRequest{UserID: "joiner", Code: comp.Code})
		requireCommonError(t, result.Error, 409)
	})

	t.Run("ended", func(t *testing.T) {
		ended := seedComp(store, "ended0000000", entity.CompetitionStatusOngoing, 0, entity.CompetitionPrivacyPublic, -time.Minute)
		result := uc.Join(context.Background(), &model.CompetitionActionRequest{UserID: "joiner", Code: ended.Code})
		requireCommonError(t, result.Error, 409)
	})

	t.Run("unknown code", func(t *testing.T) {
		result := uc.Join(context.Background(), &model.CompetitionActionRequest{UserID: "joiner", Code: "nope00000000"})
		requireCommonError(t, result.Error, 404)
	})
}

func TestLeaveRefundsNetEntry(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 50, entity.CompetitionPrivacyPrivate, time.Hour)
	addPlayer(store, comp, "creator", 0, false, 0)
	addPlayer(store, comp, "p2", time.Minute, false, 0)
	addPlayer(store, comp, "p3", 2*time.Minute, false, 0)
	poolBefore := comp.TotalPrizePool

	result := uc.Leave(context.Background(), &model.CompetitionActionRequest{UserID: "p2", Code: comp.Code})
	require.NoError(t, result.Error)

	assert.Equal(t, int64(42), ledger.balances["p2"])
	assert.Equal(t, poolBefore-42, store.comps[comp.Code].TotalPrizePool)
	assert.Len(t, store.players[comp.ID], 2)
}

func TestCreatorCannotLeaveWithCoPlayers(t *testing.T) {
	uc, store, _ := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 50, entity.CompetitionPrivacyPrivate, time.Hour)
	addPlayer(store, comp, "creator", 0, false, 0)
	addPlayer(store, comp, "p2", time.Minute, false, 0)
	addPlayer(store, comp, "p3", 2*time.Minute, false, 0)

	result := uc.Leave(context.Background(), &model.CompetitionActionRequest{UserID: "creator", Code: comp.Code})
	requireCommonError(t, result.Error, 409)
	assert.Len(t, store.players[comp.ID], 3)
}

func TestCreatorLeavingAloneDeletesCompetition(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 50, entity.CompetitionPrivacyPrivate, time.Hour)
	addPlayer(store, comp, "creator", 0, false, 0)

	result := uc.Leave(context.Background(), &model.CompetitionActionRequest{UserID: "creator", Code: comp.Code})
	require.NoError(t, result.Error)

	assert.Equal(t, int64(42), ledger.balances["creator"])
	assert.NotContains(t, store.comps, comp.Code)
	assert.Contains(t, store.deleted, comp.Code)
}

func TestLeaveBlockedOnceAnyoneHasPlayed(t *testing.T) {
	uc, store, _ := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 50, entity.CompetitionPrivacyPrivate, time.Hour)
	addPlayer(store, comp, "creator", 0, true, 30)
	addPlayer(store, comp, "p2", time.Minute, false, 0)

	result := uc.Leave(context.Background(), &model.CompetitionActionRequest{UserID: "p2", Code: comp.Code})
	requireCommonError(t, result.Error, 409)
}

func TestSubmitScoreKeepsHigherScore(t *testing.T) {
	uc, store, _ := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 0, entity.CompetitionPrivacyPublic, time.Hour)
	addPlayer(store, comp, "creator", 0, false, 0)
	addPlayer(store, comp, "p2", time.Minute, false, 0)
	addPlayer(store, comp, "p3", 2*time.Minute, false, 0)

	for _, score := range []int64{40, 25, 60} {
		result := uc.SubmitScore(context.Background(), &model.SubmitScoreRequest{
			UserID: "p2",
			Code:   comp.Code,
			Score:  score,
		})
		require.NoError(t, result.Error)
	}

	var p2 *entity.CompetitionPlayer
	for _, p := range store.players[comp.ID] {
		if p.UserID == "p2" {
			p2 = p
		}
	}
	require.NotNil(t, p2)
	assert.Equal(t, int64(60), p2.Score)
	assert.True(t, p2.HasPlayed)
}

func TestSubmitScoreAutoSettlesOnce(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 0, entity.CompetitionPrivacyPublic, time.Hour)
	comp.TotalPrizePool = 1000
	addPlayer(store, comp, "creator", 0, false, 0)
	addPlayer(store, comp, "p2", time.Minute, false, 0)

	result := uc.SubmitScore(context.Background(), &model.SubmitScoreRequest{UserID: "creator", Code: comp.Code, Score: 90})
	require.NoError(t, result.Error)
	assert.Equal(t, entity.CompetitionStatusOngoing, store.comps[comp.Code].Status)

	result = uc.SubmitScore(context.Background(), &model.SubmitScoreRequest{UserID: "p2", Code: comp.Code, Score: 70})
	require.NoError(t, result.Error)

	assert.Equal(t, entity.CompetitionStatusCompleted, store.comps[comp.Code].Status)
	assert.Equal(t, int64(750), ledger.balances["creator"])
	assert.Equal(t, int64(250), ledger.balances["p2"])

	// A submission after settlement is rejected and nothing pays out twice.
	result = uc.SubmitScore(context.Background(), &model.SubmitScoreRequest{UserID: "p2", Code: comp.Code, Score: 99})
	requireCommonError(t, result.Error, 409)
	assert.Equal(t, int64(750), ledger.balances["creator"])
	assert.Equal(t, int64(250), ledger.balances["p2"])
}

func TestSubmitScoreWaitsForGameMinimum(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 0, entity.CompetitionPrivacyPublic, time.Hour)
	comp.TotalPrizePool = 1000
	addPlayer(store, comp, "creator", 0, false, 0)

	// All players played, but the game needs two participants.
	result := uc.SubmitScore(context.Background(), &model.SubmitScoreRequest{UserID: "creator", Code: comp.Code, Score: 90})
	require.NoError(t, result.Error)

	assert.Equal(t, entity.CompetitionStatusOngoing, store.comps[comp.Code].Status)
	assert.Equal(t, int64(0), ledger.balances["creator"])
}

func TestExpireCreatorOnlyRefundsFullFeeAndDeletes(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 100, entity.CompetitionPrivacyPrivate, -time.Minute)
	addPlayer(store, comp, "creator", 0, false, 0)

	require.NoError(t, uc.ExpireOverdueCompetitions(context.Background()))

	assert.Equal(t, int64(100), ledger.balances["creator"])
	assert.NotContains(t, store.comps, comp.Code)
	assert.Contains(t, store.deleted, comp.Code)
}

func TestExpireNobodyPlayedCancelsWithNetRefunds(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 100, entity.CompetitionPrivacyPrivate, -time.Minute)
	addPlayer(store, comp, "creator", 0, false, 0)
	addPlayer(store, comp, "p2", time.Minute, false, 0)
	addPlayer(store, comp, "p3", 2*time.Minute, false, 0)

	require.NoError(t, uc.ExpireOverdueCompetitions(context.Background()))

	stored := store.comps[comp.Code]
	require.NotNil(t, stored, "record is kept, not deleted")
	assert.Equal(t, entity.CompetitionStatusCanceled, stored.Status)
	assert.Equal(t, int64(0), stored.TotalPrizePool)
	for _, userID := range []string{"creator", "p2", "p3"} {
		assert.Equal(t, int64(85), ledger.balances[userID], userID)
	}

	// Re-running the sweep must not refund again.
	require.NoError(t, uc.ExpireOverdueCompetitions(context.Background()))
	assert.Equal(t, int64(85), ledger.balances["creator"])
}

func TestExpireWithAnyPlaySettles(t *testing.T) {
	uc, store, ledger := newCompetitionFixture(t)
	comp := seedComp(store, "abc123def456", entity.CompetitionStatusOngoing, 100, entity.CompetitionPrivacyPrivate, -time.Minute)
	addPlayer(store, comp, "creator", 0, true, 40)
	addPlayer(store, comp, "p2", time.Minute, false, 0)
	poolBefore := comp.TotalPrizePool

	require.NoError(t, uc.ExpireOverdueCompetitions(context.Background()))

	stored := store.comps[comp.Code]
	assert.Equal(t, entity.CompetitionStatusCompleted, stored.Status)
	// The only player who played takes the whole pool.
	assert.Equal(t, poolBefore, ledger.balances["creator"])
	assert.Equal(t, int64(0), ledger.balances["p2"])
}

func TestActivateDueCompetitions(t *testing.T) {
	uc, store, _ := newCompetitionFixture(t)
	due := seedComp(store, "abc123def456", entity.CompetitionStatusUpcoming, 0, entity.CompetitionPrivacyPublic, time.Hour)
	notDue := seedComp(store, "fff000fff000", entity.CompetitionStatusUpcoming, 0, entity.CompetitionPrivacyPublic, 2*time.Hour)
	notDue.StartsAt = time.Now().UTC().Add(time.Hour)

	require.NoError(t, uc.ActivateDueCompetitions(context.Background()))

	assert.Equal(t, entity.CompetitionStatusOngoing, store.comps[due.Code].Status)
	assert.Equal(t, entity.CompetitionStatusUpcoming, store.comps[notDue.Code].Status)
}
