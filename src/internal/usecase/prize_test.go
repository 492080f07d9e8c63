package usecase

import (
	"testing"
	"time"

	"competition-service/src/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetEntry(t *testing.T) {
	tests := []struct {
		name     string
		entryFee int64
		privacy  string
		want     int64
	}{
		{"private 50", 50, entity.CompetitionPrivacyPrivate, 42},
		{"private 100", 100, entity.CompetitionPrivacyPrivate, 85},
		{"public 100", 100, entity.CompetitionPrivacyPublic, 80},
		{"public 99 floors", 99, entity.CompetitionPrivacyPublic, 79},
		{"zero fee", 0, entity.CompetitionPrivacyPrivate, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, netEntry(tt.entryFee, tt.privacy))
			assert.Equal(t, tt.entryFee, netEntry(tt.entryFee, tt.privacy)+platformFee(tt.entryFee, tt.privacy))
		})
	}
}

func player(userID string, score int64, played bool, joinedOffset time.Duration) entity.CompetitionPlayer {
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	p := entity.CompetitionPlayer{
		UserID:    userID,
		Score:     score,
		HasPlayed: played,
		JoinedAt:  base.Add(joinedOffset),
	}
	if played {
		playedAt := base.Add(joinedOffset + time.Hour)
		p.PlayedAt = &playedAt
	}
	return p
}

func TestRankPlayers(t *testing.T) {
	players := []entity.CompetitionPlayer{
		player("late-idle", 0, false, 3*time.Minute),
		player("second", 70, true, 2*time.Minute),
		player("winner", 90, true, time.Minute),
		player("early-idle", 0, false, 0),
	}

	ranked := rankPlayers(players)
	require.Len(t, ranked, 4)
	assert.Equal(t, "winner", ranked[0].UserID)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, "second", ranked[1].UserID)
	assert.Equal(t, 2, ranked[1].Rank)
	// Non-players follow in join order, scored zero.
	assert.Equal(t, "early-idle", ranked[2].UserID)
	assert.Equal(t, 3, ranked[2].Rank)
	assert.Equal(t, int64(0), ranked[2].Score)
	assert.Equal(t, "late-idle", ranked[3].UserID)
	assert.Equal(t, 4, ranked[3].Rank)
}

func TestRankPlayersTopTieSharesRankOne(t *testing.T) {
	players := []entity.CompetitionPlayer{
		player("a", 80, true, 0),
		player("b", 80, true, time.Minute),
		player("c", 50, true, 2*time.Minute),
	}

	ranked := rankPlayers(players)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 1, ranked[1].Rank)
	assert.Equal(t, 3, ranked[2].Rank)
}

func TestDistributePrizes(t *testing.T) {
	t.Run("empty pool", func(t *testing.T) {
		ranked := rankPlayers([]entity.CompetitionPlayer{player("a", 10, true, 0)})
		assert.Nil(t, distributePrizes(0, ranked))
	})

	t.Run("nobody played", func(t *testing.T) {
		ranked := rankPlayers([]entity.CompetitionPlayer{player("a", 0, false, 0)})
		assert.Nil(t, distributePrizes(1000, ranked))
	})

	t.Run("single player takes everything", func(t *testing.T) {
		ranked := rankPlayers([]entity.CompetitionPlayer{
			player("a", 10, true, 0),
			player("idle", 0, false, time.Minute),
		})
		awards := distributePrizes(1000, ranked)
		require.Len(t, awards, 1)
		assert.Equal(t, "a", awards[0].UserID)
		assert.Equal(t, int64(1000), awards[0].Amount)
	})

	t.Run("two players split 75/25 with remainder to second", func(t *testing.T) {
		ranked := rankPlayers([]entity.CompetitionPlayer{
			player("a", 10, true, 0),
			player("b", 5, true, time.Minute),
		})
		awards := distributePrizes(1001, ranked)
		require.Len(t, awards, 2)
		assert.Equal(t, int64(750), awards[0].Amount)
		assert.Equal(t, int64(251), awards[1].Amount)
		assert.Equal(t, int64(1001), awards[0].Amount+awards[1].Amount)
	})

	t.Run("three players split 75/15/remainder", func(t *testing.T) {
		ranked := rankPlayers([]entity.CompetitionPlayer{
			player("a", 30, true, 0),
			player("b", 20, true, time.Minute),
			player("c", 10, true, 2*time.Minute),
			player("d", 5, true, 3*time.Minute),
		})
		awards := distributePrizes(1000, ranked)
		require.Len(t, awards, 3)
		assert.Equal(t, int64(750), awards[0].Amount)
		assert.Equal(t, int64(150), awards[1].Amount)
		assert.Equal(t, int64(100), awards[2].Amount)
	})

	t.Run("top tie splits pool evenly, remainder undistributed", func(t *testing.T) {
		ranked := rankPlayers([]entity.CompetitionPlayer{
			player("a", 50, true, 0),
			player("b", 50, true, time.Minute),
			player("c", 10, true, 2*time.Minute),
		})
		awards := distributePrizes(1001, ranked)
		require.Len(t, awards, 2)
		assert.Equal(t, int64(500), awards[0].Amount)
		assert.Equal(t, int64(500), awards[1].Amount)
		assert.Equal(t, 1, awards[0].Rank)
		assert.Equal(t, 1, awards[1].Rank)
	})

	t.Run("sum never exceeds pool", func(t *testing.T) {
		pools := []int64{1, 3, 7, 99, 1000, 12345}
		ranked := rankPlayers([]entity.CompetitionPlayer{
			player("a", 3, true, 0),
			player("b", 2, true, time.Minute),
			player("c", 1, true, 2*time.Minute),
		})
		for _, pool := range pools {
			var sum int64
			for _, award := range distributePrizes(pool, ranked) {
				sum += award.Amount
			}
			assert.LessOrEqual(t, sum, pool)
		}
	})
}
