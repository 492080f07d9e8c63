package usecase

import (
	"sort"

	"competition-service/src/internal/entity"
	"competition-service/src/internal/model"
)

// Platform fee rates in percent, keyed by competition privacy.
const (
	feeRatePrivate = 15
	feeRatePublic  = 20
)

// netEntry is the portion of the entry fee that enters the prize pool, and
// the amount refunded on leave or cancellation. Floored on the net side, so
// the operator keeps the rounding remainder.
func netEntry(entryFee int64, privacy string) int64 {
	rate := int64(feeRatePublic)
	if privacy == entity.CompetitionPrivacyPrivate {
		rate = feeRatePrivate
	}
	return entryFee * (100 - rate) / 100
}

func platformFee(entryFee int64, privacy string) int64 {
	return entryFee - netEntry(entryFee, privacy)
}

// rankPlayers orders players for settlement and assigns 1-indexed ranks.
// Players who played sort by score descending, join order breaking equal
// scores; players who never played follow in join order with score zero.
// Everyone tied at the top score shares rank 1.
func rankPlayers(players []entity.CompetitionPlayer) []entity.CompetitionPlayer {
	ranked := make([]entity.CompetitionPlayer, len(players))
	copy(ranked, players)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].HasPlayed != ranked[j].HasPlayed {
			return ranked[i].HasPlayed
		}
		if !ranked[i].HasPlayed {
			return ranked[i].JoinedAt.Before(ranked[j].JoinedAt)
		}
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].JoinedAt.Before(ranked[j].JoinedAt)
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
		if !ranked[i].HasPlayed {
			ranked[i].Score = 0
		}
	}
	if len(ranked) > 0 && ranked[0].HasPlayed {
		top := ranked[0].Score
		for i := range ranked {
			if ranked[i].HasPlayed && ranked[i].Score == top {
				ranked[i].Rank = 1
			}
		}
	}
	return ranked
}

// distributePrizes computes prize awards from the pool and the ranked
// players. Only players who actually played are eligible. All arithmetic is
// integer on minor units; flooring remainders at a top-score tie are retained
// by the pool, never distributed.
func distributePrizes(pool int64, ranked []entity.CompetitionPlayer) []model.PrizeAwardMessage {
	if pool <= 0 {
		return nil
	}

	var played []entity.CompetitionPlayer
	for _, p := range ranked {
		if p.HasPlayed {
			played = append(played, p)
		}
	}
	if len(played) == 0 {
		return nil
	}

	topScore := played[0].Score
	tied := 0
	for _, p := range played {
		if p.Score == topScore {
			tied++
		}
	}

	if tied >= 2 {
		share := pool / int64(tied)
		awards := make([]model.PrizeAwardMessage, 0, tied)
		for _, p := range played[:tied] {
			awards = append(awards, model.PrizeAwardMessage{
				UserID: p.UserID,
				Rank:   1,
				Amount: share,
			})
		}
		return awards
	}

	switch {
	case len(played) == 1:
		return []model.PrizeAwardMessage{
			{UserID: played[0].UserID, Rank: 1, Amount: pool},
		}
	case len(played) == 2:
		first := pool * 75 / 100
		return []model.PrizeAwardMessage{
			{UserID: played[0].UserID, Rank: 1, Amount: first},
			{UserID: played[1].UserID, Rank: 2, Amount: pool - first},
		}
	default:
		first := pool * 75 / 100
		second := pool * 15 / 100
		return []model.PrizeAwardMessage{
			{UserID: played[0].UserID, Rank: 1, Amount: first},
			{UserID: played[1].UserID, Rank: 2, Amount: second},
			{UserID: played[2].UserID, Rank: 3, Amount: pool - first - second},
		}
	}
}
