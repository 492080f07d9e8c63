package converter

import (
	"competition-service/src/internal/entity"
	"competition-service/src/internal/model"
)

func CompetitionToResponse(comp *entity.Competition, players []entity.CompetitionPlayer) *model.CompetitionResponse {
	resp := &model.CompetitionResponse{
		ID:             comp.ID,
		Code:           comp.Code,
		CreatorID:      comp.CreatorID,
		GameID:         comp.GameID,
		Privacy:        comp.Privacy,
		MaxPlayers:     comp.MaxPlayers,
		EntryFee:       comp.EntryFee,
		TotalPrizePool: comp.TotalPrizePool,
		Status:         comp.Status,
		StartsAt:       comp.StartsAt,
		EndsAt:         comp.EndsAt,
		PlayerCount:    len(players),
	}
	for i := range players {
		p := &players[i]
		resp.Players = append(resp.Players, model.CompetitionPlayerResponse{
			UserID:    p.UserID,
			Score:     p.Score,
			HasPlayed: p.HasPlayed,
			Rank:      p.Rank,
			JoinedAt:  p.JoinedAt,
			PlayedAt:  p.PlayedAt,
		})
	}
	return resp
}

func CompetitionsToResponse(comps []entity.Competition) []model.CompetitionResponse {
	out := make([]model.CompetitionResponse, 0, len(comps))
	for i := range comps {
		out = append(out, *CompetitionToResponse(&comps[i], nil))
	}
	return out
}
