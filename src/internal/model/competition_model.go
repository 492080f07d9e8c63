package model

import "time"

type CreateCompetitionRequest struct {
	UserID     string    `json:"-" validate:"required,max=36"`
	GameID     string    `json:"gameId" validate:"required,max=36"`
	Privacy    string    `json:"privacy" validate:"required,oneof=PUBLIC PRIVATE"`
	MaxPlayers int       `json:"maxPlayers" validate:"min=0,max=1000"`
	EntryFee   int64     `json:"entryFee" validate:"min=0"`
	StartsAt   time.Time `json:"startsAt" validate:"required"`
	EndsAt     time.Time `json:"endsAt" validate:"required"`
}

type CompetitionActionRequest struct {
	UserID string `json:"-" validate:"required,max=36"`
	Code   string `json:"-" validate:"required,max=12"`
}

type SubmitScoreRequest struct {
	UserID string `json:"-" validate:"required,max=36"`
	Code   string `json:"-" validate:"required,max=12"`
	Score  int64  `json:"score" validate:"min=0"`
}

type GetCompetitionRequest struct {
	Code string `json:"-" validate:"required,max=12"`
}

type CompetitionPlayerResponse struct {
	UserID    string     `json:"userId"`
	Score     int64      `json:"score"`
	HasPlayed bool       `json:"hasPlayed"`
	Rank      int        `json:"rank,omitempty"`
	JoinedAt  time.Time  `json:"joinedAt"`
	PlayedAt  *time.Time `json:"playedAt,omitempty"`
}

type CompetitionResponse struct {
	ID             string                      `json:"id"`
	Code           string                      `json:"code"`
	CreatorID      string                      `json:"creatorId"`
	GameID         string                      `json:"gameId"`
	Privacy        string                      `json:"privacy"`
	MaxPlayers     int                         `json:"maxPlayers"`
	EntryFee       int64                       `json:"entryFee"`
	TotalPrizePool int64                       `json:"totalPrizePool"`
	Status         string                      `json:"status"`
	StartsAt       time.Time                   `json:"startsAt"`
	EndsAt         time.Time                   `json:"endsAt"`
	PlayerCount    int                         `json:"playerCount"`
	Players        []CompetitionPlayerResponse `json:"players,omitempty"`
}
