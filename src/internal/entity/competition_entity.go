package entity

import "time"

const (
	CompetitionStatusUpcoming  = "UPCOMING"
	CompetitionStatusOngoing   = "ONGOING"
	CompetitionStatusCompleted = "COMPLETED"
	CompetitionStatusCanceled  = "CANCELED"

	CompetitionPrivacyPublic  = "PUBLIC"
	CompetitionPrivacyPrivate = "PRIVATE"
)

// Competition is a time-boxed contest. TotalPrizePool accumulates
// entryFee minus platform fee per paying player and only moves together
// with the matching wallet mutation.
type Competition struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	Code           string    `gorm:"size:12;uniqueIndex;not null" json:"code"`
	CreatorID      string    `gorm:"size:36;index;not null" json:"creatorId"`
	GameID         string    `gorm:"size:36;index;not null" json:"gameId"`
	Privacy        string    `gorm:"size:10;not null" json:"privacy"`
	MaxPlayers     int       `gorm:"not null" json:"maxPlayers"`
	EntryFee       int64     `gorm:"not null" json:"entryFee"`
	TotalPrizePool int64     `gorm:"not null" json:"totalPrizePool"`
	Status         string    `gorm:"size:12;index;not null" json:"status"`
	StartsAt       time.Time `gorm:"not null" json:"startsAt"`
	EndsAt         time.Time `gorm:"index;not null" json:"endsAt"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Terminal reports whether no further transitions are allowed.
func (c *Competition) Terminal() bool {
	return c.Status == CompetitionStatusCompleted || c.Status == CompetitionStatusCanceled
}

type CompetitionPlayer struct {
	ID            string     `gorm:"primaryKey;size:36" json:"id"`
	CompetitionID string     `gorm:"size:36;index:idx_comp_user,unique;not null" json:"competitionId"`
	UserID        string     `gorm:"size:36;index:idx_comp_user,unique;not null" json:"userId"`
	Score         int64      `gorm:"not null" json:"score"`
	HasPlayed     bool       `gorm:"not null" json:"hasPlayed"`
	Rank          int        `gorm:"not null" json:"rank"`
	Paid          bool       `gorm:"not null" json:"paid"`
	JoinedAt      time.Time  `gorm:"not null" json:"joinedAt"`
	PlayedAt      *time.Time `json:"playedAt,omitempty"`
}
