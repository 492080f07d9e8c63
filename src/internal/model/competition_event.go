package model

type PrizeAwardMessage struct {
	UserID string `json:"userId"`
	Rank   int    `json:"rank"`
	Amount int64  `json:"amount"`
}

// CompetitionEvent notifies downstream consumers of a lifecycle transition.
// Publishing is fire-and-forget; it never participates in the settlement
// transaction.
type CompetitionEvent struct {
	EventID   string              `json:"event_id"`
	Code      string              `json:"code"`
	Status    string              `json:"status"`
	PrizePool int64               `json:"prize_pool"`
	Awards    []PrizeAwardMessage `json:"awards,omitempty"`
}

func (e *CompetitionEvent) GetId() string {
	return e.EventID
}
