package model

// PaymentEvent notifies downstream consumers of a resolved deposit or
// payout. Like all producer traffic it is fire-and-forget.
type PaymentEvent struct {
	EventID   string `json:"event_id"`
	UserID    string `json:"user_id"`
	Kind      string `json:"kind"` // DEPOSIT or WITHDRAWAL
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
	Reference string `json:"reference"`
}

func (e *PaymentEvent) GetId() string {
	return e.EventID
}
