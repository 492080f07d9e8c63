package messaging

import (
	"competition-service/src/internal/model"
	"competition-service/src/pkg/log"

	kafka "competition-service/src/pkg/kafka/confluent"
)

const (
	TopicCompetitionEvents = "competition-events"
	TopicPaymentEvents     = "payment-events"
)

type CompetitionProducer struct {
	Producer[*model.CompetitionEvent]
}

func NewCompetitionProducer(producer kafka.Producer, logger log.Log) *CompetitionProducer {
	return &CompetitionProducer{
		Producer: Producer[*model.CompetitionEvent]{
			Producer: producer,
			Topic:    TopicCompetitionEvents,
			Log:      logger,
		},
	}
}

type PaymentProducer struct {
	Producer[*model.PaymentEvent]
}

func NewPaymentProducer(producer kafka.Producer, logger log.Log) *PaymentProducer {
	return &PaymentProducer{
		Producer: Producer[*model.PaymentEvent]{
			Producer: producer,
			Topic:    TopicPaymentEvents,
			Log:      logger,
		},
	}
}
