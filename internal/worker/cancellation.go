package worker

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
	"github.com/jwalitptl/clinic-queue/pkg/messaging"
)

// AppointmentCanceller is the slice of the visit service the consumer
// needs.
type AppointmentCanceller interface {
	CancelAppointment(ctx context.Context, appointmentID uuid.UUID) error
}

// CancellationConsumer listens for booking-side cancellations and
// cascades them into the live queue.
type CancellationConsumer struct {
	broker messaging.Broker
	visits AppointmentCanceller
	logger *logger.Logger
}

type cancellationEvent struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
}

func NewCancellationConsumer(broker messaging.Broker, visits AppointmentCanceller, logger *logger.Logger) *CancellationConsumer {
	return &CancellationConsumer{
		broker: broker,
		visits: visits,
		logger: logger,
	}
}

func (c *CancellationConsumer) Start(ctx context.Context) error {
	ch, err := c.broker.Subscribe(ctx, model.TopicAppointmentCancelled)
	if err != nil {
		return err
	}

	go c.consume(ctx, ch)
	return nil
}

func (c *CancellationConsumer) consume(ctx context.Context, ch <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}

			var event cancellationEvent
			if err := json.Unmarshal(raw, &event); err != nil {
				c.logger.Error(err, "failed to decode cancellation event")
				continue
			}
			if event.AppointmentID == uuid.Nil {
				continue
			}

			if err := c.visits.CancelAppointment(ctx, event.AppointmentID); err != nil {
				c.logger.Error(err, "failed to cascade cancellation",
					"appointment_id", event.AppointmentID.String())
			}
		}
	}
}
