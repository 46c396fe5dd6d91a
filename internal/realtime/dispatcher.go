package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jwalitptl/clinic-queue/internal/model"
	"github.com/jwalitptl/clinic-queue/pkg/logger"
	"github.com/jwalitptl/clinic-queue/pkg/messaging"
)

// Dispatcher bridges the broker and the hub: it subscribes to the
// visit topics and rebroadcasts each event to matching displays.
type Dispatcher struct {
	hub    *Hub
	broker messaging.Broker
	logger *logger.Logger
}

// Envelope is the frame pushed to displays.
type Envelope struct {
	Type     string            `json:"type"`
	Event    *model.VisitEvent `json:"event"`
	PushedAt time.Time         `json:"pushed_at"`
}

func NewDispatcher(hub *Hub, broker messaging.Broker, logger *logger.Logger) *Dispatcher {
	return &Dispatcher{
		hub:    hub,
		broker: broker,
		logger: logger,
	}
}

// Start subscribes to all visit topics and pumps events into the hub
// until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) error {
	topics := []string{
		model.TopicVisitCreated,
		model.TopicVisitUpdated,
		model.TopicVisitArchived,
	}

	for _, topic := range topics {
		ch, err := d.broker.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		go d.pump(ctx, topic, ch)
	}
	return nil
}

func (d *Dispatcher) pump(ctx context.Context, topic string, ch <-chan []byte) {
	for {
		select {
		case <-ctx.Done():
			return
		case raw, ok := <-ch:
			if !ok {
				return
			}
			d.dispatch(topic, raw)
		}
	}
}

func (d *Dispatcher) dispatch(topic string, raw []byte) {
	var event model.VisitEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		d.logger.Error(err, "failed to decode visit event", "topic", topic)
		return
	}

	payload, err := json.Marshal(&Envelope{
		Type:     topic,
		Event:    &event,
		PushedAt: time.Now(),
	})
	if err != nil {
		d.logger.Error(err, "failed to encode realtime frame", "topic", topic)
		return
	}

	d.hub.Broadcast(payload, Scope{
		HospitalID:   event.HospitalID,
		DoctorID:     event.DoctorID,
		DepartmentID: event.DepartmentID,
	})
}
