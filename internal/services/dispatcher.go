package services

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/quizdeck/quiz-service/internal/events"
	"github.com/quizdeck/quiz-service/internal/utils"
)

// Dispatcher drains the in-process event bus on a background goroutine and
// turns quiz published events into notification fan-outs. Every message is
// acked regardless of handling outcome: a failed fan-out is logged, never
// redelivered, and never touches the request that published the event.
type Dispatcher struct {
	bus           *events.Bus
	notifications NotificationService
	logger        utils.Logger
}

func NewDispatcher(bus *events.Bus, notifications NotificationService, logger utils.Logger) *Dispatcher {
	return &Dispatcher{
		bus:           bus,
		notifications: notifications,
		logger:        logger,
	}
}

// Run consumes events until ctx is cancelled or the bus closes.
func (d *Dispatcher) Run(ctx context.Context) error {
	messages, err := d.bus.Subscribe(ctx)
	if err != nil {
		return err
	}

	d.logger.Info("Notification dispatcher started", "topic", events.DispatchTopic)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Notification dispatcher stopping")
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				d.logger.Info("Notification dispatcher stopped, bus closed")
				return nil
			}
			d.handle(ctx, msg)
			msg.Ack()
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, msg *message.Message) {
	var envelope events.Event
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		d.logger.LogError(err, "Dropping unreadable event", "message_id", msg.UUID)
		return
	}

	switch envelope.Type {
	case events.EventQuizPublished:
		d.handleQuizPublished(ctx, &envelope)
	case events.EventAttemptCompleted:
		// Consumed by downstream systems via the Kafka mirror; nothing to
		// fan out in-process.
	default:
		d.logger.Warn("Ignoring event with unknown type",
			"event_type", envelope.Type,
			"event_id", envelope.ID)
	}
}

func (d *Dispatcher) handleQuizPublished(ctx context.Context, envelope *events.Event) {
	data, err := json.Marshal(envelope.Data)
	if err != nil {
		d.logger.LogError(err, "Failed to re-encode event data", "event_id", envelope.ID)
		return
	}
	var event events.QuizPublishedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		d.logger.LogError(err, "Failed to decode quiz published event", "event_id", envelope.ID)
		return
	}

	err = d.notifications.NotifyQuizPublished(ctx,
		event.QuizID, event.QuizTitle,
		event.CompanyID, event.CompanyName,
		event.CreatorID)
	if err != nil {
		d.logger.LogError(err, "Quiz published fan-out failed",
			"event_id", envelope.ID,
			"quiz_id", event.QuizID)
	}
}
