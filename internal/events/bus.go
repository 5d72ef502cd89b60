package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// DispatchTopic is the in-process topic the notification dispatcher
// subscribes to.
const DispatchTopic = "quiz.events"

// Bus is the bounded in-process event queue between publishing requests and
// the background notification dispatcher. Publishing never blocks the
// request once the buffer has room, and the dispatcher drains it on its own
// goroutine.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger *slog.Logger
}

// NewBus creates the in-process bus with a bounded buffer.
func NewBus(logger *slog.Logger) *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermill.NewSlogLogger(logger),
	)
	return &Bus{pubsub: pubsub, logger: logger}
}

// Publish puts an event on the dispatch topic.
func (b *Bus) Publish(event *Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.Metadata.Set("event_type", string(event.Type))

	if err := b.pubsub.Publish(DispatchTopic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Subscribe returns the dispatch topic's message stream.
func (b *Bus) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, DispatchTopic)
}

// Close shuts the bus down and closes subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
