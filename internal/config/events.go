package config

import (
	"log/slog"
	"strings"

	"github.com/quizdeck/quiz-service/internal/events"
)

// EventConfig controls the optional Kafka mirror for platform events. The
// in-process dispatch bus always runs; Kafka only adds an external copy.
type EventConfig struct {
	MirrorEnabled bool
	KafkaBrokers  string
	EventTopic    string
}

func LoadEventConfig() EventConfig {
	return EventConfig{
		MirrorEnabled: getEnv("EVENTS_KAFKA_MIRROR", "false") == "true",
		KafkaBrokers:  getEnv("KAFKA_BROKERS", "localhost:9092"),
		EventTopic:    getEnv("EVENT_TOPIC", "quiz-platform-events"),
	}
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return strings.Split(c.KafkaBrokers, ",")
}

// CreateEventPublisher builds the external event publisher. With the mirror
// disabled the mock publisher keeps the wiring alive without a broker.
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.MirrorEnabled {
		logger.Info("Kafka event mirror disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	logger.Info("Creating Kafka event publisher",
		"brokers", c.KafkaBrokers,
		"topic", c.EventTopic)

	return events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: c.GetKafkaBrokers(),
		TopicName:    c.EventTopic,
		Logger:       logger,
	})
}
