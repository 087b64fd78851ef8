package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/channels/gochannel"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/channels/kafka"
	"github.com/MozzzieStudio/CinemaOS-sub000/pkg/eventbus"
)

// NewEventBus creates the job event bus. "kafka" connects to the brokers in
// KAFKA_BROKERS; "gochannel" is the in-memory bus for single-process
// deployments where the gateway and runner share one binary.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "cinemaos")
		if err != nil {
			panic(fmt.Errorf("failed to create Kafka pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	case "gochannel":
		pub, sub, err := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		if err != nil {
			panic(fmt.Errorf("failed to create in-memory pub/sub: %w", err))
		}

		return eventbus.NewWatermillEventBus(pub, sub)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
