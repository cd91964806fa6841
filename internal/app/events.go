package app

import (
	"log/slog"

	"commute/internal/config"
	"commute/internal/events"
)

// NewPublisher returns a Kafka publisher when brokers are configured and a
// log publisher otherwise.
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) events.Publisher {
	if len(cfg.Brokers) == 0 {
		logger.Info("no kafka brokers configured, lifecycle events go to the log")
		return events.NewLogPublisher(logger)
	}
	logger.Info("publishing lifecycle events to kafka", "brokers", cfg.Brokers, "topic", cfg.Topic)
	return events.NewKafkaPublisher(cfg.Brokers, cfg.Topic)
}
