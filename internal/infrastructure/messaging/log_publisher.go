// internal/infrastructure/messaging/log_publisher.go
package messaging

import (
	"context"

	"github.com/sirupsen/logrus"
)

// LogPublisher writes events to the log instead of a broker.
// It is used when Kafka is disabled.
type LogPublisher struct {
	log logrus.FieldLogger
}

// NewLogPublisher creates a publisher backed by the logger
func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, key string, event any) error {
	p.log.WithFields(logrus.Fields{
		"key":   key,
		"event": event,
	}).Info("order event")
	return nil
}

func (p *LogPublisher) Close() error {
	return nil
}
