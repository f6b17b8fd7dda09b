package events

import (
	"context"

	"github.com/boddenberg/jobflow-bfa-go/internal/domain"
	"go.uber.org/zap"
)

// LogPublisher is used when no broker is configured: events are only logged at debug level.
type LogPublisher struct {
	logger *zap.Logger
}

func NewLogPublisher(logger *zap.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.Named("events")}
}

func (p *LogPublisher) Publish(_ context.Context, event domain.Event) {
	p.logger.Debug("event",
		zap.String("event_type", string(event.Type)),
		zap.String("key", event.Key),
		zap.Any("attributes", event.Attributes),
	)
}
