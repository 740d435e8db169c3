package events

import (
	"context"

	"ai-consulting-be/internal/entity"
	"ai-consulting-be/internal/pkg/logger"
	pkgEvents "ai-consulting-be/pkg/events"
)

// Publisher abstracts event publishing for context changes.
// Every method is fire-and-forget; failures are logged, never returned.
type Publisher interface {
	PublishContextUpdated(ctx context.Context, snapshot *entity.ContextSnapshot, fields []string)
	PublishCapabilityUsed(ctx context.Context, sessionId, capabilityName string, usageData map[string]interface{})
	PublishStageAdvanced(ctx context.Context, sessionId, from, to string)
}

// Sink is what NatsPublisher writes to; *nats.Publisher satisfies it.
type Sink interface {
	Publish(ctx context.Context, event pkgEvents.Event) error
}

// NatsPublisher implements Publisher on top of a Sink
type NatsPublisher struct {
	sink   Sink
	logger logger.ILogger
}

// NewNatsPublisher returns a publisher that silently drops events when sink is nil.
func NewNatsPublisher(sink Sink, logger logger.ILogger) *NatsPublisher {
	return &NatsPublisher{
		sink:   sink,
		logger: logger,
	}
}

func (p *NatsPublisher) publish(ctx context.Context, evt pkgEvents.BaseEvent) {
	if p.sink == nil {
		return
	}
	if err := p.sink.Publish(ctx, evt); err != nil {
		p.logger.Warn("EVENTS", "Failed to publish event", map[string]interface{}{
			"type":       evt.Type,
			"session_id": evt.SessionId,
			"error":      err.Error(),
		})
	}
}

// PublishContextUpdated emits context_updated with the names of the patched fields
func (p *NatsPublisher) PublishContextUpdated(ctx context.Context, snapshot *entity.ContextSnapshot, fields []string) {
	if snapshot == nil {
		return
	}
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeContextUpdated, snapshot.SessionId, map[string]interface{}{
		"version": snapshot.Version,
		"stage":   snapshot.Stage,
		"fields":  fields,
	}))
}

// PublishCapabilityUsed emits capability_used
func (p *NatsPublisher) PublishCapabilityUsed(ctx context.Context, sessionId, capabilityName string, usageData map[string]interface{}) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeCapabilityUsed, sessionId, map[string]interface{}{
		"capability": capabilityName,
		"usage":      usageData,
	}))
}

// PublishStageAdvanced emits stage_advanced
func (p *NatsPublisher) PublishStageAdvanced(ctx context.Context, sessionId, from, to string) {
	p.publish(ctx, pkgEvents.New(pkgEvents.TypeStageAdvanced, sessionId, map[string]interface{}{
		"from": from,
		"to":   to,
	}))
}

type NopPublisher struct{}

func (NopPublisher) PublishContextUpdated(context.Context, *entity.ContextSnapshot, []string) {}
func (NopPublisher) PublishCapabilityUsed(context.Context, string, string, map[string]interface{}) {
}
func (NopPublisher) PublishStageAdvanced(context.Context, string, string, string) {}
