package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-consulting-be/internal/pkg/logger"
	"ai-consulting-be/pkg/events"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// EventHandler is a function that processes an event.
type EventHandler func(ctx context.Context, event events.Event) error

// Subscriber listens for conversation events.
type Subscriber struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	logger logger.ILogger
}

func NewSubscriber(url string, logger logger.ILogger) (*Subscriber, error) {
	nc, js, err := connect(url)
	if err != nil {
		return nil, err
	}
	return &Subscriber{nc: nc, js: js, logger: logger}, nil
}

// Decode parses a message body produced by Publisher.Publish.
func Decode(data []byte) (events.BaseEvent, error) {
	var evt events.BaseEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return events.BaseEvent{}, err
	}
	if evt.Type == "" {
		return events.BaseEvent{}, fmt.Errorf("event without type")
	}
	return evt, nil
}

// Subscribe consumes subject until ctx is done. An empty durableName creates an
// ephemeral consumer that only sees new messages.
func (s *Subscriber) Subscribe(ctx context.Context, subject, durableName string, handler EventHandler) error {
	cfg := jetstream.ConsumerConfig{
		Durable:       durableName,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
	}
	if durableName == "" {
		cfg.DeliverPolicy = jetstream.DeliverNewPolicy
	}

	consumer, err := s.js.CreateOrUpdateConsumer(ctx, StreamName, cfg)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %w", err)
	}

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		s.handle(ctx, msg.Subject(), msg.Data(), handler, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	<-ctx.Done()
	cc.Stop()
	return nil
}

// acker is the part of jetstream.Msg that settles a delivery.
type acker interface {
	Ack() error
	Nak() error
	Term() error
}

// handle decodes one delivery and settles it: undecodable messages are
// terminated, handler failures are redelivered.
func (s *Subscriber) handle(ctx context.Context, subject string, data []byte, handler EventHandler, msg acker) {
	evt, err := Decode(data)
	if err != nil {
		s.logger.Warn("NATS", "Dropping undecodable event", map[string]interface{}{
			"subject": subject,
			"error":   err.Error(),
		})
		_ = msg.Term()
		return
	}

	if err := handler(ctx, evt); err != nil {
		s.logger.Warn("NATS", "Event handler failed", map[string]interface{}{
			"subject": subject,
			"type":    evt.Type,
			"error":   err.Error(),
		})
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// Close closes the connection.
func (s *Subscriber) Close() {
	if s.nc != nil {
		s.nc.Close()
	}
}
