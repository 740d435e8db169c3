package capability

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"ai-consulting-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const Topic = "capability.used"

// Handler is what consumed messages are handed to; *Recorder satisfies it.
type Handler interface {
	Record(ctx context.Context, sessionId, name string, usageData map[string]interface{})
}

type usageMessage struct {
	SessionId  string                 `json:"sessionId"`
	Capability string                 `json:"capability"`
	UsageData  map[string]interface{} `json:"usageData,omitempty"`
}

// Dispatcher decouples capability recording from the request path. Dispatch
// returns immediately; a single consumer goroutine records each message under
// a bounded timeout.
type Dispatcher struct {
	pubSub  *gochannel.GoChannel
	handler Handler
	timeout time.Duration
	logger  logger.ILogger

	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewDispatcher(pubSub *gochannel.GoChannel, handler Handler, timeout time.Duration, logger logger.ILogger) *Dispatcher {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Dispatcher{
		pubSub:  pubSub,
		handler: handler,
		timeout: timeout,
		logger:  logger,
	}
}

// NewPubSub builds the in-process channel the dispatcher runs on.
func NewPubSub(debug bool) *gochannel.GoChannel {
	return gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermill.NewStdLogger(debug, false),
	)
}

// Start subscribes and processes messages until ctx is done or Close is called.
// Messages dispatched before Start are dropped.
func (d *Dispatcher) Start(ctx context.Context) error {
	messages, err := d.pubSub.Subscribe(ctx, Topic)
	if err != nil {
		return err
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for msg := range messages {
			d.process(msg)
		}
	}()
	return nil
}

func (d *Dispatcher) process(msg *message.Message) {
	// always ack: recording is best-effort and redelivery would double-log
	defer msg.Ack()

	var payload usageMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		d.logger.Error("CAPABILITY", "Failed to unmarshal capability message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	d.handler.Record(ctx, payload.SessionId, payload.Capability, payload.UsageData)
}

// Dispatch enqueues a capability for recording without waiting for it.
func (d *Dispatcher) Dispatch(sessionId, name string, usageData map[string]interface{}) {
	payload, err := json.Marshal(usageMessage{
		SessionId:  sessionId,
		Capability: name,
		UsageData:  usageData,
	})
	if err != nil {
		d.logger.Error("CAPABILITY", "Failed to marshal capability message", map[string]interface{}{
			"session_id": sessionId,
			"error":      err.Error(),
		})
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := d.pubSub.Publish(Topic, msg); err != nil {
		d.logger.Error("CAPABILITY", "Failed to dispatch capability message", map[string]interface{}{
			"session_id": sessionId,
			"capability": name,
			"error":      err.Error(),
		})
	}
}

// Close stops the consumer and waits for the in-flight message.
func (d *Dispatcher) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.pubSub.Close()
		d.wg.Wait()
	})
	return err
}
