package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/streadway/amqp"
)

// DefaultQueue receives lifecycle events when no queue is configured.
const DefaultQueue = "focustache_events"

// Config holds RabbitMQ connection details.
type Config struct {
	URL   string
	Queue string
}

// Event is the JSON envelope of every published message.
type Event struct {
	Type       string                 `json:"type"`
	OccurredAt time.Time              `json:"occurredAt"`
	Data       map[string]interface{} `json:"data"`
}

// Client holds the RabbitMQ connection and channel. Publishing is serialized
// because an amqp.Channel must not be used by several goroutines at once.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   string
	mu      sync.Mutex
	now     func() time.Time
}

// NewClient connects to RabbitMQ, opens a channel and declares the durable
// event queue.
func NewClient(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("rabbitmq url is empty")
	}
	queue := cfg.Queue
	if queue == "" {
		queue = DefaultQueue
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := declareQueue(ch, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	slog.Info("rabbitmq client connected", "queue", queue)

	return &Client{
		conn:    conn,
		channel: ch,
		queue:   queue,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func declareQueue(ch *amqp.Channel, queue string) error {
	_, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", queue, err)
	}
	return nil
}

// Queue returns the name of the event queue.
func (c *Client) Queue() string {
	return c.queue
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
		c.channel = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
		c.conn = nil
	}
	return errors.Join(errs...)
}

// NewEvent builds the envelope for an event raised at occurredAt.
func NewEvent(eventType string, data map[string]interface{}, occurredAt time.Time) Event {
	if data == nil {
		data = map[string]interface{}{}
	}
	return Event{Type: eventType, OccurredAt: occurredAt, Data: data}
}

// Publish sends a persistent JSON event to the event queue.
func (c *Client) Publish(ctx context.Context, eventType string, data map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	event := NewEvent(eventType, data, c.now())
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel == nil {
		return errors.New("RabbitMQ channel is not available")
	}

	err = c.channel.Publish(
		"",      // exchange: default exchange
		c.queue, // routing key: the queue name
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         eventType,
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
		})
	if err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	slog.DebugContext(ctx, "event published", "event", eventType, "queue", c.queue)
	return nil
}

// ConsumeEvents starts a goroutine that passes every delivery on the event
// queue to handler. A nil error acks the message; an error nacks it with
// requeue. The goroutine exits when ctx is done or the channel closes.
func (c *Client) ConsumeEvents(ctx context.Context, handler func(msg amqp.Delivery) error) error {
	c.mu.Lock()
	ch := c.channel
	c.mu.Unlock()
	if ch == nil {
		return errors.New("RabbitMQ channel is not available for consumption")
	}

	msgs, err := ch.Consume(
		c.queue, // queue
		"",      // consumer tag
		false,   // auto-ack
		false,   // exclusive
		false,   // no-local
		false,   // no-wait
		nil,     // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	slog.Info("waiting for events", "queue", c.queue)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					slog.Info("event consumer stopped", "queue", c.queue)
					return
				}
				dispatch(msg, handler)
			}
		}
	}()
	return nil
}

func dispatch(msg amqp.Delivery, handler func(msg amqp.Delivery) error) {
	if err := handler(msg); err != nil {
		slog.Warn("failed to process event", "delivery_tag", msg.DeliveryTag, "type", msg.Type, "error", err)
		if nackErr := msg.Nack(false, true); nackErr != nil {
			slog.Error("failed to nack event", "delivery_tag", msg.DeliveryTag, "error", nackErr)
		}
		return
	}
	if ackErr := msg.Ack(false); ackErr != nil {
		slog.Error("failed to ack event", "delivery_tag", msg.DeliveryTag, "error", ackErr)
	}
}

// AuditHandler returns a message handler that records every event in logger.
// Bodies that are not event envelopes are logged and dropped.
func AuditHandler(logger *slog.Logger) func(msg amqp.Delivery) error {
	return func(msg amqp.Delivery) error {
		var event Event
		if err := json.Unmarshal(msg.Body, &event); err != nil {
			logger.Warn("dropping malformed event", "delivery_tag", msg.DeliveryTag, "error", err)
			return nil
		}
		logger.Info("audit event",
			"type", event.Type,
			"occurred_at", event.OccurredAt,
			"data", event.Data,
		)
		return nil
	}
}
