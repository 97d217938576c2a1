// Package consumer reads workout lifecycle events from Kafka and hands them to a Handler.
package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// Reader is the part of *kafka.Reader the processor drives.
type Reader interface {
	FetchMessage(context.Context) (kafka.Message, error)
	CommitMessages(context.Context, ...kafka.Message) error
	Close() error
}

// Handler receives decoded events.
type Handler interface {
	Handle(context.Context, Message) error
}

// Message is a workout event with its wire framing removed.
type Message struct {
	Topic         string
	Partition     int
	Offset        int64
	Timestamp     time.Time
	Key           string
	EventType     string
	SchemaSubject string
	SchemaID      int
	Payload       json.RawMessage
}

// WorkoutID extracts the workout_id every workout event carries.
func (m Message) WorkoutID() (string, error) {
	var body struct {
		WorkoutID string `json:"workout_id"`
	}
	if err := json.Unmarshal(m.Payload, &body); err != nil {
		return "", fmt.Errorf("decode %s payload: %w", m.EventType, err)
	}
	if body.WorkoutID == "" {
		return "", fmt.Errorf("%s payload has no workout_id", m.EventType)
	}
	return body.WorkoutID, nil
}

// Option configures optional behaviour for the Processor.
type Option func(*Processor)

// WithLogger overrides the logger used to report errors.
func WithLogger(logger *log.Logger) Option {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithRetry sets how many times a failing handler is called for one message and the
// pause between calls. The pause doubles after each failure.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(p *Processor) {
		if attempts < 1 {
			attempts = 1
		}
		p.attempts = attempts
		p.backoff = backoff
	}
}

// Processor pulls messages from Kafka, decodes them and dispatches them to a Handler.
type Processor struct {
	reader   Reader
	handler  Handler
	logger   *log.Logger
	attempts int
	backoff  time.Duration
}

// NewProcessor constructs a Processor with the provided reader and handler.
func NewProcessor(reader Reader, handler Handler, opts ...Option) *Processor {
	p := &Processor{
		reader:   reader,
		handler:  handler,
		logger:   log.New(log.Writer(), "[consumer] ", log.LstdFlags|log.Lshortfile),
		attempts: 3,
		backoff:  500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes messages until ctx is cancelled. Every fetched message is committed
// once it has been handled, retried to exhaustion, or found undecodable; a later
// commit on the partition would move past it anyway.
func (p *Processor) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		raw, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			p.logger.Printf("fetch error: %v", err)
			continue
		}

		msg, err := decodeMessage(raw)
		switch {
		case err != nil:
			p.logger.Printf("decode error (topic=%s, partition=%d, offset=%d): %v", raw.Topic, raw.Partition, raw.Offset, err)
			recordOutcome(raw.Topic, "", outcomeUndecodable)
		case p.handle(ctx, msg) != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			recordOutcome(msg.Topic, msg.EventType, outcomeDropped)
		default:
			recordOutcome(msg.Topic, msg.EventType, outcomeProcessed)
			recordLatest(msg)
		}

		if err := p.reader.CommitMessages(ctx, raw); err != nil {
			p.logger.Printf("commit error (topic=%s, offset=%d): %v", raw.Topic, raw.Offset, err)
		}
	}
}

func (p *Processor) handle(ctx context.Context, msg Message) error {
	delay := p.backoff
	var err error
	for attempt := 1; attempt <= p.attempts; attempt++ {
		if err = p.handler.Handle(ctx, msg); err == nil {
			return nil
		}
		p.logger.Printf("handler error (event_type=%s, key=%s, attempt=%d/%d): %v", msg.EventType, msg.Key, attempt, p.attempts, err)
		if attempt == p.attempts {
			break
		}
		recordOutcome(msg.Topic, msg.EventType, outcomeRetried)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}

func decodeMessage(raw kafka.Message) (Message, error) {
	if len(raw.Value) < 5 {
		return Message{}, fmt.Errorf("invalid payload length: %d", len(raw.Value))
	}
	if raw.Value[0] != 0 {
		return Message{}, fmt.Errorf("unexpected magic byte: %d", raw.Value[0])
	}

	eventType, ok := header(raw, "event_type")
	if !ok {
		return Message{}, errors.New("missing event_type header")
	}
	subject, _ := header(raw, "schema_subject")

	return Message{
		Topic:         raw.Topic,
		Partition:     raw.Partition,
		Offset:        raw.Offset,
		Timestamp:     raw.Time,
		Key:           string(raw.Key),
		EventType:     eventType,
		SchemaSubject: subject,
		SchemaID:      int(binary.BigEndian.Uint32(raw.Value[1:5])),
		Payload:       json.RawMessage(append([]byte(nil), raw.Value[5:]...)),
	}, nil
}

func header(raw kafka.Message, key string) (string, bool) {
	for _, h := range raw.Headers {
		if h.Key == key {
			return string(h.Value), true
		}
	}
	return "", false
}
