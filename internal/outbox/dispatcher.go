// Package outbox delivers workout lifecycle events recorded in Postgres to Kafka.
package outbox

import (
	"cmp"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/segmentio/kafka-go"
)

const defaultClaimLease = 30 * time.Second

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

type schemaRegistrar interface {
	EnsureSchema(context.Context, string, string) (int, error)
}

// Message is an outbox row claimed for delivery.
type Message struct {
	EventID       int64
	AggregateType string
	AggregateID   string
	EventType     string
	Topic         string
	SchemaSubject string
	PartitionKey  string
	Payload       json.RawMessage
}

// DispatcherOption configures optional behaviour for the Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherLogger overrides the logger used by the dispatcher.
func WithDispatcherLogger(logger *log.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithClaimLease sets how long claimed rows stay hidden from other dispatchers. A batch
// whose dispatcher dies before marking it published becomes claimable again once the
// lease runs out.
func WithClaimLease(lease time.Duration) DispatcherOption {
	return func(d *Dispatcher) {
		if lease > 0 {
			d.lease = lease
		}
	}
}

// Dispatcher polls the outbox and publishes workout events to Kafka, one event type at
// a time, with Schema Registry framing.
type Dispatcher struct {
	pool      *pgxpool.Pool
	producer  messageWriter
	registry  schemaRegistrar
	dlq       *DLQWriter
	logger    *log.Logger
	interval  time.Duration
	batchSize int
	lease     time.Duration
	schemaIDs sync.Map
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(pool *pgxpool.Pool, producer messageWriter, registry schemaRegistrar, interval time.Duration, batchSize int, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		pool:      pool,
		producer:  producer,
		registry:  registry,
		dlq:       NewDLQWriter(pool),
		logger:    log.New(log.Writer(), "[outbox] ", log.LstdFlags),
		interval:  interval,
		batchSize: batchSize,
		lease:     defaultClaimLease,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run publishes pending events every interval until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		if err := d.processBatch(ctx); err != nil && ctx.Err() == nil {
			d.logger.Printf("batch failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (d *Dispatcher) processBatch(ctx context.Context) error {
	start := time.Now()

	claimed, err := d.claim(ctx)
	if err != nil || len(claimed) == 0 {
		return err
	}
	defer func() { batchDuration.Observe(time.Since(start).Seconds()) }()

	for _, failure := range d.publish(ctx, claimed) {
		d.logger.Printf("deliver %s: %v", failure.eventType, failure.err)
		if err := d.dlq.Write(ctx, failure.err.Error(), failure.messages...); err != nil {
			return fmt.Errorf("dead-letter %s: %w", failure.eventType, err)
		}
		recordStage(stageDeadLettered, failure.messages...)
	}
	return d.markPublished(ctx, claimed)
}

// claim leases up to batchSize unpublished rows in a single statement. Rows leased by
// another dispatcher are skipped until their lease expires.
func (d *Dispatcher) claim(ctx context.Context) ([]Message, error) {
	const stmt = `UPDATE outbox SET claimed_at = NOW()
        WHERE event_id IN (
            SELECT event_id FROM outbox
            WHERE published_at IS NULL
              AND (claimed_at IS NULL OR claimed_at < NOW() - make_interval(secs => $2))
            ORDER BY event_id
            LIMIT $1
            FOR UPDATE SKIP LOCKED)
        RETURNING event_id, aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload`

	rows, err := d.pool.Query(ctx, stmt, d.batchSize, d.lease.Seconds())
	if err != nil {
		return nil, err
	}
	claimed, err := pgx.CollectRows(rows, pgx.RowToStructByPos[Message])
	if err != nil {
		return nil, err
	}
	slices.SortFunc(claimed, func(a, b Message) int { return cmp.Compare(a.EventID, b.EventID) })
	return claimed, nil
}

type deliveryFailure struct {
	eventType string
	messages  []Message
	err       error
}

// publish delivers claimed events grouped by event type, in order of first appearance.
// A group that fails does not hold back the others.
func (d *Dispatcher) publish(ctx context.Context, claimed []Message) []deliveryFailure {
	var order []string
	groups := make(map[string][]Message)
	for _, msg := range claimed {
		if _, seen := groups[msg.EventType]; !seen {
			order = append(order, msg.EventType)
		}
		groups[msg.EventType] = append(groups[msg.EventType], msg)
	}

	var failures []deliveryFailure
	for _, eventType := range order {
		group := groups[eventType]
		if err := d.publishGroup(ctx, eventType, group); err != nil {
			recordStage(stageFailed, group...)
			failures = append(failures, deliveryFailure{eventType: eventType, messages: group, err: err})
			continue
		}
		recordStage(stageDelivered, group...)
	}
	return failures
}

func (d *Dispatcher) publishGroup(ctx context.Context, eventType string, group []Message) error {
	entry, ok := schemaCatalog[eventType]
	if !ok {
		return fmt.Errorf("no schema metadata for event_type=%s", eventType)
	}

	byTopic := make(map[string][]kafka.Message)
	var topics []string
	for _, msg := range group {
		schemaID, err := d.schemaID(ctx, msg.SchemaSubject, entry.Schema)
		if err != nil {
			return err
		}
		if _, seen := byTopic[msg.Topic]; !seen {
			topics = append(topics, msg.Topic)
		}
		byTopic[msg.Topic] = append(byTopic[msg.Topic], msg.record(schemaID))
	}

	for _, topic := range topics {
		if err := d.producer.WriteMessages(ctx, topic, byTopic[topic]...); err != nil {
			return fmt.Errorf("%w (topic=%s)", err, topic)
		}
	}
	return nil
}

func (d *Dispatcher) schemaID(ctx context.Context, subject, schema string) (int, error) {
	if id, ok := d.schemaIDs.Load(subject); ok {
		return id.(int), nil
	}
	id, err := d.registry.EnsureSchema(ctx, subject, schema)
	if err != nil {
		return 0, err
	}
	d.schemaIDs.Store(subject, id)
	return id, nil
}

func (d *Dispatcher) markPublished(ctx context.Context, claimed []Message) error {
	ids := make([]int64, len(claimed))
	for i, msg := range claimed {
		ids[i] = msg.EventID
	}
	_, err := d.pool.Exec(ctx, `UPDATE outbox SET published_at = NOW() WHERE event_id = ANY($1)`, ids)
	return err
}

// record builds the Kafka message: keyed by workout, value framed as
// magic byte 0, big-endian schema id, JSON payload.
func (m Message) record(schemaID int) kafka.Message {
	value := make([]byte, 5+len(m.Payload))
	binary.BigEndian.PutUint32(value[1:5], uint32(schemaID))
	copy(value[5:], m.Payload)

	return kafka.Message{
		Key:   []byte(m.PartitionKey),
		Value: value,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(m.EventType)},
			{Key: "schema_subject", Value: []byte(m.SchemaSubject)},
		},
	}
}
