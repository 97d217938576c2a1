package outbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQManager moves dead-lettered events back into the outbox and quarantines entries
// that keep failing.
type DLQManager struct {
	pool       *pgxpool.Pool
	maxRetries int
	baseDelay  time.Duration
}

// NewDLQManager constructs a DLQManager. Non-positive settings fall back to five
// retries and a one minute base delay.
func NewDLQManager(pool *pgxpool.Pool, maxRetries int, baseDelay time.Duration) *DLQManager {
	if maxRetries <= 0 {
		maxRetries = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &DLQManager{pool: pool, maxRetries: maxRetries, baseDelay: baseDelay}
}

// dlqEntry carries the fields the retry decision needs; the payload itself is copied
// server side.
type dlqEntry struct {
	ID            int64
	EventType     string
	SchemaSubject string
	RetryCount    int
}

// RunOnce handles up to batchSize due entries and returns how many were requeued.
func (m *DLQManager) RunOnce(ctx context.Context, batchSize int) (int, error) {
	rows, err := m.pool.Query(ctx,
		`SELECT dlq_id, event_type, schema_subject, retry_count
           FROM outbox_dlq
          WHERE quarantined_at IS NULL AND (next_retry_at IS NULL OR next_retry_at <= NOW())
          ORDER BY created_at
          LIMIT $1`, batchSize)
	if err != nil {
		return 0, err
	}
	due, err := pgx.CollectRows(rows, pgx.RowToStructByPos[dlqEntry])
	if err != nil {
		return 0, err
	}

	var runErr error
	requeued := 0
	for _, entry := range due {
		if entry.RetryCount >= m.maxRetries {
			runErr = errors.Join(runErr, m.quarantine(ctx, entry))
			continue
		}

		moved, err := m.requeue(ctx, entry)
		if err != nil {
			runErr = errors.Join(runErr, m.reschedule(ctx, entry, err))
			continue
		}
		if moved {
			requeued++
		}
	}

	updateBacklogGauge(ctx, m.pool)
	return requeued, runErr
}

// requeue deletes the entry and reinserts its event into the outbox in one statement.
func (m *DLQManager) requeue(ctx context.Context, entry dlqEntry) (bool, error) {
	if entry.SchemaSubject == "" {
		return false, fmt.Errorf("missing schema_subject for dlq entry %d", entry.ID)
	}

	tag, err := m.pool.Exec(ctx,
		`WITH moved AS (
             DELETE FROM outbox_dlq WHERE dlq_id = $1 AND quarantined_at IS NULL
             RETURNING aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
         INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload)
         SELECT aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload FROM moved`,
		entry.ID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	recordEntryStage(stageRequeued, entry)
	return true, nil
}

func (m *DLQManager) reschedule(ctx context.Context, entry dlqEntry, cause error) error {
	delay := backoffDelay(m.baseDelay, entry.RetryCount+1)
	if _, err := m.pool.Exec(ctx,
		`UPDATE outbox_dlq
            SET retry_count = retry_count + 1,
                last_attempt_at = NOW(),
                next_retry_at = NOW() + make_interval(secs => $1),
                reason = $2
          WHERE dlq_id = $3`,
		delay.Seconds(), cause.Error(), entry.ID,
	); err != nil {
		return err
	}
	recordEntryStage(stageRetryScheduled, entry)
	return nil
}

func (m *DLQManager) quarantine(ctx context.Context, entry dlqEntry) error {
	if _, err := m.pool.Exec(ctx,
		`UPDATE outbox_dlq SET quarantined_at = NOW(), quarantine_reason = 'retry limit reached' WHERE dlq_id = $1`,
		entry.ID,
	); err != nil {
		return err
	}
	recordEntryStage(stageQuarantined, entry)
	return nil
}

// backoffDelay doubles base for every attempt after the first, capped at one hour.
func backoffDelay(base time.Duration, attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if attempt > 31 {
		return time.Hour
	}
	delay := time.Duration(1<<uint(attempt-1)) * base
	if delay > time.Hour || delay <= 0 {
		delay = time.Hour
	}
	return delay
}
