package consumer

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
)

type stubReader struct {
	mu        sync.Mutex
	messages  []kafka.Message
	committed []kafka.Message
	cancel    context.CancelFunc
}

func (r *stubReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		r.cancel()
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[0]
	r.messages = r.messages[1:]
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *stubReader) Close() error { return nil }

type recordingHandler struct {
	failures int
	calls    int
	handled  []Message
}

func (h *recordingHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	if h.calls <= h.failures {
		return errors.New("db down")
	}
	h.handled = append(h.handled, msg)
	return nil
}

func framed(schemaID int, payload string) []byte {
	frame := make([]byte, 5+len(payload))
	binary.BigEndian.PutUint32(frame[1:5], uint32(schemaID))
	copy(frame[5:], payload)
	return frame
}

func workoutMessage(offset int64, eventType string) kafka.Message {
	return kafka.Message{
		Topic:     "workout_events",
		Partition: 0,
		Offset:    offset,
		Key:       []byte("w-1"),
		Value:     framed(7, `{"workout_id":"w-1"}`),
		Time:      time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
			{Key: "schema_subject", Value: []byte("workout_created-value")},
		},
	}
}

func runProcessor(t *testing.T, handler Handler, msgs ...kafka.Message) *stubReader {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reader := &stubReader{messages: msgs, cancel: cancel}

	err := NewProcessor(reader, handler, WithRetry(3, time.Millisecond), WithLogger(log.New(io.Discard, "", 0))).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	return reader
}

func outcomes(eventType, outcome string) float64 {
	return testutil.ToFloat64(messagesCounter.WithLabelValues("workout_events", eventType, outcome))
}

func TestProcessorDecodesAndCommits(t *testing.T) {
	handler := &recordingHandler{}
	before := outcomes("workout.created", outcomeProcessed)

	reader := runProcessor(t, handler, workoutMessage(3, "workout.created"))

	require.Len(t, handler.handled, 1)
	got := handler.handled[0]
	require.Equal(t, "workout.created", got.EventType)
	require.Equal(t, "workout_created-value", got.SchemaSubject)
	require.Equal(t, 7, got.SchemaID)
	require.Equal(t, "w-1", got.Key)
	require.Equal(t, int64(3), got.Offset)
	require.JSONEq(t, `{"workout_id":"w-1"}`, string(got.Payload))
	require.Len(t, reader.committed, 1)
	require.Equal(t, before+1, outcomes("workout.created", outcomeProcessed))
	require.Equal(t, float64(time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC).Unix()),
		testutil.ToFloat64(latestEventGauge.WithLabelValues("workout_events")))
}

func TestProcessorCommitsUndecodableMessages(t *testing.T) {
	missingHeader := workoutMessage(1, "workout.created")
	missingHeader.Headers = nil
	short := workoutMessage(2, "workout.created")
	short.Value = []byte{0, 1}
	badMagic := workoutMessage(3, "workout.created")
	badMagic.Value[0] = 9

	before := outcomes("", outcomeUndecodable)
	handler := &recordingHandler{}
	reader := runProcessor(t, handler, missingHeader, short, badMagic)

	require.Empty(t, handler.handled)
	require.Len(t, reader.committed, 3)
	require.Equal(t, before+3, outcomes("", outcomeUndecodable))
}

func TestProcessorRetriesThenDrops(t *testing.T) {
	retried := outcomes("workout.deleted", outcomeRetried)
	dropped := outcomes("workout.deleted", outcomeDropped)
	handler := &recordingHandler{failures: 10}

	reader := runProcessor(t, handler, workoutMessage(4, "workout.deleted"))

	require.Equal(t, 3, handler.calls)
	require.Len(t, reader.committed, 1)
	require.Equal(t, retried+2, outcomes("workout.deleted", outcomeRetried))
	require.Equal(t, dropped+1, outcomes("workout.deleted", outcomeDropped))
}

func TestProcessorRecoversFromTransientHandlerErrors(t *testing.T) {
	handler := &recordingHandler{failures: 2}

	reader := runProcessor(t, handler, workoutMessage(5, "workout.created"))

	require.Equal(t, 3, handler.calls)
	require.Len(t, handler.handled, 1)
	require.Len(t, reader.committed, 1)
}

func TestDecodeMessageCopiesPayload(t *testing.T) {
	raw := workoutMessage(5, "workout.created")
	msg, err := decodeMessage(raw)
	require.NoError(t, err)

	raw.Value[5] = 'X'
	require.JSONEq(t, `{"workout_id":"w-1"}`, string(msg.Payload))
}

func TestMessageWorkoutID(t *testing.T) {
	id, err := Message{Payload: json.RawMessage(`{"workout_id":"w-9","exercise":"Row"}`)}.WorkoutID()
	require.NoError(t, err)
	require.Equal(t, "w-9", id)

	_, err = Message{EventType: "workout.deleted", Payload: json.RawMessage(`{}`)}.WorkoutID()
	require.EqualError(t, err, "workout.deleted payload has no workout_id")

	_, err = Message{Payload: json.RawMessage(`not json`)}.WorkoutID()
	require.Error(t, err)
}
