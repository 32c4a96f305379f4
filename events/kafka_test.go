package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eringen/newsdesk/content"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func newTestNotifier(w *fakeWriter) *KafkaNotifier {
	return &KafkaNotifier{
		writer: w,
		now:    func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNotifyWritesKeyedEvent(t *testing.T) {
	w := &fakeWriter{}
	n := newTestNotifier(w)

	a := content.Article{ID: "a-1", Slug: "hello", Title: "Hello", Category: "Tech", Published: true}
	require.NoError(t, n.Notify(context.Background(), content.EventCreated, a))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, []byte("a-1"), msg.Key)
	assert.Equal(t, "kind", msg.Headers[0].Key)
	assert.Equal(t, []byte(content.EventCreated), msg.Headers[0].Value)

	var ev Event
	require.NoError(t, json.Unmarshal(msg.Value, &ev))
	assert.Equal(t, content.EventCreated, ev.Kind)
	assert.Equal(t, "hello", ev.Slug)
	assert.True(t, ev.Published)
	assert.True(t, ev.OccurredAt.Equal(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)))
}

func TestNotifyWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	n := newTestNotifier(&fakeWriter{err: boom})
	err := n.Notify(context.Background(), content.EventDeleted, content.Article{ID: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), content.EventDeleted)
}

func TestNewKafkaNotifierDefaults(t *testing.T) {
	n := NewKafkaNotifier([]string{"localhost:9092"}, "", nil)
	w, ok := n.writer.(*kafka.Writer)
	require.True(t, ok)
	assert.Equal(t, DefaultTopic, w.Topic)
	require.NoError(t, n.Close())
}
