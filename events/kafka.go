// Package events publishes article lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/eringen/newsdesk/content"
)

// DefaultTopic is used when no topic is configured.
const DefaultTopic = "newsdesk.articles"

// Event is the JSON payload written for every committed article write.
type Event struct {
	Kind       string    `json:"kind"`
	ArticleID  string    `json:"articleId"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Published  bool      `json:"published"`
	OccurredAt time.Time `json:"occurredAt"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier implements content.Notifier on top of a kafka.Writer.
type KafkaNotifier struct {
	writer messageWriter
	now    func() time.Time
	log    *slog.Logger
}

var _ content.Notifier = (*KafkaNotifier)(nil)

// NewKafkaNotifier writes to topic on the given brokers. Messages are keyed
// by article ID so every event for one article lands on one partition.
func NewKafkaNotifier(brokers []string, topic string, log *slog.Logger) *KafkaNotifier {
	if topic == "" {
		topic = DefaultTopic
	}
	if log == nil {
		log = slog.Default()
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           5 * time.Second,
	}
	log.Info("kafka notifier initialized", "brokers", brokers, "topic", topic)
	return &KafkaNotifier{writer: w, now: time.Now, log: log}
}

// Notify writes one event synchronously.
func (n *KafkaNotifier) Notify(ctx context.Context, kind string, a content.Article) error {
	msg, err := n.message(kind, a)
	if err != nil {
		return err
	}
	if err := n.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write %s event: %w", kind, err)
	}
	n.log.Debug("article event produced", "kind", kind, "id", a.ID)
	return nil
}

func (n *KafkaNotifier) message(kind string, a content.Article) (kafka.Message, error) {
	now := n.now().UTC()
	body, err := json.Marshal(Event{
		Kind:       kind,
		ArticleID:  a.ID,
		Slug:       a.Slug,
		Title:      a.Title,
		Category:   a.Category,
		Published:  a.Published,
		OccurredAt: now,
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal %s event: %w", kind, err)
	}
	return kafka.Message{
		Key:   []byte(a.ID),
		Value: body,
		Time:  now,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(kind)},
		},
	}, nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
