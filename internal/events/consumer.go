package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/lchampz/saas-bakery/internal/logger"
)

// Consumer reads the stock topic and relays every well-formed event to the hub
type Consumer struct {
	reader *kafka.Reader
	hub    Broadcaster
	logger *logger.Logger
}

func NewConsumer(cfg KafkaConfig, groupID string, hub Broadcaster, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     groupID,
		StartOffset: kafka.LastOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     1 * time.Second,
		Dialer:      cfg.dialer(log),
	})
	return &Consumer{reader: reader, hub: hub, logger: log}
}

// Run blocks until ctx is cancelled
func (c *Consumer) Run(ctx context.Context) {
	c.logger.Info("📡 Stock event consumer started", "topic", c.reader.Config().Topic, "group", c.reader.Config().GroupID)
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("🛑 Stock event consumer stopped")
				return
			}
			c.logger.Warn("⚠️ Kafka read failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		relay(c.hub, msg.Value)
	}
}

// relay forwards value when it decodes as an Event; anything else is dropped
func relay(hub Broadcaster, value []byte) bool {
	var e Event
	if err := json.Unmarshal(value, &e); err != nil || e.Type == "" {
		return false
	}
	hub.BroadcastMessage(value)
	return true
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
