package events

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"

	"github.com/lchampz/saas-bakery/internal/logger"
)

// KafkaConfig describes how to reach the brokers. Username/password turn on
// SASL/PLAIN, and SASL or a CA certificate turn on TLS (managed Kafka setups
// require both together).
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	Username string
	Password string
	CACert   string
}

// ParseBrokers splits a comma separated broker list
func ParseBrokers(brokers string) []string {
	var out []string
	for _, b := range strings.Split(strings.ReplaceAll(brokers, " ", ""), ",") {
		if b != "" {
			out = append(out, b)
		}
	}
	return out
}

func (c KafkaConfig) mechanism() sasl.Mechanism {
	if c.Username == "" || c.Password == "" {
		return nil
	}
	return plain.Mechanism{Username: c.Username, Password: c.Password}
}

// tlsConfig returns nil when TLS is not needed; a nil RootCAs means system roots
func (c KafkaConfig) tlsConfig(log *logger.Logger) *tls.Config {
	if c.mechanism() == nil && c.CACert == "" {
		return nil
	}
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if c.CACert != "" {
		pool := x509.NewCertPool()
		if pool.AppendCertsFromPEM([]byte(c.CACert)) {
			cfg.RootCAs = pool
			log.Info("🔒 Kafka: TLS with custom CA enabled")
		} else {
			log.Warn("⚠️ Kafka: could not parse CA certificate, using system roots")
		}
	}
	return cfg
}

func (c KafkaConfig) dialer(log *logger.Logger) *kafka.Dialer {
	return &kafka.Dialer{
		Timeout:       10 * time.Second,
		DualStack:     true,
		SASLMechanism: c.mechanism(),
		TLS:           c.tlsConfig(log),
	}
}

// KafkaPublisher writes events to the stock topic asynchronously
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewKafkaPublisher(cfg KafkaConfig, log *logger.Logger) *KafkaPublisher {
	transport := &kafka.Transport{
		SASL: cfg.mechanism(),
		TLS:  cfg.tlsConfig(log),
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.LeastBytes{},
		Async:                  true,
		AllowAutoTopicCreation: true,
		Transport:              transport,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				log.Warn("⚠️ Kafka publish failed", "count", len(messages), "error", err)
			}
		},
	}
	if cfg.Username != "" {
		log.Info("🔐 Kafka: SASL/PLAIN enabled", "username", cfg.Username)
	}
	log.Info("✅ Kafka producer configured", "brokers", strings.Join(cfg.Brokers, ","), "topic", cfg.Topic)
	return &KafkaPublisher{writer: w, logger: log}
}

func (p *KafkaPublisher) Publish(ctx context.Context, e Event) {
	raw, err := e.Encode()
	if err != nil {
		p.logger.Warn("⚠️ Could not encode event", "type", e.Type, "error", err)
		return
	}
	// Async writer: WriteMessages only enqueues, Completion reports failures.
	if err := p.writer.WriteMessages(context.WithoutCancel(ctx), kafka.Message{
		Key:   []byte(e.Type),
		Value: raw,
		Time:  e.Timestamp,
	}); err != nil {
		p.logger.Warn("⚠️ Kafka enqueue failed", "type", e.Type, "error", err)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
