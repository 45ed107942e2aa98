package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// ProducerConfig configures the writer behind Producer.
type ProducerConfig struct {
	Brokers      []string
	BatchTimeout time.Duration
	WriteTimeout time.Duration
	DialTimeout  time.Duration
}

// DefaultProducerConfig flushes almost immediately. Booking traffic is low
// volume and each event should leave as soon as its request commits.
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		BatchTimeout: 5 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		DialTimeout:  3 * time.Second,
	}
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer writes Events synchronously so callers see delivery failures.
type Producer struct {
	writer messageWriter
	cfg    ProducerConfig
	logger *slog.Logger
}

// NewProducer builds a Producer. No connection is made until the first write.
func NewProducer(cfg ProducerConfig, logger *slog.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Producer{writer: w, cfg: cfg, logger: logger}
}

// Publish writes event to topic, carrying the caller's trace context in the
// message headers.
func (p *Producer) Publish(ctx context.Context, topic string, event *Event) error {
	msg, err := event.message(topic)
	if err != nil {
		return err
	}
	otel.GetTextMapPropagator().Inject(ctx, NewHeaderCarrier(&msg.Headers))
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.WarnContext(ctx, "kafka write failed",
			slog.String("topic", topic),
			slog.String("event_id", event.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("kafka: write %s to %s: %w", event.Type, topic, err)
	}
	return nil
}

// Ping succeeds as soon as one broker answers a metadata request.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.cfg.Brokers) == 0 {
		return errors.New("kafka: no brokers configured")
	}

	dialer := &kafka.Dialer{Timeout: p.cfg.DialTimeout}
	errs := make([]error, 0, len(p.cfg.Brokers))
	for _, addr := range p.cfg.Brokers {
		err := probe(ctx, dialer, addr)
		if err == nil {
			return nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
	}
	return fmt.Errorf("kafka: no broker reachable: %w", errors.Join(errs...))
}

func probe(ctx context.Context, dialer *kafka.Dialer, addr string) error {
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Brokers()
	return err
}

// Close flushes pending messages.
func (p *Producer) Close() error {
	return p.writer.Close()
}
