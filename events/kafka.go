package events

import (
	"context"
	"crypto/tls"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	kafkaGo "github.com/segmentio/kafka-go"

	"github.com/qgatssdev/nika/config"
	"github.com/qgatssdev/nika/monitor"
)

// KafkaPublisher writes event envelopes to a single topic keyed by user
type KafkaPublisher struct {
	writer *kafkaGo.Writer
}

// NewPublisher returns a kafka publisher, or a Nop publisher when no brokers are configured
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if !cfg.Enabled() {
		log.Info().Str("section", "events").Msg("No kafka brokers configured, events are disabled")
		return Nop{}
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = 10 * time.Millisecond
	}
	transport := &kafkaGo.Transport{}
	if cfg.UseTLS {
		transport.TLS = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return &KafkaPublisher{
		writer: &kafkaGo.Writer{
			Addr:         kafkaGo.TCP(cfg.Brokers...),
			Topic:        cfg.Topic,
			Balancer:     &kafkaGo.Hash{},
			BatchTimeout: batchTimeout,
			RequiredAcks: kafkaGo.RequireAll,
			Transport:    transport,
		},
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload interface{}) error {
	envelope, err := NewEnvelope(eventType, key, payload)
	if err != nil {
		return err
	}
	bytes, err := envelope.Encode()
	if err != nil {
		return errors.Wrap(err, "unable to encode event")
	}
	message := kafkaGo.Message{
		Key:   []byte(key),
		Value: bytes,
		Headers: []kafkaGo.Header{
			{Key: "type", Value: []byte(eventType)},
			{Key: "id", Value: []byte(envelope.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, message); err != nil {
		monitor.EventsPublished.WithLabelValues(eventType, "failed").Inc()
		return errors.Wrapf(err, "unable to publish %s", eventType)
	}
	monitor.EventsPublished.WithLabelValues(eventType, "sent").Inc()
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
