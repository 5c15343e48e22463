// Package audit implements the AuditService interface on top of Kafka, the
// relational store and the structured log.
package audit

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/backupgw/internal/config"
	"github.com/turtacn/backupgw/internal/domain/models"
	"github.com/turtacn/backupgw/internal/domain/service"
	"github.com/turtacn/backupgw/pkg/logger"
)

// SignatureHeader carries the HMAC of the message value.
const SignatureHeader = "x-audit-signature"

// messageWriter is the subset of *kafka.Writer the producer needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ service.AuditService = (*KafkaProducer)(nil)

// KafkaProducer is a Kafka-backed implementation of the AuditService.
type KafkaProducer struct {
	writer     messageWriter
	signingKey []byte
	logger     logger.Logger
}

// NewKafkaProducer creates a new KafkaProducer. When signingKey is non-empty every
// message carries an HMAC-SHA256 signature header.
func NewKafkaProducer(cfg config.KafkaConfig, signingKey []byte, log logger.Logger) *KafkaProducer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafka.LeastBytes{},
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return newKafkaProducer(writer, signingKey, log)
}

func newKafkaProducer(w messageWriter, signingKey []byte, log logger.Logger) *KafkaProducer {
	return &KafkaProducer{
		writer:     w,
		signingKey: signingKey,
		logger:     log.WithComponent("KafkaProducer"),
	}
}

// LogEvent sends an audit event to the Kafka topic, keyed by event type.
func (p *KafkaProducer) LogEvent(ctx context.Context, event *models.AuditEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		p.logger.Error(ctx, "Failed to marshal audit event", err)
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: value,
		Time:  event.Timestamp,
	}
	if len(p.signingKey) > 0 {
		msg.Headers = []kafka.Header{{Key: SignatureHeader, Value: []byte(Sign(value, p.signingKey))}}
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error(ctx, "Failed to write audit event to Kafka", err, logger.String("event_type", string(event.Type)))
		return err
	}
	return nil
}

// Close closes the underlying Kafka writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}
