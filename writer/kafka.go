package writer

import (
	"context"
	"encoding/json"
	"fmt"

	kafka "github.com/segmentio/kafka-go"

	appconfig "carbonflow/config"
	"carbonflow/logger"
	"carbonflow/models"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaWriter publishes run summaries keyed by meter id.
type KafkaWriter struct {
	writer messageWriter
	topic  string
	log    *logger.Log
}

func NewKafkaWriter(cfg appconfig.KafkaConfig) (*KafkaWriter, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers not configured")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka topic not configured")
	}
	kw := &KafkaWriter{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(cfg.Brokers...),
			Topic:    cfg.Topic,
			Balancer: &kafka.Hash{},
		},
		topic: cfg.Topic,
		log:   logger.GetLogger(),
	}
	kw.log.WithComponent("kafka_writer").WithFields(logger.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
	}).Debug("kafka writer initialized")
	return kw, nil
}

func (kw *KafkaWriter) Publish(ctx context.Context, s models.Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(s.MeterID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "run_id", Value: []byte(s.RunID)},
		},
	}
	if err := kw.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish summary to %s: %w", kw.topic, err)
	}
	kw.log.WithComponent("kafka_writer").WithFields(logger.Fields{
		"run_id": s.RunID,
		"topic":  kw.topic,
	}).Debug("summary published")
	return nil
}

func (kw *KafkaWriter) Close() error {
	return kw.writer.Close()
}
