package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

type Producer interface {
	Publish(ctx context.Context, task entity.CompositeTask) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer connects to the first broker, makes sure topic exists and returns a
// producer writing composite tasks to it. The error lets callers pick another transport
// when Kafka is down.
func NewProducer(brokers []string, topic string) (Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := kafka.DialContext(ctx, "tcp", brokers[0])
	if err != nil {
		return nil, fmt.Errorf("kafka connection failed: %w", err)
	}
	defer conn.Close()

	err = conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
	if err != nil {
		logrus.WithError(err).WithField("topic", topic).Warn("Could not create topic (might already exist)")
	}

	logrus.WithFields(logrus.Fields{
		"brokers": brokers,
		"topic":   topic,
	}).Info("Connected to Kafka")

	return &kafkaProducer{
		writer: newWriter(brokers, topic),
		topic:  topic,
	}, nil
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
	}
}

// encodeTask builds the message for task. Keying by composite id keeps all messages of
// one composite on one partition.
func encodeTask(task entity.CompositeTask) (kafka.Message, error) {
	value, err := json.Marshal(task)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(task.CompositeID),
		Value: value,
		Time:  time.Now(),
	}, nil
}

func (p *kafkaProducer) Publish(ctx context.Context, task entity.CompositeTask) error {
	msg, err := encodeTask(task)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write composite task to %s: %w", p.topic, err)
	}

	logrus.WithFields(logrus.Fields{
		"composite_id": task.CompositeID,
		"topic":        p.topic,
	}).Info("Composite task published")
	return nil
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
