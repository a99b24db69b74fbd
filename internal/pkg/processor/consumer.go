// Package processor runs asynchronous composite tasks taken from Kafka.
package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

const DefaultTaskTimeout = 2 * time.Minute

type TaskHandler interface {
	ProcessTask(ctx context.Context, task entity.CompositeTask) error
}

type TaskHandlerFunc func(ctx context.Context, task entity.CompositeTask) error

func (f TaskHandlerFunc) ProcessTask(ctx context.Context, task entity.CompositeTask) error {
	return f(ctx, task)
}

type ConsumerConfig struct {
	Brokers     []string
	Topic       string
	GroupID     string
	TaskTimeout time.Duration
}

// StartCompositeConsumer reads tasks until ctx is cancelled and runs each one in its own
// goroutine. It waits for running tasks before returning.
func StartCompositeConsumer(ctx context.Context, cfg ConsumerConfig, handler TaskHandler) error {
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultTaskTimeout
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers,
		Topic:          cfg.Topic,
		GroupID:        cfg.GroupID,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.FirstOffset,
	})
	defer reader.Close()

	logrus.WithFields(logrus.Fields{
		"brokers": cfg.Brokers,
		"topic":   cfg.Topic,
		"group":   cfg.GroupID,
	}).Info("Composite consumer started")

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				logrus.Info("Composite consumer stopped")
				return nil
			}
			logrus.WithError(err).Error("Error reading message from Kafka")
			continue
		}

		logrus.WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).Debug("Received composite task")

		wg.Add(1)
		go func(value []byte) {
			defer wg.Done()
			_ = HandleMessage(ctx, handler, value, cfg.TaskTimeout)
		}(msg.Value)
	}
}

// HandleMessage decodes one Kafka message and processes it under timeout.
func HandleMessage(ctx context.Context, handler TaskHandler, value []byte, timeout time.Duration) error {
	var task entity.CompositeTask
	if err := json.Unmarshal(value, &task); err != nil {
		logrus.WithError(err).Error("Failed to parse composite task")
		return fmt.Errorf("%w: %v", entity.ErrInvalidInput, err)
	}
	if task.CompositeID == "" {
		logrus.Error("Composite task without id")
		return fmt.Errorf("%w: missing composite id", entity.ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log := logrus.WithField("composite_id", task.CompositeID)
	if err := handler.ProcessTask(ctx, task); err != nil {
		var failed *entity.CompositionFailedError
		if errors.As(err, &failed) {
			log.WithField("attempts", len(failed.Attempts)).Warn("Composite failed")
		} else {
			log.WithError(err).Error("Processing failed")
		}
		return err
	}

	log.Info("Successfully processed composite")
	return nil
}
