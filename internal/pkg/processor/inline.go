package processor

import (
	"context"
	"sync"
	"time"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/sirupsen/logrus"
)

// InlineProducer runs tasks in the current process. It stands in for the Kafka producer
// when no broker is reachable, so asynchronous composites still complete.
type InlineProducer struct {
	handler TaskHandler
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewInlineProducer(handler TaskHandler, timeout time.Duration) *InlineProducer {
	if timeout <= 0 {
		timeout = DefaultTaskTimeout
	}
	return &InlineProducer{handler: handler, timeout: timeout}
}

func (p *InlineProducer) Publish(_ context.Context, task entity.CompositeTask) error {
	logrus.WithField("composite_id", task.CompositeID).Info("Processing composite task in process")

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		if err := p.handler.ProcessTask(ctx, task); err != nil {
			logrus.WithError(err).WithField("composite_id", task.CompositeID).Warn("Processing failed")
		}
	}()
	return nil
}

// Close waits for tasks that are still running.
func (p *InlineProducer) Close() error {
	p.wg.Wait()
	return nil
}
