package appServer

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/photoframe/config"
	"github.com/ds124wfegd/photoframe/internal/pkg/processor"
	"github.com/ds124wfegd/photoframe/internal/service"
	"github.com/sirupsen/logrus"
)

// NewProcessor consumes composite tasks until SIGINT or SIGTERM.
func NewProcessor(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	deps, cleanup := newDependencies(ctx, cfg)
	defer cleanup()

	// the processor never queues tasks itself, so it runs without a producer
	compositeService := service.NewCompositeService(deps.repo, nil, deps.composer)

	err := processor.StartCompositeConsumer(ctx, processor.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		GroupID:     cfg.Kafka.GroupID,
		TaskTimeout: cfg.Kafka.TaskTimeout,
	}, compositeService)
	if err != nil {
		logrus.Fatalf("composite consumer stopped: %s", err.Error())
	}
}
