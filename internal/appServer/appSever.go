// launching the server, storage, redis cache, kafka
package appServer

import (
	"context"
	"crypto/tls"
	"log"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/photoframe/config"
	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/kafka"
	"github.com/ds124wfegd/photoframe/internal/pkg/processor"
	"github.com/ds124wfegd/photoframe/internal/service"
	"github.com/ds124wfegd/photoframe/internal/transport"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	logrus.SetFormatter(new(logrus.JSONFormatter))

	deps, cleanup := newDependencies(context.Background(), cfg)
	defer cleanup()

	var compositeService service.CompositeService
	producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err != nil {
		logrus.Warnf("Kafka unavailable (%s), thumbnails will be processed in process", err.Error())
		producer = processor.NewInlineProducer(processor.TaskHandlerFunc(
			func(ctx context.Context, task entity.CompositeTask) error {
				return compositeService.ProcessTask(ctx, task)
			}), cfg.Kafka.TaskTimeout)
	}
	defer producer.Close()

	compositeService = service.NewCompositeService(deps.repo, producer, deps.composer)
	compositeHandler := transport.NewCompositeHandler(compositeService, cfg.Server.MaxUploadBytes)

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(compositeHandler, cfg.Server.RequestTimeout)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}

}
