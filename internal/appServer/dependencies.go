package appServer

import (
	"context"

	"github.com/ds124wfegd/photoframe/config"
	"github.com/ds124wfegd/photoframe/internal/database"
	"github.com/ds124wfegd/photoframe/internal/database/redis"
	"github.com/ds124wfegd/photoframe/internal/pkg/composer"
	"github.com/ds124wfegd/photoframe/internal/pkg/compositor"
	"github.com/ds124wfegd/photoframe/internal/pkg/loader"
	"github.com/ds124wfegd/photoframe/internal/pkg/slots"
	"github.com/ds124wfegd/photoframe/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

// dependencies shared by the HTTP server and the Kafka processor.
type dependencies struct {
	repo     database.CompositeRepository
	composer *composer.Composer
}

func newDependencies(ctx context.Context, cfg *config.Config) (*dependencies, func()) {
	cleanup := func() {}

	var cache loader.ImageCache
	if cfg.Redis.Host != "" {
		client, err := redis.NewClient(ctx, redis.Config{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logrus.Warnf("Redis unavailable (%s), remote images will not be cached", err.Error())
		} else {
			cache = redis.NewImageCache(client, cfg.Redis.CacheTTL)
			cleanup = func() { client.Close() }
			logrus.Info("Redis image cache initialized")
		}
	}

	imageLoader := loader.New(loaderConfig(cfg.Loader), cache)
	fileStorage := storage.NewFileStorage(cfg.Storage.BasePath)

	return &dependencies{
		repo:     database.NewCompositeRepository(fileStorage),
		composer: composer.New(imageLoader, composerConfig(cfg)),
	}, cleanup
}

func loaderConfig(c config.LoaderConfig) loader.Config {
	return loader.Config{
		Timeout:           c.Timeout,
		MaxBytes:          c.MaxBytes,
		MaxPixels:         c.MaxPixels,
		AllowPrivateHosts: c.AllowPrivateHosts,
		UserAgent:         c.UserAgent,
	}
}

func composerConfig(cfg *config.Config) composer.Config {
	d := cfg.Detector
	alpha := d.AlphaThreshold
	if alpha < 0 || alpha > 255 {
		alpha = 0 // replaced by the default
	}

	return composer.Config{
		JPEGQuality:        cfg.Composer.JPEGQuality,
		UploadGapRatio:     cfg.Composer.UploadGapRatio,
		PhotoboothGapRatio: cfg.Composer.PhotoboothGapRatio,
		LoadConcurrency:    cfg.Composer.LoadConcurrency,
		Detector: slots.Params{
			AlphaThreshold:   uint8(alpha),
			RowRatioTwoByOne: d.RatioTwoByOne,
			RowRatio:         d.RatioDefault,
			MinBandHeight:    d.MinBandHeight,
			MergeGap:         d.MergeGap,
			MarginRatio:      d.MarginRatio,
		},
		Compositor: compositor.Options{CornerRadiusRatio: cfg.Composer.CornerRadiusRatio},
	}
}
