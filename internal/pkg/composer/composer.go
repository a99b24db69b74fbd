// Package composer turns a frame, a list of photos and a layout into one JPEG composite.
// It tries a fixed sequence of strategies and only fails when all of them fail.
package composer

import (
	"context"
	"fmt"
	"image"
	"io/fs"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/compositor"
	"github.com/ds124wfegd/photoframe/internal/pkg/loader"
	"github.com/ds124wfegd/photoframe/internal/pkg/slots"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Loader is the part of *loader.Loader the composer needs.
type Loader interface {
	Load(ctx context.Context, src loader.Source, opts ...loader.Option) (image.Image, error)
}

type Config struct {
	JPEGQuality int

	// Fallback gap as a share of canvas height, chosen by the request flow.
	UploadGapRatio     float64
	PhotoboothGapRatio float64

	// Maximum number of photos decoded at once.
	LoadConcurrency int

	Detector   slots.Params
	Compositor compositor.Options
}

func DefaultConfig() Config {
	return Config{
		JPEGQuality:        95,
		UploadGapRatio:     0.05,
		PhotoboothGapRatio: 0.03,
		LoadConcurrency:    4,
		Detector:           slots.DefaultParams(),
		Compositor:         compositor.DefaultOptions(),
	}
}

type Request struct {
	Frame  loader.Source // optional
	Photos []loader.Source
	Layout entity.LayoutType
	Flow   entity.Flow
}

type Composer struct {
	loader     Loader
	cfg        Config
	compositor *compositor.Compositor
	frames     fs.FS
	strategies []strategy
}

type Option func(*Composer)

// WithDefaultFrames replaces the built-in default frames. fsys must hold one file per
// layout named "<layout>.svg", for example "3x1.svg".
func WithDefaultFrames(fsys fs.FS) Option {
	return func(c *Composer) {
		c.frames = fsys
	}
}

func New(l Loader, cfg Config, opts ...Option) *Composer {
	d := DefaultConfig()
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = d.JPEGQuality
	}
	if cfg.LoadConcurrency <= 0 {
		cfg.LoadConcurrency = d.LoadConcurrency
	}

	c := &Composer{
		loader:     l,
		cfg:        cfg,
		compositor: compositor.New(cfg.Compositor),
		frames:     defaultFrames,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.strategies = c.defaultStrategies()
	return c
}

// Compose runs the strategies in order and returns the first result. Invalid requests fail
// with entity.ErrInvalidLayout or entity.ErrNoPhotos; once the request is valid the only
// possible error is *entity.CompositionFailedError.
func (c *Composer) Compose(ctx context.Context, req Request) (*entity.CompositeResult, error) {
	if !req.Layout.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidLayout, req.Layout)
	}
	if len(req.Photos) == 0 {
		return nil, entity.ErrNoPhotos
	}

	log := logrus.WithFields(logrus.Fields{
		"layout": req.Layout,
		"flow":   req.Flow,
	})

	sources := req.Photos
	if n := req.Layout.SlotCount(); len(sources) > n {
		log.WithField("photos", len(sources)).Warn("More photos than slots, extra photos ignored")
		sources = sources[:n]
	}

	j := &job{
		req:      req,
		photos:   c.loadPhotos(ctx, sources),
		gapRatio: c.gapRatio(req.Flow),
	}

	attempts := make([]error, 0, len(c.strategies))
	for _, s := range c.strategies {
		res, err := s.run(ctx, j)
		if err == nil {
			res.Strategy = s.name
			log.WithField("strategy", s.name).Info("Composite generated")
			return res, nil
		}

		log.WithFields(logrus.Fields{
			"strategy": s.name,
			"error":    err,
		}).Warn("Composite strategy failed")
		attempts = append(attempts, fmt.Errorf("%s: %w", s.name, err))
	}

	log.Error("All composite strategies failed")
	return nil, &entity.CompositionFailedError{Attempts: attempts}
}

func (c *Composer) gapRatio(flow entity.Flow) float64 {
	if flow == entity.FlowPhotobooth {
		return c.cfg.PhotoboothGapRatio
	}
	return c.cfg.UploadGapRatio
}

// loadPhotos decodes every photo once. The result is indexed like sources; photos that
// failed to load are nil and are skipped when drawing.
func (c *Composer) loadPhotos(ctx context.Context, sources []loader.Source) []image.Image {
	photos := make([]image.Image, len(sources))

	var g errgroup.Group
	g.SetLimit(c.cfg.LoadConcurrency)
	for i, src := range sources {
		g.Go(func() error {
			img, err := c.loader.Load(ctx, src)
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"photo": i,
					"error": err,
				}).Warn("Skipping photo that failed to load")
				return nil
			}
			photos[i] = img
			return nil
		})
	}
	_ = g.Wait()

	return photos
}
