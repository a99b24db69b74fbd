package composer

import (
	"context"
	"errors"
	"image"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/canvas"
	"github.com/ds124wfegd/photoframe/internal/pkg/loader"
	"github.com/ds124wfegd/photoframe/internal/pkg/slots"
	"github.com/sirupsen/logrus"
)

const (
	StrategyFrame        = "frame"
	StrategyDefaultFrame = "default-frame"
	StrategyCollage      = "collage"
)

// job is the state shared by all strategies of one Compose call. Nothing in it is
// modified after Compose builds it.
type job struct {
	req      Request
	photos   []image.Image
	gapRatio float64
}

type strategy struct {
	name string
	run  func(ctx context.Context, j *job) (*entity.CompositeResult, error)
}

func (c *Composer) defaultStrategies() []strategy {
	return []strategy{
		{name: StrategyFrame, run: c.composeWithFrame},
		{name: StrategyDefaultFrame, run: c.composeWithDefaultFrame},
		{name: StrategyCollage, run: c.composeCollage},
	}
}

func (c *Composer) composeWithFrame(ctx context.Context, j *job) (*entity.CompositeResult, error) {
	if j.req.Frame.Empty() {
		return nil, entity.ErrFrameNotConfigured
	}
	layout := j.req.Layout

	frame, err := c.loader.Load(ctx, j.req.Frame, loader.WithRasterSize(layout.Width(), layout.Height()))
	if err != nil {
		return nil, err
	}
	return c.render(j, frame)
}

// composeWithDefaultFrame uses the built-in frame for the layout. A default frame that
// cannot be loaded does not fail the strategy; the photos are drawn without an overlay.
func (c *Composer) composeWithDefaultFrame(ctx context.Context, j *job) (*entity.CompositeResult, error) {
	frame, err := c.loadDefaultFrame(ctx, j.req.Layout)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"layout": j.req.Layout,
			"error":  err,
		}).Warn("Default frame unavailable, compositing without overlay")
		frame = nil
	}
	return c.render(j, frame)
}

func (c *Composer) composeCollage(_ context.Context, j *job) (*entity.CompositeResult, error) {
	return c.render(j, nil)
}

// render draws the photos into the slots of frame (or into fallback slots when frame is
// nil or has too few holes), paints frame on top and encodes the canvas.
func (c *Composer) render(j *job, frame image.Image) (*entity.CompositeResult, error) {
	layout := j.req.Layout
	cv, err := canvas.New(layout)
	if err != nil {
		return nil, err
	}

	var slotSet entity.SlotSet
	if frame != nil {
		frame = canvas.Normalize(frame, cv.Width(), cv.Height())

		slotSet, err = slots.Detect(frame, layout, c.cfg.Detector)
		if err != nil {
			var insufficient *entity.DetectionInsufficientError
			fields := logrus.Fields{"layout": layout, "error": err}
			if errors.As(err, &insufficient) {
				fields["found"] = insufficient.Found
			}
			logrus.WithFields(fields).Info("Slot detection failed, using fallback geometry")
			slotSet = nil
		}
	}
	if slotSet == nil {
		slotSet = slots.Fallback(layout, j.gapRatio)
	}

	drawn := 0
	for i, slot := range slotSet {
		if i >= len(j.photos) {
			break
		}
		if j.photos[i] == nil {
			continue
		}
		if err := c.compositor.Composite(cv.Image(), j.photos[i], slot); err != nil {
			logrus.WithFields(logrus.Fields{
				"slot":  i,
				"error": err,
			}).Warn("Skipping photo that could not be composited")
			continue
		}
		drawn++
	}
	if drawn == 0 {
		return nil, entity.ErrNothingComposited
	}

	if frame != nil {
		cv.DrawOver(frame)
	}

	data, err := cv.EncodeJPEG(c.cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}

	return &entity.CompositeResult{
		File:   data,
		Width:  cv.Width(),
		Height: cv.Height(),
		Slots:  slotSet,
	}, nil
}
