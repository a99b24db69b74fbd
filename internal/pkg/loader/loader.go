package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/sirupsen/logrus"

	_ "golang.org/x/image/webp"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxBytes  = 32 << 20
	DefaultMaxPixels = 50_000_000
	DefaultUserAgent = "photoframe-loader/1.0"
)

// ImageCache stores raw bytes fetched from remote URLs.
type ImageCache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
}

// Config limits what a Loader accepts. MaxPixels bounds raster headers and SVG targets.
type Config struct {
	Timeout           time.Duration
	MaxBytes          int64
	MaxPixels         int64
	AllowPrivateHosts bool
	UserAgent         string
}

type Loader struct {
	cfg    Config
	client *http.Client
	cache  ImageCache
}

type loadOptions struct {
	width, height int
}

type Option func(*loadOptions)

// WithRasterSize sets the output size for vector sources. Raster sources ignore it.
func WithRasterSize(width, height int) Option {
	return func(o *loadOptions) {
		o.width = width
		o.height = height
	}
}

// New builds a Loader. cache may be nil.
func New(cfg Config, cache ImageCache) *Loader {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultMaxBytes
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}

	var guard addressGuard
	if !cfg.AllowPrivateHosts {
		guard = checkPublicAddress
	}
	return &Loader{
		cfg:    cfg,
		client: newHTTPClient(guard),
		cache:  cache,
	}
}

// Load reads and decodes src. Every failure is reported as *entity.ImageDecodeError.
func (l *Loader) Load(ctx context.Context, src Source, opts ...Option) (image.Image, error) {
	var o loadOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithTimeout(ctx, l.cfg.Timeout)
	defer cancel()

	data, err := l.read(ctx, src)
	if err != nil {
		return nil, &entity.ImageDecodeError{Source: src.String(), Err: err}
	}

	img, err := decode(data, o, l.cfg.MaxPixels)
	if err != nil {
		return nil, &entity.ImageDecodeError{Source: src.String(), Err: err}
	}
	return img, nil
}

func (l *Loader) read(ctx context.Context, src Source) ([]byte, error) {
	switch {
	case len(src.Data) > 0:
		return src.Data, nil
	case src.Path != "":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return os.ReadFile(src.Path)
	case isDataURL(src.URL):
		return decodeDataURL(src.URL)
	case src.URL != "":
		return l.fetch(ctx, src.URL)
	default:
		return nil, errors.New("empty image source")
	}
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if l.cache != nil {
		if data, ok := l.cache.Get(ctx, rawURL); ok {
			return data, nil
		}
	}

	if err := checkURL(rawURL); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", l.cfg.UserAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, l.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.cfg.MaxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", l.cfg.MaxBytes)
	}

	logrus.WithFields(logrus.Fields{"url": rawURL, "bytes": len(data)}).Debug("Fetched remote image")

	if l.cache != nil {
		l.cache.Set(ctx, rawURL, data)
	}
	return data, nil
}

func decode(data []byte, o loadOptions, maxPixels int64) (image.Image, error) {
	var (
		img image.Image
		err error
	)
	if looksLikeSVG(data) {
		img, err = rasterizeSVG(data, o.width, o.height, maxPixels)
	} else {
		img, err = decodeRaster(data, maxPixels)
		if err != nil && looksLikeMarkup(data) {
			// the <svg> tag sits behind a long prolog or comment
			if svgImg, svgErr := rasterizeSVG(data, o.width, o.height, maxPixels); svgErr == nil {
				img, err = svgImg, nil
			}
		}
	}
	if err != nil {
		return nil, err
	}

	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return nil, errors.New("image has zero size")
	}
	return img, nil
}

// decodeRaster checks the header dimensions before allocating the full image.
func decodeRaster(data []byte, maxPixels int64) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if err := checkPixels(float64(cfg.Width), float64(cfg.Height), maxPixels); err != nil {
		return nil, err
	}
	return imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
}
