package composer

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"testing/fstest"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/loader"
	"github.com/ds124wfegd/photoframe/internal/pkg/slots"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	frameBlue  = color.NRGBA{R: 20, G: 40, B: 200, A: 255}
	photoGreen = color.NRGBA{G: 255, A: 255}
	stickerRed = color.NRGBA{R: 230, A: 255}
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, imaging.Encode(buf, img, imaging.PNG))
	return buf.Bytes()
}

// frameWithHoles builds an opaque frame with fully transparent rectangles.
func frameWithHoles(w, h int, holes ...image.Rectangle) *image.NRGBA {
	img := imaging.New(w, h, frameBlue)
	for _, r := range holes {
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				img.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
	return img
}

func photoSource(t *testing.T, name string, w, h int, c color.NRGBA) loader.Source {
	return loader.FromBytes(name, encodePNG(t, imaging.New(w, h, c)))
}

func brokenSource(name string) loader.Source {
	return loader.FromBytes(name, []byte("definitely not an image"))
}

func photos(t *testing.T, n int) []loader.Source {
	out := make([]loader.Source, n)
	for i := range out {
		out[i] = photoSource(t, "photo", 800, 600, photoGreen)
	}
	return out
}

func newComposer(opts ...Option) *Composer {
	return New(loader.New(loader.Config{}, nil), DefaultConfig(), opts...)
}

func decodeResult(t *testing.T, res *entity.CompositeResult) *image.NRGBA {
	t.Helper()
	img, err := imaging.Decode(bytes.NewReader(res.File))
	require.NoError(t, err)
	return imaging.Clone(img)
}

func assertColor(t *testing.T, want color.NRGBA, got color.NRGBA, msg string) {
	t.Helper()
	assert.InDelta(t, int(want.R), int(got.R), 16, msg)
	assert.InDelta(t, int(want.G), int(got.G), 16, msg)
	assert.InDelta(t, int(want.B), int(got.B), 16, msg)
}

func twoHoleFrame(t *testing.T) loader.Source {
	frame := frameWithHoles(900, 1800,
		image.Rect(100, 100, 800, 400),
		image.Rect(100, 600, 800, 900),
	)
	return loader.FromBytes("frame.png", encodePNG(t, frame))
}

func TestComposeWithDetectedSlots(t *testing.T) {
	res, err := newComposer().Compose(context.Background(), Request{
		Frame:  twoHoleFrame(t),
		Photos: photos(t, 2),
		Layout: entity.TwoByOne,
		Flow:   entity.FlowUpload,
	})

	require.NoError(t, err)
	assert.Equal(t, StrategyFrame, res.Strategy)
	assert.Equal(t, 900, res.Width)
	assert.Equal(t, 1800, res.Height)
	assert.Equal(t, entity.SlotSet{
		{X: 244, Y: 94, W: 412, H: 312},
		{X: 244, Y: 594, W: 412, H: 312},
	}, res.Slots)

	img := decodeResult(t, res)
	assert.Equal(t, image.Rect(0, 0, 900, 1800), img.Bounds())
	assertColor(t, photoGreen, img.NRGBAAt(450, 250), "photo inside first hole")
	assertColor(t, photoGreen, img.NRGBAAt(450, 750), "photo inside second hole")
	assertColor(t, frameBlue, img.NRGBAAt(50, 50), "frame outside slots")
}

func TestComposeDrawsFrameOnTop(t *testing.T) {
	frame := frameWithHoles(900, 1800,
		image.Rect(100, 100, 800, 400),
		image.Rect(100, 600, 800, 900),
	)
	for y := 220; y < 280; y++ {
		for x := 420; x < 480; x++ {
			frame.SetNRGBA(x, y, stickerRed)
		}
	}

	res, err := newComposer().Compose(context.Background(), Request{
		Frame:  loader.FromBytes("sticker.png", encodePNG(t, frame)),
		Photos: photos(t, 2),
		Layout: entity.TwoByOne,
	})

	require.NoError(t, err)
	assert.Equal(t, StrategyFrame, res.Strategy)
	img := decodeResult(t, res)
	assertColor(t, stickerRed, img.NRGBAAt(450, 250), "decoration covers the photo")
	assertColor(t, photoGreen, img.NRGBAAt(300, 250), "photo around the decoration")
}

func TestComposeFallsBackWhenNoBandsDetected(t *testing.T) {
	frame := loader.FromBytes("opaque.png", encodePNG(t, frameWithHoles(900, 1800)))

	tests := []struct {
		name string
		flow entity.Flow
		gap  float64
	}{
		{name: "upload", flow: entity.FlowUpload, gap: 0.05},
		{name: "photobooth", flow: entity.FlowPhotobooth, gap: 0.03},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newComposer().Compose(context.Background(), Request{
				Frame:  frame,
				Photos: photos(t, 2),
				Layout: entity.TwoByOne,
				Flow:   tt.flow,
			})

			require.NoError(t, err)
			assert.Equal(t, StrategyFrame, res.Strategy)
			assert.Equal(t, slots.Fallback(entity.TwoByOne, tt.gap), res.Slots)
		})
	}
}

func TestComposeUsesDefaultFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame loader.Source
	}{
		{name: "no frame given"},
		{name: "frame fails to load", frame: brokenSource("broken.png")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newComposer().Compose(context.Background(), Request{
				Frame:  tt.frame,
				Photos: photos(t, 2),
				Layout: entity.TwoByOne,
			})

			require.NoError(t, err)
			assert.Equal(t, StrategyDefaultFrame, res.Strategy)
			require.Len(t, res.Slots, 2)
			for _, s := range res.Slots {
				assert.True(t, s.Within(900, 1800), "%+v", s)
			}
			assert.NotEqual(t, slots.Fallback(entity.TwoByOne, 0.05), res.Slots)
		})
	}
}

func TestDefaultFramesHaveDetectableSlots(t *testing.T) {
	c := newComposer()

	for _, layout := range []entity.LayoutType{entity.TwoByOne, entity.ThreeByOne, entity.FourByOne} {
		t.Run(layout.String(), func(t *testing.T) {
			frame, err := c.loadDefaultFrame(context.Background(), layout)
			require.NoError(t, err)

			got, err := slots.Detect(frame, layout, slots.DefaultParams())
			require.NoError(t, err)
			assert.Len(t, got, layout.SlotCount())
		})
	}
}

func TestComposeWithoutDefaultFrameAsset(t *testing.T) {
	c := newComposer(WithDefaultFrames(fstest.MapFS{}))

	res, err := c.Compose(context.Background(), Request{
		Photos: photos(t, 2),
		Layout: entity.TwoByOne,
		Flow:   entity.FlowPhotobooth,
	})

	require.NoError(t, err)
	assert.Equal(t, StrategyDefaultFrame, res.Strategy)
	assert.Equal(t, slots.Fallback(entity.TwoByOne, 0.03), res.Slots)
}

func TestComposeTerminalFailure(t *testing.T) {
	res, err := newComposer().Compose(context.Background(), Request{
		Frame:  brokenSource("frame.png"),
		Photos: []loader.Source{brokenSource("a.jpg"), brokenSource("b.jpg")},
		Layout: entity.TwoByOne,
	})

	require.Error(t, err)
	assert.Nil(t, res)

	var failed *entity.CompositionFailedError
	require.True(t, errors.As(err, &failed))
	require.Len(t, failed.Attempts, 3)

	var decodeErr *entity.ImageDecodeError
	assert.True(t, errors.As(failed.Attempts[0], &decodeErr))
	assert.Equal(t, "frame.png", decodeErr.Source)
	assert.ErrorIs(t, failed.Attempts[1], entity.ErrNothingComposited)
	assert.ErrorIs(t, failed.Attempts[2], entity.ErrNothingComposited)
}

func TestComposeCanonicalSize(t *testing.T) {
	tests := []struct {
		name  string
		frame loader.Source
		photo loader.Source
	}{
		{
			name:  "small square frame",
			frame: loader.FromBytes("square.png", encodePNG(t, frameWithHoles(300, 300, image.Rect(10, 10, 290, 90)))),
			photo: photoSource(t, "tiny", 7, 5, photoGreen),
		},
		{
			name:  "huge frame",
			frame: loader.FromBytes("huge.png", encodePNG(t, frameWithHoles(1200, 3600))),
			photo: photoSource(t, "panorama", 2000, 300, photoGreen),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newComposer().Compose(context.Background(), Request{
				Frame:  tt.frame,
				Photos: []loader.Source{tt.photo, tt.photo, tt.photo},
				Layout: entity.ThreeByOne,
			})

			require.NoError(t, err)
			assert.Equal(t, 600, res.Width)
			assert.Equal(t, 1800, res.Height)
			assert.Equal(t, image.Rect(0, 0, 600, 1800), decodeResult(t, res).Bounds())
		})
	}
}

func TestComposeWithFewerPhotosThanSlots(t *testing.T) {
	res, err := newComposer(WithDefaultFrames(fstest.MapFS{})).Compose(context.Background(), Request{
		Photos: photos(t, 1),
		Layout: entity.ThreeByOne,
	})

	require.NoError(t, err)
	require.Len(t, res.Slots, 3)

	img := decodeResult(t, res)
	first, last := res.Slots[0], res.Slots[2]
	assertColor(t, photoGreen, img.NRGBAAt(first.X+first.W/2, first.Y+first.H/2), "filled slot")
	assertColor(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(last.X+last.W/2, last.Y+last.H/2), "empty slot")
}

func TestComposeSkipsBrokenPhotos(t *testing.T) {
	res, err := newComposer().Compose(context.Background(), Request{
		Frame:  twoHoleFrame(t),
		Photos: []loader.Source{brokenSource("a.jpg"), photoSource(t, "b", 640, 480, photoGreen)},
		Layout: entity.TwoByOne,
	})

	require.NoError(t, err)
	assert.Equal(t, StrategyFrame, res.Strategy)

	img := decodeResult(t, res)
	assertColor(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(450, 250), "missing photo leaves background")
	assertColor(t, photoGreen, img.NRGBAAt(450, 750), "second photo drawn")
}

func TestComposeSkipsOversizedPhotos(t *testing.T) {
	huge := loader.FromURL(`data:image/svg+xml,<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200000000 200000000"><rect width="10" height="10"/></svg>`)

	res, err := newComposer().Compose(context.Background(), Request{
		Frame:  twoHoleFrame(t),
		Photos: []loader.Source{huge, photoSource(t, "b", 640, 480, photoGreen)},
		Layout: entity.TwoByOne,
	})

	require.NoError(t, err)
	assert.Equal(t, StrategyFrame, res.Strategy)

	img := decodeResult(t, res)
	assertColor(t, color.NRGBA{R: 255, G: 255, B: 255, A: 255}, img.NRGBAAt(450, 250), "oversized photo leaves background")
	assertColor(t, photoGreen, img.NRGBAAt(450, 750), "second photo drawn")
}

func TestComposeIgnoresExtraPhotos(t *testing.T) {
	res, err := newComposer().Compose(context.Background(), Request{
		Frame:  twoHoleFrame(t),
		Photos: photos(t, 5),
		Layout: entity.TwoByOne,
	})

	require.NoError(t, err)
	assert.Len(t, res.Slots, 2)
}

func TestComposeIsDeterministic(t *testing.T) {
	req := Request{
		Frame:  twoHoleFrame(t),
		Photos: []loader.Source{photoSource(t, "a", 640, 480, photoGreen), photoSource(t, "b", 300, 900, stickerRed)},
		Layout: entity.TwoByOne,
	}
	c := newComposer()

	first, err := c.Compose(context.Background(), req)
	require.NoError(t, err)
	second, err := c.Compose(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first.Slots, second.Slots)
	assert.True(t, bytes.Equal(first.File, second.File))
}

func TestComposeRejectsInvalidRequests(t *testing.T) {
	c := newComposer()

	_, err := c.Compose(context.Background(), Request{Photos: photos(t, 1), Layout: "5x1"})
	assert.ErrorIs(t, err, entity.ErrInvalidLayout)

	_, err = c.Compose(context.Background(), Request{Layout: entity.TwoByOne})
	assert.ErrorIs(t, err, entity.ErrNoPhotos)
}

func TestNewAppliesDefaults(t *testing.T) {
	c := New(loader.New(loader.Config{}, nil), Config{JPEGQuality: 500})

	assert.Equal(t, 95, c.cfg.JPEGQuality)
	assert.Equal(t, 4, c.cfg.LoadConcurrency)
	require.Len(t, c.strategies, 3)
	assert.Equal(t, []string{StrategyFrame, StrategyDefaultFrame, StrategyCollage},
		[]string{c.strategies[0].name, c.strategies[1].name, c.strategies[2].name})
}
