// Package canvas is the offscreen raster every composite is drawn into.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/photoframe/internal/entity"
	xdraw "golang.org/x/image/draw"
)

var Background = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

// Canvas has a single owner at a time; nothing in it is safe for concurrent use.
type Canvas struct {
	img    *image.NRGBA
	layout entity.LayoutType
}

func New(layout entity.LayoutType) (*Canvas, error) {
	if !layout.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidLayout, layout)
	}
	return &Canvas{
		img:    imaging.New(layout.Width(), layout.Height(), Background),
		layout: layout,
	}, nil
}

func (c *Canvas) Width() int                { return c.img.Bounds().Dx() }
func (c *Canvas) Height() int               { return c.img.Bounds().Dy() }
func (c *Canvas) Layout() entity.LayoutType { return c.layout }

// Image exposes the raster for drawing.
func (c *Canvas) Image() xdraw.Image {
	return c.img
}

func (c *Canvas) At(x, y int) color.NRGBA {
	return c.img.NRGBAAt(x, y)
}

// DrawOver paints img over the whole canvas, stretched to the canvas size.
func (c *Canvas) DrawOver(img image.Image) {
	overlay := Normalize(img, c.Width(), c.Height())
	xdraw.Draw(c.img, c.img.Bounds(), overlay, image.Point{}, xdraw.Over)
}

func (c *Canvas) EncodeJPEG(quality int) ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := imaging.Encode(buf, c.img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Normalize returns img as an NRGBA of exactly width x height anchored at the origin.
// Images already in that shape are returned as is.
func Normalize(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if nrgba, ok := img.(*image.NRGBA); ok && b == image.Rect(0, 0, width, height) {
		return nrgba
	}
	if b.Dx() == width && b.Dy() == height {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, width, height, imaging.Lanczos)
}
