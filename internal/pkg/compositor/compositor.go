// Package compositor draws photos into frame slots.
package compositor

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/ds124wfegd/photoframe/internal/entity"
	xdraw "golang.org/x/image/draw"
)

var errEmptyPhoto = errors.New("photo has no pixels")

type Options struct {
	// Corner radius as a share of the slot's shorter side. Zero draws square corners.
	CornerRadiusRatio float64
}

func DefaultOptions() Options {
	return Options{CornerRadiusRatio: 0.06}
}

type Compositor struct {
	opts Options
}

func New(opts Options) *Compositor {
	if opts.CornerRadiusRatio < 0 {
		opts.CornerRadiusRatio = 0
	}
	return &Compositor{opts: opts}
}

// Composite scales photo to cover slot, keeping its aspect ratio, and draws it clipped to
// the slot's rounded rectangle. Pixels outside the slot are never touched.
func (c *Compositor) Composite(dst xdraw.Image, photo image.Image, slot entity.SlotRect) error {
	src := photo.Bounds()
	if src.Empty() {
		return errEmptyPhoto
	}
	if slot.W <= 0 || slot.H <= 0 {
		return fmt.Errorf("empty slot %+v", slot)
	}

	short := slot.W
	if slot.H < short {
		short = slot.H
	}
	mask := roundedMask(slot.W, slot.H, c.opts.CornerRadiusRatio*float64(short))

	xdraw.CatmullRom.Scale(dst, CoverRect(src.Dx(), src.Dy(), slot), photo, src, xdraw.Over, &xdraw.Options{
		DstMask:  mask,
		DstMaskP: image.Point{X: -slot.X, Y: -slot.Y},
	})
	return nil
}

// CoverRect returns where a srcW x srcH image lands when scaled to cover slot and centred
// on it. The result contains slot and is rounded outward to whole pixels.
func CoverRect(srcW, srcH int, slot entity.SlotRect) image.Rectangle {
	scale := math.Max(float64(slot.W)/float64(srcW), float64(slot.H)/float64(srcH))
	w, h := float64(srcW)*scale, float64(srcH)*scale

	cx := float64(slot.X) + float64(slot.W)/2
	cy := float64(slot.Y) + float64(slot.H)/2

	r := image.Rect(
		int(math.Floor(cx-w/2)),
		int(math.Floor(cy-h/2)),
		int(math.Ceil(cx+w/2)),
		int(math.Ceil(cy+h/2)),
	)
	return r.Union(slot.Rect())
}
