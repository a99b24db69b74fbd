package compositor

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	red   = color.NRGBA{R: 255, A: 255}
)

func TestCoverRect(t *testing.T) {
	tests := []struct {
		name       string
		srcW, srcH int
		slot       entity.SlotRect
		want       image.Rectangle
	}{
		{
			name: "same aspect",
			srcW: 800, srcH: 600,
			slot: entity.SlotRect{X: 10, Y: 20, W: 400, H: 300},
			want: image.Rect(10, 20, 410, 320),
		},
		{
			name: "wide photo is cropped left and right",
			srcW: 1600, srcH: 600,
			slot: entity.SlotRect{X: 0, Y: 0, W: 400, H: 300},
			want: image.Rect(-200, 0, 600, 300),
		},
		{
			name: "tall photo is cropped top and bottom",
			srcW: 300, srcH: 600,
			slot: entity.SlotRect{X: 0, Y: 0, W: 400, H: 300},
			want: image.Rect(0, -250, 400, 550),
		},
		{
			name: "fractional edges round outward",
			srcW: 3, srcH: 1,
			slot: entity.SlotRect{X: 0, Y: 0, W: 4, H: 3},
			want: image.Rect(-3, 0, 7, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoverRect(tt.srcW, tt.srcH, tt.slot)
			assert.Equal(t, tt.want, got)
			assert.True(t, tt.slot.Rect().In(got))
		})
	}
}

func TestCompositeCoversSlot(t *testing.T) {
	dst := imaging.New(200, 200, white)
	photo := imaging.New(640, 240, red)
	slot := entity.SlotRect{X: 40, Y: 50, W: 120, H: 90}

	require.NoError(t, New(DefaultOptions()).Composite(dst, photo, slot))

	// 0.06 * 90 rounds to a radius of about 5 pixels; stay clear of the corners.
	const inset = 6
	for y := slot.Y + 1; y < slot.Y+slot.H-1; y++ {
		for x := slot.X + inset; x < slot.X+slot.W-inset; x++ {
			c := dst.NRGBAAt(x, y)
			require.InDelta(t, 255, int(c.R), 2, "pixel %d,%d", x, y)
			require.InDelta(t, 0, int(c.G), 2, "pixel %d,%d", x, y)
		}
	}
	for y := slot.Y + inset; y < slot.Y+slot.H-inset; y++ {
		c := dst.NRGBAAt(slot.X+1, y)
		require.InDelta(t, 0, int(c.B), 2, "pixel %d,%d", slot.X+1, y)
	}
}

func TestCompositeLeavesOutsideUntouched(t *testing.T) {
	dst := imaging.New(200, 200, white)
	photo := imaging.New(100, 400, red)
	slot := entity.SlotRect{X: 40, Y: 50, W: 120, H: 90}

	require.NoError(t, New(DefaultOptions()).Composite(dst, photo, slot))

	outside := []image.Point{
		{X: slot.X - 1, Y: slot.Y + slot.H/2},
		{X: slot.X + slot.W, Y: slot.Y + slot.H/2},
		{X: slot.X + slot.W/2, Y: slot.Y - 1},
		{X: slot.X + slot.W/2, Y: slot.Y + slot.H},
		{X: 0, Y: 0},
		{X: 199, Y: 199},
	}
	for _, p := range outside {
		assert.Equal(t, white, dst.NRGBAAt(p.X, p.Y), "pixel %v", p)
	}

	corners := []image.Point{
		{X: slot.X, Y: slot.Y},
		{X: slot.X + slot.W - 1, Y: slot.Y},
		{X: slot.X, Y: slot.Y + slot.H - 1},
		{X: slot.X + slot.W - 1, Y: slot.Y + slot.H - 1},
	}
	for _, p := range corners {
		assert.Equal(t, white, dst.NRGBAAt(p.X, p.Y), "corner %v", p)
	}
}

func TestCompositeSquareCorners(t *testing.T) {
	dst := imaging.New(100, 100, white)
	slot := entity.SlotRect{X: 10, Y: 10, W: 40, H: 30}

	require.NoError(t, New(Options{}).Composite(dst, imaging.New(4, 3, red), slot))

	c := dst.NRGBAAt(slot.X, slot.Y)
	assert.InDelta(t, 0, int(c.G), 2)
}

func TestCompositeRejectsEmptyInput(t *testing.T) {
	dst := imaging.New(100, 100, white)
	c := New(DefaultOptions())

	err := c.Composite(dst, image.NewNRGBA(image.Rect(0, 0, 0, 0)), entity.SlotRect{X: 0, Y: 0, W: 40, H: 30})
	assert.ErrorIs(t, err, errEmptyPhoto)

	err = c.Composite(dst, imaging.New(4, 3, red), entity.SlotRect{X: 0, Y: 0, W: 0, H: 30})
	assert.Error(t, err)
}
