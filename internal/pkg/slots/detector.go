// Package slots finds the photo holes of a frame and computes fallback slot geometry.
package slots

import (
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/ds124wfegd/photoframe/internal/entity"
	"github.com/ds124wfegd/photoframe/internal/pkg/canvas"
)

const (
	aspectW = 4
	aspectH = 3

	// detected slots further than this from 4:3 after the margin are re-fitted
	aspectTolerance = 0.015
)

type band struct {
	start, end int // rows, end exclusive
}

func (b band) height() int { return b.end - b.start }

// Detect analyses the alpha channel of frame rendered at the layout's canonical size and
// returns one slot per transparent region, top to bottom. It returns
// *entity.DetectionInsufficientError when the frame has fewer regions than the layout
// needs.
func Detect(frame image.Image, layout entity.LayoutType, p Params) (entity.SlotSet, error) {
	if !layout.Valid() {
		return nil, fmt.Errorf("%w: %q", entity.ErrInvalidLayout, layout)
	}
	p = p.withDefaults()

	width, height := layout.Width(), layout.Height()
	img := canvas.Normalize(frame, width, height)
	expected := layout.SlotCount()

	counts := transparentPerRow(img, p.AlphaThreshold)
	minPerRow := int(math.Ceil(float64(width)*p.rowRatio(layout) - 1e-9))

	bands := mergeBands(findBands(counts, minPerRow, p.MinBandHeight), p.MergeGap)
	if len(bands) < expected {
		return nil, &entity.DetectionInsufficientError{Found: len(bands), Expected: expected}
	}

	sort.SliceStable(bands, func(i, j int) bool {
		if bands[i].height() != bands[j].height() {
			return bands[i].height() > bands[j].height()
		}
		return bands[i].start < bands[j].start
	})
	bands = bands[:expected]
	sort.Slice(bands, func(i, j int) bool { return bands[i].start < bands[j].start })

	out := make(entity.SlotSet, 0, expected)
	for _, b := range bands {
		left, right, ok := horizontalExtent(img, b, p.AlphaThreshold)
		if !ok {
			return nil, &entity.DetectionInsufficientError{Found: len(out), Expected: expected}
		}

		r := fitAspect(entity.SlotRect{X: left, Y: b.start, W: right - left, H: b.height()})
		if r.W == 0 {
			return nil, &entity.DetectionInsufficientError{Found: len(out), Expected: expected}
		}
		out = append(out, expand(r, p.MarginRatio, width, height))
	}
	return out, nil
}

func transparentPerRow(img *image.NRGBA, threshold uint8) []int {
	b := img.Bounds()
	counts := make([]int, b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+b.Dx()*4]
		n := 0
		for i := 3; i < len(row); i += 4 {
			if row[i] < threshold {
				n++
			}
		}
		counts[y] = n
	}
	return counts
}

func findBands(counts []int, minPerRow, minHeight int) []band {
	var bands []band
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= minHeight {
			bands = append(bands, band{start: start, end: end})
		}
		start = -1
	}

	for y, n := range counts {
		if n >= minPerRow {
			if start < 0 {
				start = y
			}
			continue
		}
		flush(y)
	}
	flush(len(counts))
	return bands
}

// mergeBands joins neighbours separated by at most gap rows. bands must be ordered by start.
func mergeBands(bands []band, gap int) []band {
	if len(bands) == 0 {
		return nil
	}
	merged := []band{bands[0]}
	for _, b := range bands[1:] {
		last := &merged[len(merged)-1]
		if b.start-last.end <= gap {
			last.end = b.end
			continue
		}
		merged = append(merged, b)
	}
	return merged
}

// horizontalExtent scans the band's middle row for its outermost transparent pixels and
// returns [left, right). Rows closer to the middle are tried first when the middle row
// has none, which happens when merged bands meet on an opaque seam.
func horizontalExtent(img *image.NRGBA, b band, threshold uint8) (int, int, bool) {
	mid := b.start + (b.height()-1)/2
	for d := 0; d < b.height(); d++ {
		rows := []int{mid - d, mid + d}
		if d == 0 {
			rows = rows[:1]
		}
		for _, y := range rows {
			if y < b.start || y >= b.end {
				continue
			}
			if left, right, ok := rowExtent(img, y, threshold); ok {
				return left, right, true
			}
		}
	}
	return 0, 0, false
}

func rowExtent(img *image.NRGBA, y int, threshold uint8) (int, int, bool) {
	w := img.Bounds().Dx()
	row := img.Pix[y*img.Stride : y*img.Stride+w*4]

	left := -1
	for x := 0; x < w; x++ {
		if row[x*4+3] < threshold {
			left = x
			break
		}
	}
	if left < 0 {
		return 0, 0, false
	}

	right := left
	for x := w - 1; x > left; x-- {
		if row[x*4+3] < threshold {
			right = x
			break
		}
	}
	return left, right + 1, true
}

// fitAspect shrinks the longer side of r until it is exactly 4:3 and keeps r's centre.
func fitAspect(r entity.SlotRect) entity.SlotRect {
	unit := r.W / aspectW
	if h := r.H / aspectH; h < unit {
		unit = h
	}
	w, h := unit*aspectW, unit*aspectH
	return entity.SlotRect{
		X: r.X + (r.W-w)/2,
		Y: r.Y + (r.H-h)/2,
		W: w,
		H: h,
	}
}

// expand grows r by ratio*min(w, h) on every side and clamps it to the canvas. When the
// clamp cut a side the result is re-fitted to 4:3 inside the clamped rectangle.
func expand(r entity.SlotRect, ratio float64, width, height int) entity.SlotRect {
	short := r.W
	if r.H < short {
		short = r.H
	}
	m := int(math.Round(ratio * float64(short)))

	x0, y0 := r.X-m, r.Y-m
	x1, y1 := r.X+r.W+m, r.Y+r.H+m
	clamped := false
	if x0 < 0 {
		x0, clamped = 0, true
	}
	if y0 < 0 {
		y0, clamped = 0, true
	}
	if x1 > width {
		x1, clamped = width, true
	}
	if y1 > height {
		y1, clamped = height, true
	}

	out := entity.SlotRect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
	if clamped || math.Abs(out.Aspect()-float64(aspectW)/aspectH) > aspectTolerance {
		out = fitAspect(out)
	}
	return out
}
