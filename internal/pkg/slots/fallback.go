package slots

import (
	"math"

	"github.com/ds124wfegd/photoframe/internal/entity"
)

const (
	maxGapRatio   = 0.15
	maxWidthShare = 0.9
)

// Fallback stacks the layout's slots vertically with a uniform gap of gapRatio*height
// before, between and after them. It never inspects pixels and returns nil only for an
// unknown layout.
func Fallback(layout entity.LayoutType, gapRatio float64) entity.SlotSet {
	if !layout.Valid() {
		return nil
	}
	gapRatio = math.Max(0, math.Min(gapRatio, maxGapRatio))

	n := layout.SlotCount()
	width, height := float64(layout.Width()), float64(layout.Height())

	gap := gapRatio * height
	slotH := (height - gap*float64(n+1)) / float64(n)
	slotW := math.Min(slotH*aspectW/aspectH, width*maxWidthShare)
	x := (width - slotW) / 2

	out := make(entity.SlotSet, n)
	for i := range out {
		y := gap + float64(i)*(slotH+gap)
		out[i] = entity.SlotRect{
			X: int(math.Floor(x)),
			Y: int(math.Floor(y)),
			W: int(math.Floor(slotW)),
			H: int(math.Floor(slotH)),
		}
	}
	return out
}
