package compositor

import (
	"image"
	"image/color"

	"github.com/srwiley/rasterx"
)

// roundedMask rasterizes a w x h rounded rectangle into an alpha mask anchored at the
// origin. Edges are anti-aliased.
func roundedMask(w, h int, radius float64) *image.Alpha {
	mask := image.NewAlpha(image.Rect(0, 0, w, h))

	scanner := rasterx.NewScannerGV(w, h, mask, mask.Bounds())
	filler := rasterx.NewFiller(w, h, scanner)
	filler.SetColor(color.Alpha{A: 0xff})

	fw, fh := float64(w), float64(h)
	if radius <= 0 {
		rasterx.AddRect(0, 0, fw, fh, 0, filler)
	} else {
		rasterx.AddRoundRect(0, 0, fw, fh, radius, radius, 0, rasterx.RoundGap, filler)
	}
	filler.Draw()
	return mask
}
