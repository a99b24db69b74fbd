package slots

import "github.com/ds124wfegd/photoframe/internal/entity"

// Params controls slot detection. The defaults were calibrated against the production
// frame assets; none of them is derived from first principles.
type Params struct {
	// Pixels with alpha below this value count as transparent (0-255).
	AlphaThreshold uint8

	// Share of a row that must be transparent for the row to belong to a band.
	RowRatioTwoByOne float64
	RowRatio         float64

	// Bands shorter than this are noise.
	MinBandHeight int
	// Bands separated by at most this many rows are one region.
	MergeGap int

	// Safety margin added around each normalized slot, as a share of min(w, h).
	MarginRatio float64
}

func DefaultParams() Params {
	return Params{
		AlphaThreshold:   22,
		RowRatioTwoByOne: 0.40,
		RowRatio:         0.28,
		MinBandHeight:    12,
		MergeGap:         20,
		MarginRatio:      0.02,
	}
}

func (p Params) rowRatio(layout entity.LayoutType) float64 {
	if layout == entity.TwoByOne {
		return p.RowRatioTwoByOne
	}
	return p.RowRatio
}

// withDefaults fills zero fields, so partially configured Params stay usable.
func (p Params) withDefaults() Params {
	d := DefaultParams()
	if p.AlphaThreshold == 0 {
		p.AlphaThreshold = d.AlphaThreshold
	}
	if p.RowRatioTwoByOne <= 0 {
		p.RowRatioTwoByOne = d.RowRatioTwoByOne
	}
	if p.RowRatio <= 0 {
		p.RowRatio = d.RowRatio
	}
	if p.MinBandHeight <= 0 {
		p.MinBandHeight = d.MinBandHeight
	}
	if p.MergeGap < 0 {
		p.MergeGap = d.MergeGap
	}
	if p.MarginRatio < 0 {
		p.MarginRatio = d.MarginRatio
	}
	return p
}
