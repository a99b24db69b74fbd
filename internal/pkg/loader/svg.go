package loader

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

var svgMarker = []byte("<svg")

const sniffLen = 1024

func trimMarkup(data []byte) []byte {
	return bytes.TrimPrefix(bytes.TrimLeft(data, " \t\r\n"), []byte("\xef\xbb\xbf"))
}

// looksLikeMarkup reports whether data starts with an XML tag, prolog or comment.
func looksLikeMarkup(data []byte) bool {
	return bytes.HasPrefix(trimMarkup(data), []byte("<"))
}

func looksLikeSVG(data []byte) bool {
	if !looksLikeMarkup(data) {
		return false
	}
	head := trimMarkup(data)
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return bytes.Contains(bytes.ToLower(head), svgMarker)
}

// rasterizeSVG renders the icon stretched to width x height. A zero size falls back to
// the viewBox dimensions. Targets above maxPixels are refused.
func rasterizeSVG(data []byte, width, height int, maxPixels int64) (image.Image, error) {
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}

	w, h := float64(width), float64(height)
	if width <= 0 || height <= 0 {
		w = math.Ceil(icon.ViewBox.W)
		h = math.Ceil(icon.ViewBox.H)
	}
	if !(w >= 1 && h >= 1) {
		return nil, errors.New("svg has no size")
	}
	if err := checkPixels(w, h, maxPixels); err != nil {
		return nil, err
	}
	width, height = int(w), int(h)

	icon.SetTarget(0, 0, float64(width), float64(height))

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	scanner := rasterx.NewScannerGV(width, height, img, img.Bounds())
	raster := rasterx.NewDasher(width, height, scanner)
	icon.Draw(raster, 1.0)

	return img, nil
}

// checkPixels works in floats so that absurd dimensions cannot overflow.
func checkPixels(w, h float64, maxPixels int64) error {
	if maxPixels > 0 && w*h > float64(maxPixels) {
		return fmt.Errorf("image of %.0fx%.0f exceeds %d pixels", w, h, maxPixels)
	}
	return nil
}
