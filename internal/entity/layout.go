package entity

import (
	"fmt"
	"strings"
)

// Canvas height is the same for every layout: a 6 inch strip at 300 DPI.
const CanvasHeight = 1800

type LayoutType string

const (
	TwoByOne   LayoutType = "2x1"
	ThreeByOne LayoutType = "3x1"
	FourByOne  LayoutType = "4x1"
)

var layoutWidths = map[LayoutType]int{
	TwoByOne:   900,
	ThreeByOne: 600,
	FourByOne:  450,
}

var layoutSlots = map[LayoutType]int{
	TwoByOne:   2,
	ThreeByOne: 3,
	FourByOne:  4,
}

func ParseLayout(s string) (LayoutType, error) {
	l := LayoutType(strings.ToLower(strings.TrimSpace(s)))
	if !l.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidLayout, s)
	}
	return l, nil
}

func (l LayoutType) Valid() bool {
	_, ok := layoutSlots[l]
	return ok
}

// SlotCount is the number of photos the layout holds, 0 for unknown layouts.
func (l LayoutType) SlotCount() int {
	return layoutSlots[l]
}

func (l LayoutType) Width() int {
	return layoutWidths[l]
}

func (l LayoutType) Height() int {
	if !l.Valid() {
		return 0
	}
	return CanvasHeight
}

func (l LayoutType) String() string {
	return string(l)
}
