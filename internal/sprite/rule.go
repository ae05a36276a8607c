package sprite

import (
	"fmt"
	"image"
	"image/color"
)

// BackgroundRule decides which pixels are background. It is selected once per
// image; the two implementations are AlphaRule and ColorKeyRule.
type BackgroundRule interface {
	// Content reports whether the pixel is part of a sprite
	Content(c color.Color) bool
	String() string

	rule()
}

// AlphaRule treats pixels with alpha above Threshold (0-255) as content
type AlphaRule struct {
	Threshold uint8
}

func (r AlphaRule) Content(c color.Color) bool {
	_, _, _, a := c.RGBA()
	return a>>8 > uint32(r.Threshold)
}

func (r AlphaRule) String() string {
	return fmt.Sprintf("alpha>%d", r.Threshold)
}

func (AlphaRule) rule() {}

// ColorKeyRule treats every pixel that differs from Key as content. Legacy
// indexed bitmaps use it with pure black as the transparent colour.
type ColorKeyRule struct {
	Key color.Color
}

func (r ColorKeyRule) Content(c color.Color) bool {
	kr, kg, kb, ka := r.Key.RGBA()
	cr, cg, cb, ca := c.RGBA()
	return kr != cr || kg != cg || kb != cb || ka != ca
}

func (r ColorKeyRule) String() string {
	cr, cg, cb, ca := r.Key.RGBA()
	return fmt.Sprintf("key=#%02x%02x%02x%02x", cr>>8, cg>>8, cb>>8, ca>>8)
}

func (ColorKeyRule) rule() {}

// RuleFor samples the top-left pixel: a fully transparent sample selects the
// alpha rule with the given threshold, anything else becomes the colour key.
func RuleFor(img image.Image, alphaThreshold uint8) BackgroundRule {
	b := img.Bounds()
	if b.Empty() {
		return AlphaRule{Threshold: alphaThreshold}
	}

	sample := img.At(b.Min.X, b.Min.Y)
	if _, _, _, a := sample.RGBA(); a == 0 {
		return AlphaRule{Threshold: alphaThreshold}
	}
	return ColorKeyRule{Key: sample}
}

// contentMask evaluates rule once per pixel, row-major over img bounds
func contentMask(img image.Image, rule BackgroundRule) []bool {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	mask := make([]bool, w*h)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			mask[y*w+x] = rule.Content(img.At(b.Min.X+x, b.Min.Y+y))
		}
	}

	return mask
}
