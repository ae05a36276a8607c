package sprite

import (
	"fmt"
	"image"
)

// Region is a pixel-space bounding box. W and H are always positive.
type Region struct {
	X, Y int
	W, H int
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// Rect converts the region to an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
}

// Union returns the smallest region covering r and o
func (r Region) Union(o Region) Region {
	u := r.Rect().Union(o.Rect())
	return fromRect(u)
}

func fromRect(rect image.Rectangle) Region {
	return Region{X: rect.Min.X, Y: rect.Min.Y, W: rect.Dx(), H: rect.Dy()}
}

// Options tunes noise rejection during detection
type Options struct {
	// MinPixels drops components with fewer content pixels
	MinPixels int
	// MinSize drops components whose box is narrower or shorter
	MinSize int
}

// DefaultOptions treats specks under 5 pixels or 3x3 as anti-aliasing noise
func DefaultOptions() Options {
	return Options{MinPixels: 5, MinSize: 3}
}

// Detect finds the bounding boxes of 4-connected components of content
// pixels. Regions are returned in discovery order (top-most pixel first);
// use Order for reading order.
func Detect(img image.Image, rule BackgroundRule, opts Options) ([]Region, error) {
	if img == nil {
		return nil, &DetectionError{Kind: UnreadablePixels, Err: fmt.Errorf("image is nil")}
	}
	if rule == nil {
		return nil, fmt.Errorf("background rule cannot be nil")
	}

	b := img.Bounds()
	if b.Empty() {
		return nil, &DetectionError{Kind: EmptyImage}
	}

	w, h := b.Dx(), b.Dy()
	mask := contentMask(img, rule)
	visited := make([]bool, w*h)
	queue := make([]int, 0, 64)

	regions := make([]Region, 0)

	for start := range mask {
		if !mask[start] || visited[start] {
			continue
		}

		minX, minY := start%w, start/w
		maxX, maxY := minX, minY
		pixels := 0

		visited[start] = true
		queue = append(queue[:0], start)

		for head := 0; head < len(queue); head++ {
			p := queue[head]
			x, y := p%w, p/w
			pixels++

			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}

			if x > 0 {
				queue = visit(queue, mask, visited, p-1)
			}
			if x < w-1 {
				queue = visit(queue, mask, visited, p+1)
			}
			if y > 0 {
				queue = visit(queue, mask, visited, p-w)
			}
			if y < h-1 {
				queue = visit(queue, mask, visited, p+w)
			}
		}

		bw, bh := maxX-minX+1, maxY-minY+1
		if pixels < opts.MinPixels || bw < opts.MinSize || bh < opts.MinSize {
			continue
		}

		regions = append(regions, Region{X: b.Min.X + minX, Y: b.Min.Y + minY, W: bw, H: bh})
	}

	return regions, nil
}

func visit(queue []int, mask, visited []bool, p int) []int {
	if mask[p] && !visited[p] {
		visited[p] = true
		queue = append(queue, p)
	}
	return queue
}
