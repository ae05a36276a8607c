package sprite

import "image"

// EmptyTest reports whether a cell holds only background
type EmptyTest func(cell Region) bool

// Grid describes a uniform tile layout
type Grid struct {
	TileW int
	TileH int
	// Cols and Rows limit the grid; by default, and at most, it holds as many
	// whole tiles as fit the region
	Cols int
	Rows int
}

// Slice cuts region into a row-major grid of TileW x TileH cells, dropping
// cells that empty reports as background. A nil empty keeps every cell.
// Non-positive tile sizes yield no cells.
func Slice(region Region, grid Grid, empty EmptyTest) []Region {
	if grid.TileW <= 0 || grid.TileH <= 0 {
		return nil
	}

	// cells never extend past the region
	cols, rows := region.W/grid.TileW, region.H/grid.TileH
	if grid.Cols > 0 && grid.Cols < cols {
		cols = grid.Cols
	}
	if grid.Rows > 0 && grid.Rows < rows {
		rows = grid.Rows
	}

	cells := make([]Region, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := Region{
				X: region.X + c*grid.TileW,
				Y: region.Y + r*grid.TileH,
				W: grid.TileW,
				H: grid.TileH,
			}
			if empty != nil && empty(cell) {
				continue
			}
			cells = append(cells, cell)
		}
	}

	return cells
}

// EmptyTester checks every pixel of a cell against rule. Parts of a cell
// outside the image count as background.
func EmptyTester(img image.Image, rule BackgroundRule) EmptyTest {
	bounds := img.Bounds()

	return func(cell Region) bool {
		r := cell.Rect().Intersect(bounds)
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for x := r.Min.X; x < r.Max.X; x++ {
				if rule.Content(img.At(x, y)) {
					return false
				}
			}
		}
		return true
	}
}
