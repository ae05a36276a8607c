package sprite

import (
	"image"
	"reflect"
	"testing"
)

func TestSliceCoversRegion(t *testing.T) {
	region := Region{X: 8, Y: 4, W: 64, H: 48}
	cells := Slice(region, Grid{TileW: 16, TileH: 16}, nil)

	if len(cells) != (64/16)*(48/16) {
		t.Fatalf("got %d cells", len(cells))
	}

	covered := make(map[image.Point]int)
	for _, c := range cells {
		if c.W != 16 || c.H != 16 {
			t.Fatalf("cell %v has wrong size", c)
		}
		for y := c.Y; y < c.Y+c.H; y++ {
			for x := c.X; x < c.X+c.W; x++ {
				covered[image.Point{x, y}]++
			}
		}
	}

	for y := region.Y; y < region.Y+region.H; y++ {
		for x := region.X; x < region.X+region.W; x++ {
			if n := covered[image.Point{x, y}]; n != 1 {
				t.Fatalf("pixel (%d,%d) covered %d times", x, y, n)
			}
		}
	}
	if len(covered) != region.W*region.H {
		t.Fatalf("cells spill outside the region")
	}
}

func TestSliceRowMajor(t *testing.T) {
	cells := Slice(Region{W: 64, H: 64}, Grid{TileW: 32, TileH: 32}, nil)
	want := []Region{{0, 0, 32, 32}, {32, 0, 32, 32}, {0, 32, 32, 32}, {32, 32, 32, 32}}
	if !reflect.DeepEqual(cells, want) {
		t.Fatalf("got %v", cells)
	}
}

func TestSliceExplicitColsRows(t *testing.T) {
	cells := Slice(Region{W: 100, H: 100}, Grid{TileW: 10, TileH: 20, Cols: 3, Rows: 2}, nil)
	if len(cells) != 6 {
		t.Fatalf("got %d cells", len(cells))
	}
	if last := cells[5]; last != (Region{20, 20, 10, 20}) {
		t.Fatalf("last cell %v", last)
	}
}

func TestSliceClampsOversizedGrid(t *testing.T) {
	region := Region{X: 4, Y: 0, W: 50, H: 40}
	cells := Slice(region, Grid{TileW: 32, TileH: 16, Cols: 2, Rows: 5}, nil)

	want := []Region{{4, 0, 32, 16}, {4, 16, 32, 16}}
	if !reflect.DeepEqual(cells, want) {
		t.Fatalf("got %v, want %v", cells, want)
	}
	for _, c := range cells {
		if !c.Rect().In(region.Rect()) {
			t.Fatalf("cell %v extends past %v", c, region)
		}
	}
}

func TestSegmentGridStaysInsideImage(t *testing.T) {
	img := newSheet(50, 32)
	fill(img, Region{0, 0, 50, 32}, opaqueRed)

	res, err := Segment(img, SegmentOptions{Mode: ModeGrid, Rule: AlphaRule{}, Grid: Grid{TileW: 32, TileH: 32, Cols: 2}})
	if err != nil {
		t.Fatal(err)
	}
	if want := []Region{{0, 0, 32, 32}}; !reflect.DeepEqual(res.Regions, want) {
		t.Fatalf("got %v, want %v", res.Regions, want)
	}
}

func TestSliceDropsEmptyCells(t *testing.T) {
	img := newSheet(64, 32)
	fill(img, Region{2, 2, 4, 4}, opaqueRed)
	fill(img, Region{63, 31, 1, 1}, opaqueRed) // single pixel in the last tile

	cells := Slice(Region{W: 64, H: 32}, Grid{TileW: 16, TileH: 16}, EmptyTester(img, AlphaRule{}))
	want := []Region{{0, 0, 16, 16}, {48, 16, 16, 16}}
	if !reflect.DeepEqual(cells, want) {
		t.Fatalf("got %v, want %v", cells, want)
	}
}

func TestSliceInvalidTile(t *testing.T) {
	if cells := Slice(Region{W: 10, H: 10}, Grid{TileW: 0, TileH: 5}, nil); cells != nil {
		t.Fatalf("got %v", cells)
	}
}

func TestEmptyTesterOutsideImage(t *testing.T) {
	img := newSheet(16, 16)
	fill(img, Region{0, 0, 16, 16}, opaqueRed)
	if !EmptyTester(img, AlphaRule{})(Region{X: 32, Y: 0, W: 16, H: 16}) {
		t.Fatal("cell outside the image should be empty")
	}
}
