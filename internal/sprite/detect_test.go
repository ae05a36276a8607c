package sprite

import (
	"errors"
	"image"
	"image/color"
	"reflect"
	"testing"
)

var (
	opaqueRed = color.NRGBA{R: 255, A: 255}
	black     = color.NRGBA{A: 255}
)

func newSheet(w, h int) *image.NRGBA {
	return image.NewNRGBA(image.Rect(0, 0, w, h))
}

func fill(img *image.NRGBA, r Region, c color.Color) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			img.Set(x, y, c)
		}
	}
}

func TestDetectWalkCycle(t *testing.T) {
	img := newSheet(65, 32)
	want := []Region{{0, 0, 32, 32}, {33, 0, 32, 32}}
	for _, r := range want {
		fill(img, r, opaqueRed)
	}

	got, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got = Order(got); !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDetectFindsEveryRectangle(t *testing.T) {
	img := newSheet(120, 90)
	want := []Region{
		{2, 2, 4, 4},
		{8, 2, 20, 10},
		{40, 5, 6, 30},
		{2, 40, 50, 8},
		{60, 40, 4, 4},
		{70, 50, 40, 38},
	}
	for _, r := range want {
		fill(img, r, opaqueRed)
	}

	got, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d regions, want %d: %v", len(got), len(want), got)
	}

	seen := make(map[Region]bool)
	for _, r := range got {
		seen[r] = true
	}
	for _, r := range want {
		if !seen[r] {
			t.Errorf("missing %v in %v", r, got)
		}
	}
}

func TestDetectDropsNoise(t *testing.T) {
	img := newSheet(40, 40)
	fill(img, Region{1, 1, 2, 2}, opaqueRed)   // 4 pixels
	fill(img, Region{10, 1, 1, 12}, opaqueRed) // too thin
	fill(img, Region{20, 20, 5, 5}, opaqueRed)

	got, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := []Region{{20, 20, 5, 5}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDetectFourConnectivity(t *testing.T) {
	img := newSheet(20, 20)
	fill(img, Region{2, 2, 4, 4}, opaqueRed)
	fill(img, Region{6, 6, 4, 4}, opaqueRed) // touches only at a corner

	got, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("diagonal neighbours must stay separate, got %v", got)
	}
}

func TestDetectConcaveShape(t *testing.T) {
	img := newSheet(30, 30)
	fill(img, Region{5, 5, 3, 15}, opaqueRed)
	fill(img, Region{5, 17, 15, 3}, opaqueRed)

	got, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := []Region{{5, 5, 15, 15}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDetectAlphaThreshold(t *testing.T) {
	img := newSheet(20, 10)
	fill(img, Region{1, 1, 5, 5}, color.NRGBA{R: 255, A: 40})
	fill(img, Region{10, 1, 5, 5}, color.NRGBA{R: 255, A: 200})

	got, err := Detect(img, AlphaRule{Threshold: 64}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := []Region{{10, 1, 5, 5}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDetectColorKey(t *testing.T) {
	img := newSheet(40, 20)
	fill(img, Region{0, 0, 40, 20}, black)
	fill(img, Region{3, 3, 8, 8}, opaqueRed)
	fill(img, Region{20, 4, 10, 12}, color.NRGBA{G: 200, A: 255})

	rule := RuleFor(img, 0)
	if _, ok := rule.(ColorKeyRule); !ok {
		t.Fatalf("opaque corner should select a colour key, got %s", rule)
	}

	got, err := Detect(img, rule, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := []Region{{3, 3, 8, 8}, {20, 4, 10, 12}}; !reflect.DeepEqual(Order(got), want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestRuleForTransparentCorner(t *testing.T) {
	rule := RuleFor(newSheet(4, 4), 12)
	if rule != (AlphaRule{Threshold: 12}) {
		t.Fatalf("got %s", rule)
	}
}

func TestDetectNonZeroOrigin(t *testing.T) {
	img := image.NewNRGBA(image.Rect(100, 50, 140, 80))
	fill(img, Region{110, 60, 6, 6}, opaqueRed)

	got, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := []Region{{110, 60, 6, 6}}; !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v", got)
	}
}

func TestDetectErrors(t *testing.T) {
	if _, err := Detect(newSheet(0, 0), AlphaRule{}, DefaultOptions()); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("empty image: %v", err)
	}
	if _, err := Detect(nil, AlphaRule{}, DefaultOptions()); !errors.Is(err, ErrUnreadablePixels) {
		t.Fatalf("nil image: %v", err)
	}
}

func TestDetectIsRepeatable(t *testing.T) {
	img := newSheet(50, 50)
	fill(img, Region{1, 1, 10, 10}, opaqueRed)
	fill(img, Region{20, 3, 10, 20}, opaqueRed)
	fill(img, Region{5, 30, 30, 5}, opaqueRed)

	first, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	second, err := Detect(img, AlphaRule{}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("%v != %v", first, second)
	}
}
