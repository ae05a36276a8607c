package sprite

import (
	"fmt"
	"image"
	"log/slog"
)

// Mode selects how detected blobs are post-processed
type Mode string

const (
	ModeBlobs Mode = "blobs"
	ModeMerge Mode = "merge"
	ModeGrid  Mode = "grid"
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBlobs, ModeMerge, ModeGrid:
		return Mode(s), nil
	case "":
		return ModeBlobs, nil
	default:
		return "", fmt.Errorf("unknown segmentation mode %q (want blobs, merge or grid)", s)
	}
}

// SegmentOptions configures a full segmentation run
type SegmentOptions struct {
	Mode Mode

	// Rule overrides background sampling when set
	Rule           BackgroundRule
	AlphaThreshold uint8
	Detect         Options

	// MergeDistance is used by ModeMerge
	MergeDistance int

	// Grid is used by ModeGrid over the whole image. In the other modes a
	// positive tile size re-slices every detected region.
	Grid Grid
}

// Result is the outcome of Segment
type Result struct {
	Rule    BackgroundRule
	Regions []Region
}

// Segment runs detection, reading order and the optional merge or grid pass
func Segment(img image.Image, opts SegmentOptions) (*Result, error) {
	if img == nil {
		return nil, &DetectionError{Kind: UnreadablePixels, Err: fmt.Errorf("image is nil")}
	}
	if img.Bounds().Empty() {
		return nil, &DetectionError{Kind: EmptyImage}
	}

	rule := opts.Rule
	if rule == nil {
		rule = RuleFor(img, opts.AlphaThreshold)
	}

	var regions []Region
	switch opts.Mode {
	case ModeGrid:
		if opts.Grid.TileW <= 0 || opts.Grid.TileH <= 0 {
			return nil, fmt.Errorf("grid mode needs a positive tile size, got %dx%d", opts.Grid.TileW, opts.Grid.TileH)
		}
		regions = Slice(fromRect(img.Bounds()), opts.Grid, EmptyTester(img, rule))

	default:
		found, err := Detect(img, rule, opts.Detect)
		if err != nil {
			return nil, err
		}
		regions = Order(found)

		if opts.Mode == ModeMerge {
			before := len(regions)
			regions = Merge(regions, opts.MergeDistance)
			slog.Debug("Merged regions", "before", before, "after", len(regions), "distance", opts.MergeDistance)
		}

		if opts.Grid.TileW > 0 && opts.Grid.TileH > 0 {
			empty := EmptyTester(img, rule)
			var cells []Region
			for _, r := range regions {
				cells = append(cells, Slice(r, opts.Grid, empty)...)
			}
			regions = cells
		}
	}

	slog.Debug("Segmented image",
		"mode", string(opts.Mode),
		"rule", rule.String(),
		"width", img.Bounds().Dx(),
		"height", img.Bounds().Dy(),
		"regions", len(regions))

	return &Result{Rule: rule, Regions: regions}, nil
}
