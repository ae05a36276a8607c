package export

import (
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jchantrell/aoind/internal/sprite"
)

// Exporter writes detected sprite regions to disk as individual images
type Exporter struct {
	outputDir string
}

// NewExporter creates a new region exporter
func NewExporter(outputDir string) *Exporter {
	return &Exporter{
		outputDir: outputDir,
	}
}

// ProgressCallback is called to report export progress
type ProgressCallback func(current int, total int, description string)

// ExportRegions crops each region out of img and writes it as
// <prefix>_<n>.png, numbering from 1 in the order given.
// Returns the written paths.
func (e *Exporter) ExportRegions(img image.Image, regions []sprite.Region, prefix string, progressCallback ProgressCallback) ([]string, error) {
	if len(regions) == 0 {
		return nil, nil
	}

	if err := os.MkdirAll(e.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	prefix = sanitizeName(prefix)
	paths := make([]string, 0, len(regions))

	for i, r := range regions {
		name := fmt.Sprintf("%s_%d.png", prefix, i+1)
		outputPath := filepath.Join(e.outputDir, name)

		crop := &CropParams{
			Width:  r.W,
			Height: r.H,
			Top:    r.Y,
			Left:   r.X,
		}

		if err := WritePNG(img, crop, outputPath); err != nil {
			return paths, fmt.Errorf("exporting region %d %s: %w", i+1, r, err)
		}
		paths = append(paths, outputPath)

		if progressCallback != nil {
			progressCallback(i+1, len(regions), name)
		}

		slog.Debug("Exported region", "region", r.String(), "output", outputPath)
	}

	return paths, nil
}

// sanitizeName turns an image path into a flat file name prefix
func sanitizeName(name string) string {
	name = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if name == "" || name == "." {
		return "region"
	}
	return strings.ReplaceAll(name, " ", "_")
}
