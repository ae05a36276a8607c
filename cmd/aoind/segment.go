package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jchantrell/aoind/internal/catalog"
	"github.com/jchantrell/aoind/internal/export"
	"github.com/jchantrell/aoind/internal/ind"
	"github.com/jchantrell/aoind/internal/sprite"
	"github.com/jchantrell/aoind/internal/utils"
	"github.com/spf13/cobra"
)

var (
	segmentMode      string
	segmentMerge     int
	segmentTile      string
	segmentCols      int
	segmentRows      int
	segmentExport    string
	segmentCatalog   bool
	segmentGrhFile   string
	segmentFileNum   int
	segmentFirstID   int
	segmentThreshold int
	segmentMinPixels int
	segmentMinSize   int
)

// segmented is the printable outcome for one image
type segmented struct {
	Image   string
	Width   int
	Height  int
	Mode    string
	Rule    string
	RunID   string
	Regions []sprite.Region
}

var segmentCmd = &cobra.Command{
	Use:   "segment <image>...",
	Short: "Find sprite frames in sprite sheets",
	Long: `Segment detects connected sprites in each image, orders them top to
bottom and left to right, and optionally merges nearby fragments (--merge)
or cuts the sheet or each sprite into fixed-size tiles (--tile WxH).

Relative image paths that do not exist are looked up in the graphics
directory. The regions can be exported as PNG crops (--export), stored in
the catalog (--catalog) or appended to a graphics index as static frames
(--grh-file).`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		opts, err := segmentOptions(cmd)
		if err != nil {
			return err
		}

		var inserter *catalog.BulkInserter
		if segmentCatalog {
			db, err := catalog.NewDatabase(catalog.DefaultDatabaseOptions(cfg.Database))
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer db.Close()
			inserter = catalog.NewBulkInserter(db, nil)
		}

		files := ind.NewFiles()
		var results []segmented

		for _, arg := range args {
			select {
			case <-ctx.Done():
				return fmt.Errorf("segmentation canceled: %w", ctx.Err())
			default:
			}

			path := imagePath(arg)
			img, format, err := sprite.Load(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}

			res, err := sprite.Segment(img, opts)
			if err != nil {
				return fmt.Errorf("segmenting %s: %w", path, err)
			}

			slog.Info("Segmented sprite sheet",
				"image", path,
				"format", format,
				"rule", res.Rule.String(),
				"regions", len(res.Regions))

			out := segmented{
				Image:   path,
				Width:   img.Bounds().Dx(),
				Height:  img.Bounds().Dy(),
				Mode:    string(opts.Mode),
				Rule:    res.Rule.String(),
				Regions: res.Regions,
			}

			if segmentExport != "" {
				progress := utils.NewProgress(len(res.Regions), progressEnabled())
				paths, err := export.NewExporter(segmentExport).ExportRegions(img, res.Regions, filepath.Base(path),
					func(current, total int, description string) {
						progress.Update(current, description)
					})
				progress.Finish()
				if err != nil {
					return fmt.Errorf("exporting regions of %s: %w", path, err)
				}
				slog.Info("Exported regions", "image", path, "files", len(paths), "dir", segmentExport)
			}

			if inserter != nil {
				id, err := inserter.RecordRun(ctx, &catalog.Run{
					Image:   path,
					Width:   out.Width,
					Height:  out.Height,
					Mode:    out.Mode,
					Rule:    out.Rule,
					Regions: res.Regions,
				})
				if err != nil {
					return fmt.Errorf("recording run for %s: %w", path, err)
				}
				out.RunID = id.String()
			}

			if segmentGrhFile != "" {
				if err := appendAtlasEntries(cmd, files, path, res.Regions); err != nil {
					return err
				}
			}

			results = append(results, out)
		}

		for _, r := range results {
			fmt.Printf("%s (%dx%d, %s, %s)\n", r.Image, r.Width, r.Height, r.Mode, r.Rule)
			if r.RunID != "" {
				fmt.Printf("  run: %s\n", r.RunID)
			}
			for i, region := range r.Regions {
				fmt.Printf("  %4d  x=%-5d y=%-5d w=%-5d h=%d\n", i+1, region.X, region.Y, region.W, region.H)
			}
		}

		return nil
	},
}

// segmentOptions merges configured detection settings with command flags
func segmentOptions(cmd *cobra.Command) (sprite.SegmentOptions, error) {
	flags := cmd.Flags()

	mode, err := sprite.ParseMode(segmentMode)
	if err != nil {
		return sprite.SegmentOptions{}, err
	}

	d := cfg.Detection
	if flags.Changed("alpha-threshold") {
		d.AlphaThreshold = segmentThreshold
	}
	if flags.Changed("min-pixels") {
		d.MinPixels = segmentMinPixels
	}
	if flags.Changed("min-size") {
		d.MinSize = segmentMinSize
	}
	if flags.Changed("merge") {
		d.MergeDistance = segmentMerge
		if !flags.Changed("mode") {
			mode = sprite.ModeMerge
		}
	}
	if d.AlphaThreshold < 0 || d.AlphaThreshold > 255 {
		return sprite.SegmentOptions{}, fmt.Errorf("alpha threshold must be between 0 and 255, got %d", d.AlphaThreshold)
	}

	opts := sprite.SegmentOptions{
		Mode:           mode,
		AlphaThreshold: uint8(d.AlphaThreshold),
		Detect:         sprite.Options{MinPixels: d.MinPixels, MinSize: d.MinSize},
		MergeDistance:  d.MergeDistance,
	}

	if segmentTile != "" {
		w, h, err := parseTile(segmentTile)
		if err != nil {
			return sprite.SegmentOptions{}, err
		}
		opts.Grid = sprite.Grid{TileW: w, TileH: h, Cols: segmentCols, Rows: segmentRows}
	} else if mode == sprite.ModeGrid {
		return sprite.SegmentOptions{}, fmt.Errorf("grid mode needs --tile WxH")
	}

	return opts, nil
}

// parseTile parses "32x48" or a single "32" for square tiles
func parseTile(s string) (int, int, error) {
	ws, hs, found := strings.Cut(strings.ToLower(s), "x")
	if !found {
		hs = ws
	}

	w, err := strconv.Atoi(strings.TrimSpace(ws))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid tile width in %q: %w", s, err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(hs))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid tile height in %q: %w", s, err)
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("tile size must be positive, got %dx%d", w, h)
	}

	return w, h, nil
}

// imagePath falls back to the graphics directory for relative paths that do
// not exist as given
func imagePath(arg string) string {
	if filepath.IsAbs(arg) || cfg.GraphicsDir == "" {
		return arg
	}
	if _, err := os.Stat(arg); err == nil {
		return arg
	}

	candidate := filepath.Join(cfg.GraphicsDir, arg)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return arg
}

// graphicsFileNum takes the numeric base name of a sheet, e.g. 1234.bmp
func graphicsFileNum(path string) (uint32, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	n, err := strconv.ParseUint(base, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("cannot take a graphics file number from %q, pass --file-num", filepath.Base(path))
	}
	return uint32(n), nil
}

// appendAtlasEntries adds one static frame per region to the graphics index
func appendAtlasEntries(cmd *cobra.Command, files *ind.Files, imagePath string, regions []sprite.Region) error {
	var fileNum uint32
	if cmd.Flags().Changed("file-num") {
		if segmentFileNum < 0 {
			return fmt.Errorf("file number cannot be negative")
		}
		fileNum = uint32(segmentFileNum)
	} else {
		n, err := graphicsFileNum(imagePath)
		if err != nil {
			return err
		}
		fileNum = n
	}

	var added []ind.AtlasEntry
	err := files.UpdateGrh(segmentGrhFile, func(g *ind.GrhFile) error {
		firstID := export.NextAtlasID(g.Entries)
		if cmd.Flags().Changed("first-id") {
			if segmentFirstID <= 0 {
				return fmt.Errorf("first id must be positive")
			}
			firstID = uint32(segmentFirstID)
			for _, e := range g.Entries {
				if e.ID >= firstID && e.ID < firstID+uint32(len(regions)) {
					return fmt.Errorf("atlas id %d is already used", e.ID)
				}
			}
		}

		entries, err := export.ToAtlasEntries(regions, fileNum, firstID)
		if err != nil {
			return err
		}
		g.Entries = append(g.Entries, entries...)
		added = entries
		return nil
	})
	if err != nil {
		if errors.Is(err, ind.ErrCorrupt) {
			return fmt.Errorf("graphics index %s is not readable: %w", segmentGrhFile, err)
		}
		return fmt.Errorf("appending to %s: %w", segmentGrhFile, err)
	}

	if len(added) > 0 {
		slog.Info("Appended atlas entries",
			"file", segmentGrhFile,
			"file_num", fileNum,
			"first_id", added[0].ID,
			"count", len(added))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	segmentCmd.Flags().StringVarP(&segmentMode, "mode", "m", "blobs", "segmentation mode (blobs, merge, grid)")
	segmentCmd.Flags().IntVar(&segmentMerge, "merge", 0, "merge regions closer than this many pixels (implies --mode merge)")
	segmentCmd.Flags().StringVarP(&segmentTile, "tile", "t", "", "tile size WxH; slices the sheet in grid mode, each region otherwise")
	segmentCmd.Flags().IntVar(&segmentCols, "cols", 0, "grid columns (default and maximum: as many whole tiles as fit)")
	segmentCmd.Flags().IntVar(&segmentRows, "rows", 0, "grid rows (default and maximum: as many whole tiles as fit)")
	segmentCmd.Flags().IntVar(&segmentThreshold, "alpha-threshold", 0, "alpha at or below which a pixel is background")
	segmentCmd.Flags().IntVar(&segmentMinPixels, "min-pixels", 0, "drop blobs with fewer content pixels")
	segmentCmd.Flags().IntVar(&segmentMinSize, "min-size", 0, "drop blobs narrower or shorter than this")
	segmentCmd.Flags().StringVarP(&segmentExport, "export", "e", "", "write each region as a PNG into this directory")
	segmentCmd.Flags().BoolVar(&segmentCatalog, "catalog", false, "record the run in the catalog database")
	segmentCmd.Flags().StringVar(&segmentGrhFile, "grh-file", "", "append regions as static frames to this graphics index")
	segmentCmd.Flags().IntVar(&segmentFileNum, "file-num", 0, "graphics file number for appended frames (default: numeric image name)")
	segmentCmd.Flags().IntVar(&segmentFirstID, "first-id", 0, "first atlas id for appended frames (default: after the highest id)")
}
