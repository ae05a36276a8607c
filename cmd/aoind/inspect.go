package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jchantrell/aoind/internal/assets"
	"github.com/jchantrell/aoind/internal/ind"
	"github.com/jchantrell/aoind/internal/utils"
	"github.com/spf13/cobra"
)

var (
	inspectShape   string
	inspectRecords int
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file|asset>...",
	Short: "Show the detected layout of index files",
	Long: `Inspect detects the header offset and record size of each index file and
prints the resulting layout. Arguments may be file paths or asset kinds
(heads, helmets, bodies, ...) resolved inside the index directory.

Files whose layout could not be matched exactly are reported with a warning
and decoded with the fallback layout.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver := assets.NewResolver(cfg.IndexDir)

		for _, arg := range args {
			path, kind, err := resolveIndexArg(resolver, arg)
			if err != nil {
				return err
			}

			shape := inspectShape
			if shape == "" {
				shape = shapeName(kind)
			}

			if err := inspectFile(path, shape); err != nil {
				return err
			}
		}

		return nil
	},
}

// resolveIndexArg accepts either an asset kind or a file path
func resolveIndexArg(resolver *assets.Resolver, arg string) (string, assets.Kind, error) {
	if kind, err := assets.ParseKind(arg); err == nil {
		path, err := resolver.Resolve(kind)
		if err != nil {
			return "", "", fmt.Errorf("resolving %s: %w", kind, err)
		}
		return path, kind, nil
	}

	return arg, kindForFile(arg), nil
}

// kindForFile guesses the asset kind from a known file name spelling
func kindForFile(path string) assets.Kind {
	base := strings.ToLower(filepath.Base(path))
	for _, kind := range assets.Kinds() {
		for _, name := range kind.Spellings() {
			if strings.ToLower(name) == base {
				return kind
			}
		}
	}
	return ""
}

// shapeName returns "grh", "mold" or "directional" for a kind
func shapeName(kind assets.Kind) string {
	if kind.IsGraphics() {
		return "grh"
	}
	if kind == "" {
		return ind.ShapeMold.String()
	}
	return kind.Shape(systemFor(kind)).String()
}

// systemFor returns the configured record system for heads and helmets
func systemFor(kind assets.Kind) assets.System {
	name := cfg.HeadSystem
	if kind == assets.Helmets {
		name = cfg.HelmetSystem
	}

	system, err := assets.ParseSystem(name)
	if err != nil {
		return assets.Directional
	}
	return system
}

func parseShape(name string) (ind.Shape, error) {
	switch name {
	case ind.ShapeMold.String():
		return ind.ShapeMold, nil
	case ind.ShapeDirectional.String():
		return ind.ShapeDirectional, nil
	default:
		return 0, fmt.Errorf("unknown record shape %q (want mold, directional or grh)", name)
	}
}

func inspectFile(path, shapeArg string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	fmt.Printf("%s (%s)\n", path, utils.Bytes(int64(len(data))))

	if shapeArg == "grh" {
		grh, err := ind.DecodeGrh(data)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", path, err)
		}

		animated := 0
		for _, e := range grh.Entries {
			if e.Animated != nil {
				animated++
			}
		}

		fmt.Printf("  header:   %d bytes\n", len(grh.Header))
		fmt.Printf("  version:  %d\n", grh.Version)
		fmt.Printf("  entries:  %s (%s animated)\n", utils.Number(int64(len(grh.Entries))), utils.Number(int64(animated)))
		for i, e := range grh.Entries {
			if i >= inspectRecords {
				break
			}
			if e.Static != nil {
				s := e.Static
				fmt.Printf("  %6d  file=%d x=%d y=%d w=%d h=%d\n", e.ID, s.FileNum, s.X, s.Y, s.W, s.H)
			} else {
				fmt.Printf("  %6d  frames=%v speed=%.0fms\n", e.ID, e.Animated.FrameIDs, e.Animated.SpeedMs)
			}
		}
		return nil
	}

	shape, err := parseShape(shapeArg)
	if err != nil {
		return err
	}

	file, err := ind.Decode(data, shape)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}

	if file.Layout.Fallback {
		slog.Warn("No layout matched the file length, decoded with fallback layout",
			"path", path,
			"header_offset", file.Layout.HeaderOffset,
			"record_size", file.Layout.RecordSize)
	}

	fmt.Printf("  shape:    %s\n", shape)
	fmt.Printf("  layout:   %s\n", file.Layout)
	fmt.Printf("  wide ids: %t\n", file.Layout.UsesWideID)
	fmt.Printf("  records:  %s\n", utils.Number(int64(file.Len())))

	for i := 0; i < file.Len() && i < inspectRecords; i++ {
		if shape == ind.ShapeDirectional {
			d := file.Directions[i]
			fmt.Printf("  %6d  n=%d s=%d e=%d w=%d\n", i+1, d.North, d.South, d.East, d.West)
		} else {
			m := file.Molds[i]
			fmt.Printf("  %6d  std=%d tex=%d x=%d y=%d\n", i+1, m.StandardID, m.TextureID, m.StartX, m.StartY)
		}
	}

	return nil
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectShape, "shape", "", "record shape (mold, directional, grh); guessed from the file name by default")
	inspectCmd.Flags().IntVarP(&inspectRecords, "records", "n", 0, "print the first N records")
}
