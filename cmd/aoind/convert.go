package main

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/jchantrell/aoind/internal/assets"
	"github.com/jchantrell/aoind/internal/ind"
	"github.com/spf13/cobra"
)

var (
	convertShape        string
	convertRecordSize   int
	convertHeaderOffset int
	convertOutputDir    string
)

var convertCmd = &cobra.Command{
	Use:   "convert <in> [out]",
	Short: "Re-encode an index file with another record size or header",
	Long: `Convert decodes an index file using its detected layout and writes it
again using the requested record size and header offset. Header bytes are
kept verbatim when the header offset is unchanged.

Values that do not fit the narrower id width of the target layout are
rejected instead of being truncated.

<in> may be a file path or an asset kind resolved inside the index directory.
Without <out> the result is written under --output-dir, which defaults to the
index directory, using the existing spelling of the file or the preferred one.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		in, kind, err := resolveIndexArg(assets.NewResolver(cfg.IndexDir), args[0])
		if err != nil {
			return err
		}

		out := ""
		if len(args) == 2 {
			out = args[1]
		} else {
			dir := convertOutputDir
			if dir == "" {
				dir = cfg.IndexDir
			}
			if out, err = convertOutput(in, kind, dir); err != nil {
				return err
			}
		}

		shapeArg := convertShape
		if shapeArg == "" {
			shapeArg = shapeName(kind)
		}
		if shapeArg == "grh" {
			return fmt.Errorf("graphics indexes have variable-length entries and cannot be converted")
		}

		shape, err := parseShape(shapeArg)
		if err != nil {
			return err
		}

		files := ind.NewFiles()
		file, err := files.Read(in, shape)
		if err != nil {
			return fmt.Errorf("reading %s: %w", in, err)
		}

		size := int(file.Layout.RecordSize)
		if cmd.Flags().Changed("record-size") {
			size = convertRecordSize
		}
		if !slices.Contains(shape.Sizes(), size) {
			return fmt.Errorf("record size %d is not valid for %s files (want one of %v)", size, shape, shape.Sizes())
		}

		offset := int(file.Layout.HeaderOffset)
		if cmd.Flags().Changed("header-offset") {
			offset = convertHeaderOffset
		}
		if offset != 0 && offset != ind.LegacyHeaderSize {
			return fmt.Errorf("header offset must be 0 or %d, got %d", ind.LegacyHeaderSize, offset)
		}
		if len(file.Header) > offset {
			file.Header = file.Header[:offset]
		}

		from := file.Layout
		file.Layout = ind.NewLayout(offset, size)

		if err := files.Write(out, file); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}

		slog.Info("Converted index file",
			"in", in,
			"out", out,
			"records", file.Len(),
			"from", from.String(),
			"to", file.Layout.String())

		return nil
	},
}

// convertOutput returns where a converted file lands inside dir, creating dir
// when needed. Files of an unknown kind keep their base name.
func convertOutput(in string, kind assets.Kind, dir string) (string, error) {
	resolver := assets.NewResolver(dir)
	if err := resolver.EnsureDir(); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	if kind == "" {
		return filepath.Join(dir, filepath.Base(in)), nil
	}
	return resolver.Path(kind), nil
}

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertShape, "shape", "", "record shape (mold, directional); guessed from the file name by default")
	convertCmd.Flags().IntVar(&convertRecordSize, "record-size", 0, "record size of the output file")
	convertCmd.Flags().IntVar(&convertHeaderOffset, "header-offset", 0, "header size of the output file (0 or 263)")
	convertCmd.Flags().StringVar(&convertOutputDir, "output-dir", "", "directory for the output when <out> is omitted (default: the index directory)")
}
