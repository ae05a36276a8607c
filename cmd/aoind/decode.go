package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/jchantrell/aoind/internal/assets"
	"github.com/jchantrell/aoind/internal/catalog"
	"github.com/jchantrell/aoind/internal/ind"
	"github.com/jchantrell/aoind/internal/utils"
	"github.com/spf13/cobra"
)

type DecodeStats struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalFiles     int
	DecodedFiles   int
	MissingFiles   int
	FallbackFiles  int
	Records        int64
	DecodeErrors   int
	DatabaseErrors int
}

var (
	decodeAssets  []string
	decodeCatalog bool
)

// decoded is the outcome of decoding one asset file
type decoded struct {
	kind  assets.Kind
	path  string
	index *ind.IndexFile
	grh   *ind.GrhFile
	err   error
}

func (d decoded) records() int {
	if d.grh != nil {
		return len(d.grh.Entries)
	}
	return d.index.Len()
}

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode every asset index in the index directory",
	Long: `Decode resolves each asset index (graphics, heads, helmets, bodies,
shields, weapons, effects) inside the index directory, decodes the files
concurrently and reports record counts and detected layouts.

With --catalog the decoded records are stored in the SQLite catalog,
replacing any earlier import of the same file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		stats := &DecodeStats{StartTime: time.Now()}

		kinds, err := selectedKinds(decodeAssets)
		if err != nil {
			return err
		}

		resolver := assets.NewResolver(cfg.IndexDir)

		type job struct {
			kind assets.Kind
			path string
		}
		var jobs []job
		for _, kind := range kinds {
			path, err := resolver.Resolve(kind)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					slog.Warn("Asset index not found", "asset", kind, "dir", resolver.Dir())
					stats.MissingFiles++
					continue
				}
				return err
			}
			jobs = append(jobs, job{kind: kind, path: path})
		}
		stats.TotalFiles = len(jobs)

		if len(jobs) == 0 {
			slog.Info("No asset indexes found", "dir", resolver.Dir())
			return nil
		}

		var inserter *catalog.BulkInserter
		if decodeCatalog {
			db, err := catalog.NewDatabase(catalog.DefaultDatabaseOptions(cfg.Database))
			if err != nil {
				return fmt.Errorf("opening catalog: %w", err)
			}
			defer db.Close()
			inserter = catalog.NewBulkInserter(db, nil)
		}

		slog.Info("Decoding asset indexes", "count", len(jobs), "workers", cfg.Workers)

		files := ind.NewFiles()
		workChan := make(chan job, len(jobs))
		resultsChan := make(chan decoded, len(jobs))

		for _, j := range jobs {
			workChan <- j
		}
		close(workChan)

		var wg sync.WaitGroup
		numWorkers := min(cfg.Workers, len(jobs))
		for i := 0; i < numWorkers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range workChan {
					select {
					case <-ctx.Done():
						resultsChan <- decoded{kind: j.kind, path: j.path, err: ctx.Err()}
						continue
					default:
					}

					d := decoded{kind: j.kind, path: j.path}
					if j.kind.IsGraphics() {
						d.grh, d.err = files.ReadGrh(j.path)
					} else {
						d.index, d.err = files.Read(j.path, j.kind.Shape(systemFor(j.kind)))
					}
					resultsChan <- d
				}
			}()
		}

		go func() {
			wg.Wait()
			close(resultsChan)
		}()

		progress := utils.NewProgress(len(jobs), progressEnabled())

		// results are collected on this goroutine so the catalog has one writer
		var results []decoded
		for d := range resultsChan {
			progress.Increment(string(d.kind))

			if d.err != nil {
				slog.Error("Failed to decode asset index", "asset", d.kind, "path", d.path, "error", d.err)
				stats.DecodeErrors++
				continue
			}

			stats.DecodedFiles++
			stats.Records += int64(d.records())
			if d.index != nil && d.index.Layout.Fallback {
				slog.Warn("No layout matched the file length, decoded with fallback layout", "asset", d.kind, "path", d.path)
				stats.FallbackFiles++
			}

			if inserter != nil {
				if d.grh != nil {
					_, err = inserter.ImportGrh(ctx, d.path, d.grh)
				} else {
					_, err = inserter.ImportIndex(ctx, string(d.kind), d.path, d.index)
				}
				if err != nil {
					slog.Error("Failed to store records", "asset", d.kind, "path", d.path, "error", err)
					stats.DatabaseErrors++
				}
			}

			results = append(results, d)
		}

		progress.Finish()
		stats.EndTime = time.Now()

		for _, kind := range kinds {
			for _, d := range results {
				if d.kind != kind {
					continue
				}
				layout := "grh"
				if d.index != nil {
					layout = d.index.Layout.String()
				}
				fmt.Printf("%-10s %8s records  %-36s %s\n", kind, utils.Number(int64(d.records())), layout, d.path)
			}
		}

		fmt.Printf("Files decoded: %d/%d\n", stats.DecodedFiles, stats.TotalFiles)
		fmt.Printf("Records: %s\n", utils.Number(stats.Records))
		fmt.Printf("Fallback layouts: %d\n", stats.FallbackFiles)
		fmt.Printf("Missing files: %d\n", stats.MissingFiles)
		fmt.Printf("Decode errors: %d\n", stats.DecodeErrors)
		if decodeCatalog {
			fmt.Printf("Database errors: %d\n", stats.DatabaseErrors)
		}
		fmt.Printf("Duration: %s\n", utils.Duration(stats.EndTime.Sub(stats.StartTime)))
		if decodeCatalog {
			fmt.Println("Try running: aoind query --tables")
		}

		if stats.DecodeErrors > 0 {
			return fmt.Errorf("%d asset indexes failed to decode", stats.DecodeErrors)
		}
		return nil
	},
}

// selectedKinds parses --asset values, defaulting to every kind
func selectedKinds(names []string) ([]assets.Kind, error) {
	if len(names) == 0 {
		return assets.Kinds(), nil
	}

	kinds := make([]assets.Kind, 0, len(names))
	for _, name := range names {
		kind, err := assets.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}

func init() {
	rootCmd.AddCommand(decodeCmd)
	decodeCmd.Flags().StringSliceVarP(&decodeAssets, "asset", "a", []string{}, "comma-separated list of asset kinds to decode")
	decodeCmd.Flags().BoolVar(&decodeCatalog, "catalog", false, "store decoded records in the catalog database")
}
