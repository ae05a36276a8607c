package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jchantrell/aoind/internal/ind"
	"github.com/jchantrell/aoind/internal/sprite"
)

// BulkInserter handles batched insertion of decoded records and detection runs
type BulkInserter struct {
	db        *Database
	batchSize int
}

// BulkInsertOptions configures bulk insertion behavior
type BulkInsertOptions struct {
	// BatchSize determines how many rows to insert per transaction
	BatchSize int
}

// DefaultBulkInsertOptions returns sensible defaults for bulk insertion
func DefaultBulkInsertOptions() *BulkInsertOptions {
	return &BulkInsertOptions{
		BatchSize: 1000,
	}
}

// NewBulkInserter creates a new bulk inserter with the given database and options
func NewBulkInserter(db *Database, options *BulkInsertOptions) *BulkInserter {
	if options == nil || options.BatchSize <= 0 {
		options = DefaultBulkInsertOptions()
	}

	return &BulkInserter{
		db:        db,
		batchSize: options.BatchSize,
	}
}

// FileInfo describes an imported index file
type FileInfo struct {
	ID           int64
	Path         string
	Asset        string
	Shape        string
	HeaderOffset int
	RecordSize   int
	Fallback     bool
	RecordCount  int
}

// ImportIndex replaces any previous import of path with the records in file
func (bi *BulkInserter) ImportIndex(ctx context.Context, asset, path string, file *ind.IndexFile) (int64, error) {
	if file == nil {
		return 0, fmt.Errorf("index file cannot be nil")
	}

	fileID, err := bi.replaceFile(ctx, FileInfo{
		Path:         path,
		Asset:        asset,
		Shape:        file.Shape.String(),
		HeaderOffset: int(file.Layout.HeaderOffset),
		RecordSize:   int(file.Layout.RecordSize),
		Fallback:     file.Layout.Fallback,
		RecordCount:  file.Len(),
	})
	if err != nil {
		return 0, err
	}

	switch file.Shape {
	case ind.ShapeDirectional:
		err = bi.insertRows(ctx, "directional_records",
			`INSERT INTO directional_records (file_id, _index, north, south, east, west) VALUES (?, ?, ?, ?, ?, ?)`,
			len(file.Directions), func(i int) ([]interface{}, error) {
				e := file.Directions[i]
				return []interface{}{fileID, i + 1, e.North, e.South, e.East, e.West}, nil
			})
	default:
		err = bi.insertRows(ctx, "mold_records",
			`INSERT INTO mold_records (file_id, _index, standard_id, texture_id, start_x, start_y) VALUES (?, ?, ?, ?, ?, ?)`,
			len(file.Molds), func(i int) ([]interface{}, error) {
				e := file.Molds[i]
				return []interface{}{fileID, i + 1, e.StandardID, e.TextureID, e.StartX, e.StartY}, nil
			})
	}
	if err != nil {
		return 0, bi.discard(ctx, `DELETE FROM index_files WHERE id = ?`, fileID, err)
	}

	slog.Debug("Imported index file", "path", path, "asset", asset, "records", file.Len())
	return fileID, nil
}

// ImportGrh replaces any previous import of path with the graphics entries
func (bi *BulkInserter) ImportGrh(ctx context.Context, path string, file *ind.GrhFile) (int64, error) {
	if file == nil {
		return 0, fmt.Errorf("graphics index cannot be nil")
	}

	fileID, err := bi.replaceFile(ctx, FileInfo{
		Path:         path,
		Asset:        "graphics",
		Shape:        "atlas",
		HeaderOffset: len(file.Header),
		RecordCount:  len(file.Entries),
	})
	if err != nil {
		return 0, err
	}

	err = bi.insertRows(ctx, "atlas_records",
		`INSERT INTO atlas_records (file_id, _index, grh_id, frame_count, file_num, x, y, w, h, frames, speed_ms) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(file.Entries), func(i int) ([]interface{}, error) {
			e := file.Entries[i]
			if e.Static != nil {
				s := e.Static
				return []interface{}{fileID, i + 1, e.ID, 1, s.FileNum, s.X, s.Y, s.W, s.H, nil, nil}, nil
			}
			if e.Animated == nil {
				return nil, fmt.Errorf("entry %d has neither a frame nor an animation", e.ID)
			}

			// Frame lists are stored as JSON like other array columns
			frames, err := json.Marshal(e.Animated.FrameIDs)
			if err != nil {
				return nil, fmt.Errorf("marshaling frames of entry %d: %w", e.ID, err)
			}
			return []interface{}{fileID, i + 1, e.ID, e.FrameCount(), nil, nil, nil, nil, nil, string(frames), e.Animated.SpeedMs}, nil
		})
	if err != nil {
		return 0, bi.discard(ctx, `DELETE FROM index_files WHERE id = ?`, fileID, err)
	}

	return fileID, nil
}

// Run is one stored segmentation result
type Run struct {
	ID        uuid.UUID
	Image     string
	Width     int
	Height    int
	Mode      string
	Rule      string
	Regions   []sprite.Region
	CreatedAt time.Time
}

// RecordRun stores a detection run and its ordered regions. A zero ID is
// replaced with a fresh time-ordered UUID, which is returned.
func (bi *BulkInserter) RecordRun(ctx context.Context, run *Run) (uuid.UUID, error) {
	if run == nil {
		return uuid.Nil, fmt.Errorf("run cannot be nil")
	}

	if run.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return uuid.Nil, fmt.Errorf("generating run id: %w", err)
		}
		run.ID = id
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	_, err := bi.db.exec(ctx,
		`INSERT INTO detection_runs (id, image, width, height, mode, rule, region_count, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Image, run.Width, run.Height, run.Mode, run.Rule, len(run.Regions), run.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return uuid.Nil, fmt.Errorf("inserting detection run: %w", err)
	}

	err = bi.insertRows(ctx, "regions",
		`INSERT INTO regions (run_id, ordinal, x, y, w, h) VALUES (?, ?, ?, ?, ?, ?)`,
		len(run.Regions), func(i int) ([]interface{}, error) {
			r := run.Regions[i]
			return []interface{}{run.ID.String(), i + 1, r.X, r.Y, r.W, r.H}, nil
		})
	if err != nil {
		return uuid.Nil, bi.discard(ctx, `DELETE FROM detection_runs WHERE id = ?`, run.ID.String(), err)
	}

	return run.ID, nil
}

// replaceFile deletes a previous import of the same path and inserts the
// file row, returning its id
func (bi *BulkInserter) replaceFile(ctx context.Context, info FileInfo) (int64, error) {
	tx, err := bi.db.beginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_files WHERE path = ?`, info.Path); err != nil {
		return 0, fmt.Errorf("removing previous import of %s: %w", info.Path, err)
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO index_files (path, asset, shape, header_offset, record_size, fallback, record_count, imported_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		info.Path, info.Asset, info.Shape, info.HeaderOffset, info.RecordSize, info.Fallback, info.RecordCount,
		time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("inserting index file %s: %w", info.Path, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading index file id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing index file %s: %w", info.Path, err)
	}

	return id, nil
}

// discard removes the parent row of a failed import; the cascade drops any
// batches already committed. cause is returned, joined with a cleanup failure.
func (bi *BulkInserter) discard(ctx context.Context, deleteSQL string, id interface{}, cause error) error {
	if _, err := bi.db.exec(context.WithoutCancel(ctx), deleteSQL, id); err != nil {
		return errors.Join(cause, fmt.Errorf("removing partial import: %w", err))
	}
	return cause
}

// insertRows inserts n rows in transactions of batchSize rows each
func (bi *BulkInserter) insertRows(ctx context.Context, table, insertSQL string, n int, row func(i int) ([]interface{}, error)) error {
	for start := 0; start < n; start += bi.batchSize {
		end := start + bi.batchSize
		if end > n {
			end = n
		}

		if err := bi.insertBatch(ctx, insertSQL, start, end, row); err != nil {
			return fmt.Errorf("inserting batch %d-%d for table %s: %w", start, end-1, table, err)
		}
	}

	return nil
}

// insertBatch inserts a single batch of rows within a transaction
func (bi *BulkInserter) insertBatch(ctx context.Context, insertSQL string, start, end int, row func(i int) ([]interface{}, error)) error {
	tx, err := bi.db.beginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i := start; i < end; i++ {
		values, err := row(i)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, values...); err != nil {
			return fmt.Errorf("inserting row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing batch: %w", err)
	}

	return nil
}
