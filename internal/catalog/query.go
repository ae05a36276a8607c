package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jchantrell/aoind/internal/sprite"
)

// ErrRunNotFound is returned when a run id is not in the catalog
var ErrRunNotFound = errors.New("detection run not found")

// Files lists imported index files ordered by path
func (d *Database) Files(ctx context.Context) ([]FileInfo, error) {
	rows, err := d.Query(ctx, `SELECT id, path, asset, shape, header_offset, record_size, fallback, record_count FROM index_files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("listing index files: %w", err)
	}
	defer rows.Close()

	var files []FileInfo
	for rows.Next() {
		var f FileInfo
		if err := rows.Scan(&f.ID, &f.Path, &f.Asset, &f.Shape, &f.HeaderOffset, &f.RecordSize, &f.Fallback, &f.RecordCount); err != nil {
			return nil, fmt.Errorf("scanning index file: %w", err)
		}
		files = append(files, f)
	}

	return files, rows.Err()
}

// Runs lists stored detection runs, newest first, without their regions
func (d *Database) Runs(ctx context.Context) ([]Run, error) {
	rows, err := d.Query(ctx, `SELECT id, image, width, height, mode, rule, created_at FROM detection_runs ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing detection runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// Run loads one detection run with its regions in stored order
func (d *Database) Run(ctx context.Context, id uuid.UUID) (*Run, error) {
	row := d.queryRow(ctx, `SELECT id, image, width, height, mode, rule, created_at FROM detection_runs WHERE id = ?`, id.String())

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	run.Regions, err = d.Regions(ctx, id)
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// Regions returns the regions of a run in the order they were recorded
func (d *Database) Regions(ctx context.Context, runID uuid.UUID) ([]sprite.Region, error) {
	rows, err := d.Query(ctx, `SELECT x, y, w, h FROM regions WHERE run_id = ? ORDER BY ordinal`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("listing regions of run %s: %w", runID, err)
	}
	defer rows.Close()

	var regions []sprite.Region
	for rows.Next() {
		var r sprite.Region
		if err := rows.Scan(&r.X, &r.Y, &r.W, &r.H); err != nil {
			return nil, fmt.Errorf("scanning region: %w", err)
		}
		regions = append(regions, r)
	}

	return regions, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(s scanner) (Run, error) {
	var (
		run       Run
		id        string
		createdAt string
	)

	if err := s.Scan(&id, &run.Image, &run.Width, &run.Height, &run.Mode, &run.Rule, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return run, err
		}
		return run, fmt.Errorf("scanning detection run: %w", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		return run, fmt.Errorf("parsing run id %q: %w", id, err)
	}
	run.ID = parsed

	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return run, fmt.Errorf("parsing run timestamp %q: %w", createdAt, err)
	}

	return run, nil
}
