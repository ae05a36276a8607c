package catalog

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/jchantrell/aoind/internal/ind"
	"github.com/jchantrell/aoind/internal/sprite"
)

func openTestDB(t *testing.T) *Database {
	t.Helper()

	db, err := NewDatabase(DefaultDatabaseOptions(filepath.Join(t.TempDir(), "nested", "catalog.db")))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSchemaTables(t *testing.T) {
	db := openTestDB(t)

	tables, err := db.Tables(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"atlas_records", "detection_runs", "directional_records", "index_files", "mold_records", "regions"}
	if !reflect.DeepEqual(tables, want) {
		t.Fatalf("tables %v, want %v", tables, want)
	}
}

func TestImportIndexReplacesPreviousImport(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	// small batches so the import spans several transactions
	bi := NewBulkInserter(db, &BulkInsertOptions{BatchSize: 2})

	file := &ind.IndexFile{
		Shape:  ind.ShapeMold,
		Layout: ind.NewLayout(ind.LegacyHeaderSize, 10),
		Molds: []ind.MoldEntry{
			{StandardID: 1, TextureID: 2, StartX: -3, StartY: 4},
			{StandardID: 5, TextureID: 6, StartX: 7, StartY: 8},
			{StandardID: 9, TextureID: 10, StartX: 11, StartY: -12},
		},
	}

	if _, err := bi.ImportIndex(ctx, "heads", "Cabezas.ind", file); err != nil {
		t.Fatal(err)
	}

	file.Molds = file.Molds[:1]
	id, err := bi.ImportIndex(ctx, "heads", "Cabezas.ind", file)
	if err != nil {
		t.Fatal(err)
	}

	files, err := db.Files(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].ID != id || files[0].RecordCount != 1 || files[0].RecordSize != 10 || files[0].Shape != "mold" {
		t.Fatalf("files %+v", files)
	}

	var count int
	if err := db.queryRow(ctx, `SELECT COUNT(*) FROM mold_records`).Scan(&count); err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("stale records survived: %d", count)
	}
}

func TestImportDirectional(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	bi := NewBulkInserter(db, nil)

	file := &ind.IndexFile{
		Shape:      ind.ShapeDirectional,
		Layout:     ind.NewLayout(0, 16),
		Directions: []ind.DirectionalEntry{{North: 70000, South: 2, East: 3, West: 4}},
	}
	if _, err := bi.ImportIndex(ctx, "bodies", "Personajes.ind", file); err != nil {
		t.Fatal(err)
	}

	var north, west int64
	if err := db.queryRow(ctx, `SELECT north, west FROM directional_records WHERE _index = 1`).Scan(&north, &west); err != nil {
		t.Fatal(err)
	}
	if north != 70000 || west != 4 {
		t.Fatalf("north %d west %d", north, west)
	}
}

func TestImportGrh(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	bi := NewBulkInserter(db, nil)

	grh := &ind.GrhFile{
		Version: 3,
		Entries: []ind.AtlasEntry{
			{ID: 1, Static: &ind.StaticFrame{FileNum: 10, X: 0, Y: 0, W: 32, H: 32}},
			{ID: 2, Animated: &ind.Animation{FrameIDs: []uint32{1, 1}, SpeedMs: 250}},
		},
	}
	if _, err := bi.ImportGrh(ctx, "Graficos.ind", grh); err != nil {
		t.Fatal(err)
	}

	var frames string
	var count int
	if err := db.queryRow(ctx, `SELECT frames, frame_count FROM atlas_records WHERE grh_id = 2`).Scan(&frames, &count); err != nil {
		t.Fatal(err)
	}
	if frames != "[1,1]" || count != 2 {
		t.Fatalf("frames %q count %d", frames, count)
	}
}

func TestRecordRun(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	bi := NewBulkInserter(db, nil)

	regions := []sprite.Region{{X: 0, Y: 0, W: 32, H: 32}, {X: 33, Y: 0, W: 32, H: 32}}
	id, err := bi.RecordRun(ctx, &Run{Image: "walk.png", Width: 65, Height: 32, Mode: "blobs", Rule: "alpha>0", Regions: regions})
	if err != nil {
		t.Fatal(err)
	}
	if id.Version() != 7 {
		t.Fatalf("run id version %d", id.Version())
	}

	run, err := db.Run(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if run.Image != "walk.png" || run.Mode != "blobs" || !reflect.DeepEqual(run.Regions, regions) {
		t.Fatalf("run %+v", run)
	}

	runs, err := db.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ID != id {
		t.Fatalf("runs %+v", runs)
	}

	if _, err := db.Run(ctx, uuid.New()); !errors.Is(err, ErrRunNotFound) {
		t.Fatalf("got %v", err)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	if got := QuoteIdentifier(`we"ird`); got != `"we""ird"` {
		t.Fatalf("got %s", got)
	}
}

func TestImportGrhFailureLeavesNoFileRow(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	bi := NewBulkInserter(db, &BulkInsertOptions{BatchSize: 1})

	grh := &ind.GrhFile{
		Version: 1,
		Entries: []ind.AtlasEntry{
			{ID: 1, Static: &ind.StaticFrame{FileNum: 10, W: 32, H: 32}},
			{ID: 2},
		},
	}
	if _, err := bi.ImportGrh(ctx, "Graficos.ind", grh); err == nil {
		t.Fatal("expected an error for an entry without frame data")
	}

	files, err := db.Files(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 0 {
		t.Fatalf("orphan file rows %+v", files)
	}

	// the first batch committed before the failure and must be gone too
	if n, err := db.Count(ctx, "atlas_records"); err != nil || n != 0 {
		t.Fatalf("atlas records %d, err %v", n, err)
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	if n, err := db.Count(ctx, "index_files"); err != nil || n != 0 {
		t.Fatalf("count %d, err %v", n, err)
	}

	db.Close()
	if _, err := db.Count(ctx, "index_files"); !errors.Is(err, errClosed) {
		t.Fatalf("got %v", err)
	}
}
