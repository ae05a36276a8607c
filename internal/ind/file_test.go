package ind

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
)

func TestFilesWriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Cascos.ind")
	files := NewFiles()

	want := &IndexFile{
		Shape:  ShapeMold,
		Header: legacyHeader(),
		Layout: NewLayout(LegacyHeaderSize, 7),
		Molds:  sampleMolds(false),
	}
	if err := files.Write(path, want); err != nil {
		t.Fatal(err)
	}

	got, err := files.Read(path, ShapeMold)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func TestFilesUpdateTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Cabezas.ind")
	files := NewFiles()

	layout := NewLayout(LegacyHeaderSize, 8)
	file := &IndexFile{
		Shape:      ShapeDirectional,
		Header:     legacyHeader(),
		Layout:     layout,
		Directions: make([]DirectionalEntry, 10),
	}
	if err := files.Write(path, file); err != nil {
		t.Fatal(err)
	}

	err := files.Update(path, ShapeDirectional, func(f *IndexFile) error {
		f.Directions = f.Directions[:3]
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != int64(layout.DataLength(3)) {
		t.Fatalf("file is %d bytes, want %d", info.Size(), layout.DataLength(3))
	}

	got, err := files.Read(path, ShapeDirectional)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != 3 {
		t.Fatalf("got %d records", got.Len())
	}
}

func TestFilesUpdateSerializesSamePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Escudos.ind")
	files := NewFiles()

	// 16-bit ids so detection resolves to the written size
	file := &IndexFile{Shape: ShapeDirectional, Layout: NewLayout(0, 8)}
	if err := files.Write(path, file); err != nil {
		t.Fatal(err)
	}

	const writers = 16
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := files.Update(path, ShapeDirectional, func(f *IndexFile) error {
				f.Layout = NewLayout(0, 8)
				f.Directions = append(f.Directions, DirectionalEntry{North: uint32(i)})
				return nil
			})
			if err != nil {
				t.Error(err)
			}
		}(i)
	}
	wg.Wait()

	got, err := files.Read(path, ShapeDirectional)
	if err != nil {
		t.Fatal(err)
	}
	if got.Len() != writers {
		t.Fatalf("got %d records, want %d", got.Len(), writers)
	}
	if len(files.locks) != 0 {
		t.Fatalf("%d locks left behind", len(files.locks))
	}
}

func TestFilesUpdateMutateError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Armas.ind")
	files := NewFiles()
	if err := files.Write(path, &IndexFile{Layout: NewLayout(0, 7), Molds: sampleMolds(false)}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := files.Update(path, ShapeMold, func(f *IndexFile) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("got %v", err)
	}
}

func TestFilesReadMissing(t *testing.T) {
	_, err := NewFiles().Read(filepath.Join(t.TempDir(), "missing.ind"), ShapeMold)
	if !errors.Is(err, ErrIO) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("got %v", err)
	}
}

func TestFilesGrh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Graficos.ind")
	files := NewFiles()

	want := sampleGrh(legacyHeader())
	if err := files.WriteGrh(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := files.ReadGrh(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v", got)
	}
}

func TestFilesUpdateGrhCreatesAndAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Graficos.ind")
	files := NewFiles()

	for i := 0; i < 2; i++ {
		id := uint32(i + 1)
		err := files.UpdateGrh(path, func(g *GrhFile) error {
			g.Entries = append(g.Entries, AtlasEntry{ID: id, Static: &StaticFrame{FileNum: 5, W: 32, H: 32}})
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	got, err := files.ReadGrh(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Header) != LegacyHeaderSize || got.Version != 1 || len(got.Entries) != 2 || got.Entries[1].ID != 2 {
		t.Fatalf("got %+v", got)
	}
}
