package ind

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Shape selects the record shape stored in an index file
type Shape int

const (
	ShapeMold Shape = iota
	ShapeDirectional
)

func (s Shape) String() string {
	if s == ShapeDirectional {
		return "directional"
	}
	return "mold"
}

// Sizes returns the candidate record sizes for the shape
func (s Shape) Sizes() []int {
	if s == ShapeDirectional {
		return DirectionalSizes
	}
	return MoldSizes
}

// IndexFile is a decoded mold or directional index file. Only the slice
// matching Shape is populated.
type IndexFile struct {
	Shape      Shape
	Header     []byte
	Layout     Layout
	Molds      []MoldEntry
	Directions []DirectionalEntry
}

// Len returns the number of records in the file
func (f *IndexFile) Len() int {
	if f.Shape == ShapeDirectional {
		return len(f.Directions)
	}
	return len(f.Molds)
}

// Decode detects the layout of data and decodes it as the given shape
func Decode(data []byte, shape Shape) (*IndexFile, error) {
	layout, err := Detect(data, shape.Sizes())
	if err != nil {
		return nil, err
	}

	return DecodeWithLayout(data, shape, layout)
}

// DecodeWithLayout decodes data using a known layout
func DecodeWithLayout(data []byte, shape Shape, layout Layout) (*IndexFile, error) {
	offset := int(layout.HeaderOffset)
	if len(data) < offset {
		return nil, tooSmallf("%d bytes cannot hold a %d byte header", len(data), offset)
	}

	file := &IndexFile{
		Shape:  shape,
		Header: append([]byte(nil), data[:offset]...),
		Layout: layout,
	}

	var err error
	switch shape {
	case ShapeDirectional:
		file.Directions, err = DecodeDirectional(data, layout)
	default:
		file.Molds, err = DecodeMold(data, layout)
	}
	if err != nil {
		return nil, err
	}

	return file, nil
}

// Encode serializes the file using its layout and header
func (f *IndexFile) Encode() ([]byte, error) {
	if f.Shape == ShapeDirectional {
		return EncodeDirectional(f.Header, f.Layout, f.Directions)
	}
	return EncodeMold(f.Header, f.Layout, f.Molds)
}

// Files reads and writes index files on disk. A decode/encode pair on one path
// is serialized through a per-path lock; distinct paths never contend.
type Files struct {
	mu    sync.Mutex
	locks map[string]*pathLock
}

type pathLock struct {
	mu   sync.Mutex
	refs int
}

// NewFiles creates a file accessor with its own lock table
func NewFiles() *Files {
	return &Files{locks: make(map[string]*pathLock)}
}

// lock acquires the lock for path and returns its release function
func (fs *Files) lock(path string) func() {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	fs.mu.Lock()
	l, ok := fs.locks[key]
	if !ok {
		l = &pathLock{}
		fs.locks[key] = l
	}
	l.refs++
	fs.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		fs.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(fs.locks, key)
		}
		fs.mu.Unlock()
	}
}

// Read decodes the index file at path
func (fs *Files) Read(path string, shape Shape) (*IndexFile, error) {
	unlock := fs.lock(path)
	defer unlock()

	return readIndex(path, shape)
}

// Write encodes file and atomically replaces path with the result
func (fs *Files) Write(path string, file *IndexFile) error {
	unlock := fs.lock(path)
	defer unlock()

	return writeIndex(path, file)
}

// Update runs a decode, mutate, encode cycle on path while holding its lock
func (fs *Files) Update(path string, shape Shape, mutate func(*IndexFile) error) error {
	unlock := fs.lock(path)
	defer unlock()

	file, err := readIndex(path, shape)
	if err != nil {
		return err
	}
	if err := mutate(file); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}

	return writeIndex(path, file)
}

// ReadGrh decodes the graphics index at path
func (fs *Files) ReadGrh(path string) (*GrhFile, error) {
	unlock := fs.lock(path)
	defer unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(path, err)
	}

	file, err := DecodeGrh(data)
	if err != nil {
		return nil, withPath(err, path)
	}
	return file, nil
}

// WriteGrh encodes a graphics index and atomically replaces path
func (fs *Files) WriteGrh(path string, file *GrhFile) error {
	unlock := fs.lock(path)
	defer unlock()

	data, err := EncodeGrh(file)
	if err != nil {
		return withPath(err, path)
	}
	return writeAtomic(path, data)
}

// UpdateGrh runs a decode, mutate, encode cycle on a graphics index. A
// missing file starts out empty with a legacy header.
func (fs *Files) UpdateGrh(path string, mutate func(*GrhFile) error) error {
	unlock := fs.lock(path)
	defer unlock()

	file := &GrhFile{Header: make([]byte, LegacyHeaderSize), Version: 1}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		file, err = DecodeGrh(data)
		if err != nil {
			return withPath(err, path)
		}
	case !errors.Is(err, os.ErrNotExist):
		return ioError(path, err)
	}

	if err := mutate(file); err != nil {
		return fmt.Errorf("updating %s: %w", path, err)
	}

	data, err = EncodeGrh(file)
	if err != nil {
		return withPath(err, path)
	}
	return writeAtomic(path, data)
}

func readIndex(path string, shape Shape) (*IndexFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError(path, err)
	}

	layout, err := Detect(data, shape.Sizes())
	if err != nil {
		return nil, withPath(err, path)
	}
	if layout.Fallback {
		slog.Debug("No candidate layout matched, using fallback", "path", path, "layout", layout.String())
	}

	file, err := DecodeWithLayout(data, shape, layout)
	if err != nil {
		return nil, withPath(err, path)
	}

	slog.Debug("Decoded index file",
		"path", path,
		"shape", shape.String(),
		"header_offset", layout.HeaderOffset,
		"record_size", layout.RecordSize,
		"records", file.Len())

	return file, nil
}

func writeIndex(path string, file *IndexFile) error {
	if file == nil {
		return withPath(corruptf("index file cannot be nil"), path)
	}

	data, err := file.Encode()
	if err != nil {
		return withPath(err, path)
	}
	return writeAtomic(path, data)
}

// writeAtomic writes data next to path and renames it into place, so the
// target is either the old or the new content, truncated to the new length.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return ioError(path, err)
	}
	tmpName := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpName)
		return ioError(path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ioError(path, err)
	}

	if info, err := os.Stat(path); err == nil {
		os.Chmod(tmpName, info.Mode().Perm())
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ioError(path, err)
	}

	return nil
}
