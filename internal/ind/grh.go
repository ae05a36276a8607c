package ind

import "math"

// grhPreamble is the version and entry count that follow the header
const grhPreamble = 8

// GrhFile is a decoded graphics index
type GrhFile struct {
	Header  []byte
	Version uint32
	Entries []AtlasEntry
}

// DecodeGrh decodes a graphics index. Files produced by the legacy tools carry
// the 263-byte header, so that offset is tried first; headerless files written
// by newer tools decode at offset 0.
func DecodeGrh(data []byte) (*GrhFile, error) {
	if len(data) < grhPreamble {
		return nil, tooSmallf("%d bytes cannot hold a graphics index preamble", len(data))
	}

	var firstErr error
	for _, offset := range []int{LegacyHeaderSize, 0} {
		if len(data) < offset+grhPreamble {
			continue
		}
		file, err := decodeGrhAt(data, offset)
		if err == nil {
			return file, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}

	return nil, firstErr
}

func decodeGrhAt(data []byte, offset int) (*GrhFile, error) {
	r := newByteReader(data, offset)

	version, err := r.u32("version")
	if err != nil {
		return nil, err
	}
	count, err := r.u32("entry count")
	if err != nil {
		return nil, err
	}
	// smallest possible entry is id + frame count + static frame
	if uint64(count)*18 > uint64(r.remaining()) {
		return nil, corruptf("entry count %d exceeds remaining %d bytes", count, r.remaining())
	}

	entries := make([]AtlasEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		e, err := readAtlasEntry(r)
		if err != nil {
			return nil, annotate(err, "entry %d", i)
		}
		entries = append(entries, e)
	}

	if r.remaining() != 0 {
		return nil, corruptf("%d trailing bytes after %d entries", r.remaining(), count)
	}

	header := make([]byte, offset)
	copy(header, data[:offset])

	return &GrhFile{Header: header, Version: version, Entries: entries}, nil
}

func readAtlasEntry(r *byteReader) (AtlasEntry, error) {
	var e AtlasEntry
	var err error

	if e.ID, err = r.u32("id"); err != nil {
		return e, err
	}
	frames, err := r.u16("frame count")
	if err != nil {
		return e, err
	}

	switch {
	case frames == 0:
		return e, corruptf("zero frames")
	case frames == 1:
		s := &StaticFrame{}
		if s.FileNum, err = r.u32("file number"); err != nil {
			return e, err
		}
		if s.X, err = r.u16("x"); err != nil {
			return e, err
		}
		if s.Y, err = r.u16("y"); err != nil {
			return e, err
		}
		if s.W, err = r.u16("width"); err != nil {
			return e, err
		}
		if s.H, err = r.u16("height"); err != nil {
			return e, err
		}
		e.Static = s
	default:
		a := &Animation{FrameIDs: make([]uint32, frames)}
		for i := range a.FrameIDs {
			if a.FrameIDs[i], err = r.u32("frame id"); err != nil {
				return e, err
			}
		}
		if a.SpeedMs, err = r.f32("speed"); err != nil {
			return e, err
		}
		if math.IsNaN(float64(a.SpeedMs)) {
			return e, corruptf("speed is NaN")
		}
		e.Animated = a
	}

	return e, nil
}

// EncodeGrh writes a graphics index with the header copied through verbatim
func EncodeGrh(file *GrhFile) ([]byte, error) {
	if file == nil {
		return nil, corruptf("graphics index cannot be nil")
	}
	if len(file.Header) != 0 && len(file.Header) != LegacyHeaderSize {
		return nil, corruptf("graphics index header must be 0 or %d bytes, got %d", LegacyHeaderSize, len(file.Header))
	}
	if uint64(len(file.Entries)) > math.MaxUint32 {
		return nil, corruptf("too many entries: %d", len(file.Entries))
	}

	w := newByteWriter(len(file.Header) + grhPreamble + len(file.Entries)*18)
	w.raw(file.Header)
	w.u32(file.Version)
	w.u32(uint32(len(file.Entries)))

	for _, e := range file.Entries {
		if err := e.validate(); err != nil {
			return nil, err
		}

		w.u32(e.ID)
		w.u16(uint16(e.FrameCount()))

		if e.Static != nil {
			w.u32(e.Static.FileNum)
			w.u16(e.Static.X)
			w.u16(e.Static.Y)
			w.u16(e.Static.W)
			w.u16(e.Static.H)
			continue
		}

		for _, id := range e.Animated.FrameIDs {
			w.u32(id)
		}
		w.f32(e.Animated.SpeedMs)
	}

	return w.bytes(), nil
}
