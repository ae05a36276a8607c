package ind

import "math"

// maxRecordCount is the largest count the signed 16-bit count field can carry
const maxRecordCount = math.MaxInt16

// readCount positions a reader after the count field and validates the count
// against the bytes that follow it.
func readCount(data []byte, layout Layout) (*byteReader, int, error) {
	offset := int(layout.HeaderOffset)
	if len(data) < offset+countSize {
		return nil, 0, tooSmallf("%d bytes cannot hold a record count at offset %d", len(data), offset)
	}

	r := newByteReader(data, offset)
	n, err := r.i16("record count")
	if err != nil {
		return nil, 0, err
	}
	if n < 0 {
		return nil, 0, corruptf("negative record count %d", n)
	}

	need := int(n) * int(layout.RecordSize)
	if r.remaining() < need {
		return nil, 0, corruptf("%d records of %d bytes need %d bytes, only %d remain",
			n, layout.RecordSize, need, r.remaining())
	}

	return r, int(n), nil
}

// DecodeMold reads mold-style records. Identifier width follows the record
// size: 7 bytes carry an 8-bit id, 8 bytes a 16-bit id, 10 and 12 bytes a
// 32-bit id, with the last two bytes of a 12-byte record kept as Reserved.
func DecodeMold(data []byte, layout Layout) ([]MoldEntry, error) {
	switch layout.RecordSize {
	case 7, 8, 10, 12:
	default:
		return nil, corruptf("unsupported mold record size %d", layout.RecordSize)
	}

	r, n, err := readCount(data, layout)
	if err != nil {
		return nil, err
	}

	entries := make([]MoldEntry, n)
	for i := range entries {
		e := &entries[i]

		switch layout.RecordSize {
		case 7:
			id, err := r.u8("standard id")
			if err != nil {
				return nil, err
			}
			e.StandardID = uint32(id)
		case 8:
			id, err := r.u16("standard id")
			if err != nil {
				return nil, err
			}
			e.StandardID = uint32(id)
		default:
			id, err := r.u32("standard id")
			if err != nil {
				return nil, err
			}
			e.StandardID = id
		}

		if e.TextureID, err = r.u16("texture id"); err != nil {
			return nil, err
		}
		if e.StartX, err = r.i16("start x"); err != nil {
			return nil, err
		}
		if e.StartY, err = r.i16("start y"); err != nil {
			return nil, err
		}

		if layout.RecordSize == 12 {
			b, err := r.take(2, "reserved")
			if err != nil {
				return nil, err
			}
			copy(e.Reserved[:], b)
		}
	}

	return entries, nil
}

// EncodeMold is the inverse of DecodeMold. header supplies the bytes before
// the count field and is copied through unchanged.
func EncodeMold(header []byte, layout Layout, entries []MoldEntry) ([]byte, error) {
	w, err := beginEncode(header, layout, len(entries))
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		switch layout.RecordSize {
		case 7:
			if e.StandardID > math.MaxUint8 {
				return nil, corruptf("record %d: standard id %d does not fit 8 bits", i, e.StandardID)
			}
			w.u8(uint8(e.StandardID))
		case 8:
			if e.StandardID > math.MaxUint16 {
				return nil, corruptf("record %d: standard id %d does not fit 16 bits", i, e.StandardID)
			}
			w.u16(uint16(e.StandardID))
		case 10, 12:
			w.u32(e.StandardID)
		default:
			return nil, corruptf("unsupported mold record size %d", layout.RecordSize)
		}

		w.u16(e.TextureID)
		w.i16(e.StartX)
		w.i16(e.StartY)

		if layout.RecordSize == 12 {
			w.raw(e.Reserved[:])
		}
	}

	return w.bytes(), nil
}

// DecodeDirectional reads four-direction records stored as 16-bit (8-byte
// records) or 32-bit (16-byte records) fields.
func DecodeDirectional(data []byte, layout Layout) ([]DirectionalEntry, error) {
	if layout.RecordSize != 8 && layout.RecordSize != 16 {
		return nil, corruptf("unsupported directional record size %d", layout.RecordSize)
	}

	r, n, err := readCount(data, layout)
	if err != nil {
		return nil, err
	}

	entries := make([]DirectionalEntry, n)
	for i := range entries {
		var v [4]uint32
		for d := range v {
			if layout.RecordSize == 8 {
				x, err := r.u16("direction")
				if err != nil {
					return nil, err
				}
				v[d] = uint32(x)
			} else {
				if v[d], err = r.u32("direction"); err != nil {
					return nil, err
				}
			}
		}
		entries[i] = DirectionalEntry{North: v[0], South: v[1], East: v[2], West: v[3]}
	}

	return entries, nil
}

// EncodeDirectional is the inverse of DecodeDirectional
func EncodeDirectional(header []byte, layout Layout, entries []DirectionalEntry) ([]byte, error) {
	if layout.RecordSize != 8 && layout.RecordSize != 16 {
		return nil, corruptf("unsupported directional record size %d", layout.RecordSize)
	}

	w, err := beginEncode(header, layout, len(entries))
	if err != nil {
		return nil, err
	}

	for i, e := range entries {
		for _, v := range [4]uint32{e.North, e.South, e.East, e.West} {
			if layout.RecordSize == 8 {
				if v > math.MaxUint16 {
					return nil, corruptf("record %d: graphic %d does not fit 16 bits", i, v)
				}
				w.u16(uint16(v))
			} else {
				w.u32(v)
			}
		}
	}

	return w.bytes(), nil
}

// beginEncode writes the pass-through header and the record count
func beginEncode(header []byte, layout Layout, n int) (*byteWriter, error) {
	offset := int(layout.HeaderOffset)
	if len(header) > offset {
		return nil, corruptf("header is %d bytes, layout expects %d", len(header), offset)
	}
	if n > maxRecordCount {
		return nil, corruptf("%d records exceed the count field limit of %d", n, maxRecordCount)
	}

	w := newByteWriter(layout.DataLength(n))
	w.raw(header)
	// new files without a source header get zero padding
	for i := len(header); i < offset; i++ {
		w.u8(0)
	}
	w.i16(int16(n))

	return w, nil
}
