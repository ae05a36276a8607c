package ind

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func sampleGrh(header []byte) *GrhFile {
	return &GrhFile{
		Header:  header,
		Version: 42,
		Entries: []AtlasEntry{
			{ID: 1, Static: &StaticFrame{FileNum: 100, X: 0, Y: 0, W: 32, H: 32}},
			{ID: 2, Static: &StaticFrame{FileNum: 100, X: 32, Y: 0, W: 32, H: 32}},
			{ID: 3, Animated: &Animation{FrameIDs: []uint32{1, 2}, SpeedMs: 150.5}},
		},
	}
}

func TestGrhRoundTrip(t *testing.T) {
	for _, header := range [][]byte{{}, legacyHeader()} {
		want := sampleGrh(header)

		data, err := EncodeGrh(want)
		if err != nil {
			t.Fatal(err)
		}
		got, err := DecodeGrh(data)
		if err != nil {
			t.Fatalf("header %d: %v", len(header), err)
		}
		if !reflect.DeepEqual(got, want) {
			t.Fatalf("header %d: got %+v, want %+v", len(header), got, want)
		}
	}
}

func TestGrhFrameCountMatchesFrames(t *testing.T) {
	data, err := EncodeGrh(sampleGrh(legacyHeader()))
	if err != nil {
		t.Fatal(err)
	}
	got, err := DecodeGrh(data)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range got.Entries {
		if (e.Static == nil) == (e.Animated == nil) {
			t.Fatalf("entry %d must have exactly one shape", e.ID)
		}
	}
	if got.Entries[2].FrameCount() != 2 {
		t.Fatalf("frame count = %d", got.Entries[2].FrameCount())
	}
}

func TestEncodeGrhRejectsInvalidEntries(t *testing.T) {
	tests := []AtlasEntry{
		{ID: 1},
		{ID: 2, Static: &StaticFrame{}, Animated: &Animation{FrameIDs: []uint32{1, 2}}},
		{ID: 3, Animated: &Animation{FrameIDs: []uint32{1}}},
		{ID: 4, Animated: &Animation{FrameIDs: []uint32{1, 2}, SpeedMs: float32(math.NaN())}},
	}
	for _, e := range tests {
		_, err := EncodeGrh(&GrhFile{Entries: []AtlasEntry{e}})
		if !errors.Is(err, ErrCorrupt) {
			t.Fatalf("entry %d: got %v", e.ID, err)
		}
	}
}

func TestDecodeGrhErrors(t *testing.T) {
	if _, err := DecodeGrh([]byte{1, 2, 3}); !errors.Is(err, ErrTooSmall) {
		t.Fatalf("short file: %v", err)
	}

	data, err := EncodeGrh(sampleGrh(nil))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeGrh(data[:len(data)-3]); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("truncated file: %v", err)
	}
	if _, err := DecodeGrh(append(data, 0)); !errors.Is(err, ErrCorrupt) {
		t.Fatalf("trailing byte: %v", err)
	}
}

func TestEncodeGrhRejectsOddHeader(t *testing.T) {
	for _, size := range []int{10, LegacyHeaderSize - 1, LegacyHeaderSize + 1} {
		_, err := EncodeGrh(sampleGrh(make([]byte, size)))
		if !errors.Is(err, ErrCorrupt) {
			t.Fatalf("header %d: got %v", size, err)
		}
	}
}

func TestWriteGrhOutputAlwaysDecodes(t *testing.T) {
	for _, header := range [][]byte{nil, legacyHeader()} {
		data, err := EncodeGrh(sampleGrh(header))
		if err != nil {
			t.Fatalf("header %d: %v", len(header), err)
		}
		if _, err := DecodeGrh(data); err != nil {
			t.Fatalf("header %d: encoded file does not decode: %v", len(header), err)
		}
	}
}
