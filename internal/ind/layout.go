package ind

import "fmt"

const (
	// LegacyHeaderSize is the opaque header some tools prepend to index files
	LegacyHeaderSize = 263

	// countSize is the width of the record count field
	countSize = 2

	// defaultRecordSize is used when no candidate layout fits
	defaultRecordSize = 10
)

// Candidate record sizes, tested in this order. The order matters: the first
// size that fits wins, so a file matching several sizes resolves to the smallest.
var (
	MoldSizes        = []int{7, 8, 10, 12}
	DirectionalSizes = []int{8, 16}
)

// headerOffsets are tried in order during detection
var headerOffsets = []int{0, LegacyHeaderSize}

// Layout describes the physical byte layout of one index file
type Layout struct {
	HeaderOffset uint32
	RecordSize   uint8
	UsesWideID   bool
	Valid        bool

	// Fallback is set when no candidate matched and defaults were applied.
	// Callers should warn the user when they see it.
	Fallback bool
}

func (l Layout) String() string {
	s := fmt.Sprintf("offset=%d size=%d wide=%t", l.HeaderOffset, l.RecordSize, l.UsesWideID)
	if l.Fallback {
		s += " (fallback)"
	}
	return s
}

// NewLayout builds a valid, non-fallback layout for writing new files
func NewLayout(headerOffset, recordSize int) Layout {
	return Layout{
		HeaderOffset: uint32(headerOffset),
		RecordSize:   uint8(recordSize),
		UsesWideID:   wideID(recordSize),
		Valid:        true,
	}
}

// DataLength is the number of bytes a file with n records occupies
func (l Layout) DataLength(n int) int {
	return int(l.HeaderOffset) + countSize + n*int(l.RecordSize)
}

func wideID(recordSize int) bool {
	return recordSize >= 10
}

// Detect proposes the most plausible layout for data given candidate record sizes.
//
// Offset 0 is tried before the legacy header offset. At each offset the leading
// signed 16-bit count n is read, and the first candidate size s with
// len(data) >= offset + 2 + n*s is accepted, so trailing padding after the
// records is tolerated. When nothing fits, a fallback
// layout is returned with Fallback set. Only files shorter than a count field
// produce an error.
func Detect(data []byte, sizes []int) (Layout, error) {
	if len(data) < countSize {
		return Layout{}, tooSmallf("%d bytes cannot hold a record count", len(data))
	}
	if len(sizes) == 0 {
		sizes = MoldSizes
	}

	length := len(data)
	for _, offset := range headerOffsets {
		if length < offset+countSize {
			continue
		}

		n, err := newByteReader(data, offset).i16("record count")
		if err != nil || n <= 0 {
			continue
		}

		for _, size := range sizes {
			if length >= offset+countSize+int(n)*size {
				return NewLayout(offset, size), nil
			}
		}
	}

	return fallbackLayout(length, sizes), nil
}

func fallbackLayout(length int, sizes []int) Layout {
	offset := 0
	if length > LegacyHeaderSize {
		offset = LegacyHeaderSize
	}

	size := sizes[len(sizes)-1]
	for _, s := range sizes {
		if s == defaultRecordSize {
			size = s
			break
		}
	}

	l := NewLayout(offset, size)
	l.Fallback = true
	return l
}
