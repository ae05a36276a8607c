package export

import (
	"fmt"
	"math"

	"github.com/jchantrell/aoind/internal/ind"
	"github.com/jchantrell/aoind/internal/sprite"
)

// ToAtlasEntries turns regions of graphics file fileNum into static atlas
// entries numbered consecutively from firstID
func ToAtlasEntries(regions []sprite.Region, fileNum uint32, firstID uint32) ([]ind.AtlasEntry, error) {
	entries := make([]ind.AtlasEntry, 0, len(regions))

	for i, r := range regions {
		if r.X < 0 || r.Y < 0 || r.W <= 0 || r.H <= 0 ||
			r.X > math.MaxUint16 || r.Y > math.MaxUint16 || r.W > math.MaxUint16 || r.H > math.MaxUint16 {
			return nil, fmt.Errorf("region %d %s does not fit a 16-bit atlas frame", i, r)
		}
		if uint64(firstID)+uint64(i) > math.MaxUint32 {
			return nil, fmt.Errorf("atlas id overflow at region %d", i)
		}

		entries = append(entries, ind.AtlasEntry{
			ID: firstID + uint32(i),
			Static: &ind.StaticFrame{
				FileNum: fileNum,
				X:       uint16(r.X),
				Y:       uint16(r.Y),
				W:       uint16(r.W),
				H:       uint16(r.H),
			},
		})
	}

	return entries, nil
}

// NextAtlasID returns one past the highest id in entries, or 1 when empty
func NextAtlasID(entries []ind.AtlasEntry) uint32 {
	next := uint32(1)
	for _, e := range entries {
		if e.ID >= next {
			next = e.ID + 1
		}
	}
	return next
}
