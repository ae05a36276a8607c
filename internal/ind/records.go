package ind

import "math"

// MoldEntry is one record of a mold-style index (heads or helmets drawn from a
// shared texture at an offset)
type MoldEntry struct {
	StandardID uint32
	TextureID  uint16
	StartX     int16
	StartY     int16

	// Reserved holds the trailing bytes of 12-byte records verbatim
	Reserved [2]byte
}

// DirectionalEntry holds one graphic per facing direction
type DirectionalEntry struct {
	North uint32
	South uint32
	East  uint32
	West  uint32
}

// StaticFrame is a crop rectangle inside a graphics file
type StaticFrame struct {
	FileNum uint32
	X       uint16
	Y       uint16
	W       uint16
	H       uint16
}

// Animation is a sequence of other atlas entries played at a fixed speed
type Animation struct {
	FrameIDs []uint32
	SpeedMs  float32
}

// AtlasEntry is one graphics ("Grh") index entry.
// Exactly one of Static and Animated is set.
type AtlasEntry struct {
	ID       uint32
	Static   *StaticFrame
	Animated *Animation
}

// FrameCount is the declared frame count stored on disk
func (e AtlasEntry) FrameCount() int {
	if e.Animated != nil {
		return len(e.Animated.FrameIDs)
	}
	return 1
}

func (e AtlasEntry) validate() error {
	switch {
	case e.Static != nil && e.Animated != nil:
		return corruptf("entry %d has both static and animated data", e.ID)
	case e.Static == nil && e.Animated == nil:
		return corruptf("entry %d has neither static nor animated data", e.ID)
	case e.Animated != nil && len(e.Animated.FrameIDs) < 2:
		return corruptf("animated entry %d needs at least 2 frames, has %d", e.ID, len(e.Animated.FrameIDs))
	case e.Animated != nil && len(e.Animated.FrameIDs) > 0xffff:
		return corruptf("animated entry %d has %d frames", e.ID, len(e.Animated.FrameIDs))
	case e.Animated != nil && math.IsNaN(float64(e.Animated.SpeedMs)):
		return corruptf("animated entry %d has a NaN speed", e.ID)
	}
	return nil
}
