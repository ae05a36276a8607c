package sprite

// near reports whether a grown by distance on every side intersects b
func near(a, b Region, distance int) bool {
	return a.X-distance < b.X+b.W && b.X < a.X+a.W+distance &&
		a.Y-distance < b.Y+b.H && b.Y < a.Y+a.H+distance
}

// Merge coalesces regions that lie within distance pixels of each other into
// their union, repeating full passes until one performs no merge. The result
// is returned in reading order and the input slice is left untouched.
func Merge(regions []Region, distance int) []Region {
	if distance < 0 {
		distance = 0
	}

	out := make([]Region, len(regions))
	copy(out, regions)

	for {
		merged := false

		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				if !near(out[i], out[j], distance) {
					continue
				}
				out[i] = out[i].Union(out[j])
				out = append(out[:j], out[j+1:]...)
				merged = true
				// the grown region may now reach pairs already checked
				j = i
			}
		}

		if !merged {
			break
		}
	}

	return Order(out)
}
