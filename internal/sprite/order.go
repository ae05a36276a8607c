package sprite

import "sort"

// sameRow groups two regions into one row when their tops differ by less than
// half of the taller height
func sameRow(a, b Region) bool {
	dy := a.Y - b.Y
	if dy < 0 {
		dy = -dy
	}
	return 2*dy < max(a.H, b.H)
}

// readingLess orders same-row regions left to right and rows top to bottom.
// It is a pairwise heuristic and not transitive when heights within a row vary
// by more than 2x; sheets laid out in clean rows order deterministically.
func readingLess(a, b Region) bool {
	if sameRow(a, b) {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Order sorts regions into reading order in place and returns them
func Order(regions []Region) []Region {
	sort.SliceStable(regions, func(i, j int) bool {
		return readingLess(regions[i], regions[j])
	})
	return regions
}
