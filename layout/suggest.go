package layout

import "github.com/antzucaro/matchr"

// SuggestClosest returns the name in known closest to want by Levenshtein
// distance, for use in MissingSerializer diagnostics ("no serializer for
// Foo, did you mean Fob?"). Returns "" if known is empty.
//
// Grounded on the teacher codebase's use of matchr for string-distance
// comparisons (util/distance_test.go); unlike that barcode-matching code,
// this has no notion of "downstream" sequence context, so it calls
// matchr.Levenshtein directly rather than the teacher's specialized variant.
func SuggestClosest(want string, known []string) string {
	best := ""
	bestDist := -1
	for _, k := range known {
		d := matchr.Levenshtein(want, k)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = k
		}
	}
	return best
}
