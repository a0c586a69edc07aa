package valueobjects

// RatingSet is a bitmask of content-sensitivity tiers. Each tier is an
// independent bit rather than a point on a total order, so compatibility is
// set intersection, not comparison.
type RatingSet uint

const (
	RatingGeneral    RatingSet = 1 << iota // 1
	RatingSuggestive                       // 2
	RatingMature                           // 4
	RatingAdult                            // 8
	RatingExtreme                          // 16
)

// Intersects reports whether the two rating sets share at least one tier.
// The empty set never intersects anything, including itself.
func Intersects(a, b RatingSet) bool {
	return a&b != 0
}

func (s RatingSet) Intersects(other RatingSet) bool {
	return Intersects(s, other)
}

func (s RatingSet) IsEmpty() bool {
	return s == 0
}
