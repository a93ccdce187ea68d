package gesture

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Score compares the first length samples of a and b and returns the
// fraction of the 3*length components that agree within tolerance after
// each sequence is divided by its own largest absolute component.
//
// A sequence whose scale is zero (all-zero, or shorter than length with
// nothing recorded) has no defined normalized values, so nothing matches
// and the score is 0. Components missing from a shorter sequence count as
// mismatches. Score returns 0 when length <= 0.
func Score(a, b *Sequence, length int, tolerance float64) float64 {
	if length <= 0 {
		return 0
	}
	na, presentA := a.components(length)
	nb, presentB := b.components(length)

	scaleA := floats.Norm(na[:presentA], math.Inf(1))
	scaleB := floats.Norm(nb[:presentB], math.Inf(1))
	// A NaN reading poisons the scale, so the whole sequence fails closed.
	if scaleA == 0 || scaleB == 0 || math.IsNaN(scaleA) || math.IsNaN(scaleB) {
		return 0
	}

	floats.Scale(1/scaleA, na)
	floats.Scale(1/scaleB, nb)

	diff := make([]float64, len(na))
	floats.SubTo(diff, na, nb)

	present := min(presentA, presentB)
	matches := 0
	for i := 0; i < present; i++ {
		// NaN never satisfies <, so corrupt readings fail closed too.
		if math.Abs(diff[i]) < tolerance {
			matches++
		}
	}
	return float64(matches) / float64(3*length)
}

// Matches reports whether score clears threshold (strictly greater).
func Matches(score, threshold float64) bool {
	return score > threshold
}
