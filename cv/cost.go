package cv

import "math/cmplx"

// Evaluate scores a batch of circuit outputs against the target batch.
//
// overlaps[i] is the real part of ⟨target_i|out_i⟩, not its squared modulus:
// a unit overlap requires the learnt action to match the target in phase as
// well as magnitude, which is exactly what synthesizing a unitary (rather
// than a set of states) needs. The cost is the L1 distance of the overlaps
// from 1, so cost ≥ 0 with equality iff every overlap is exactly 1.
func Evaluate(out, target [][]complex128) (cost float64, overlaps []float64) {
	overlaps = make([]float64, len(out))
	for i := range out {
		var inner complex128
		for k := range target[i] {
			inner += cmplx.Conj(target[i][k]) * out[i][k]
		}
		overlaps[i] = real(inner)
		diff := overlaps[i] - 1
		if diff < 0 {
			diff = -diff
		}
		cost += diff
	}
	return cost, overlaps
}
