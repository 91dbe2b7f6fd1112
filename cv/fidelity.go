package cv

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// LearntBlock extracts the learnt action restricted to the target subspace:
// column j is the final output state for basis probe j, truncated to the
// first gateCutoff amplitudes.
func LearntBlock(out [][]complex128, gateCutoff int) *mat.CDense {
	block := mat.NewCDense(gateCutoff, gateCutoff, nil)
	for j := 0; j < gateCutoff; j++ {
		for i := 0; i < gateCutoff; i++ {
			block.Set(i, j, out[j][i])
		}
	}
	return block
}

// ProcessFidelity compares two operators through their action on one half of
// the maximally entangled state |φ⟩ = vec(I)/√d: with |Ψ(X)⟩ = (I⊗X)|φ⟩ the
// fidelity is |⟨Ψ(V)|Ψ(U)⟩|², which reduces to |Tr(V†U)/d|². For unitary
// inputs it lies in [0, 1] and equals 1 iff U = V up to a global phase.
func ProcessFidelity(u, v *mat.CDense) float64 {
	d, _ := u.Dims()
	var tr complex128
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			tr += cmplx.Conj(v.At(i, j)) * u.At(i, j)
		}
	}
	tr /= complex(float64(d), 0)
	return real(tr)*real(tr) + imag(tr)*imag(tr)
}
