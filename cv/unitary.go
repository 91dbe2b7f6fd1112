package cv

import (
	"fmt"
	"math"
	"math/cmplx"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

// RandomUnitary draws a d×d Haar-random unitary: a complex Ginibre matrix
// orthonormalized column by column (modified Gram-Schmidt).
func RandomUnitary(d int, src rand.Source) *mat.CDense {
	rnd := rand.New(src)
	u := mat.NewCDense(d, d, nil)
	for i := 0; i < d; i++ {
		for j := 0; j < d; j++ {
			u.Set(i, j, complex(rnd.NormFloat64(), rnd.NormFloat64())/complex(math.Sqrt2, 0))
		}
	}

	for j := 0; j < d; j++ {
		for k := 0; k < j; k++ {
			var proj complex128
			for i := 0; i < d; i++ {
				proj += cmplx.Conj(u.At(i, k)) * u.At(i, j)
			}
			for i := 0; i < d; i++ {
				u.Set(i, j, u.At(i, j)-proj*u.At(i, k))
			}
		}
		norm := 0.0
		for i := 0; i < d; i++ {
			norm += real(u.At(i, j) * cmplx.Conj(u.At(i, j)))
		}
		inv := complex(1/math.Sqrt(norm), 0)
		for i := 0; i < d; i++ {
			u.Set(i, j, u.At(i, j)*inv)
		}
	}
	return u
}

// Embed places a gate-cutoff unitary in the top-left block of a
// cutoff×cutoff matrix and fills the remainder with the identity, so the
// embedded matrix is unitary on the whole truncated space while only the
// block is constrained by training.
func Embed(gate *mat.CDense, cutoff int) (*mat.CDense, error) {
	r, cols := gate.Dims()
	if r != cols {
		return nil, fmt.Errorf("target gate must be square, got %d×%d", r, cols)
	}
	if r > cutoff {
		return nil, fmt.Errorf("target gate dimension %d exceeds cutoff %d", r, cutoff)
	}
	u := mat.NewCDense(cutoff, cutoff, nil)
	for i := 0; i < cutoff; i++ {
		for j := 0; j < cutoff; j++ {
			switch {
			case i < r && j < r:
				u.Set(i, j, gate.At(i, j))
			case i == j:
				u.Set(i, j, 1)
			}
		}
	}
	return u, nil
}

// TargetBatch returns the supervision states: the first gateCutoff columns of
// the embedded target, i.e. the target's action on each basis probe.
func TargetBatch(target *mat.CDense, gateCutoff int) [][]complex128 {
	rows, _ := target.Dims()
	batch := make([][]complex128, gateCutoff)
	for j := 0; j < gateCutoff; j++ {
		col := make([]complex128, rows)
		for i := 0; i < rows; i++ {
			col[i] = target.At(i, j)
		}
		batch[j] = col
	}
	return batch
}
