package cv

import (
	"math"
	"math/cmplx"
)

// Square complex matrices are stored as flat row-major []complex128 slices
// with an explicit dimension, matching the flat-slice layout used everywhere
// else in this package.

func identityC(n int) []complex128 {
	m := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		m[i*n+i] = 1
	}
	return m
}

func matMul(n int, a, b []complex128) []complex128 {
	out := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			aik := a[i*n+k]
			if aik == 0 {
				continue
			}
			row := b[k*n : k*n+n]
			for j := 0; j < n; j++ {
				out[i*n+j] += aik * row[j]
			}
		}
	}
	return out
}

func matVec(n int, m, v []complex128) []complex128 {
	out := make([]complex128, n)
	for i := 0; i < n; i++ {
		var sum complex128
		row := m[i*n : i*n+n]
		for j := 0; j < n; j++ {
			sum += row[j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func dagger(n int, m []complex128) []complex128 {
	out := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			out[j*n+i] = cmplx.Conj(m[i*n+j])
		}
	}
	return out
}

// oneNorm is the maximum absolute column sum.
func oneNorm(n int, m []complex128) float64 {
	max := 0.0
	for j := 0; j < n; j++ {
		sum := 0.0
		for i := 0; i < n; i++ {
			sum += cmplx.Abs(m[i*n+j])
		}
		if sum > max {
			max = sum
		}
	}
	return max
}

// expm computes the matrix exponential by scaling and squaring with a Taylor
// series on the scaled matrix. The matrices here are small (Cutoff-sized) and
// their generators are anti-Hermitian, so this converges fast and the result
// stays exactly unitary up to round-off.
func expm(n int, m []complex128) []complex128 {
	norm := oneNorm(n, m)
	squarings := 0
	for norm > 0.5 {
		norm /= 2
		squarings++
	}

	scaled := make([]complex128, n*n)
	factor := complex(1/math.Pow(2, float64(squarings)), 0)
	for i, v := range m {
		scaled[i] = v * factor
	}

	result := identityC(n)
	term := identityC(n)
	for k := 1; k <= 40; k++ {
		term = matMul(n, term, scaled)
		inv := complex(1/float64(k), 0)
		maxAbs := 0.0
		for i, v := range term {
			term[i] = v * inv
			if a := cmplx.Abs(term[i]); a > maxAbs {
				maxAbs = a
			}
		}
		for i, v := range term {
			result[i] += v
		}
		if maxAbs < 1e-18 {
			break
		}
	}

	for s := 0; s < squarings; s++ {
		result = matMul(n, result, result)
	}
	return result
}

// annihilation returns the truncated ladder operator a with a|k⟩ = √k |k−1⟩.
func annihilation(n int) []complex128 {
	m := make([]complex128, n*n)
	for k := 1; k < n; k++ {
		m[(k-1)*n+k] = complex(math.Sqrt(float64(k)), 0)
	}
	return m
}
