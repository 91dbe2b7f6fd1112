package cv

import (
	"math/cmplx"
)

// Rotation returns the phase rotation R(θ) = diag(exp(i n θ)) on the
// truncated space. Exact in the truncation.
func Rotation(cutoff int, theta float64) []complex128 {
	m := make([]complex128, cutoff*cutoff)
	for k := 0; k < cutoff; k++ {
		m[k*cutoff+k] = cmplx.Exp(complex(0, float64(k)*theta))
	}
	return m
}

// Kerr returns the Kerr gate K(κ) = diag(exp(i κ n²)). Exact in the
// truncation.
func Kerr(cutoff int, kappa float64) []complex128 {
	m := make([]complex128, cutoff*cutoff)
	for k := 0; k < cutoff; k++ {
		m[k*cutoff+k] = cmplx.Exp(complex(0, kappa*float64(k*k)))
	}
	return m
}

// Squeeze returns the squeezing gate S(r, φ) = expm((e^{-iφ} a² − e^{iφ} a†²)·r/2)
// built from the truncated ladder operators. The generator is anti-Hermitian,
// so the truncated gate is unitary; amplitude the exact gate would push past
// the cutoff is discarded.
func Squeeze(cutoff int, r, phi float64) []complex128 {
	a := annihilation(cutoff)
	aa := matMul(cutoff, a, a)
	ad := dagger(cutoff, a)
	adad := matMul(cutoff, ad, ad)

	cm := cmplx.Exp(complex(0, -phi)) * complex(r/2, 0)
	cp := cmplx.Exp(complex(0, phi)) * complex(r/2, 0)
	gen := make([]complex128, cutoff*cutoff)
	for i := range gen {
		gen[i] = cm*aa[i] - cp*adad[i]
	}
	return expm(cutoff, gen)
}

// Displace returns the displacement gate D(α) = expm(α a† − ᾱ a) with
// α = r·exp(iφ), under the same truncation caveat as Squeeze.
func Displace(cutoff int, r, phi float64) []complex128 {
	a := annihilation(cutoff)
	ad := dagger(cutoff, a)

	alpha := cmplx.Exp(complex(0, phi)) * complex(r, 0)
	alphaConj := cmplx.Conj(alpha)
	gen := make([]complex128, cutoff*cutoff)
	for i := range gen {
		gen[i] = alpha*ad[i] - alphaConj*a[i]
	}
	return expm(cutoff, gen)
}

// Matrix builds the gate's matrix on the truncated space. This is the single
// interpreter for GateOp descriptors; adding a gate family means adding a
// case here.
func (op GateOp) Matrix(cutoff int) []complex128 {
	switch op.Kind {
	case GateRotate:
		return Rotation(cutoff, op.Angle)
	case GateSqueeze:
		return Squeeze(cutoff, op.Mag, op.Phase)
	case GateDisplace:
		return Displace(cutoff, op.Mag, op.Phase)
	case GateKerr:
		return Kerr(cutoff, op.Angle)
	}
	return identityC(cutoff)
}

// LayerOps returns layer i's gate sequence in application order. The order
// (rotation, squeeze, rotation, displacement, Kerr) is fixed; reordering
// changes the operator set the stacked circuit can reach.
func LayerOps(i int, p *Params) []GateOp {
	return []GateOp{
		{Kind: GateRotate, Angle: p.R1[i]},
		{Kind: GateSqueeze, Mag: p.SqR[i], Phase: p.SqPhi[i]},
		{Kind: GateRotate, Angle: p.R2[i]},
		{Kind: GateDisplace, Mag: p.DR[i], Phase: p.DPhi[i]},
		{Kind: GateKerr, Angle: p.Kappa[i]},
	}
}

// ApplyLayer applies layer i to a single state and returns the new state.
// Pure: the input state and the parameter set are left untouched.
func ApplyLayer(cutoff, i int, p *Params, state []complex128) []complex128 {
	return matVec(cutoff, LayerMatrix(cutoff, i, p), state)
}

// LayerMatrix composes layer i's gates into a single cutoff×cutoff matrix.
// With all of layer i's parameters at zero this is exactly the identity.
func LayerMatrix(cutoff, i int, p *Params) []complex128 {
	m := identityC(cutoff)
	for _, op := range LayerOps(i, p) {
		m = matMul(cutoff, op.Matrix(cutoff), m)
	}
	return m
}
