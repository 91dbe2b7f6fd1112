package cv

import "math"

// Optimizer applies one gradient step to a flat parameter vector in place.
type Optimizer interface {
	Step(params, grads []float64, learningRate float64)

	// Reset clears optimizer state (moments, step count).
	Reset()

	Name() string
}

// ============================================================================
// SGD (plain gradient descent with optional momentum)
// ============================================================================

type SGD struct {
	momentum float64
	nesterov bool
	velocity []float64
}

func NewSGD() *SGD {
	return &SGD{}
}

func NewSGDWithMomentum(momentum float64, nesterov bool) *SGD {
	return &SGD{momentum: momentum, nesterov: nesterov}
}

func (opt *SGD) Step(params, grads []float64, learningRate float64) {
	if opt.momentum == 0 {
		for i := range params {
			params[i] -= learningRate * grads[i]
		}
		return
	}

	if opt.velocity == nil {
		opt.velocity = make([]float64, len(params))
	}
	for i := range params {
		opt.velocity[i] = opt.momentum*opt.velocity[i] + grads[i]
		if opt.nesterov {
			params[i] -= learningRate * (grads[i] + opt.momentum*opt.velocity[i])
		} else {
			params[i] -= learningRate * opt.velocity[i]
		}
	}
}

func (opt *SGD) Reset() { opt.velocity = nil }

func (opt *SGD) Name() string { return "sgd" }

// ============================================================================
// Adam (adaptive moment estimation)
// ============================================================================

type Adam struct {
	beta1   float64
	beta2   float64
	epsilon float64
	step    int

	m []float64 // first moment estimates
	v []float64 // second moment estimates
}

func NewAdam(beta1, beta2, epsilon float64) *Adam {
	return &Adam{beta1: beta1, beta2: beta2, epsilon: epsilon}
}

func NewAdamDefault() *Adam {
	return NewAdam(0.9, 0.999, 1e-8)
}

func (opt *Adam) Step(params, grads []float64, learningRate float64) {
	if opt.m == nil {
		opt.m = make([]float64, len(params))
		opt.v = make([]float64, len(params))
	}
	opt.step++

	biasCorrection1 := 1 - math.Pow(opt.beta1, float64(opt.step))
	biasCorrection2 := 1 - math.Pow(opt.beta2, float64(opt.step))

	for i := range params {
		grad := grads[i]

		opt.m[i] = opt.beta1*opt.m[i] + (1-opt.beta1)*grad
		opt.v[i] = opt.beta2*opt.v[i] + (1-opt.beta2)*grad*grad

		mHat := opt.m[i] / biasCorrection1
		vHat := opt.v[i] / biasCorrection2

		params[i] -= learningRate * mHat / (math.Sqrt(vHat) + opt.epsilon)
	}
}

func (opt *Adam) Reset() {
	opt.step = 0
	opt.m = nil
	opt.v = nil
}

func (opt *Adam) Name() string { return "adam" }
