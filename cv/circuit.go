package cv

import (
	"fmt"

	"github.com/openfluke/lumen/gpu"
)

// Circuit binds a configuration to its parameter set. The parameter set is
// shared with the training loop, which updates it in place between forward
// passes; Circuit itself never writes to it.
type Circuit struct {
	Config Config
	Params *Params

	gpuDown bool // set after the first failed GPU dispatch, stops retrying
}

// NewCircuit validates the configuration against the parameter set.
func NewCircuit(cfg Config, p *Params) (*Circuit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("nil parameter set")
	}
	if p.Depth() != cfg.Depth {
		return nil, fmt.Errorf("parameter depth %d does not match config depth %d", p.Depth(), cfg.Depth)
	}
	return &Circuit{Config: cfg, Params: p}, nil
}

// BasisBatch returns the probe states: the first GateCutoff Fock basis
// vectors, each of dimension Cutoff. Fixed for the whole run.
func BasisBatch(cfg Config) [][]complex128 {
	batch := make([][]complex128, cfg.GateCutoff)
	for i := range batch {
		v := make([]complex128, cfg.Cutoff)
		v[i] = 1
		batch[i] = v
	}
	return batch
}

// LayerMatrices builds one composed matrix per layer from the current
// parameter values.
func (c *Circuit) LayerMatrices() [][]complex128 {
	mats := make([][]complex128, c.Config.Depth)
	for i := range mats {
		mats[i] = LayerMatrix(c.Config.Cutoff, i, c.Params)
	}
	return mats
}

// forwardWith applies an explicit layer-matrix stack to the batch on the CPU.
// This is the reference semantics all other evaluation paths must match.
func (c *Circuit) forwardWith(mats [][]complex128, batch [][]complex128) [][]complex128 {
	n := c.Config.Cutoff
	out := make([][]complex128, len(batch))
	for b, state := range batch {
		v := make([]complex128, n)
		copy(v, state)
		for _, m := range mats {
			v = matVec(n, m, v)
		}
		out[b] = v
	}
	return out
}

// Forward runs the full circuit over the batch and returns one fresh output
// state per probe. With UseGPU set it dispatches the batched matrix-apply
// kernel and falls back to the CPU path on any device error.
func (c *Circuit) Forward(batch [][]complex128) [][]complex128 {
	mats := c.LayerMatrices()
	if c.Config.UseGPU && !c.gpuDown {
		out, err := gpu.ApplyLayers(c.Config.Cutoff, mats, batch)
		if err == nil {
			return out
		}
		c.gpuDown = true
		fmt.Printf("GPU forward failed (%v), falling back to CPU\n", err)
	}
	return c.forwardWith(mats, batch)
}
