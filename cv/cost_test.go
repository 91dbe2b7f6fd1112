package cv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/rand"
)

func TestCostZeroOnExactMatch(t *testing.T) {
	target, err := Embed(RandomUnitary(3, rand.NewSource(1)), 8)
	assert.NoError(t, err)
	batch := TargetBatch(target, 3)

	cost, overlaps := Evaluate(batch, batch)
	assert.Len(t, overlaps, 3)
	assert.InDelta(t, 0.0, cost, 1e-12)
	for i, o := range overlaps {
		assert.InDelta(t, 1.0, o, 1e-12, "overlap %d", i)
	}
}

func TestCostNonNegative(t *testing.T) {
	cfg := Config{Cutoff: 8, GateCutoff: 3, Depth: 3, PassiveSD: 0.1, ActiveSD: 0.001}
	c, err := NewCircuit(cfg, NewParams(cfg, rand.NewSource(21)))
	assert.NoError(t, err)

	target, err := Embed(RandomUnitary(3, rand.NewSource(22)), 8)
	assert.NoError(t, err)
	targetBatch := TargetBatch(target, 3)

	cost, overlaps := Evaluate(c.Forward(BasisBatch(cfg)), targetBatch)
	assert.GreaterOrEqual(t, cost, 0.0)
	assert.Len(t, overlaps, cfg.GateCutoff)
}

// The real-part overlap penalizes phase misalignment: a state matching the
// target up to a phase of π has overlap −1, not 1.
func TestCostPenalizesPhase(t *testing.T) {
	state := []complex128{1, 0, 0}
	flipped := []complex128{-1, 0, 0}
	cost, overlaps := Evaluate([][]complex128{flipped}, [][]complex128{state})
	assert.InDelta(t, -1.0, overlaps[0], 1e-12)
	assert.InDelta(t, 2.0, cost, 1e-12)
}

// An identity target needs no optimization: zeroed parameters already give
// zero cost.
func TestIdentityTargetZeroCost(t *testing.T) {
	cfg := Config{Cutoff: 10, GateCutoff: 4, Depth: 25, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(23))
	assert.NoError(t, p.SetFlat(make([]float64, 7*cfg.Depth)))

	c, err := NewCircuit(cfg, p)
	assert.NoError(t, err)

	id := identityGate(cfg.GateCutoff)
	target, err := Embed(id, cfg.Cutoff)
	assert.NoError(t, err)

	cost, overlaps := Evaluate(c.Forward(BasisBatch(cfg)), TargetBatch(target, cfg.GateCutoff))
	assert.InDelta(t, 0.0, cost, 1e-10)
	for i, o := range overlaps {
		assert.InDelta(t, 1.0, o, 1e-10, "overlap %d", i)
	}
}
