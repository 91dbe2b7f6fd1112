package cv

import (
	"math"
	"strings"
	"testing"

	"golang.org/x/exp/rand"
)

func smallRun(t *testing.T, seed uint64, reps int) (*Circuit, *TrainingResult, error) {
	t.Helper()
	cfg := Config{Cutoff: 6, GateCutoff: 2, Depth: 4, PassiveSD: 0.1, ActiveSD: 0.001}
	src := rand.NewSource(seed)
	target := RandomUnitary(cfg.GateCutoff, src)
	c, err := NewCircuit(cfg, NewParams(cfg, src))
	if err != nil {
		t.Fatalf("NewCircuit failed: %v", err)
	}
	result, err := Train(c, target, &TrainingConfig{
		Reps:         reps,
		LearningRate: 0.05,
		GradStep:     1e-6,
	})
	return c, result, err
}

// TestTrainHistory: after k iterations the history holds exactly k records
// in iteration order
func TestTrainHistory(t *testing.T) {
	_, result, err := smallRun(t, 31, 12)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if len(result.History) != 12 {
		t.Fatalf("expected 12 history records, got %d", len(result.History))
	}
	for i, rec := range result.History {
		if rec.Iteration != i {
			t.Errorf("record %d has iteration index %d", i, rec.Iteration)
		}
		if len(rec.Overlaps) != 2 {
			t.Errorf("record %d has %d overlaps", i, len(rec.Overlaps))
		}
		if !isFinite(rec.Cost) || rec.Cost < 0 {
			t.Errorf("record %d has invalid cost %g", i, rec.Cost)
		}
	}
}

// TestTrainReducesCost: a short run against a small random target must
// improve on the initial cost
func TestTrainReducesCost(t *testing.T) {
	_, result, err := smallRun(t, 32, 40)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	initial := result.History[0].Cost
	if result.FinalCost >= initial {
		t.Errorf("cost did not improve: initial %g, final %g", initial, result.FinalCost)
	}
	if result.BestCost > initial {
		t.Errorf("best cost %g above initial %g", result.BestCost, initial)
	}
}

// TestTrainZeroReps: a zero-iteration run still produces diagnostics
func TestTrainZeroReps(t *testing.T) {
	_, result, err := smallRun(t, 33, 0)
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if len(result.History) != 0 {
		t.Errorf("expected empty history, got %d records", len(result.History))
	}
	if result.LearntBlock == nil {
		t.Error("missing learnt block")
	}
	if result.ProcessFidelity < 0 || result.ProcessFidelity > 1+1e-9 {
		t.Errorf("process fidelity out of bounds: %g", result.ProcessFidelity)
	}
}

// TestTrainIdentityTarget: fidelity is already ~1 with zero parameters and
// an identity target, no steps required
func TestTrainIdentityTarget(t *testing.T) {
	cfg := Config{Cutoff: 8, GateCutoff: 3, Depth: 5, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(34))
	if err := p.SetFlat(make([]float64, 7*cfg.Depth)); err != nil {
		t.Fatalf("SetFlat failed: %v", err)
	}
	c, err := NewCircuit(cfg, p)
	if err != nil {
		t.Fatalf("NewCircuit failed: %v", err)
	}

	result, err := Train(c, identityGate(cfg.GateCutoff), &TrainingConfig{Reps: 0})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if result.FinalCost > 1e-9 {
		t.Errorf("identity target should cost ~0 at zero parameters, got %g", result.FinalCost)
	}
	if result.ProcessFidelity < 1-1e-9 {
		t.Errorf("expected process fidelity ~1, got %g", result.ProcessFidelity)
	}
}

// TestTrainAbortsOnNonFinite: poisoned parameters abort with a descriptive
// error instead of looping on garbage
func TestTrainAbortsOnNonFinite(t *testing.T) {
	cfg := Config{Cutoff: 6, GateCutoff: 2, Depth: 2, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(35))
	flat := p.Flatten()
	flat[0] = math.NaN()
	if err := p.SetFlat(flat); err != nil {
		t.Fatalf("SetFlat failed: %v", err)
	}
	c, err := NewCircuit(cfg, p)
	if err != nil {
		t.Fatalf("NewCircuit failed: %v", err)
	}

	_, err = Train(c, RandomUnitary(2, rand.NewSource(36)), &TrainingConfig{
		Reps: 5, LearningRate: 0.05, GradStep: 1e-6,
	})
	if err == nil {
		t.Fatal("expected non-finite abort")
	}
	if !strings.Contains(err.Error(), "non-finite") {
		t.Errorf("unexpected error: %v", err)
	}
}

// TestTrainRejectsBadConfig covers the fail-fast paths
func TestTrainRejectsBadConfig(t *testing.T) {
	cfg := Config{Cutoff: 6, GateCutoff: 2, Depth: 2, PassiveSD: 0.1, ActiveSD: 0.001}
	c, err := NewCircuit(cfg, NewParams(cfg, rand.NewSource(37)))
	if err != nil {
		t.Fatalf("NewCircuit failed: %v", err)
	}
	target := RandomUnitary(2, rand.NewSource(38))

	if _, err := Train(c, target, &TrainingConfig{Reps: -1, GradStep: 1e-6}); err == nil {
		t.Error("negative reps must be rejected")
	}
	if _, err := Train(c, target, &TrainingConfig{Reps: 1, GradStep: 0}); err == nil {
		t.Error("zero gradient step must be rejected")
	}
	if _, err := Train(c, RandomUnitary(7, rand.NewSource(39)), &TrainingConfig{Reps: 1, GradStep: 1e-6}); err == nil {
		t.Error("oversized target must be rejected")
	}
}

// TestTrainSGDAlternative: the driver accepts a non-default optimizer
func TestTrainSGDAlternative(t *testing.T) {
	cfg := Config{Cutoff: 6, GateCutoff: 2, Depth: 3, PassiveSD: 0.1, ActiveSD: 0.001}
	src := rand.NewSource(40)
	c, err := NewCircuit(cfg, NewParams(cfg, src))
	if err != nil {
		t.Fatalf("NewCircuit failed: %v", err)
	}
	result, err := Train(c, RandomUnitary(2, src), &TrainingConfig{
		Reps: 10, LearningRate: 0.01, GradStep: 1e-6,
		Optimizer: NewSGDWithMomentum(0.9, false),
	})
	if err != nil {
		t.Fatalf("train failed: %v", err)
	}
	if len(result.History) != 10 {
		t.Errorf("expected 10 records, got %d", len(result.History))
	}
}
