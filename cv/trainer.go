package cv

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/openfluke/lumen/gpu"
)

// TrainingConfig holds the knobs of one optimization run.
type TrainingConfig struct {
	Reps         int     // fixed iteration budget, no early stopping
	LearningRate float64 //
	GradStep     float64 // central-difference step for the gradient
	ReportEvery  int     // print a progress line every N iterations (0 = silent loop)
	Verbose      bool
	Optimizer    Optimizer // nil selects Adam with default moments
}

// DefaultTrainingConfig returns the reference run settings.
func DefaultTrainingConfig() *TrainingConfig {
	return &TrainingConfig{
		Reps:         1000,
		LearningRate: 0.025,
		GradStep:     1e-6,
		ReportEvery:  100,
		Verbose:      true,
	}
}

// IterationRecord is one appended history entry: the cost and per-probe
// overlaps evaluated at the parameter values the iteration started with.
type IterationRecord struct {
	Iteration int
	Cost      float64
	Overlaps  []float64
}

// TrainingResult carries the run history and the post-hoc diagnostics.
type TrainingResult struct {
	History     []IterationRecord
	FinalCost   float64
	BestCost    float64
	MeanOverlap float64 // mean overlap after the last step

	// LearntBlock is the GateCutoff×GateCutoff action the circuit converged
	// to; ProcessFidelity compares it against the target unitary.
	LearntBlock     *mat.CDense
	ProcessFidelity float64

	TotalTime time.Duration
}

// Train runs exactly cfg.Reps iterations of forward pass, cost, gradient and
// optimizer step against targetGate (a GateCutoff×GateCutoff unitary, embedded
// into the full truncated space with an identity remainder).
//
// Non-finite cost or gradients abort the run with an error naming the
// iteration; the history up to that point is returned alongside the error.
func Train(c *Circuit, targetGate *mat.CDense, cfg *TrainingConfig) (*TrainingResult, error) {
	if cfg == nil {
		cfg = DefaultTrainingConfig()
	}
	if cfg.Reps < 0 {
		return nil, fmt.Errorf("reps must be >= 0, got %d", cfg.Reps)
	}
	if cfg.GradStep <= 0 && cfg.Reps > 0 {
		return nil, fmt.Errorf("gradient step must be positive, got %g", cfg.GradStep)
	}

	target, err := Embed(targetGate, c.Config.Cutoff)
	if err != nil {
		return nil, err
	}
	targetBatch := TargetBatch(target, c.Config.GateCutoff)
	batch := BasisBatch(c.Config)

	opt := cfg.Optimizer
	if opt == nil {
		opt = NewAdamDefault()
	}

	if c.Config.UseGPU {
		if err := gpu.Ensure(); err != nil {
			if cfg.Verbose {
				fmt.Printf("GPU unavailable (%v), using CPU\n", err)
			}
			c.Config.UseGPU = false
		}
	}

	if cfg.Verbose {
		fmt.Printf("\n=== Gate Synthesis ===\n")
		fmt.Printf("Cutoff: %d  Gate cutoff: %d  Depth: %d\n",
			c.Config.Cutoff, c.Config.GateCutoff, c.Config.Depth)
		fmt.Printf("Iterations: %d  Learning rate: %g  Optimizer: %s\n",
			cfg.Reps, cfg.LearningRate, opt.Name())
		fmt.Println()
	}

	result := &TrainingResult{
		BestCost: math.MaxFloat64,
		History:  make([]IterationRecord, 0, cfg.Reps),
	}
	startTime := time.Now()

	flat := c.Params.Flatten()
	for it := 0; it < cfg.Reps; it++ {
		out := c.Forward(batch)
		cost, overlaps := Evaluate(out, targetBatch)
		if !isFinite(cost) {
			result.TotalTime = time.Since(startTime)
			return result, fmt.Errorf("non-finite cost at iteration %d", it)
		}

		result.History = append(result.History, IterationRecord{
			Iteration: it,
			Cost:      cost,
			Overlaps:  overlaps,
		})
		if cost < result.BestCost {
			result.BestCost = cost
		}

		if cfg.Verbose && cfg.ReportEvery > 0 && it%cfg.ReportEvery == 0 {
			fmt.Printf("Rep: %4d  Cost: %.4f  Mean overlap: %.4f\n",
				it, cost, meanOverlap(overlaps))
		}

		grads := c.Gradients(batch, targetBatch, cfg.GradStep)
		for _, g := range grads {
			if !isFinite(g) {
				result.TotalTime = time.Since(startTime)
				return result, fmt.Errorf("non-finite gradient at iteration %d", it)
			}
		}

		opt.Step(flat, grads, cfg.LearningRate)
		if err := c.Params.SetFlat(flat); err != nil {
			return result, err
		}
	}

	out := c.Forward(batch)
	finalCost, overlaps := Evaluate(out, targetBatch)
	result.FinalCost = finalCost
	result.MeanOverlap = meanOverlap(overlaps)
	if finalCost < result.BestCost {
		result.BestCost = finalCost
	}
	result.LearntBlock = LearntBlock(out, c.Config.GateCutoff)
	result.ProcessFidelity = ProcessFidelity(result.LearntBlock, targetGate)
	result.TotalTime = time.Since(startTime)

	if cfg.Verbose {
		fmt.Printf("\nFinal cost: %.6f  Mean overlap: %.6f\n", finalCost, result.MeanOverlap)
		fmt.Printf("Process fidelity: %.6f\n", result.ProcessFidelity)
		fmt.Printf("Total time: %v\n", result.TotalTime)
	}
	return result, nil
}

func meanOverlap(overlaps []float64) float64 {
	if len(overlaps) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range overlaps {
		sum += o
	}
	return sum / float64(len(overlaps))
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
