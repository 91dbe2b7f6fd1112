// Package cv implements gradient-based synthesis of a target unitary on a
// single bosonic mode simulated in a truncated Fock space.
//
// A circuit is a stack of identical layers, each applying five operations to
// the mode in fixed order:
//   - Rotation:     R(θ) = diag(exp(i n θ))
//   - Squeezing:    S(r, φ) = expm((exp(-iφ) a² − exp(iφ) a†²) · r/2)
//   - Rotation:     second phase rotation
//   - Displacement: D(r, φ) = expm(α a† − ᾱ a), α = r exp(iφ)
//   - Kerr:         K(κ) = diag(exp(i κ n²))
//
// The interleaving of linear optics, displacement and the Kerr non-linearity
// is what makes stacked layers universal on the truncated space; the order is
// load-bearing and must not change.
//
// Training probes the circuit with the first GateCutoff Fock basis states and
// drives the seven per-layer parameters so the circuit's action on those
// probes matches the columns of the target unitary. All simulation happens in
// a Cutoff-dimensional space: amplitude the exact evolution would place at or
// above Cutoff is silently discarded, so Cutoff must stay comfortably above
// GateCutoff for the result to mean anything.
//
// Example usage:
//
//	cfg := cv.DefaultConfig()
//	src := rand.NewSource(42)
//	target := cv.RandomUnitary(cfg.GateCutoff, src)
//	circuit, _ := cv.NewCircuit(cfg, cv.NewParams(cfg, src))
//	result, _ := cv.Train(circuit, target, cv.DefaultTrainingConfig())
//	fmt.Println(result.ProcessFidelity)
package cv
