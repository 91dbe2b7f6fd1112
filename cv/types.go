package cv

import "fmt"

// GateKind identifies one of the four gate families a layer is built from.
type GateKind int

const (
	GateRotate   GateKind = 0 // phase rotation by Angle
	GateSqueeze  GateKind = 1 // squeezing by Mag at phase Phase
	GateDisplace GateKind = 2 // displacement by Mag at phase Phase
	GateKerr     GateKind = 3 // Kerr non-linearity of strength Angle
)

// String returns the gate family name.
func (k GateKind) String() string {
	switch k {
	case GateRotate:
		return "rotate"
	case GateSqueeze:
		return "squeeze"
	case GateDisplace:
		return "displace"
	case GateKerr:
		return "kerr"
	}
	return "unknown"
}

// GateOp is a single gate application descriptor. Rotation and Kerr gates use
// Angle; squeezing and displacement use Mag and Phase.
type GateOp struct {
	Kind  GateKind
	Angle float64
	Mag   float64
	Phase float64
}

// Config holds the fixed shape of one synthesis run.
type Config struct {
	Cutoff     int // Fock-space truncation dimension
	GateCutoff int // dimension of the subspace the target acts on
	Depth      int // number of stacked layers

	PassiveSD float64 // init std for rotation and phase parameters
	ActiveSD  float64 // init std for squeeze/displacement magnitude and Kerr strength

	UseGPU bool // route the forward pass through the WebGPU kernel when available
}

// DefaultConfig returns the reference configuration: a 4-dimensional target
// embedded in a 10-level truncation, 25 layers.
func DefaultConfig() Config {
	return Config{
		Cutoff:     10,
		GateCutoff: 4,
		Depth:      25,
		PassiveSD:  0.1,
		ActiveSD:   0.001,
	}
}

// Validate rejects configurations that cannot produce a meaningful run.
// It is called before any iteration executes.
func (c Config) Validate() error {
	if c.GateCutoff < 1 {
		return fmt.Errorf("gate cutoff must be >= 1, got %d", c.GateCutoff)
	}
	if c.Cutoff < c.GateCutoff {
		return fmt.Errorf("cutoff %d smaller than gate cutoff %d", c.Cutoff, c.GateCutoff)
	}
	if c.Depth < 1 {
		return fmt.Errorf("depth must be >= 1, got %d", c.Depth)
	}
	if c.PassiveSD <= 0 {
		return fmt.Errorf("passive init std must be positive, got %g", c.PassiveSD)
	}
	if c.ActiveSD <= 0 {
		return fmt.Errorf("active init std must be positive, got %g", c.ActiveSD)
	}
	return nil
}
