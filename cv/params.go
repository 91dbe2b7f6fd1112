package cv

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Params holds the seven trainable parameter families, one value per layer.
// The optimizer inside Train is the only writer; everything else reads.
type Params struct {
	R1    []float64 // first rotation angle
	SqR   []float64 // squeeze magnitude
	SqPhi []float64 // squeeze phase
	R2    []float64 // second rotation angle
	DR    []float64 // displacement magnitude
	DPhi  []float64 // displacement phase
	Kappa []float64 // Kerr strength
}

// familyNames follows the same fixed ordering as families().
var familyNames = []string{
	"rotation_1", "squeeze_r", "squeeze_phi", "rotation_2",
	"displace_r", "displace_phi", "kerr",
}

// families returns the seven slices in canonical order. Flatten, SetFlat and
// the gradient indexing all rely on this ordering.
func (p *Params) families() [][]float64 {
	return [][]float64{p.R1, p.SqR, p.SqPhi, p.R2, p.DR, p.DPhi, p.Kappa}
}

// NewParams draws initial parameters. The passive families (rotations and
// phases) only rotate phase and tolerate a wide spread; the active families
// (squeeze and displacement magnitude, Kerr strength) inject energy and must
// start small so early iterations stay inside the truncation.
func NewParams(cfg Config, src rand.Source) *Params {
	passive := distuv.Normal{Mu: 0, Sigma: cfg.PassiveSD, Src: src}
	active := distuv.Normal{Mu: 0, Sigma: cfg.ActiveSD, Src: src}

	draw := func(d distuv.Normal) []float64 {
		out := make([]float64, cfg.Depth)
		for i := range out {
			out[i] = d.Rand()
		}
		return out
	}

	return &Params{
		R1:    draw(passive),
		SqR:   draw(active),
		SqPhi: draw(passive),
		R2:    draw(passive),
		DR:    draw(active),
		DPhi:  draw(passive),
		Kappa: draw(active),
	}
}

// Depth returns the number of layers the parameter set covers.
func (p *Params) Depth() int { return len(p.R1) }

// Clone returns a deep copy.
func (p *Params) Clone() *Params {
	cp := func(s []float64) []float64 {
		out := make([]float64, len(s))
		copy(out, s)
		return out
	}
	return &Params{
		R1: cp(p.R1), SqR: cp(p.SqR), SqPhi: cp(p.SqPhi), R2: cp(p.R2),
		DR: cp(p.DR), DPhi: cp(p.DPhi), Kappa: cp(p.Kappa),
	}
}

// Flatten packs all families into one vector, family-major then layer-minor.
func (p *Params) Flatten() []float64 {
	depth := p.Depth()
	flat := make([]float64, 0, 7*depth)
	for _, fam := range p.families() {
		flat = append(flat, fam...)
	}
	return flat
}

// SetFlat writes a vector produced by Flatten back into the families.
func (p *Params) SetFlat(flat []float64) error {
	depth := p.Depth()
	if len(flat) != 7*depth {
		return fmt.Errorf("flat vector length %d does not match 7×depth=%d", len(flat), 7*depth)
	}
	for f, fam := range p.families() {
		copy(fam, flat[f*depth:(f+1)*depth])
	}
	return nil
}

// FamilyStats reports the post-training spread of one parameter family.
type FamilyStats struct {
	Name string
	Mean float64
	Std  float64
}

// Stats returns mean and standard deviation per family.
func (p *Params) Stats() []FamilyStats {
	out := make([]FamilyStats, 0, 7)
	for f, fam := range p.families() {
		out = append(out, FamilyStats{
			Name: familyNames[f],
			Mean: stat.Mean(fam, nil),
			Std:  stat.StdDev(fam, nil),
		})
	}
	return out
}

// savedParams is the on-disk checkpoint format.
type savedParams struct {
	Type    string    `json:"type"`
	Version int       `json:"version"`
	Depth   int       `json:"depth"`
	R1      []float64 `json:"rotation_1"`
	SqR     []float64 `json:"squeeze_r"`
	SqPhi   []float64 `json:"squeeze_phi"`
	R2      []float64 `json:"rotation_2"`
	DR      []float64 `json:"displace_r"`
	DPhi    []float64 `json:"displace_phi"`
	Kappa   []float64 `json:"kerr"`
}

// Save writes the parameter set to a JSON checkpoint.
func (p *Params) Save(path string) error {
	doc := savedParams{
		Type: "lumen_params", Version: 1, Depth: p.Depth(),
		R1: p.R1, SqR: p.SqR, SqPhi: p.SqPhi, R2: p.R2,
		DR: p.DR, DPhi: p.DPhi, Kappa: p.Kappa,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write params: %w", err)
	}
	return nil
}

// LoadParams reads a checkpoint written by Save.
func LoadParams(path string) (*Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read params: %w", err)
	}
	var doc savedParams
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	if doc.Type != "lumen_params" {
		return nil, fmt.Errorf("unexpected checkpoint type %q", doc.Type)
	}
	p := &Params{
		R1: doc.R1, SqR: doc.SqR, SqPhi: doc.SqPhi, R2: doc.R2,
		DR: doc.DR, DPhi: doc.DPhi, Kappa: doc.Kappa,
	}
	for _, fam := range p.families() {
		if len(fam) != doc.Depth {
			return nil, fmt.Errorf("family length %d does not match depth %d", len(fam), doc.Depth)
		}
	}
	return p, nil
}
