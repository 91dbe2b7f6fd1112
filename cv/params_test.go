package cv

import (
	"math"
	"path/filepath"
	"testing"

	"golang.org/x/exp/rand"
)

// TestNewParamsShape verifies every family has exactly depth entries
func TestNewParamsShape(t *testing.T) {
	cfg := Config{Cutoff: 10, GateCutoff: 4, Depth: 25, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(1))
	if p.Depth() != 25 {
		t.Fatalf("expected depth 25, got %d", p.Depth())
	}
	for f, fam := range p.families() {
		if len(fam) != 25 {
			t.Errorf("family %s has length %d", familyNames[f], len(fam))
		}
	}
}

// TestFlattenRoundTrip verifies Flatten/SetFlat are inverse
func TestFlattenRoundTrip(t *testing.T) {
	cfg := Config{Cutoff: 6, GateCutoff: 2, Depth: 3, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(2))
	flat := p.Flatten()
	if len(flat) != 7*3 {
		t.Fatalf("expected flat length 21, got %d", len(flat))
	}

	q := NewParams(cfg, rand.NewSource(99))
	if err := q.SetFlat(flat); err != nil {
		t.Fatalf("SetFlat failed: %v", err)
	}
	for f, fam := range q.families() {
		for i, v := range fam {
			if v != p.families()[f][i] {
				t.Errorf("family %s entry %d differs after round trip", familyNames[f], i)
			}
		}
	}

	if err := q.SetFlat(flat[:5]); err == nil {
		t.Error("expected error for wrong flat length")
	}
}

// TestCloneIsIndependent verifies Clone does not alias
func TestCloneIsIndependent(t *testing.T) {
	cfg := Config{Cutoff: 6, GateCutoff: 2, Depth: 2, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(3))
	q := p.Clone()
	q.R1[0] = 1234
	if p.R1[0] == 1234 {
		t.Error("clone aliases the original")
	}
}

// TestStats verifies per-family statistics are finite and named
func TestStats(t *testing.T) {
	cfg := Config{Cutoff: 10, GateCutoff: 4, Depth: 50, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(4))
	stats := p.Stats()
	if len(stats) != 7 {
		t.Fatalf("expected 7 family stats, got %d", len(stats))
	}
	for _, s := range stats {
		if s.Name == "" || math.IsNaN(s.Mean) || math.IsNaN(s.Std) {
			t.Errorf("bad stats entry: %+v", s)
		}
	}
}

// TestSaveLoad round-trips a checkpoint through JSON
func TestSaveLoad(t *testing.T) {
	cfg := Config{Cutoff: 6, GateCutoff: 2, Depth: 4, PassiveSD: 0.1, ActiveSD: 0.001}
	p := NewParams(cfg, rand.NewSource(5))

	path := filepath.Join(t.TempDir(), "params.json")
	if err := p.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	q, err := LoadParams(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if q.Depth() != p.Depth() {
		t.Fatalf("depth mismatch after load: %d vs %d", q.Depth(), p.Depth())
	}
	for f, fam := range q.families() {
		for i, v := range fam {
			if v != p.families()[f][i] {
				t.Errorf("family %s entry %d differs after load", familyNames[f], i)
			}
		}
	}
}
