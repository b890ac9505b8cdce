// Package model scores feature vectors with a random-forest classifier
// exported to JSON artifacts. When the artifacts are missing the package
// falls back to a transparent heuristic so scans never fail outright.
package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harveywai/threatscan/pkg/osint"
)

// Verdicts persisted with each scan.
const (
	VerdictPhishing   = "Phishing"
	VerdictLegitimate = "Legitimate"
)

// Class labels used inside the trained forest.
const (
	labelLegitimate = 1
	labelPhishing   = -1
)

// Scaler rescales a raw vector the same way the training pipeline did:
// scaled[i] = raw[i]*Scale[i] + Min[i].
type Scaler struct {
	Min   []float64 `json:"min"`
	Scale []float64 `json:"scale"`
}

// Transform applies the scaler. Vectors wider than the scaler pass the
// extra slots through unchanged.
func (s *Scaler) Transform(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	for i := range v {
		if i >= len(s.Scale) || i >= len(s.Min) {
			break
		}
		out[i] = v[i]*s.Scale[i] + s.Min[i]
	}
	return out
}

// Tree is one decision tree in flat-array form. A node i with Feature[i] < 0
// is a leaf whose label is Value[i]; otherwise the walk continues left when
// v[Feature[i]] <= Threshold[i] and right otherwise.
type Tree struct {
	Feature   []int     `json:"feature"`
	Threshold []float64 `json:"threshold"`
	Left      []int     `json:"left"`
	Right     []int     `json:"right"`
	Value     []int     `json:"value"`
}

// Predict walks the tree to a leaf label.
func (t *Tree) Predict(v []float64) int {
	node := 0
	for {
		if node < 0 || node >= len(t.Feature) {
			return labelLegitimate
		}
		f := t.Feature[node]
		if f < 0 {
			return t.Value[node]
		}
		if f < len(v) && v[f] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
}

// Forest is the full ensemble plus its input scaler.
type Forest struct {
	Scaler Scaler `json:"scaler"`
	Trees  []Tree `json:"trees"`
}

// Predict returns the majority-vote label for a raw (unscaled) vector.
// Ties break toward phishing.
func (f *Forest) Predict(v []float64) int {
	scaled := f.Scaler.Transform(v)
	votes := 0
	for i := range f.Trees {
		votes += f.Trees[i].Predict(scaled)
	}
	if votes > 0 {
		return labelLegitimate
	}
	return labelPhishing
}

// Classifier scores scans, preferring the trained forest when available.
type Classifier struct {
	forest *Forest
}

// Load reads forest.json from dir. A missing or unreadable artifact is not
// an error; the classifier simply runs in heuristic mode.
func Load(dir string) *Classifier {
	c := &Classifier{}
	path := filepath.Join(dir, "forest.json")

	data, err := os.ReadFile(path)
	if err != nil {
		return c
	}

	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return c
	}
	if len(f.Trees) == 0 {
		return c
	}
	if err := validate(&f); err != nil {
		return c
	}
	c.forest = &f
	return c
}

// validate rejects artifacts whose node arrays disagree in length.
func validate(f *Forest) error {
	for i := range f.Trees {
		t := &f.Trees[i]
		n := len(t.Feature)
		if len(t.Threshold) != n || len(t.Left) != n || len(t.Right) != n || len(t.Value) != n {
			return fmt.Errorf("tree %d: inconsistent node arrays", i)
		}
	}
	return nil
}

// UsingForest reports whether trained artifacts were loaded.
func (c *Classifier) UsingForest() bool {
	return c.forest != nil
}

// Classify produces the final verdict for a scan. Two strong-signal
// overrides are applied on top of whatever the model says: a fully valid
// HTTPS site with zero markers is always legitimate, and a site with no
// HTTPS, no valid certificate, and two or more markers is always phishing.
func (c *Classifier) Classify(v []float64, d osint.Details) string {
	if d.HTTPS == 1 && d.SSLValid == 1 && d.SuspiciousKeywords == 0 {
		return VerdictLegitimate
	}
	if d.HTTPS == 0 && d.SSLValid == 0 && d.SuspiciousKeywords >= 2 {
		return VerdictPhishing
	}

	if c.forest != nil {
		if c.forest.Predict(v) == labelPhishing {
			return VerdictPhishing
		}
		return VerdictLegitimate
	}
	return heuristicVerdict(d)
}

// heuristicVerdict scores the raw signals when no model is loaded. Points
// accumulate for each risk signal; three or more means phishing.
func heuristicVerdict(d osint.Details) string {
	score := 0
	if d.HTTPS == 0 {
		score++
	}
	if d.SSLValid == 0 {
		score++
	}
	if d.SuspiciousKeywords >= 2 {
		score += 2
	} else if d.SuspiciousKeywords == 1 {
		score++
	}
	if d.DomainAgeDays > 0 && d.DomainAgeDays < 180 {
		score++
	}
	if d.Redirects > 2 {
		score++
	}
	if d.SubdomainCount > 2 {
		score++
	}
	if score >= 3 {
		return VerdictPhishing
	}
	return VerdictLegitimate
}
