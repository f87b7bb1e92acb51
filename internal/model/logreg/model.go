// Package logreg is a logistic-regression scoring oracle loaded from a model file.
package logreg

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vecrank/internal/domain/feature"
)

// Output selects what Predict returns per row.
type Output string

const (
	// OutputLabel returns the predicted class label.
	OutputLabel Output = "label"
	// OutputProbability returns class probabilities.
	OutputProbability Output = "probability"
)

// File is the on-disk model layout. JSON is valid YAML, so both formats load.
//
//	output: label
//	classes: [0, 1]
//	coefficients:
//	  - [0.8, -0.2, 0.1, 0.3, 0.5, 0.2, -0.1, 0.4, 0.05, -0.02]
//	intercepts: [-0.3]
type File struct {
	Version      string      `yaml:"version"`
	Output       Output      `yaml:"output"`
	Classes      []float64   `yaml:"classes"`
	Coefficients [][]float64 `yaml:"coefficients"`
	Intercepts   []float64   `yaml:"intercepts"`
}

// Model scores standardized feature rows. It is immutable after Load.
type Model struct {
	output  Output
	classes []float64
	coef    [][]float64
	icpt    []float64
}

// Load reads and validates a model file.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}
	return New(f)
}

// New builds a model from a decoded file.
// A binary model has one coefficient row; a multi-class model has one row per class.
func New(f File) (*Model, error) {
	if f.Output == "" {
		f.Output = OutputLabel
	}
	if f.Output != OutputLabel && f.Output != OutputProbability {
		return nil, fmt.Errorf("unknown model output %q", f.Output)
	}
	if len(f.Coefficients) == 0 {
		return nil, errors.New("model has no coefficients")
	}
	width := len(f.Coefficients[0])
	if width == 0 {
		return nil, errors.New("model has empty coefficient rows")
	}
	for i, row := range f.Coefficients {
		if len(row) != width {
			return nil, fmt.Errorf("coefficient row %d has %d columns, expected %d", i, len(row), width)
		}
	}
	if len(f.Intercepts) == 0 {
		f.Intercepts = make([]float64, len(f.Coefficients))
	}
	if len(f.Intercepts) != len(f.Coefficients) {
		return nil, fmt.Errorf("%d intercepts for %d coefficient rows", len(f.Intercepts), len(f.Coefficients))
	}

	nClasses := len(f.Coefficients)
	if nClasses == 1 {
		nClasses = 2
	}
	if len(f.Classes) == 0 {
		f.Classes = make([]float64, nClasses)
		for i := range f.Classes {
			f.Classes[i] = float64(i)
		}
	}
	if len(f.Classes) != nClasses {
		return nil, fmt.Errorf("%d classes for %d coefficient rows", len(f.Classes), len(f.Coefficients))
	}

	return &Model{
		output:  f.Output,
		classes: f.Classes,
		coef:    f.Coefficients,
		icpt:    f.Intercepts,
	}, nil
}

// Width returns the number of input columns the model expects.
func (m *Model) Width() int { return len(m.coef[0]) }

// Predict scores every row. Label output yields one value per row;
// probability output yields P(positive) for binary models and one
// probability per class otherwise.
func (m *Model) Predict(_ context.Context, x feature.Matrix) ([]feature.Score, error) {
	out := make([]feature.Score, len(x))
	for i, row := range x {
		if len(row) != m.Width() {
			return nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), m.Width())
		}
		z := m.decision(row)
		if m.output == OutputLabel {
			out[i] = feature.Score{m.label(z)}
		} else {
			out[i] = m.probability(z)
		}
	}
	return out, nil
}

func (m *Model) decision(row []float64) []float64 {
	z := make([]float64, len(m.coef))
	for k, w := range m.coef {
		s := m.icpt[k]
		for j, v := range row {
			s += w[j] * v
		}
		z[k] = s
	}
	return z
}

func (m *Model) label(z []float64) float64 {
	if len(z) == 1 {
		if z[0] > 0 {
			return m.classes[1]
		}
		return m.classes[0]
	}
	best := 0
	for k := range z {
		if z[k] > z[best] {
			best = k
		}
	}
	return m.classes[best]
}

func (m *Model) probability(z []float64) feature.Score {
	if len(z) == 1 {
		return feature.Score{sigmoid(z[0])}
	}
	// softmax over classes, shifted by the max for stability
	maxZ := z[0]
	for _, v := range z[1:] {
		maxZ = math.Max(maxZ, v)
	}
	p := make(feature.Score, len(z))
	var sum float64
	for k, v := range z {
		p[k] = math.Exp(v - maxZ)
		sum += p[k]
	}
	for k := range p {
		p[k] /= sum
	}
	return p
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
