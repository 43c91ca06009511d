// Local MLP inference. Weights are exported from the training pipeline as
// JSON; the forward pass here is a plain feed-forward network with ReLU
// hidden layers and an argmax over the 8 action logits.
package policy

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/talgya/whisker/internal/cat"
)

// modelFile is the on-disk weight format.
type modelFile struct {
	Version string  `json:"version"`
	Layers  []layer `json:"layers"`
}

type layer struct {
	// Weights[i][j] maps input j to output i.
	Weights [][]float64 `json:"w"`
	Biases  []float64   `json:"b"`
}

// MLP is a loaded policy network. Immutable after load; safe for concurrent
// Predict calls.
type MLP struct {
	version string
	layers  []layer
}

// LoadMLP reads and validates a weight file. The input width of the first
// layer must match the observation layout and the final layer must emit one
// logit per action.
func LoadMLP(path string) (*MLP, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}

	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("parse model %s: %w", path, err)
	}
	if len(mf.Layers) == 0 {
		return nil, fmt.Errorf("model %s: no layers", path)
	}

	width := ObsDim
	for i, l := range mf.Layers {
		if len(l.Weights) == 0 || len(l.Weights) != len(l.Biases) {
			return nil, fmt.Errorf("model %s: layer %d has %d weight rows but %d biases",
				path, i, len(l.Weights), len(l.Biases))
		}
		for j, row := range l.Weights {
			if len(row) != width {
				return nil, fmt.Errorf("model %s: layer %d row %d expects width %d, got %d",
					path, i, j, width, len(row))
			}
		}
		width = len(l.Weights)
	}
	if width != cat.NumActions {
		return nil, fmt.Errorf("model %s: final layer emits %d logits, want %d",
			path, width, cat.NumActions)
	}

	return &MLP{version: mf.Version, layers: mf.Layers}, nil
}

func (m *MLP) Name() string { return "mlp:" + m.version }

// Version returns the model's declared version string.
func (m *MLP) Version() string { return m.version }

// Predict runs the forward pass and returns the argmax action.
func (m *MLP) Predict(obs Observation) (cat.Action, error) {
	in := make([]float64, ObsDim)
	copy(in, obs[:])

	for li, l := range m.layers {
		out := make([]float64, len(l.Weights))
		for i, row := range l.Weights {
			sum := l.Biases[i]
			for j, w := range row {
				sum += w * in[j]
			}
			// ReLU on hidden layers, raw logits on the last.
			if li < len(m.layers)-1 && sum < 0 {
				sum = 0
			}
			out[i] = sum
		}
		in = out
	}

	best := 0
	for i := 1; i < len(in); i++ {
		if in[i] > in[best] {
			best = i
		}
	}
	return cat.Action(best), nil
}
