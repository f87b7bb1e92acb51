package encoder

import (
	"context"
	"strings"

	"github.com/kailas-cloud/vecrank/internal/domain"
	"github.com/kailas-cloud/vecrank/internal/domain/window"
)

// wordTokenizer maps every whitespace-separated word to its length.
type wordTokenizer struct {
	err error
}

func (w *wordTokenizer) Tokenize(text string) ([]int, error) {
	if w.err != nil {
		return nil, w.err
	}
	words := strings.Fields(text)
	out := make([]int, len(words))
	for i, word := range words {
		out[i] = len(word)
	}
	return out, nil
}

// fakeEmbedder returns deterministic per-position outputs derived from the batch.
// Position 0 encodes the window's real tokens; position 1 is a decoy.
type fakeEmbedder struct {
	dims      int
	positions int
	err       error
	dropOne   bool
	// mutate, when set, rewrites each window output before it is returned.
	mutate  func(domain.WindowOutput)
	calls   int
	batches []window.Batch
}

func (f *fakeEmbedder) EmbedWindows(_ context.Context, batch window.Batch) (domain.EmbeddingResult, error) {
	f.calls++
	f.batches = append(f.batches, batch)
	if f.err != nil {
		return domain.EmbeddingResult{}, f.err
	}
	positions := f.positions
	if positions == 0 {
		positions = 2
	}

	outputs := make([]domain.WindowOutput, batch.Len())
	for i := range batch.IDs {
		tokens := batch.Tokens(i)
		out := make(domain.WindowOutput, positions)
		for p := range out {
			vec := make([]float32, f.dims)
			for d := range vec {
				if p == 0 {
					vec[d] = float32(sum(tokens) + d)
				} else {
					vec[d] = -1
				}
			}
			out[p] = vec
		}
		if f.mutate != nil {
			f.mutate(out)
		}
		outputs[i] = out
	}
	if f.dropOne && len(outputs) > 0 {
		outputs = outputs[:len(outputs)-1]
	}
	return domain.EmbeddingResult{Outputs: outputs, TotalTokens: batch.Len()}, nil
}

func sum(xs []int) int {
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

func testConfig(maxTokens, stride, dims int) domain.EncoderConfig {
	return domain.EncoderConfig{
		MaxWindowTokens: maxTokens,
		Stride:          stride,
		Dimensions:      dims,
	}
}

// statelessEmbedder is safe for concurrent use.
type statelessEmbedder struct {
	dims int
}

func (s *statelessEmbedder) EmbedWindows(_ context.Context, batch window.Batch) (domain.EmbeddingResult, error) {
	outputs := make([]domain.WindowOutput, batch.Len())
	for i := range batch.IDs {
		vec := make([]float32, s.dims)
		for d := range vec {
			vec[d] = float32(sum(batch.Tokens(i)) * (d + 1))
		}
		outputs[i] = domain.WindowOutput{vec}
	}
	return domain.EmbeddingResult{Outputs: outputs}, nil
}
