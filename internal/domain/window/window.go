// Package window splits token sequences into overlapping fixed-context windows
// and pads them into the uniform batches an encoder consumes.
package window

import "fmt"

// Options controls how a token sequence is partitioned.
type Options struct {
	MaxTokens int // window length bound, >= 1
	Stride    int // overlap between consecutive windows, 0 <= Stride < MaxTokens
}

// Validate checks the partition bounds.
func (o Options) Validate() error {
	if o.MaxTokens < 1 {
		return fmt.Errorf("max window tokens must be >= 1, got %d", o.MaxTokens)
	}
	if o.Stride < 0 || o.Stride >= o.MaxTokens {
		return fmt.Errorf("stride must be in [0, %d), got %d", o.MaxTokens, o.Stride)
	}
	return nil
}

// Window is a contiguous slice of a document's tokens.
type Window struct {
	Start  int   // offset of the first token in the document
	Tokens []int // len(Tokens) <= Options.MaxTokens
}

// End returns the document offset one past the last token.
func (w Window) End() int { return w.Start + len(w.Tokens) }

// Count returns how many windows Split produces for n tokens.
func Count(n int, opts Options) int {
	if n <= opts.MaxTokens {
		return 1
	}
	step := opts.MaxTokens - opts.Stride
	return 1 + (n-opts.MaxTokens+step-1)/step
}

// Split partitions tokens into the minimal number of windows of at most
// MaxTokens tokens where each window overlaps its predecessor by exactly
// Stride tokens. Every window except the last is full. A sequence that fits
// in one window yields exactly one window. Windows share the backing array of
// tokens and must be treated as read-only.
func Split(tokens []int, opts Options) ([]Window, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("no tokens to split")
	}

	step := opts.MaxTokens - opts.Stride
	out := make([]Window, 0, Count(len(tokens), opts))
	for start := 0; ; start += step {
		end := min(start+opts.MaxTokens, len(tokens))
		out = append(out, Window{Start: start, Tokens: tokens[start:end:end]})
		if end == len(tokens) {
			break
		}
	}
	return out, nil
}
