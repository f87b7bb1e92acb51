package window

import "testing"

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 100
	}
	return out
}

func TestOptions_Validate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"default", Options{MaxTokens: 512, Stride: 50}, false},
		{"no overlap", Options{MaxTokens: 4, Stride: 0}, false},
		{"single token windows", Options{MaxTokens: 1, Stride: 0}, false},
		{"zero max", Options{MaxTokens: 0, Stride: 0}, true},
		{"negative stride", Options{MaxTokens: 8, Stride: -1}, true},
		{"stride equals max", Options{MaxTokens: 8, Stride: 8}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.opts.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestSplit_ShortTextSingleWindow(t *testing.T) {
	tokens := seq(5)
	windows, err := Split(tokens, Options{MaxTokens: 512, Stride: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	if windows[0].Start != 0 || len(windows[0].Tokens) != 5 {
		t.Errorf("unexpected window: %+v", windows[0])
	}
}

func TestSplit_ExactFit(t *testing.T) {
	windows, err := Split(seq(8), Options{MaxTokens: 8, Stride: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != 1 {
		t.Fatalf("expected 1 window for exact fit, got %d", len(windows))
	}
}

func TestSplit_OverlapAndCoverage(t *testing.T) {
	tests := []struct {
		n, max, stride int
	}{
		{10, 4, 1},
		{1000, 512, 50},
		{974, 512, 50},
		{513, 512, 0},
		{7, 1, 0},
		{9, 3, 2},
	}
	for _, tc := range tests {
		tokens := seq(tc.n)
		opts := Options{MaxTokens: tc.max, Stride: tc.stride}
		windows, err := Split(tokens, opts)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", tc.n, err)
		}
		if len(windows) != Count(tc.n, opts) {
			t.Errorf("n=%d: got %d windows, Count says %d", tc.n, len(windows), Count(tc.n, opts))
		}
		if windows[0].Start != 0 {
			t.Errorf("n=%d: first window starts at %d", tc.n, windows[0].Start)
		}
		if last := windows[len(windows)-1]; last.End() != tc.n {
			t.Errorf("n=%d: last window ends at %d", tc.n, last.End())
		}
		for i, w := range windows {
			if len(w.Tokens) > tc.max {
				t.Errorf("n=%d: window %d has %d tokens > max %d", tc.n, i, len(w.Tokens), tc.max)
			}
			if i < len(windows)-1 && len(w.Tokens) != tc.max {
				t.Errorf("n=%d: non-final window %d is not full (%d)", tc.n, i, len(w.Tokens))
			}
			for j, tok := range w.Tokens {
				if tok != tokens[w.Start+j] {
					t.Fatalf("n=%d: window %d token %d mismatch", tc.n, i, j)
				}
			}
			if i > 0 {
				overlap := windows[i-1].End() - w.Start
				if overlap != tc.stride {
					t.Errorf("n=%d: windows %d/%d overlap %d, want %d", tc.n, i-1, i, overlap, tc.stride)
				}
			}
		}
	}
}

func TestSplit_Minimal(t *testing.T) {
	// 1000 tokens, 512 window, 50 stride: starts 0, 462, 924.
	windows, err := Split(seq(1000), Options{MaxTokens: 512, Stride: 50})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantStarts := []int{0, 462, 924}
	if len(windows) != len(wantStarts) {
		t.Fatalf("expected %d windows, got %d", len(wantStarts), len(windows))
	}
	for i, w := range windows {
		if w.Start != wantStarts[i] {
			t.Errorf("window %d starts at %d, want %d", i, w.Start, wantStarts[i])
		}
	}
	if len(windows[2].Tokens) != 76 {
		t.Errorf("expected short final window of 76 tokens, got %d", len(windows[2].Tokens))
	}
}

func TestSplit_Errors(t *testing.T) {
	if _, err := Split(nil, Options{MaxTokens: 4, Stride: 1}); err == nil {
		t.Error("expected error for empty tokens")
	}
	if _, err := Split(seq(3), Options{MaxTokens: 4, Stride: 4}); err == nil {
		t.Error("expected error for invalid stride")
	}
}

func TestSplit_WindowsAreCapped(t *testing.T) {
	tokens := seq(6)
	windows, err := Split(tokens, Options{MaxTokens: 4, Stride: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// appending to a window must not overwrite the next window's tokens
	_ = append(windows[0].Tokens, -1)
	if tokens[4] != 104 {
		t.Errorf("append through window leaked into source: %v", tokens)
	}
}
