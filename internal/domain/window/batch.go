package window

// Batch is a uniformly shaped set of windows: every row of IDs and Mask has
// the same length. Mask is 1 for real tokens and 0 for padding.
type Batch struct {
	IDs  [][]int
	Mask [][]int
}

// Len returns the number of rows.
func (b Batch) Len() int { return len(b.IDs) }

// Width returns the padded row length.
func (b Batch) Width() int {
	if len(b.IDs) == 0 {
		return 0
	}
	return len(b.IDs[0])
}

// Tokens returns row i without padding.
func (b Batch) Tokens(i int) []int {
	n := 0
	for _, m := range b.Mask[i] {
		n += m
	}
	return b.IDs[i][:n]
}

// Pad right-pads windows with padID to the longest window length.
func Pad(windows []Window, padID int) Batch {
	width := 0
	for _, w := range windows {
		width = max(width, len(w.Tokens))
	}

	b := Batch{
		IDs:  make([][]int, len(windows)),
		Mask: make([][]int, len(windows)),
	}
	for i, w := range windows {
		ids := make([]int, width)
		mask := make([]int, width)
		copy(ids, w.Tokens)
		for j := range ids {
			if j < len(w.Tokens) {
				mask[j] = 1
			} else {
				ids[j] = padID
			}
		}
		b.IDs[i] = ids
		b.Mask[i] = mask
	}
	return b
}
