package feature

import "math"

// constantTolerance treats a column as constant when its standard deviation
// is within rounding noise of its mean.
const constantTolerance = 10 * 2.220446049250313e-16

// Matrix is a dense row-major matrix; every row has the same width.
type Matrix [][]float64

// NewMatrix stacks records into a matrix in input order.
func NewMatrix(records []Record) Matrix {
	m := make(Matrix, len(records))
	for i, r := range records {
		row := r.Row()
		m[i] = row[:]
	}
	return m
}

// Rows returns the number of rows.
func (m Matrix) Rows() int { return len(m) }

// Cols returns the row width, 0 for an empty matrix.
func (m Matrix) Cols() int {
	if len(m) == 0 {
		return 0
	}
	return len(m[0])
}

// ColumnStats is the per-column mean and the divisor used to scale it.
type ColumnStats struct {
	Mean  []float64
	Scale []float64
}

// Fit computes the mean and population standard deviation of every column.
// A column whose deviation is zero, within rounding noise or not finite gets
// a scale of 1 so it is only centered.
func Fit(m Matrix) ColumnStats {
	cols := m.Cols()
	stats := ColumnStats{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}
	if m.Rows() == 0 {
		return stats
	}
	n := float64(m.Rows())

	for j := 0; j < cols; j++ {
		var sum float64
		for _, row := range m {
			sum += row[j]
		}
		mean := sum / n

		var sq float64
		for _, row := range m {
			d := row[j] - mean
			sq += d * d
		}
		std := math.Sqrt(sq / n)

		if std == 0 || math.IsNaN(std) || math.IsInf(std, 0) ||
			std <= constantTolerance*math.Max(1, math.Abs(mean)) {
			std = 1
		}
		stats.Mean[j] = mean
		stats.Scale[j] = std
	}
	return stats
}

// Transform returns (m - mean) / scale as a new matrix. m is not modified.
func (s ColumnStats) Transform(m Matrix) Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		r := make([]float64, len(row))
		for j, v := range row {
			r[j] = (v - s.Mean[j]) / s.Scale[j]
		}
		out[i] = r
	}
	return out
}

// Standardize rescales every column of m to zero mean and unit variance using
// statistics of m alone.
func Standardize(m Matrix) Matrix {
	return Fit(m).Transform(m)
}
