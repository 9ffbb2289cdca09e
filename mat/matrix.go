// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mat implements the fixed-size, dense double-precision matrix
// kernel that underlies the solver: a flat row-major []float64 buffer
// with shape-checked arithmetic, the handful of vector operations
// (dot, cross, magnitude, normalize) the constraint residuals need, and
// a 3x3 inverse/determinant pair used nowhere yet but kept for parity
// with the original kernel's contract.
package mat

import (
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cpmech/gosl/rnd"
	"github.com/cpmech/psketch/errs"
)

// Matrix is a mutable dense matrix of float64. The zero value is not
// usable; construct with New or NewFill.
type Matrix struct {
	rows, cols int
	data       []float64

	// ChunkSize controls the tile size used by the concurrent Mul path
	// (§5). A value of zero (the default) means "always serial".
	ChunkSize int
}

// New allocates a rows x cols matrix filled with zero.
func New(rows, cols int) *Matrix {
	return NewFill(rows, cols, 0)
}

// NewFill allocates a rows x cols matrix with every element set to v.
func NewFill(rows, cols int, v float64) *Matrix {
	if rows <= 0 || cols <= 0 {
		errs.Panic("mat.NewFill: rows and cols must be positive, got %d x %d", rows, cols)
	}
	m := &Matrix{rows: rows, cols: cols, data: make([]float64, rows*cols)}
	if v != 0 {
		for i := range m.data {
			m.data[i] = v
		}
	}
	return m
}

// NewVector allocates a column vector from the given values.
func NewVector(values ...float64) *Matrix {
	m := New(len(values), 1)
	copy(m.data, values)
	return m
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// IsVector reports whether m is a row or column vector.
func (m *Matrix) IsVector() bool { return m.rows == 1 || m.cols == 1 }

// IsRowVector reports whether m has exactly one row.
func (m *Matrix) IsRowVector() bool { return m.rows == 1 }

func (m *Matrix) index(row, col int) (int, error) {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return 0, errs.New(errs.OutOfBounds, "mat: index (%d,%d) out of bounds for %dx%d matrix", row, col, m.rows, m.cols)
	}
	return row*m.cols + col, nil
}

// Get returns the element at (row, col).
func (m *Matrix) Get(row, col int) float64 {
	i, err := m.index(row, col)
	if err != nil {
		errs.Panic("%v", err)
	}
	return m.data[i]
}

// Set writes v into element (row, col).
func (m *Matrix) Set(row, col int, v float64) {
	i, err := m.index(row, col)
	if err != nil {
		errs.Panic("%v", err)
	}
	m.data[i] = v
}

// Clone returns an independent copy of m.
func (m *Matrix) Clone() *Matrix {
	c := &Matrix{rows: m.rows, cols: m.cols, data: make([]float64, len(m.data)), ChunkSize: m.ChunkSize}
	copy(c.data, m.data)
	return c
}

func sameShape(a, b *Matrix) error {
	if a.rows != b.rows || a.cols != b.cols {
		return errs.New(errs.ShapeMismatch, "mat: shape mismatch %dx%d vs %dx%d", a.rows, a.cols, b.rows, b.cols)
	}
	return nil
}

// AddInPlace adds rhs into m element-wise.
func (m *Matrix) AddInPlace(rhs *Matrix) error {
	if err := sameShape(m, rhs); err != nil {
		return err
	}
	for i := range m.data {
		m.data[i] += rhs.data[i]
	}
	return nil
}

// Add returns m + rhs as a new matrix.
func (m *Matrix) Add(rhs *Matrix) (*Matrix, error) {
	c := m.Clone()
	if err := c.AddInPlace(rhs); err != nil {
		return nil, err
	}
	return c, nil
}

// SubInPlace subtracts rhs from m element-wise.
func (m *Matrix) SubInPlace(rhs *Matrix) error {
	if err := sameShape(m, rhs); err != nil {
		return err
	}
	for i := range m.data {
		m.data[i] -= rhs.data[i]
	}
	return nil
}

// Sub returns m - rhs as a new matrix.
func (m *Matrix) Sub(rhs *Matrix) (*Matrix, error) {
	c := m.Clone()
	if err := c.SubInPlace(rhs); err != nil {
		return nil, err
	}
	return c, nil
}

// ScaleInPlace multiplies every element of m by s.
func (m *Matrix) ScaleInPlace(s float64) {
	for i := range m.data {
		m.data[i] *= s
	}
}

// Scale returns a new matrix equal to m scaled by s.
func (m *Matrix) Scale(s float64) *Matrix {
	c := m.Clone()
	c.ScaleInPlace(s)
	return c
}

// SetIdentity overwrites m with the identity matrix. m must be square.
func (m *Matrix) SetIdentity() error {
	if m.rows != m.cols {
		return errs.New(errs.NotSquare, "mat: SetIdentity requires a square matrix, got %dx%d", m.rows, m.cols)
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			v := 0.0
			if i == j {
				v = 1.0
			}
			m.data[i*m.cols+j] = v
		}
	}
	return nil
}

// SetZero overwrites every element of m with zero.
func (m *Matrix) SetZero() {
	for i := range m.data {
		m.data[i] = 0
	}
}

// SetRandom fills m with values drawn uniformly from [lo, hi], using the
// same source of randomness as the Monte-Carlo seeder (rnd.Float64).
func (m *Matrix) SetRandom(lo, hi float64) {
	for i := range m.data {
		m.data[i] = lo + rnd.Float64(0, 1)*(hi-lo)
	}
}

// Identity returns a new n x n identity matrix.
func Identity(n int) *Matrix {
	m := New(n, n)
	m.SetIdentity()
	return m
}

// Transpose returns the transpose of m.
func (m *Matrix) Transpose() *Matrix {
	t := New(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			t.data[j*t.cols+i] = m.data[i*m.cols+j]
		}
	}
	return t
}

// Mul returns the matrix product m * rhs. When ChunkSize is positive and
// the output has more cells than one chunk, the product is computed
// concurrently over output tiles guarded by a shared atomic counter (§5);
// the result is bit-for-bit identical to the serial definition either way.
func (m *Matrix) Mul(rhs *Matrix) (*Matrix, error) {
	if m.cols != rhs.rows {
		return nil, errs.New(errs.ShapeMismatch, "mat: cannot multiply %dx%d by %dx%d", m.rows, m.cols, rhs.rows, rhs.cols)
	}
	out := New(m.rows, rhs.cols)
	total := out.rows * out.cols
	if m.ChunkSize <= 0 || total <= m.ChunkSize {
		mulSerial(m, rhs, out, 0, total)
		return out, nil
	}
	var next atomic.Int64
	var wg sync.WaitGroup
	numWorkers := (total + m.ChunkSize - 1) / m.ChunkSize
	wg.Add(numWorkers)
	for w := 0; w < numWorkers; w++ {
		go func() {
			defer wg.Done()
			for {
				start := int(next.Add(int64(m.ChunkSize))) - m.ChunkSize
				if start >= total {
					return
				}
				end := start + m.ChunkSize
				if end > total {
					end = total
				}
				mulSerial(m, rhs, out, start, end)
			}
		}()
	}
	wg.Wait()
	return out, nil
}

// mulSerial fills out.data[cellStart:cellEnd) (flat row-major indices
// into the output matrix) with the corresponding products of lhs * rhs.
func mulSerial(lhs, rhs, out *Matrix, cellStart, cellEnd int) {
	for cell := cellStart; cell < cellEnd; cell++ {
		i, j := cell/out.cols, cell%out.cols
		var sum float64
		for k := 0; k < lhs.cols; k++ {
			sum += lhs.data[i*lhs.cols+k] * rhs.data[k*rhs.cols+j]
		}
		out.data[cell] = sum
	}
}

// MulScalar returns m with every element multiplied by s (an alias of Scale
// kept for parity with the kernel's "matrix * scalar" operation).
func (m *Matrix) MulScalar(s float64) *Matrix { return m.Scale(s) }

// ElementWiseMul returns the Hadamard product of m and rhs.
func (m *Matrix) ElementWiseMul(rhs *Matrix) (*Matrix, error) {
	if err := sameShape(m, rhs); err != nil {
		return nil, err
	}
	out := m.Clone()
	for i := range out.data {
		out.data[i] *= rhs.data[i]
	}
	return out, nil
}

// Dot computes the dot product of two vectors (row or column, either
// orientation, as long as both have the same number of elements).
func (m *Matrix) Dot(rhs *Matrix) (float64, error) {
	if !m.IsVector() || !rhs.IsVector() {
		return 0, errs.New(errs.NotAVector, "mat: Dot requires vector operands")
	}
	n := m.rows * m.cols
	if n != rhs.rows*rhs.cols {
		return 0, errs.New(errs.ShapeMismatch, "mat: Dot length mismatch %d vs %d", n, rhs.rows*rhs.cols)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += m.data[i] * rhs.data[i]
	}
	return sum, nil
}

// Cross computes the 3-vector cross product of m and rhs. Both must have
// exactly three elements (row or column).
func (m *Matrix) Cross(rhs *Matrix) (*Matrix, error) {
	if !m.IsVector() || !rhs.IsVector() || m.rows*m.cols != 3 || rhs.rows*rhs.cols != 3 {
		return nil, errs.New(errs.NotAVector, "mat: Cross requires two 3-element vectors")
	}
	a, b := m.data, rhs.data
	out := []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
	if m.IsRowVector() {
		r := New(1, 3)
		copy(r.data, out)
		return r, nil
	}
	return NewVector(out...), nil
}

// Magnitude returns the Euclidean norm of a vector.
func (m *Matrix) Magnitude() (float64, error) {
	sumSq, err := m.Dot(m)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(sumSq), nil
}

// Normalize returns a unit-length copy of m.
func (m *Matrix) Normalize() (*Matrix, error) {
	mag, err := m.Magnitude()
	if err != nil {
		return nil, err
	}
	if mag == 0 {
		return nil, errs.New(errs.DivideByZero, "mat: cannot normalize a zero-length vector")
	}
	return m.Scale(1.0 / mag), nil
}

// CombineAsRow stacks rhs to the right of m; both must have the same
// number of rows.
func (m *Matrix) CombineAsRow(rhs *Matrix) (*Matrix, error) {
	if m.rows != rhs.rows {
		return nil, errs.New(errs.ShapeMismatch, "mat: CombineAsRow requires equal row counts, got %d and %d", m.rows, rhs.rows)
	}
	out := New(m.rows, m.cols+rhs.cols)
	for i := 0; i < m.rows; i++ {
		copy(out.data[i*out.cols:i*out.cols+m.cols], m.data[i*m.cols:(i+1)*m.cols])
		copy(out.data[i*out.cols+m.cols:(i+1)*out.cols], rhs.data[i*rhs.cols:(i+1)*rhs.cols])
	}
	return out, nil
}

// CombineAsColumn stacks rhs below m; both must have the same number of
// columns.
func (m *Matrix) CombineAsColumn(rhs *Matrix) (*Matrix, error) {
	if m.cols != rhs.cols {
		return nil, errs.New(errs.ShapeMismatch, "mat: CombineAsColumn requires equal column counts, got %d and %d", m.cols, rhs.cols)
	}
	out := New(m.rows+rhs.rows, m.cols)
	copy(out.data[:len(m.data)], m.data)
	copy(out.data[len(m.data):], rhs.data)
	return out, nil
}

// Submatrix extracts the inclusive block [startRow,endRow] x [startCol,endCol].
func (m *Matrix) Submatrix(startRow, startCol, endRow, endCol int) (*Matrix, error) {
	if startRow < 0 || startCol < 0 || endRow >= m.rows || endCol >= m.cols || startRow > endRow || startCol > endCol {
		return nil, errs.New(errs.OutOfBounds, "mat: Submatrix bounds (%d,%d)-(%d,%d) invalid for %dx%d", startRow, startCol, endRow, endCol, m.rows, m.cols)
	}
	out := New(endRow-startRow+1, endCol-startCol+1)
	for i := 0; i < out.rows; i++ {
		for j := 0; j < out.cols; j++ {
			out.data[i*out.cols+j] = m.data[(startRow+i)*m.cols+(startCol+j)]
		}
	}
	return out, nil
}

// SetSubmatrix writes sub into m starting at (startRow, startCol).
func (m *Matrix) SetSubmatrix(startRow, startCol int, sub *Matrix) error {
	if startRow < 0 || startCol < 0 || startRow+sub.rows > m.rows || startCol+sub.cols > m.cols {
		return errs.New(errs.OutOfBounds, "mat: SetSubmatrix placement out of bounds")
	}
	for i := 0; i < sub.rows; i++ {
		for j := 0; j < sub.cols; j++ {
			m.data[(startRow+i)*m.cols+(startCol+j)] = sub.data[i*sub.cols+j]
		}
	}
	return nil
}

// Determinant3x3 returns the determinant of a 3x3 matrix.
func (m *Matrix) Determinant3x3() (float64, error) {
	if m.rows != 3 || m.cols != 3 {
		return 0, errs.New(errs.Not3x3, "mat: Determinant3x3 requires a 3x3 matrix, got %dx%d", m.rows, m.cols)
	}
	a, b, c := m.Get(0, 0), m.Get(0, 1), m.Get(0, 2)
	d, e, f := m.Get(1, 0), m.Get(1, 1), m.Get(1, 2)
	g, h, i := m.Get(2, 0), m.Get(2, 1), m.Get(2, 2)
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g), nil
}

// Inverse3x3 returns the inverse of a 3x3 matrix, or a Singular error.
func (m *Matrix) Inverse3x3() (*Matrix, error) {
	det, err := m.Determinant3x3()
	if err != nil {
		return nil, err
	}
	if det == 0 {
		return nil, errs.New(errs.Singular, "mat: matrix is singular, cannot invert")
	}
	a, b, c := m.Get(0, 0), m.Get(0, 1), m.Get(0, 2)
	d, e, f := m.Get(1, 0), m.Get(1, 1), m.Get(1, 2)
	g, h, i := m.Get(2, 0), m.Get(2, 1), m.Get(2, 2)
	inv := New(3, 3)
	cof := [9]float64{
		e*i - f*h, c*h - b*i, b*f - c*e,
		f*g - d*i, a*i - c*g, c*d - a*f,
		d*h - e*g, b*g - a*h, a*e - b*d,
	}
	invDet := 1.0 / det
	for r := 0; r < 3; r++ {
		for col := 0; col < 3; col++ {
			inv.data[r*3+col] = cof[r*3+col] * invDet
		}
	}
	return inv, nil
}

// String renders m in the kernel's text form: a "rows cols" header line
// followed by row-major values at round-trip precision.
func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString(strconv.Itoa(m.rows))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(m.cols))
	sb.WriteByte('\n')
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.FormatFloat(m.data[i*m.cols+j], 'g', 17, 64))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Parse reads a matrix back from the text form produced by String.
func Parse(text string) (*Matrix, error) {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	if len(lines) == 0 {
		return nil, errs.New(errs.EmptyMatrix, "mat.Parse: empty input")
	}
	header := strings.Fields(lines[0])
	if len(header) != 2 {
		return nil, errs.New(errs.ShapeMismatch, "mat.Parse: malformed header %q", lines[0])
	}
	rows, err1 := strconv.Atoi(header[0])
	cols, err2 := strconv.Atoi(header[1])
	if err1 != nil || err2 != nil || rows <= 0 || cols <= 0 {
		return nil, errs.New(errs.ShapeMismatch, "mat.Parse: malformed header %q", lines[0])
	}
	m := New(rows, cols)
	if len(lines)-1 != rows {
		return nil, errs.New(errs.ShapeMismatch, "mat.Parse: expected %d data rows, got %d", rows, len(lines)-1)
	}
	for i := 0; i < rows; i++ {
		fields := strings.Fields(lines[i+1])
		if len(fields) != cols {
			return nil, errs.New(errs.ShapeMismatch, "mat.Parse: row %d has %d values, want %d", i, len(fields), cols)
		}
		for j, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, errs.New(errs.ShapeMismatch, "mat.Parse: row %d col %d: %v", i, j, err)
			}
			m.data[i*cols+j] = v
		}
	}
	return m, nil
}

// Equal reports whether m and rhs have the same shape and bitwise-equal
// elements.
func (m *Matrix) Equal(rhs *Matrix) bool {
	if m.rows != rhs.rows || m.cols != rhs.cols {
		return false
	}
	for i := range m.data {
		if m.data[i] != rhs.data[i] {
			return false
		}
	}
	return true
}
