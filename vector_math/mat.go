package vector_math

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Mat is a dense row-major matrix. Points are column vectors, so m.Mult(&b)
// applies b first.
type Mat [][]float64

func NewMat(r uint, c uint) (Mat, error) {
	if r == 0 || c == 0 {
		return nil, errors.New("cannot construct 0-sized matrix")
	}
	m := make([][]float64, r)
	for i := range m {
		m[i] = make([]float64, c)
	}
	return m, nil
}

func (m *Mat) Mult(b *Mat) (Mat, error) {
	rowsA, colsA := m.Size()
	rowsB, colsB := b.Size()
	if colsA != rowsB {
		return nil, fmt.Errorf(
			"can't multiply %dx%d matrix with %dx%d matrix, size of columns and rows do not match",
			rowsA, colsA, rowsB, colsB,
		)
	}
	C, _ := NewMat(uint(rowsA), uint(colsB))
	for i := 0; i < rowsA; i++ {
		for j := 0; j < colsB; j++ {
			for k := 0; k < colsA; k++ {
				C[i][j] += (*m)[i][k] * (*b)[k][j]
			}
		}
	}
	return C, nil
}

func (m *Mat) Transpose() Mat {
	mT, _ := NewMat(uint(m.ColCnt()), uint(m.RowCnt()))
	for i := range *m {
		for j := range (*m)[i] {
			mT[j][i] = (*m)[i][j]
		}
	}
	return mT
}

// Approx reports whether both matrices have the same size and every entry
// differs by no more than eps.
func (m *Mat) Approx(b *Mat, eps float64) bool {
	rowsA, colsA := m.Size()
	rowsB, colsB := b.Size()
	if rowsA != rowsB || colsA != colsB {
		return false
	}
	for i := 0; i < rowsA; i++ {
		for j := 0; j < colsA; j++ {
			if math.Abs((*m)[i][j]-(*b)[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

// Rotate, Translate and Scale append a transform that acts before m.

func (m *Mat) Rotate(rad float64, axis Vec3) (Mat, error) {
	rm := NewRotation(rad, axis)
	return m.Mult(&rm)
}

func (m *Mat) Translate(move Vec3) (Mat, error) {
	tm := NewTranslation(move)
	return m.Mult(&tm)
}

func (m *Mat) Scale(factors Vec3) (Mat, error) {
	sm := NewScale(factors)
	return m.Mult(&sm)
}

func (m *Mat) RowCnt() int {
	return len(*m)
}

func (m *Mat) ColCnt() int {
	if len(*m) == 0 {
		return 0
	}
	return len((*m)[0])
}

func (m *Mat) Size() (int, int) {
	return m.RowCnt(), m.ColCnt()
}

// String prints one row per line.
func (m Mat) String() string {
	var b strings.Builder
	for i, row := range m {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%v", row)
	}
	return b.String()
}
