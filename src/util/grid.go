package util

import "github.com/pkg/errors"

// ShapesEqual returns true if both nested slices have the same number of rows
// and every pair of rows has the same length
func ShapesEqual[A, B any](a [][]A, b [][]B) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
	}
	return true
}

// CopyShape returns a nested slice shaped like l and filled with value
func CopyShape[A, B any](l [][]A, value B) [][]B {
	r := make([][]B, len(l))
	for i, row := range l {
		r[i] = make([]B, len(row))
		for j := range row {
			r[i][j] = value
		}
	}
	return r
}

// SliceNested returns a copy of the width x height rectangle of l that
// starts at column x of row y
func SliceNested[T any](l [][]T, x, y, width, height int) [][]T {
	r := make([][]T, 0, height)
	for _, row := range l[y : y+height] {
		r = append(r, append([]T(nil), row[x:x+width]...))
	}
	return r
}

// RotateList transposes a rectangular nested slice, so that r[j][i] == l[i][j]
func RotateList[T any](l [][]T) [][]T {
	if len(l) == 0 {
		return [][]T{}
	}
	r := make([][]T, len(l[0]))
	for j := range r {
		r[j] = make([]T, len(l))
		for i := range l {
			r[j][i] = l[i][j]
		}
	}
	return r
}

// RectanglesCollide reports whether two rectangles share at least one cell.
// Both ends of each rectangle are inclusive.
func RectanglesCollide(x1, y1, w1, h1, x2, y2, w2, h2 int) bool {
	if x1 <= x2+w2-1 && x2 <= x1+w1-1 {
		return y1 <= y2+h2-1 && y2 <= y1+h1-1
	}
	return false
}

// HasValues returns true if any element of l is not the zero value
func HasValues[T comparable](l [][]T) bool {
	var zero T
	for _, row := range l {
		for _, v := range row {
			if v != zero {
				return true
			}
		}
	}
	return false
}

// CopyNested returns a deep copy of l
func CopyNested[T any](l [][]T) [][]T {
	r := make([][]T, len(l))
	for i, row := range l {
		r[i] = append([]T(nil), row...)
	}
	return r
}

// Blit returns a copy of dst with src drawn over it at column x of row y
func Blit[T any](dst [][]T, src [][]T, x, y int) ([][]T, error) {
	if y < 0 || x < 0 || y+len(src) > len(dst) {
		return nil, errors.Errorf("cannot blit %d rows at %d,%d", len(src), x, y)
	}
	r := CopyNested(dst)
	for i, row := range src {
		if x+len(row) > len(r[y+i]) {
			return nil, errors.Errorf("row %d does not fit at %d,%d", i, x, y)
		}
		copy(r[y+i][x:], row)
	}
	return r, nil
}
