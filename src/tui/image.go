package tui

import (
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/util"
)

// ErrShape is returned when chars and colors don't line up
var ErrShape = errors.New("invalid image shape")

// Image is a rectangle of characters and their colors. Both grids are
// indexed [y][x]. An empty color string means the terminal default.
type Image struct {
	Chars  [][]rune
	Colors [][]string
}

// NewImage validates that both grids are rectangular, non-empty and of the
// same shape
func NewImage(chars [][]rune, colors [][]string) (Image, error) {
	if len(chars) == 0 || len(chars[0]) == 0 {
		return Image{}, errors.Wrap(ErrShape, "image is empty")
	}
	if !util.ShapesEqual(chars, colors) {
		return Image{}, errors.Wrap(ErrShape, "chars and colors have different shapes")
	}
	for y, row := range chars {
		if len(row) != len(chars[0]) {
			return Image{}, errors.Wrapf(ErrShape, "row %d is %d chars wide, expected %d", y, len(row), len(chars[0]))
		}
	}
	return Image{Chars: chars, Colors: colors}, nil
}

// BlankImage returns a width x height image filled with a single char
func BlankImage(width, height int, char rune, color string) Image {
	chars := make([][]rune, height)
	colors := make([][]string, height)
	for y := range chars {
		chars[y] = make([]rune, width)
		colors[y] = make([]string, width)
		for x := range chars[y] {
			chars[y][x] = char
			colors[y][x] = color
		}
	}
	return Image{Chars: chars, Colors: colors}
}

// ImageFromStrings builds an image from rows of text in a single color
func ImageFromStrings(rows []string, color string) (Image, error) {
	chars := make([][]rune, len(rows))
	for y, row := range rows {
		chars[y] = []rune(row)
	}
	return NewImage(chars, util.CopyShape(chars, color))
}

// Width returns the number of columns
func (i Image) Width() int {
	if len(i.Chars) == 0 {
		return 0
	}
	return len(i.Chars[0])
}

// Height returns the number of rows
func (i Image) Height() int {
	return len(i.Chars)
}

// Size returns width and height
func (i Image) Size() (int, int) {
	return i.Width(), i.Height()
}

// Empty returns true for a zero-sized image
func (i Image) Empty() bool {
	return i.Width() == 0
}

// Copy returns a deep copy of the image
func (i Image) Copy() Image {
	return Image{Chars: util.CopyNested(i.Chars), Colors: util.CopyNested(i.Colors)}
}

// Region returns a copy of the width x height rectangle at x, y
func (i Image) Region(x, y, width, height int) (Image, error) {
	if x < 0 || y < 0 || x >= i.Width() || y >= i.Height() {
		return Image{}, errors.Wrapf(ErrShape, "region origin %d,%d is outside the %dx%d image", x, y, i.Width(), i.Height())
	}
	if width <= 0 || height <= 0 || x+width > i.Width() || y+height > i.Height() {
		return Image{}, errors.Wrapf(ErrShape, "%dx%d region at %d,%d is too huge for the %dx%d image", width, height, x, y, i.Width(), i.Height())
	}
	return Image{
		Chars:  util.SliceNested(i.Chars, x, y, width, height),
		Colors: util.SliceNested(i.Colors, x, y, width, height)}, nil
}

// Flip returns a mirrored copy. Axis "x" (or "horizontal") reverses every
// row, "y" (or "vertical") reverses the row order. Chars themselves are not
// mirrored.
func (i Image) Flip(axis string) (Image, error) {
	r := i.Copy()
	switch axis {
	case "x", "horizontal":
		for y := range r.Chars {
			reverse(r.Chars[y])
			reverse(r.Colors[y])
		}
	case "y", "vertical":
		reverse(r.Chars)
		reverse(r.Colors)
	default:
		return Image{}, errors.Errorf("unknown flip axis: %s", axis)
	}
	return r, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// String returns the chars joined by newlines
func (i Image) String() string {
	var s []rune
	for y, row := range i.Chars {
		if y > 0 {
			s = append(s, '\n')
		}
		s = append(s, row...)
	}
	return string(s)
}
