package tui

import (
	"testing"

	"github.com/gdamore/tcell"
	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
)

func TestNewImage(t *testing.T) {
	if _, err := NewImage(nil, nil); !errors.Is(err, ErrShape) {
		t.Error("empty image")
	}
	if _, err := NewImage([][]rune{[]rune("ab"), []rune("c")}, [][]string{{"", ""}, {""}}); !errors.Is(err, ErrShape) {
		t.Error("ragged image")
	}
	if _, err := NewImage([][]rune{[]rune("ab")}, [][]string{{""}}); !errors.Is(err, ErrShape) {
		t.Error("colors of a different shape")
	}
	img, err := ImageFromStrings([]string{"abc", "def"}, "red")
	if err != nil {
		t.Fatal(err)
	}
	if w, h := img.Size(); w != 3 || h != 2 {
		t.Errorf("size %dx%d", w, h)
	}
	if img.String() != "abc\ndef" {
		t.Errorf("got %q", img.String())
	}
}

func TestImageRegion(t *testing.T) {
	img, _ := ImageFromStrings([]string{"abcd", "efgh", "ijkl"}, "")
	region, err := img.Region(1, 1, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if region.String() != "fg\njk" {
		t.Errorf("got %q", region.String())
	}
	if _, err := img.Region(4, 0, 1, 1); !errors.Is(err, ErrShape) {
		t.Error("origin outside")
	}
	if _, err := img.Region(2, 2, 3, 1); !errors.Is(err, ErrShape) {
		t.Error("region too huge")
	}
}

func TestImageFlip(t *testing.T) {
	img := Image{
		Chars:  [][]rune{[]rune("ab"), []rune("cd")},
		Colors: [][]string{{"1", "2"}, {"3", "4"}}}
	x, _ := img.Flip("x")
	if diff := cmp.Diff([][]string{{"2", "1"}, {"4", "3"}}, x.Colors); diff != "" {
		t.Error(diff)
	}
	y, _ := img.Flip("vertical")
	if y.String() != "cd\nab" {
		t.Errorf("got %q", y.String())
	}
	if img.String() != "ab\ncd" {
		t.Error("Flip must return a copy")
	}
	if _, err := img.Flip("z"); err == nil {
		t.Error("unknown axis")
	}
}

func TestParseColor(t *testing.T) {
	for _, test := range []struct {
		name string
		want tcell.Color
	}{
		{"", tcell.ColorDefault},
		{"#ff8000", tcell.NewRGBColor(255, 128, 0)},
		{"#f00", tcell.NewRGBColor(255, 0, 0)},
		{"0xFF00FF00", tcell.NewRGBColor(0, 255, 0)},
		{"0x0000ff", tcell.NewRGBColor(0, 0, 255)},
	} {
		got, err := ParseColor(test.name)
		if err != nil {
			t.Errorf("ParseColor(%q): %v", test.name, err)
		} else if got.Hex() != test.want.Hex() {
			t.Errorf("ParseColor(%q) = %06x, want %06x", test.name, got.Hex(), test.want.Hex())
		}
	}
	if c, err := ParseColor("White"); err != nil || c == tcell.ColorDefault {
		t.Error("color names are case insensitive")
	}
	for _, bad := range []string{"nope", "0xZZ", "0x123"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) should fail", bad)
		}
	}
	if HexColor(255, 128, 0) != "#ff8000" {
		t.Error(HexColor(255, 128, 0))
	}
}

func TestCodeNames(t *testing.T) {
	if KeyA.String() != "TK_A" || InputClose.String() != "TK_CLOSE" || Code(1000).String() != "TK_1000" {
		t.Error("code names")
	}
	code, err := ParseCode("TK_KP_ENTER")
	if err != nil || code != KeyKPEnter {
		t.Errorf("got %v, %v", code, err)
	}
	if _, err := ParseCode("TK_NOPE"); err == nil {
		t.Error("unknown name")
	}
	if !MouseX2.IsMouseButton() || MouseMove.IsMouseButton() {
		t.Error("mouse buttons")
	}
}
