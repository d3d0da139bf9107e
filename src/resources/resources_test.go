package resources

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/util"
	"go.uber.org/goleak"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func image(t *testing.T, color string, rows ...string) tui.Image {
	t.Helper()
	img, err := tui.ImageFromStrings(rows, color)
	if err != nil {
		t.Fatal(err)
	}
	return img
}

func lines(img tui.Image) []string {
	var r []string
	for _, row := range img.Chars {
		r = append(r, string(row))
	}
	return r
}

func TestTxtLoader(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "cat.txt", "/\\_/\\\n(o.o)\n > < \n")

	if _, err := NewTxtLoader(filepath.Join(dir, "dog.txt"), "white"); !errors.Is(err, ErrResource) {
		t.Errorf("nonexistent file accepted: %v", err)
	}
	l, err := NewTxtLoader(path, "yellow")
	if err != nil {
		t.Fatal(err)
	}
	img, err := l.Image()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"/\\_/\\", "(o.o)", " > < "}, lines(img)); diff != "" {
		t.Error(diff)
	}
	if img.Colors[2][4] != "yellow" {
		t.Errorf("wrong color: %s", img.Colors[2][4])
	}
	r, err := l.ImageRegion(1, 1, 3, 1)
	if err != nil || lines(r)[0] != "o.o" {
		t.Errorf("wrong region: %v %v", lines(r), err)
	}
	if _, err := l.ImageRegion(3, 0, 3, 1); !errors.Is(err, ErrResource) {
		t.Errorf("region outside the image: %v", err)
	}

	// Cached until reset
	writeFile(t, dir, "cat.txt", "=^.^=\n")
	if img, _ := l.Image(); img.Height() != 3 {
		t.Error("file read twice")
	}
	l.Reset()
	if img, _ := l.Image(); lines(img)[0] != "=^.^=" {
		t.Error("file not reread after reset")
	}

	bad, _ := NewTxtLoader(writeFile(t, dir, "bad.txt", "ab\nabc\n"), "white")
	if _, err := bad.Image(); !errors.Is(err, ErrResource) {
		t.Errorf("uneven lines accepted: %v", err)
	}
}

func TestXpRoundTrip(t *testing.T) {
	layer := image(t, "#ff0000", "☺@", "⌂ ")
	layer.Colors[1][0] = "blue"
	layer.Colors[1][1] = ""
	var buf bytes.Buffer
	if err := EncodeXp(&buf, -1, []tui.Image{layer}); err != nil {
		t.Fatal(err)
	}
	xp, err := DecodeXp(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if xp.Version != -1 || len(xp.Layers) != 1 {
		t.Fatalf("wrong header: %d, %d layers", xp.Version, len(xp.Layers))
	}
	if diff := cmp.Diff([]string{"☺@", "⌂ "}, lines(xp.Layers[0])); diff != "" {
		t.Error(diff)
	}
	if diff := cmp.Diff([][]string{{"#ff0000", "#ff0000"}, {"#0000ff", "#ffffff"}}, xp.Layers[0].Colors); diff != "" {
		t.Error(diff)
	}

	if err := EncodeXp(&buf, 1, []tui.Image{image(t, "", "日")}); !errors.Is(err, ErrResource) {
		t.Errorf("non-CP437 char encoded: %v", err)
	}
	if _, err := DecodeXp(bytes.NewReader([]byte("not gzip"))); !errors.Is(err, ErrResource) {
		t.Errorf("garbage decoded: %v", err)
	}
}

func xpHeader(t *testing.T, values ...int32) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if err := binary.Write(gz, binary.LittleEndian, values); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf
}

func TestXpLayerSize(t *testing.T) {
	for _, size := range [][2]int32{{200000, 200000}, {1, maxXpSide + 1}, {0, 5}} {
		if _, err := DecodeXp(xpHeader(t, -1, 1, size[0], size[1])); !errors.Is(err, ErrResource) {
			t.Errorf("%dx%d layer accepted: %v", size[0], size[1], err)
		}
	}
	// Largest layer, but no cells
	if _, err := DecodeXp(xpHeader(t, -1, 1, maxXpSide, maxXpSide)); !errors.Is(err, ErrResource) {
		t.Errorf("truncated layer accepted: %v", err)
	}
}

func TestXpGlyphs(t *testing.T) {
	for code, want := range map[uint32]rune{0: ' ', 0x01: '☺', 0x1f: '▼', 0x41: 'A', 0x7f: '⌂', 0xb0: '░', 0xdb: '█'} {
		if r, err := xpGlyph(code); err != nil || r != want {
			t.Errorf("keycode %#x: got %q, want %q (%v)", code, r, want, err)
		}
	}
	if _, err := xpGlyph(0x100); !errors.Is(err, ErrResource) {
		t.Error("keycodes above 255 should fail")
	}
}

func TestXpLoader(t *testing.T) {
	dir := t.TempDir()
	bottom := image(t, "white", "abc", "def")
	top := image(t, "red", " X ", "   ")
	var buf bytes.Buffer
	if err := EncodeXp(&buf, -1, []tui.Image{bottom, top}); err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, dir, "pic.xp", buf.String())

	l, err := NewXpLoader(path, "gray")
	if err != nil {
		t.Fatal(err)
	}
	img, err := l.Image()
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"aXc", "def"}, lines(img)); diff != "" {
		t.Error(diff)
	}
	if img.Colors[0][1] != "#ff0000" || img.Colors[0][0] != "#ffffff" {
		t.Errorf("wrong colors: %v", img.Colors[0])
	}
	if n, _ := l.LayerCount(); n != 2 {
		t.Errorf("expected 2 layers, got %d", n)
	}
	if v, _ := l.Version(); v != -1 {
		t.Errorf("wrong version %d", v)
	}
	layer, err := l.LayerRegion(1, 1, 0, 2, 1)
	if err != nil || lines(layer)[0] != "X " {
		t.Errorf("wrong layer region: %v %v", lines(layer), err)
	}
	if _, err := l.Layer(2); !errors.Is(err, ErrResource) {
		t.Error("nonexistent layer returned")
	}

	loader, err := NewLoader(path, "white")
	if _, ok := loader.(*XpLoader); err != nil || !ok {
		t.Errorf("wrong loader for .xp: %T", loader)
	}
}

func TestAtlas(t *testing.T) {
	dir := t.TempDir()
	loader, _ := NewTxtLoader(writeFile(t, dir, "sprites.txt", "@@##\n@@##\n"), "white")
	index := writeFile(t, dir, "sprites.json", `[
		{"name": "wall", "x": 2, "y": 0, "xsize": 2, "ysize": 2},
		{"name": "hero", "x": 0, "y": 0, "xsize": 2, "ysize": 1}
	]`)
	atlas, err := NewAtlas(loader, index)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"hero", "wall"}, atlas.Names()); diff != "" {
		t.Error(diff)
	}
	wall, err := atlas.Element("wall")
	if err != nil || lines(wall)[1] != "##" {
		t.Errorf("wrong element: %v %v", lines(wall), err)
	}
	if _, err := atlas.Element("dragon"); !errors.Is(err, ErrResource) {
		t.Error("unknown element returned")
	}
	if diff := cmp.Diff([]string{index, loader.Path()}, atlas.Paths()); diff != "" {
		t.Error(diff)
	}

	writeFile(t, dir, "sprites.json", `[{"name": "door", "x": 0, "y": 0, "xsize": 1, "ysize": 1}]`)
	if err := atlas.Reload(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"door"}, atlas.Names()); diff != "" {
		t.Error(diff)
	}

	writeFile(t, dir, "sprites.json", `[{"name": "a"}, {"name": "a"}]`)
	if err := atlas.Reload(); !errors.Is(err, ErrResource) {
		t.Error("duplicate names accepted")
	}
	if len(atlas.Names()) != 1 {
		t.Error("broken index replaced the old one")
	}
}

func TestWatcher(t *testing.T) {
	defer goleak.VerifyNone(t)
	dir := t.TempDir()
	watched := writeFile(t, dir, "watched.txt", "a")
	writeFile(t, dir, "ignored.txt", "a")
	box := util.NewEventBox()
	w, err := NewWatcher(box, watched)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, dir, "ignored.txt", "b")
	writeFile(t, dir, "watched.txt", "b")

	deadline := time.Now().Add(5 * time.Second)
	var changed []interface{}
	for len(changed) == 0 && time.Now().Before(deadline) {
		if events := box.Take(); events != nil {
			changed, _ = events[EvtAssetsChanged].([]interface{})
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	if err := <-done; err != nil {
		t.Error(err)
	}
	w.Close()
	if len(changed) == 0 {
		t.Fatal("no change reported")
	}
	abs, _ := filepath.Abs(watched)
	for _, path := range changed {
		if path != abs {
			t.Errorf("unexpected path %v", path)
		}
	}
}
