package resources

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/tui"
	"golang.org/x/text/encoding/charmap"
)

// CP437 glyphs in the ASCII control range. charmap decodes these bytes as
// control characters, REXPaint draws them as symbols.
var xpGlyphs = map[uint32]rune{
	0x01: '☺', 0x02: '☻', 0x03: '♥', 0x04: '♦',
	0x05: '♣', 0x06: '♠', 0x07: '•', 0x08: '◘',
	0x09: '○', 0x0a: '◙', 0x0b: '♂', 0x0c: '♀',
	0x0d: '♪', 0x0e: '♫', 0x0f: '☼', 0x10: '►',
	0x11: '◄', 0x12: '↕', 0x13: '‼', 0x14: '¶',
	0x15: '§', 0x16: '▬', 0x17: '↨', 0x18: '↑',
	0x19: '↓', 0x1a: '→', 0x1b: '←', 0x1c: '∟',
	0x1d: '↔', 0x1e: '▲', 0x1f: '▼', 0x7f: '⌂'}

var xpKeycodes = make(map[rune]uint32, len(xpGlyphs))

func init() {
	for code, r := range xpGlyphs {
		xpKeycodes[r] = code
	}
}

// Background written for every cell; REXPaint treats it as transparent
var xpTransparent = [3]byte{255, 0, 255}

// XpImage is a decoded REXPaint file
type XpImage struct {
	Version int32
	Layers  []tui.Image
}

func xpGlyph(code uint32) (rune, error) {
	if r, found := xpGlyphs[code]; found {
		return r, nil
	}
	if code == 0 {
		return ' ', nil
	}
	if code > 0xff {
		return 0, errors.Wrapf(ErrResource, "keycode %d is outside CP437", code)
	}
	return charmap.CodePage437.DecodeByte(byte(code)), nil
}

func xpKeycode(r rune) (uint32, error) {
	if code, found := xpKeycodes[r]; found {
		return code, nil
	}
	if b, ok := charmap.CodePage437.EncodeRune(r); ok {
		return uint32(b), nil
	}
	return 0, errors.Wrapf(ErrResource, "%q cannot be encoded in CP437", r)
}

// maxXpSide bounds layer width and height
const maxXpSide = 4096

// DecodeXp reads a gzipped REXPaint file. All integers are little-endian:
// version, layer count, then every layer as width, height and the cells in
// column-major order. A cell is a 32-bit keycode followed by foreground and
// background RGB bytes. Backgrounds are ignored.
func DecodeXp(r io.Reader) (*XpImage, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(ErrResource, err.Error())
	}
	defer gz.Close()
	in := bufio.NewReader(gz)

	var header struct {
		Version    int32
		LayerCount int32
	}
	if err := binary.Read(in, binary.LittleEndian, &header); err != nil {
		return nil, errors.Wrapf(ErrResource, "xp header: %v", err)
	}
	if header.LayerCount < 1 {
		return nil, errors.Wrapf(ErrResource, "xp file has %d layers", header.LayerCount)
	}
	xp := &XpImage{Version: header.Version}
	for i := int32(0); i < header.LayerCount; i++ {
		layer, err := decodeXpLayer(in)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d", i)
		}
		xp.Layers = append(xp.Layers, layer)
	}
	return xp, nil
}

func decodeXpLayer(in io.Reader) (tui.Image, error) {
	var size struct {
		Width  int32
		Height int32
	}
	if err := binary.Read(in, binary.LittleEndian, &size); err != nil {
		return tui.Image{}, errors.Wrap(ErrResource, err.Error())
	}
	if size.Width < 1 || size.Height < 1 {
		return tui.Image{}, errors.Wrapf(ErrResource, "invalid layer size %dx%d", size.Width, size.Height)
	}
	if size.Width > maxXpSide || size.Height > maxXpSide {
		return tui.Image{}, errors.Wrapf(ErrResource, "layer size %dx%d exceeds %d", size.Width, size.Height, maxXpSide)
	}
	width, height := int(size.Width), int(size.Height)
	// The grid is allocated after the last cell is read
	var glyphs []rune
	var colors []string
	var cell struct {
		Keycode uint32
		Fore    [3]byte
		Back    [3]byte
	}
	for i := 0; i < width*height; i++ {
		if err := binary.Read(in, binary.LittleEndian, &cell); err != nil {
			return tui.Image{}, errors.Wrapf(ErrResource, "cell %d,%d: %v", i/height, i%height, err)
		}
		glyph, err := xpGlyph(cell.Keycode)
		if err != nil {
			return tui.Image{}, err
		}
		glyphs = append(glyphs, glyph)
		colors = append(colors, tui.HexColor(cell.Fore[0], cell.Fore[1], cell.Fore[2]))
	}
	img := tui.BlankImage(width, height, ' ', "")
	for i, glyph := range glyphs {
		x, y := i/height, i%height
		img.Chars[y][x] = glyph
		img.Colors[y][x] = colors[i]
	}
	return img, nil
}

// EncodeXp writes layers as a gzipped REXPaint file that DecodeXp and
// REXPaint itself can read. Every char should exist in CP437. Colors are
// anything tui.ParseColor accepts; the default color is written as white.
func EncodeXp(w io.Writer, version int32, layers []tui.Image) error {
	if len(layers) == 0 {
		return errors.Wrap(ErrResource, "nothing to encode")
	}
	gz := gzip.NewWriter(w)
	out := bufio.NewWriter(gz)
	write := func(v interface{}) error {
		return binary.Write(out, binary.LittleEndian, v)
	}
	if err := write([2]int32{version, int32(len(layers))}); err != nil {
		return errors.Wrap(ErrResource, err.Error())
	}
	for i, layer := range layers {
		width, height := layer.Size()
		if err := write([2]int32{int32(width), int32(height)}); err != nil {
			return errors.Wrap(ErrResource, err.Error())
		}
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				code, err := xpKeycode(layer.Chars[y][x])
				if err != nil {
					return errors.Wrapf(err, "layer %d, cell %d,%d", i, x, y)
				}
				fore, err := xpColor(layer.Colors[y][x])
				if err != nil {
					return errors.Wrapf(err, "layer %d, cell %d,%d", i, x, y)
				}
				if err := write(code); err != nil {
					return errors.Wrap(ErrResource, err.Error())
				}
				if err := write(fore); err != nil {
					return errors.Wrap(ErrResource, err.Error())
				}
				if err := write(xpTransparent); err != nil {
					return errors.Wrap(ErrResource, err.Error())
				}
			}
		}
	}
	if err := out.Flush(); err != nil {
		return errors.Wrap(ErrResource, err.Error())
	}
	return gz.Close()
}

func xpColor(name string) ([3]byte, error) {
	if name == "" {
		return [3]byte{255, 255, 255}, nil
	}
	c, err := tui.ParseColor(name)
	if err != nil {
		return [3]byte{}, errors.Wrap(ErrResource, err.Error())
	}
	r, g, b := c.RGB()
	return [3]byte{byte(r), byte(g), byte(b)}, nil
}

// XpLoader reads REXPaint files. Like TxtLoader, it only checks that the
// file exists until the image is requested.
//
// Image and ImageRegion flatten the layers: every cell shows the char and
// color of the topmost layer where it isn't a space. Layers are available
// separately through Layer and LayerRegion.
type XpLoader struct {
	path  string
	color string
	xp    *XpImage
	image tui.Image
}

// NewXpLoader returns a loader for path. The color is used for cells that
// are empty in every layer.
func NewXpLoader(path string, color string) (*XpLoader, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	return &XpLoader{path: path, color: color}, nil
}

// Load reads and decodes the file, if it wasn't read yet
func (l *XpLoader) Load() error {
	if l.xp != nil {
		return nil
	}
	file, err := os.Open(l.path)
	if err != nil {
		return errors.Wrap(ErrResource, err.Error())
	}
	defer file.Close()
	xp, err := DecodeXp(file)
	if err != nil {
		return errors.Wrap(err, l.path)
	}
	l.xp = xp
	l.image = l.flatten()
	return nil
}

func (l *XpLoader) flatten() tui.Image {
	width, height := 0, 0
	for _, layer := range l.xp.Layers {
		if layer.Width() > width {
			width = layer.Width()
		}
		if layer.Height() > height {
			height = layer.Height()
		}
	}
	img := tui.BlankImage(width, height, ' ', l.color)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			for i := len(l.xp.Layers) - 1; i >= 0; i-- {
				layer := l.xp.Layers[i]
				if y >= layer.Height() || x >= layer.Width() || layer.Chars[y][x] == ' ' {
					continue
				}
				img.Chars[y][x] = layer.Chars[y][x]
				img.Colors[y][x] = layer.Colors[y][x]
				break
			}
		}
	}
	return img
}

// Image returns the flattened image
func (l *XpLoader) Image() (tui.Image, error) {
	if err := l.Load(); err != nil {
		return tui.Image{}, err
	}
	return l.image.Copy(), nil
}

// ImageRegion returns a rectangle of the flattened image
func (l *XpLoader) ImageRegion(x, y, width, height int) (tui.Image, error) {
	if err := l.Load(); err != nil {
		return tui.Image{}, err
	}
	return region(l.image, x, y, width, height)
}

func (l *XpLoader) layer(i int) (tui.Image, error) {
	if err := l.Load(); err != nil {
		return tui.Image{}, err
	}
	if i < 0 || i >= len(l.xp.Layers) {
		return tui.Image{}, errors.Wrapf(ErrResource, "nonexistent layer %d in %s", i, l.path)
	}
	return l.xp.Layers[i], nil
}

// Layer returns a single layer as stored in the file
func (l *XpLoader) Layer(i int) (tui.Image, error) {
	layer, err := l.layer(i)
	if err != nil {
		return tui.Image{}, err
	}
	return layer.Copy(), nil
}

// LayerRegion returns a rectangle of a single layer
func (l *XpLoader) LayerRegion(i, x, y, width, height int) (tui.Image, error) {
	layer, err := l.layer(i)
	if err != nil {
		return tui.Image{}, err
	}
	return region(layer, x, y, width, height)
}

// LayerCount returns the number of layers in the file
func (l *XpLoader) LayerCount() (int, error) {
	if err := l.Load(); err != nil {
		return 0, err
	}
	return len(l.xp.Layers), nil
}

// Version returns the REXPaint version the file was written with
func (l *XpLoader) Version() (int32, error) {
	if err := l.Load(); err != nil {
		return 0, err
	}
	return l.xp.Version, nil
}

// Path returns the file path
func (l *XpLoader) Path() string {
	return l.path
}

// Reset drops the decoded file
func (l *XpLoader) Reset() {
	l.xp = nil
	l.image = tui.Image{}
}
