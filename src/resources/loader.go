// Package resources loads ASCII art from disk: plain text images, REXPaint
// .xp files and atlases of named elements inside either of them.
package resources

import (
	"bufio"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/util"
)

// ErrResource is wrapped by every error of this package
var ErrResource = errors.New("resource error")

// Loader provides an image stored somewhere
type Loader interface {
	Image() (tui.Image, error)
	ImageRegion(x, y, width, height int) (tui.Image, error)
}

// Reloadable loaders cache file contents until Reset is called
type Reloadable interface {
	Loader
	Path() string
	Reset()
}

func region(img tui.Image, x, y, width, height int) (tui.Image, error) {
	r, err := img.Region(x, y, width, height)
	if err != nil {
		return tui.Image{}, errors.Wrap(ErrResource, err.Error())
	}
	return r, nil
}

func checkPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(ErrResource, "nonexistent path %s", path)
	}
	if info.IsDir() {
		return errors.Wrapf(ErrResource, "%s is a directory", path)
	}
	return nil
}

// TxtLoader reads a plain text file. Every char gets the same color.
//
// The file is only checked for existence on creation and read on the first
// call to Image or ImageRegion.
type TxtLoader struct {
	path  string
	color string
	image tui.Image
}

// NewTxtLoader returns a loader for path. Chars will be of the given color.
func NewTxtLoader(path string, color string) (*TxtLoader, error) {
	if err := checkPath(path); err != nil {
		return nil, err
	}
	return &TxtLoader{path: path, color: color}, nil
}

// Load reads the file, if it wasn't read yet
func (l *TxtLoader) Load() error {
	if !l.image.Empty() {
		return nil
	}
	file, err := os.Open(l.path)
	if err != nil {
		return errors.Wrap(ErrResource, err.Error())
	}
	defer file.Close()

	var chars [][]rune
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		row := []rune(strings.TrimRight(scanner.Text(), "\r"))
		if len(chars) > 0 && len(row) != len(chars[0]) {
			return errors.Wrapf(ErrResource, "%s: all lines should be equal length", l.path)
		}
		chars = append(chars, row)
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(ErrResource, err.Error())
	}
	img, err := tui.NewImage(chars, util.CopyShape(chars, l.color))
	if err != nil {
		return errors.Wrapf(ErrResource, "%s: %v", l.path, err)
	}
	l.image = img
	return nil
}

// Image returns the whole file
func (l *TxtLoader) Image() (tui.Image, error) {
	if err := l.Load(); err != nil {
		return tui.Image{}, err
	}
	return l.image.Copy(), nil
}

// ImageRegion returns a rectangle of the file
func (l *TxtLoader) ImageRegion(x, y, width, height int) (tui.Image, error) {
	if err := l.Load(); err != nil {
		return tui.Image{}, err
	}
	return region(l.image, x, y, width, height)
}

// Path returns the file path
func (l *TxtLoader) Path() string {
	return l.path
}

// Reset drops the cached contents
func (l *TxtLoader) Reset() {
	l.image = tui.Image{}
}

// NewLoader picks a loader by file extension: .xp files are REXPaint images,
// anything else is plain text
func NewLoader(path string, color string) (Reloadable, error) {
	if strings.HasSuffix(strings.ToLower(path), ".xp") {
		return NewXpLoader(path, color)
	}
	return NewTxtLoader(path, color)
}
