package resources

import (
	"encoding/json"
	"os"
	"sort"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/tui"
)

type element struct {
	Name   string `json:"name"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"xsize"`
	Height int    `json:"ysize"`
}

// Atlas is a set of named images cut out of a single loader. The index is a
// JSON list of {"name", "x", "y", "xsize", "ysize"} objects.
//
// Atlas implements widget.ElementSource.
type Atlas struct {
	loader   Loader
	path     string
	elements map[string]element
}

// NewAtlas reads the index at path. The loader is not touched until an
// element is requested.
func NewAtlas(loader Loader, path string) (*Atlas, error) {
	if loader == nil {
		return nil, errors.Wrap(ErrResource, "atlas needs a loader")
	}
	a := &Atlas{loader: loader, path: path}
	if err := a.readIndex(); err != nil {
		return nil, err
	}
	return a, nil
}

func (a *Atlas) readIndex() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return errors.Wrap(ErrResource, err.Error())
	}
	var list []element
	if err := json.Unmarshal(data, &list); err != nil {
		return errors.Wrapf(ErrResource, "%s: %v", a.path, err)
	}
	elements := make(map[string]element, len(list))
	for _, e := range list {
		if e.Name == "" {
			return errors.Wrapf(ErrResource, "%s: element without a name", a.path)
		}
		if _, found := elements[e.Name]; found {
			return errors.Wrapf(ErrResource, "%s: duplicate element %s", a.path, e.Name)
		}
		elements[e.Name] = e
	}
	a.elements = elements
	return nil
}

// Element returns a copy of the named image
func (a *Atlas) Element(name string) (tui.Image, error) {
	e, found := a.elements[name]
	if !found {
		return tui.Image{}, errors.Wrapf(ErrResource, "no element %s in atlas", name)
	}
	img, err := a.loader.ImageRegion(e.X, e.Y, e.Width, e.Height)
	if err != nil {
		return tui.Image{}, errors.Wrapf(err, "element %s", name)
	}
	return img, nil
}

// Names returns element names in alphabetical order
func (a *Atlas) Names() []string {
	names := make([]string, 0, len(a.elements))
	for name := range a.elements {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Paths returns the files the atlas is built from
func (a *Atlas) Paths() []string {
	paths := []string{a.path}
	if r, ok := a.loader.(Reloadable); ok {
		paths = append(paths, r.Path())
	}
	return paths
}

// Reload rereads the index and makes the loader read its file again. If the
// index is broken, the atlas keeps the old one.
func (a *Atlas) Reload() error {
	if r, ok := a.loader.(Reloadable); ok {
		r.Reset()
	}
	return a.readIndex()
}
