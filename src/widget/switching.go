package widget

import (
	"encoding/json"
	"sort"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/tui"
)

// SwitchingWidget holds several images of the same size and shows one of
// them at a time
type SwitchingWidget struct {
	Base
	images  map[string]tui.Image
	current string
}

// NewSwitchingWidget returns a widget showing images[initial]
func NewSwitchingWidget(images map[string]tui.Image, initial string) (*SwitchingWidget, error) {
	if initial == "" {
		return nil, errors.Wrap(ErrWidget, "initial image not set for SwitchingWidget")
	}
	if _, found := images[initial]; !found {
		return nil, errors.Wrapf(ErrWidget, "initial image %s is not in SwitchingWidget images", initial)
	}
	ids := make([]string, 0, len(images))
	for id := range images {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	width, height := images[initial].Size()
	for _, id := range ids {
		img, err := tui.NewImage(images[id].Chars, images[id].Colors)
		if err != nil {
			return nil, errors.Wrapf(ErrWidget, "image %s in SwitchingWidget: %v", id, err)
		}
		if w, h := img.Size(); w != width || h != height {
			return nil, errors.Wrapf(ErrWidget, "image %s in SwitchingWidget has incorrect size", id)
		}
	}
	w := &SwitchingWidget{images: images, current: initial}
	w.Bind(w)
	if err := w.init(images[initial].Chars, images[initial].Colors); err != nil {
		return nil, err
	}
	return w, nil
}

// SwitchToImage shows another image
func (w *SwitchingWidget) SwitchToImage(id string) error {
	if id == w.current {
		return nil
	}
	img, found := w.images[id]
	if !found {
		return errors.Wrapf(ErrWidget, "attempting to switch to incorrect image ID %s", id)
	}
	w.chars, w.colors = img.Chars, img.Colors
	w.current = id
	return nil
}

// CurrentImage returns the ID of the image being shown
func (w *SwitchingWidget) CurrentImage() string {
	return w.current
}

// HasImage returns true if id can be switched to
func (w *SwitchingWidget) HasImage(id string) bool {
	_, found := w.images[id]
	return found
}

type switchingJSON struct {
	Class        string                 `json:"class"`
	InitialImage string                 `json:"initial_image"`
	Images       map[string][2][]string `json:"images_dict"`
}

// MarshalJSON stores every image and the current image ID
func (w *SwitchingWidget) MarshalJSON() ([]byte, error) {
	d := switchingJSON{
		Class:        "SwitchingWidget",
		InitialImage: w.current,
		Images:       make(map[string][2][]string)}
	for id, img := range w.images {
		chars, colors := encodeImage(img)
		d.Images[id] = [2][]string{chars, colors}
	}
	return json.Marshal(d)
}

func decodeSwitchingWidget(data []byte, _ ElementSource) (Widget, error) {
	var d switchingJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	images := make(map[string]tui.Image)
	for id, dump := range d.Images {
		img, err := decodeImage(dump[0], dump[1])
		if err != nil {
			return nil, err
		}
		images[id] = img
	}
	return NewSwitchingWidget(images, d.InitialImage)
}
