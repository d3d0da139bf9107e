package widget

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/tui"
)

// ElementSource provides images by name. Atlases are element sources.
type ElementSource interface {
	Element(name string) (tui.Image, error)
}

// Decoder builds a widget from its JSON. The source may be nil.
type Decoder func(data []byte, source ElementSource) (Widget, error)

var (
	classMutex sync.RWMutex
	classes    = map[string]Decoder{
		"Widget":                  decodeBase,
		"SwitchingWidget":         decodeSwitchingWidget,
		"Label":                   decodeLabel,
		"InputField":              decodeInputField,
		"SimpleAnimationWidget":   decodeSimpleAnimationWidget,
		"MultipleAnimationWidget": decodeMultipleAnimationWidget}
)

var forbiddenKeys = []string{"name", "owner", "dispatcher"}

// RegisterClass makes Deserialize aware of a widget class. Built-in classes
// cannot be replaced.
func RegisterClass(class string, decoder Decoder) error {
	if class == "" || decoder == nil {
		return errors.Wrap(ErrSerialization, "class name and decoder are required")
	}
	classMutex.Lock()
	defer classMutex.Unlock()
	if _, found := classes[class]; found {
		return errors.Wrapf(ErrSerialization, "class %s is already registered", class)
	}
	classes[class] = decoder
	return nil
}

// Deserialize returns the widget encoded in data. The "class" key selects
// the decoder. Keys ending in "_type" are ignored. The source is only
// needed for animations stored as atlas frame IDs.
func Deserialize(data []byte, source ElementSource) (Widget, error) {
	var d map[string]json.RawMessage
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	for _, key := range forbiddenKeys {
		if _, found := d[key]; found {
			return nil, errors.Wrapf(ErrSerialization, "forbidden key %s in widget JSON", key)
		}
	}
	raw, found := d["class"]
	if !found {
		return nil, errors.Wrap(ErrSerialization, "no class provided in widget JSON")
	}
	var class string
	if err := json.Unmarshal(raw, &class); err != nil {
		return nil, errors.Wrap(ErrSerialization, "class should be a string")
	}
	classMutex.RLock()
	decoder, found := classes[class]
	classMutex.RUnlock()
	if !found {
		return nil, errors.Wrapf(ErrSerialization, "unknown widget class %s", class)
	}
	for key := range d {
		if strings.HasSuffix(key, "_type") {
			delete(d, key)
		}
	}
	cleaned, err := json.Marshal(d)
	if err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	return decoder(cleaned, source)
}

func decodeBase(data []byte, _ ElementSource) (Widget, error) {
	var d imageJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	img, err := decodeImage(d.Chars, d.Colors)
	if err != nil {
		return nil, err
	}
	return FromImage(img)
}
