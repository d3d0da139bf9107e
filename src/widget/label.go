package widget

import (
	"encoding/json"
	"strings"

	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
	"github.com/synedraacus/bearhug/src/util"
)

// LabelOptions are the optional parameters of a label
type LabelOptions struct {
	// "left" (default), "right" or "center"
	Just string
	// Defaults to white
	Color string
	// Zero means fitting the text
	Width  int
	Height int
}

// Label displays a single- or multiline text. The text can be changed
// later, but the size of the label cannot, so it should be created large
// enough for every text it is going to display.
type Label struct {
	Base
	text  string
	just  string
	color string
}

// NewLabel returns a label showing text
func NewLabel(text string, opts LabelOptions) (*Label, error) {
	l := &Label{}
	l.Bind(l)
	if err := l.initLabel(text, opts); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *Label) initLabel(text string, opts LabelOptions) error {
	if opts.Just == "" {
		opts.Just = "left"
	}
	if opts.Color == "" {
		opts.Color = "white"
	}
	chars, err := generateChars(text, opts.Width, opts.Height, opts.Just)
	if err != nil {
		return err
	}
	if err := l.init(chars, util.CopyShape(chars, opts.Color)); err != nil {
		return err
	}
	l.text, l.just, l.color = text, opts.Just, opts.Color
	return nil
}

func justify(line []rune, width int, just string) ([]rune, error) {
	pad := width - len(line)
	if pad < 0 {
		return nil, errors.Wrapf(ErrWidget, "text doesn't fit in a label: %q", string(line))
	}
	var left int
	switch just {
	case "left":
	case "right":
		left = pad
	case "center":
		left = pad / 2
	default:
		return nil, errors.Wrapf(ErrWidget, "justification should be left, right or center, got %s", just)
	}
	r := repeat(' ', width)
	copy(r[left:], line)
	return r, nil
}

func generateChars(text string, width, height int, just string) ([][]rune, error) {
	lines := strings.Split(text, "\n")
	if width == 0 {
		for _, line := range lines {
			if n := len([]rune(line)); n > width {
				width = n
			}
		}
	}
	if height != 0 && len(lines) > height {
		return nil, errors.Wrapf(ErrWidget, "%d lines of text don't fit in a label", len(lines))
	}
	chars := make([][]rune, 0, len(lines))
	for _, line := range lines {
		row, err := justify([]rune(line), width, just)
		if err != nil {
			return nil, err
		}
		chars = append(chars, row)
	}
	for len(chars) < height {
		chars = append(chars, repeat(' ', width))
	}
	return chars, nil
}

// Text returns the text being displayed
func (l *Label) Text() string {
	return l.text
}

// SetText changes the text. Any changes made to chars since the text was
// set last time are lost.
func (l *Label) SetText(text string) error {
	chars, err := generateChars(text, l.Width(), l.Height(), l.just)
	if err != nil {
		return err
	}
	l.chars = chars
	l.text = text
	l.Redraw()
	return nil
}

// Just returns the justification
func (l *Label) Just() string {
	return l.just
}

// SetJust changes the justification
func (l *Label) SetJust(just string) error {
	chars, err := generateChars(l.text, l.Width(), l.Height(), just)
	if err != nil {
		return err
	}
	l.chars = chars
	l.just = just
	l.Redraw()
	return nil
}

// Color returns the text color
func (l *Label) Color() string {
	return l.color
}

type labelJSON struct {
	imageJSON
	Text  string `json:"text"`
	Just  string `json:"just"`
	Color string `json:"color"`
}

func (l *Label) labelJSON(class string) labelJSON {
	return labelJSON{
		imageJSON: l.imageJSON(class),
		Text:      l.text,
		Just:      l.just,
		Color:     l.color}
}

// MarshalJSON adds text, justification and color to the widget JSON
func (l *Label) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.labelJSON("Label"))
}

// restore sets chars and colors from a dump without checking them against
// the text
func (l *Label) restore(d labelJSON) error {
	if d.Chars == nil {
		return nil
	}
	img, err := decodeImage(d.Chars, d.Colors)
	if err != nil {
		return err
	}
	l.chars, l.colors = img.Chars, img.Colors
	return nil
}

func decodeLabel(data []byte, _ ElementSource) (Widget, error) {
	var d labelJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	l, err := NewLabel(d.Text, LabelOptions{Just: d.Just, Color: d.Color})
	if err != nil {
		return nil, err
	}
	if err := l.restore(d); err != nil {
		return nil, err
	}
	return l, nil
}

// TextInput is the value of text_input events
type TextInput struct {
	Name string
	Text string
}

// InputField is a single-line label that can be typed into. Pressing Enter
// finishes the input and emits a text_input event with a TextInput value.
//
// Keys are mapped to chars as on a US QWERTY keyboard, regardless of the
// system layout.
type InputField struct {
	Label
	Name        string
	shift       bool
	finishing   bool
	acceptInput bool
}

// NewInputField returns an empty field. The width is required.
func NewInputField(name string, opts LabelOptions) (*InputField, error) {
	if opts.Width <= 0 {
		return nil, errors.Wrap(ErrWidget, "InputField cannot be created without width")
	}
	f := &InputField{Name: name, acceptInput: true}
	f.Bind(f)
	if err := f.initLabel("", opts); err != nil {
		return nil, err
	}
	return f, nil
}

// Accepting returns true while the field is accepting input
func (f *InputField) Accepting() bool {
	return f.acceptInput
}

// Finish stops accepting input. The text_input event is emitted in response
// to the next event the field gets.
func (f *InputField) Finish() {
	f.acceptInput = false
	f.finishing = true
}

func (f *InputField) result() []event.Event {
	return []event.Event{event.New(event.TextInput, TextInput{Name: f.Name, Text: f.text})}
}

// OnEvent handles typing
func (f *InputField) OnEvent(e event.Event) []event.Event {
	if f.finishing {
		f.finishing = false
		return f.result()
	}
	code, _ := e.Value.(tui.Code)
	switch {
	case e.Type == event.KeyDown && f.acceptInput:
		text := []rune(f.text)
		switch code {
		case tui.KeyBackspace:
			if len(text) > 0 {
				f.SetText(string(text[:len(text)-1]))
			}
		case tui.KeyShift:
			f.shift = true
		case tui.KeyEnter:
			f.acceptInput = false
			return f.result()
		default:
			if r, ok := tui.CodeRune(code, f.shift); ok && len(text) < f.Width() {
				f.SetText(string(append(text, r)))
			}
		}
	case e.Type == event.KeyUp && code == tui.KeyShift:
		f.shift = false
	}
	return nil
}

type inputFieldJSON struct {
	labelJSON
	Name        string `json:"field_name"`
	Finishing   bool   `json:"finishing"`
	AcceptInput bool   `json:"accept_input"`
}

// MarshalJSON adds the input state to the label JSON. The name is stored as
// "field_name", since "name" is not allowed in widget JSON.
func (f *InputField) MarshalJSON() ([]byte, error) {
	return json.Marshal(inputFieldJSON{
		labelJSON:   f.labelJSON("InputField"),
		Name:        f.Name,
		Finishing:   f.finishing,
		AcceptInput: f.acceptInput})
}

func decodeInputField(data []byte, _ ElementSource) (Widget, error) {
	var d inputFieldJSON
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(ErrSerialization, err.Error())
	}
	img, err := decodeImage(d.Chars, d.Colors)
	if err != nil {
		return nil, err
	}
	f, err := NewInputField(d.Name, LabelOptions{Just: d.Just, Color: d.Color, Width: img.Width(), Height: img.Height()})
	if err != nil {
		return nil, err
	}
	f.chars, f.colors = img.Chars, img.Colors
	f.text = d.Text
	f.finishing = d.Finishing
	f.acceptInput = d.AcceptInput
	return f, nil
}
