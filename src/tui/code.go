package tui

import (
	"strconv"

	"github.com/pkg/errors"
)

// Code is an input or state code. The values match the TK_* constants of
// BearLibTerminal, so that recorded codes and saved key bindings stay stable.
type Code int

// Keyboard codes
const (
	KeyA          Code = 4
	KeyB          Code = 5
	KeyC          Code = 6
	KeyD          Code = 7
	KeyE          Code = 8
	KeyF          Code = 9
	KeyG          Code = 10
	KeyH          Code = 11
	KeyI          Code = 12
	KeyJ          Code = 13
	KeyK          Code = 14
	KeyL          Code = 15
	KeyM          Code = 16
	KeyN          Code = 17
	KeyO          Code = 18
	KeyP          Code = 19
	KeyQ          Code = 20
	KeyR          Code = 21
	KeyS          Code = 22
	KeyT          Code = 23
	KeyU          Code = 24
	KeyV          Code = 25
	KeyW          Code = 26
	KeyX          Code = 27
	KeyY          Code = 28
	KeyZ          Code = 29
	Key1          Code = 30
	Key2          Code = 31
	Key3          Code = 32
	Key4          Code = 33
	Key5          Code = 34
	Key6          Code = 35
	Key7          Code = 36
	Key8          Code = 37
	Key9          Code = 38
	Key0          Code = 39
	KeyEnter      Code = 40
	KeyEscape     Code = 41
	KeyBackspace  Code = 42
	KeyTab        Code = 43
	KeySpace      Code = 44
	KeyMinus      Code = 45
	KeyEquals     Code = 46
	KeyLBracket   Code = 47
	KeyRBracket   Code = 48
	KeyBackslash  Code = 49
	KeySemicolon  Code = 51
	KeyApostrophe Code = 52
	KeyGrave      Code = 53
	KeyComma      Code = 54
	KeyPeriod     Code = 55
	KeySlash      Code = 56
	KeyF1         Code = 58
	KeyF2         Code = 59
	KeyF3         Code = 60
	KeyF4         Code = 61
	KeyF5         Code = 62
	KeyF6         Code = 63
	KeyF7         Code = 64
	KeyF8         Code = 65
	KeyF9         Code = 66
	KeyF10        Code = 67
	KeyF11        Code = 68
	KeyF12        Code = 69
	KeyPause      Code = 72
	KeyInsert     Code = 73
	KeyHome       Code = 74
	KeyPageUp     Code = 75
	KeyDelete     Code = 76
	KeyEnd        Code = 77
	KeyPageDown   Code = 78
	KeyRight      Code = 79
	KeyLeft       Code = 80
	KeyDown       Code = 81
	KeyUp         Code = 82
	KeyKPDivide   Code = 84
	KeyKPMultiply Code = 85
	KeyKPMinus    Code = 86
	KeyKPPlus     Code = 87
	KeyKPEnter    Code = 88
	KeyKP1        Code = 89
	KeyKP2        Code = 90
	KeyKP3        Code = 91
	KeyKP4        Code = 92
	KeyKP5        Code = 93
	KeyKP6        Code = 94
	KeyKP7        Code = 95
	KeyKP8        Code = 96
	KeyKP9        Code = 97
	KeyKP0        Code = 98
	KeyKPPeriod   Code = 99
	KeyShift      Code = 112
	KeyControl    Code = 113
	KeyAlt        Code = 114
)

// Mouse codes
const (
	MouseLeft   Code = 128
	MouseRight  Code = 129
	MouseMiddle Code = 130
	MouseX1     Code = 131
	MouseX2     Code = 132
	MouseMove   Code = 133
	MouseScroll Code = 134
	MouseX      Code = 135
	MouseY      Code = 136
	MousePixelX Code = 137
	MousePixelY Code = 138
	MouseWheel  Code = 139
	MouseClicks Code = 140
)

// State and misc codes
const (
	StateWidth       Code = 192
	StateHeight      Code = 193
	StateCellWidth   Code = 194
	StateCellHeight  Code = 195
	StateColor       Code = 196
	StateBkColor     Code = 197
	StateLayer       Code = 198
	StateComposition Code = 199
	StateChar        Code = 200
	StateWChar       Code = 201
	StateEvent       Code = 202
	StateFullscreen  Code = 203
	InputClose       Code = 224
	InputResized     Code = 225
)

var codeNames = map[Code]string{
	KeyA:             "TK_A",
	KeyB:             "TK_B",
	KeyC:             "TK_C",
	KeyD:             "TK_D",
	KeyE:             "TK_E",
	KeyF:             "TK_F",
	KeyG:             "TK_G",
	KeyH:             "TK_H",
	KeyI:             "TK_I",
	KeyJ:             "TK_J",
	KeyK:             "TK_K",
	KeyL:             "TK_L",
	KeyM:             "TK_M",
	KeyN:             "TK_N",
	KeyO:             "TK_O",
	KeyP:             "TK_P",
	KeyQ:             "TK_Q",
	KeyR:             "TK_R",
	KeyS:             "TK_S",
	KeyT:             "TK_T",
	KeyU:             "TK_U",
	KeyV:             "TK_V",
	KeyW:             "TK_W",
	KeyX:             "TK_X",
	KeyY:             "TK_Y",
	KeyZ:             "TK_Z",
	Key1:             "TK_1",
	Key2:             "TK_2",
	Key3:             "TK_3",
	Key4:             "TK_4",
	Key5:             "TK_5",
	Key6:             "TK_6",
	Key7:             "TK_7",
	Key8:             "TK_8",
	Key9:             "TK_9",
	Key0:             "TK_0",
	KeyEnter:         "TK_ENTER",
	KeyEscape:        "TK_ESCAPE",
	KeyBackspace:     "TK_BACKSPACE",
	KeyTab:           "TK_TAB",
	KeySpace:         "TK_SPACE",
	KeyMinus:         "TK_MINUS",
	KeyEquals:        "TK_EQUALS",
	KeyLBracket:      "TK_LBRACKET",
	KeyRBracket:      "TK_RBRACKET",
	KeyBackslash:     "TK_BACKSLASH",
	KeySemicolon:     "TK_SEMICOLON",
	KeyApostrophe:    "TK_APOSTROPHE",
	KeyGrave:         "TK_GRAVE",
	KeyComma:         "TK_COMMA",
	KeyPeriod:        "TK_PERIOD",
	KeySlash:         "TK_SLASH",
	KeyF1:            "TK_F1",
	KeyF2:            "TK_F2",
	KeyF3:            "TK_F3",
	KeyF4:            "TK_F4",
	KeyF5:            "TK_F5",
	KeyF6:            "TK_F6",
	KeyF7:            "TK_F7",
	KeyF8:            "TK_F8",
	KeyF9:            "TK_F9",
	KeyF10:           "TK_F10",
	KeyF11:           "TK_F11",
	KeyF12:           "TK_F12",
	KeyPause:         "TK_PAUSE",
	KeyInsert:        "TK_INSERT",
	KeyHome:          "TK_HOME",
	KeyPageUp:        "TK_PAGEUP",
	KeyDelete:        "TK_DELETE",
	KeyEnd:           "TK_END",
	KeyPageDown:      "TK_PAGEDOWN",
	KeyRight:         "TK_RIGHT",
	KeyLeft:          "TK_LEFT",
	KeyDown:          "TK_DOWN",
	KeyUp:            "TK_UP",
	KeyKPDivide:      "TK_KP_DIVIDE",
	KeyKPMultiply:    "TK_KP_MULTIPLY",
	KeyKPMinus:       "TK_KP_MINUS",
	KeyKPPlus:        "TK_KP_PLUS",
	KeyKPEnter:       "TK_KP_ENTER",
	KeyKP1:           "TK_KP_1",
	KeyKP2:           "TK_KP_2",
	KeyKP3:           "TK_KP_3",
	KeyKP4:           "TK_KP_4",
	KeyKP5:           "TK_KP_5",
	KeyKP6:           "TK_KP_6",
	KeyKP7:           "TK_KP_7",
	KeyKP8:           "TK_KP_8",
	KeyKP9:           "TK_KP_9",
	KeyKP0:           "TK_KP_0",
	KeyKPPeriod:      "TK_KP_PERIOD",
	KeyShift:         "TK_SHIFT",
	KeyControl:       "TK_CONTROL",
	KeyAlt:           "TK_ALT",
	MouseLeft:        "TK_MOUSE_LEFT",
	MouseRight:       "TK_MOUSE_RIGHT",
	MouseMiddle:      "TK_MOUSE_MIDDLE",
	MouseX1:          "TK_MOUSE_X1",
	MouseX2:          "TK_MOUSE_X2",
	MouseMove:        "TK_MOUSE_MOVE",
	MouseScroll:      "TK_MOUSE_SCROLL",
	MouseX:           "TK_MOUSE_X",
	MouseY:           "TK_MOUSE_Y",
	MousePixelX:      "TK_MOUSE_PIXEL_X",
	MousePixelY:      "TK_MOUSE_PIXEL_Y",
	MouseWheel:       "TK_MOUSE_WHEEL",
	MouseClicks:      "TK_MOUSE_CLICKS",
	StateWidth:       "TK_WIDTH",
	StateHeight:      "TK_HEIGHT",
	StateCellWidth:   "TK_CELL_WIDTH",
	StateCellHeight:  "TK_CELL_HEIGHT",
	StateColor:       "TK_COLOR",
	StateBkColor:     "TK_BKCOLOR",
	StateLayer:       "TK_LAYER",
	StateComposition: "TK_COMPOSITION",
	StateChar:        "TK_CHAR",
	StateWChar:       "TK_WCHAR",
	StateEvent:       "TK_EVENT",
	StateFullscreen:  "TK_FULLSCREEN",
	InputClose:       "TK_CLOSE",
	InputResized:     "TK_RESIZED",
}

var codesByName map[string]Code

func init() {
	codesByName = make(map[string]Code, len(codeNames))
	for code, name := range codeNames {
		codesByName[name] = code
	}
}

func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "TK_" + strconv.Itoa(int(c))
}

// ParseCode returns the code for a TK_* name
func ParseCode(name string) (Code, error) {
	if code, ok := codesByName[name]; ok {
		return code, nil
	}
	return 0, errors.Errorf("unknown input code: %s", name)
}

// IsMouseButton returns true for the codes of mouse buttons
func (c Code) IsMouseButton() bool {
	return c >= MouseLeft && c <= MouseX2
}
