package tui

import (
	"github.com/gdamore/tcell"
)

// Types of terminal input
type InputType int

const (
	Invalid InputType = iota
	KeyInput
	MouseInput
	ResizeInput
	CloseInput
)

// Input is a single backend-neutral input event. Key input carries the
// pressed codes with modifiers first. Mouse input carries the buttons held
// at the time of the event.
type Input struct {
	Type    InputType
	Codes   []Code
	X       int
	Y       int
	Buttons []Code
	Wheel   int // negative is up, positive is down
	Width   int
	Height  int
}

// Renderer is what the Terminal draws onto and reads input from
type Renderer interface {
	Init() error
	Size() (int, int)
	SetCell(x int, y int, r rune, color tcell.Color)
	Show()
	Clear()
	// GetInput blocks until the next input. It returns false once the
	// renderer is closed.
	GetInput() (Input, bool)
	Close()
}

var (
	shiftedRunes = map[rune]Code{
		'!': Key1, '@': Key2, '#': Key3, '$': Key4, '%': Key5,
		'^': Key6, '&': Key7, '*': Key8, '(': Key9, ')': Key0,
		'_': KeyMinus, '+': KeyEquals, '{': KeyLBracket, '}': KeyRBracket,
		'|': KeyBackslash, ':': KeySemicolon, '"': KeyApostrophe,
		'~': KeyGrave, '<': KeyComma, '>': KeyPeriod, '?': KeySlash}
	plainRunes = map[rune]Code{
		' ': KeySpace, '-': KeyMinus, '=': KeyEquals, '[': KeyLBracket,
		']': KeyRBracket, '\\': KeyBackslash, ';': KeySemicolon,
		'\'': KeyApostrophe, '`': KeyGrave, ',': KeyComma, '.': KeyPeriod,
		'/': KeySlash}
	keypadRunes = map[Code]rune{
		KeyKPDivide: '/', KeyKPMultiply: '*', KeyKPMinus: '-', KeyKPPlus: '+',
		KeyKPPeriod: '.', KeyKP0: '0', KeyKP1: '1', KeyKP2: '2', KeyKP3: '3',
		KeyKP4: '4', KeyKP5: '5', KeyKP6: '6', KeyKP7: '7', KeyKP8: '8',
		KeyKP9: '9'}
	codeRunes        map[Code]rune
	shiftedCodeRunes map[Code]rune
)

func init() {
	codeRunes = make(map[Code]rune)
	shiftedCodeRunes = make(map[Code]rune)
	for r, code := range plainRunes {
		codeRunes[code] = r
	}
	for r, code := range shiftedRunes {
		shiftedCodeRunes[code] = r
	}
	for r := 'a'; r <= 'z'; r++ {
		code := KeyA + Code(r-'a')
		codeRunes[code] = r
		shiftedCodeRunes[code] = r - 'a' + 'A'
	}
	for r := '1'; r <= '9'; r++ {
		codeRunes[Key1+Code(r-'1')] = r
	}
	codeRunes[Key0] = '0'
}

// RuneCode returns the key code that types r on a US keyboard, and whether
// shift has to be held for it
func RuneCode(r rune) (code Code, shift bool, ok bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return KeyA + Code(r-'a'), false, true
	case r >= 'A' && r <= 'Z':
		return KeyA + Code(r-'A'), true, true
	case r >= '1' && r <= '9':
		return Key1 + Code(r-'1'), false, true
	case r == '0':
		return Key0, false, true
	}
	if code, found := plainRunes[r]; found {
		return code, false, true
	}
	if code, found := shiftedRunes[r]; found {
		return code, true, true
	}
	return 0, false, false
}

// CodeRune is the inverse of RuneCode. Keypad keys type their own symbols
// regardless of shift.
func CodeRune(code Code, shift bool) (rune, bool) {
	if r, found := keypadRunes[code]; found {
		return r, true
	}
	if shift {
		r, found := shiftedCodeRunes[code]
		return r, found
	}
	r, found := codeRunes[code]
	return r, found
}
