package tui

import (
	"os"

	"github.com/gdamore/tcell"
	"github.com/gdamore/tcell/encoding"
	"github.com/pkg/errors"
)

// TcellRenderer draws the terminal grid with tcell
type TcellRenderer struct {
	screen tcell.Screen
	mouse  bool
}

// NewTcellRenderer returns a renderer for the given screen. A nil screen
// means the controlling terminal, opened on Init.
func NewTcellRenderer(screen tcell.Screen, mouse bool) *TcellRenderer {
	return &TcellRenderer{screen: screen, mouse: mouse}
}

func (r *TcellRenderer) initScreen() error {
	if r.screen == nil {
		s, e := tcell.NewScreen()
		if e != nil {
			return errors.Wrap(e, "cannot open the terminal")
		}
		r.screen = s
	}
	if e := r.screen.Init(); e != nil {
		return errors.Wrap(e, "cannot initialize the terminal")
	}
	if r.mouse {
		r.screen.EnableMouse()
	} else {
		r.screen.DisableMouse()
	}
	r.screen.HideCursor()
	return nil
}

// Init opens the screen
func (r *TcellRenderer) Init() error {
	if os.Getenv("TERM") == "cygwin" {
		os.Setenv("TERM", "")
	}
	encoding.Register()

	return r.initScreen()
}

// Size returns the screen size in cells
func (r *TcellRenderer) Size() (int, int) {
	return r.screen.Size()
}

// SetCell puts a rune on the screen. It becomes visible on Show.
func (r *TcellRenderer) SetCell(x int, y int, ch rune, color tcell.Color) {
	r.screen.SetContent(x, y, ch, nil, tcell.StyleDefault.Foreground(color))
}

// Show flushes pending cells to the screen
func (r *TcellRenderer) Show() {
	r.screen.Show()
}

// Clear blanks the screen
func (r *TcellRenderer) Clear() {
	r.screen.Sync()
	r.screen.Clear()
}

// Close restores the terminal. Pending GetInput calls return false.
func (r *TcellRenderer) Close() {
	r.screen.Fini()
}

// GetInput waits for the next key, mouse or resize event
func (r *TcellRenderer) GetInput() (Input, bool) {
	for {
		ev := r.screen.PollEvent()
		if ev == nil {
			return Input{}, false
		}
		if in := translate(ev); in.Type != Invalid {
			return in, true
		}
	}
}

func translate(ev tcell.Event) Input {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		w, h := ev.Size()
		return Input{Type: ResizeInput, Width: w, Height: h}
	case *tcell.EventMouse:
		return translateMouse(ev)
	case *tcell.EventKey:
		return translateKey(ev)
	}
	return Input{Type: Invalid}
}

func translateMouse(ev *tcell.EventMouse) Input {
	x, y := ev.Position()
	in := Input{Type: MouseInput, X: x, Y: y}
	buttons := ev.Buttons()
	for _, b := range []struct {
		mask tcell.ButtonMask
		code Code
	}{
		{tcell.Button1, MouseLeft},
		{tcell.Button3, MouseRight},
		{tcell.Button2, MouseMiddle},
		{tcell.Button4, MouseX1},
		{tcell.Button5, MouseX2},
	} {
		if buttons&b.mask != 0 {
			in.Buttons = append(in.Buttons, b.code)
		}
	}
	if buttons&tcell.WheelUp != 0 {
		in.Wheel = -1
	} else if buttons&tcell.WheelDown != 0 {
		in.Wheel = 1
	}
	return in
}

func translateKey(ev *tcell.EventKey) Input {
	var codes []Code
	mods := ev.Modifiers()
	if mods&tcell.ModCtrl != 0 {
		codes = append(codes, KeyControl)
	}
	if mods&tcell.ModAlt != 0 {
		codes = append(codes, KeyAlt)
	}
	ctrl := func() {
		if mods&tcell.ModCtrl == 0 {
			codes = append(codes, KeyControl)
		}
	}
	shift := mods&tcell.ModShift != 0
	key := func(code Code) Input {
		if shift {
			codes = append(codes, KeyShift)
		}
		return Input{Type: KeyInput, Codes: append(codes, code)}
	}

	switch k := ev.Key(); k {
	case tcell.KeyRune:
		code, shifted, ok := RuneCode(ev.Rune())
		if !ok {
			return Input{Type: Invalid}
		}
		shift = shift || shifted
		return key(code)
	case tcell.KeyCtrlC:
		return Input{Type: CloseInput}
	case tcell.KeyCtrlSpace:
		ctrl()
		return key(KeySpace)
	case tcell.KeyEnter:
		return key(KeyEnter)
	case tcell.KeyEscape:
		return key(KeyEscape)
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key(KeyBackspace)
	case tcell.KeyTab:
		return key(KeyTab)
	case tcell.KeyBacktab:
		shift = true
		return key(KeyTab)
	case tcell.KeyUp:
		return key(KeyUp)
	case tcell.KeyDown:
		return key(KeyDown)
	case tcell.KeyLeft:
		return key(KeyLeft)
	case tcell.KeyRight:
		return key(KeyRight)
	case tcell.KeyHome:
		return key(KeyHome)
	case tcell.KeyEnd:
		return key(KeyEnd)
	case tcell.KeyPgUp:
		return key(KeyPageUp)
	case tcell.KeyPgDn:
		return key(KeyPageDown)
	case tcell.KeyInsert:
		return key(KeyInsert)
	case tcell.KeyDelete:
		return key(KeyDelete)
	case tcell.KeyPause:
		return key(KeyPause)
	default:
		if k >= tcell.KeyF1 && k <= tcell.KeyF12 {
			return key(KeyF1 + Code(k-tcell.KeyF1))
		}
		if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
			ctrl()
			return key(KeyA + Code(k-tcell.KeyCtrlA))
		}
	}
	return Input{Type: Invalid}
}
