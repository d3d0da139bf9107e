package widget

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
	"github.com/synedraacus/bearhug/src/event"
	"github.com/synedraacus/bearhug/src/tui"
)

func TestMenuItem(t *testing.T) {
	Convey("Given a menu item", t, func() {
		activated := 0
		item, err := NewMenuItem("Go", func() []event.Event {
			activated++
			return []event.Event{event.New(event.PlaySound, "click")}
		}, "", "")
		So(err, ShouldBeNil)

		Convey("it is a label in a box", func() {
			So(rows(item), ShouldResemble, []string{"┌──┐", "│Go│", "└──┘"})
			So(item.Image().Colors[0][0], ShouldEqual, "white")
		})

		Convey("highlighting recolors the box but not the text", func() {
			item.Highlight()
			So(item.Image().Colors[0][0], ShouldEqual, "green")
			So(item.Image().Colors[1][1], ShouldEqual, "white")
			item.Unhighlight()
			So(item.Image().Colors[0][0], ShouldEqual, "white")
		})

		Convey("activation runs the action", func() {
			So(item.Activate(), ShouldHaveLength, 1)
			So(activated, ShouldEqual, 1)
		})

		Convey("an action is required", func() {
			_, err := NewMenuItem("Go", nil, "", "")
			So(errors.Is(err, ErrWidget), ShouldBeTrue)
		})
	})
}

func TestMenuWidget(t *testing.T) {
	Convey("Given a menu of two items", t, func() {
		var activated []string
		item := func(text string) *MenuItem {
			i, err := NewMenuItem(text, func() []event.Event {
				activated = append(activated, text)
				return nil
			}, "", "")
			So(err, ShouldBeNil)
			return i
		}
		one, two := item("One"), item("Two")
		menu, err := NewMenuWidget([]*MenuItem{one, two}, MenuOptions{Header: "Menu"})
		So(err, ShouldBeNil)
		key := func(code tui.Code) []event.Event {
			return menu.OnEvent(event.New(event.KeyDown, code))
		}

		Convey("it is sized to fit the items", func() {
			w, h := menu.Size()
			So([]int{w, h}, ShouldResemble, []int{9, 11})
			x, y, _ := menu.ChildLocation(one)
			So([]int{x, y}, ShouldResemble, []int{2, 2})
			x, y, _ = menu.ChildLocation(two)
			So([]int{x, y}, ShouldResemble, []int{2, 6})
			So(string(menu.Image().Chars[0][2:6]), ShouldEqual, "Menu")
			So(menu.Image().Chars[1][1], ShouldEqual, '█')
		})

		Convey("the first item is highlighted", func() {
			So(menu.Highlighted(), ShouldEqual, 0)
			So(one.Image().Colors[0][0], ShouldEqual, "green")
		})

		Convey("keys move the highlight after a delay", func() {
			key(tui.KeyDown)
			So(menu.Highlighted(), ShouldEqual, 1)
			So(one.Image().Colors[0][0], ShouldEqual, "white")
			key(tui.KeyUp)
			So(menu.Highlighted(), ShouldEqual, 1)

			menu.OnEvent(event.New(event.Tick, 100*time.Millisecond))
			key(tui.KeyW)
			So(menu.Highlighted(), ShouldEqual, 1)
			menu.OnEvent(event.New(event.Tick, 100*time.Millisecond))
			key(tui.KeyW)
			So(menu.Highlighted(), ShouldEqual, 0)

			menu.OnEvent(event.New(event.Tick, time.Second))
			key(tui.KeyUp)
			So(menu.Highlighted(), ShouldEqual, 0)
		})

		Convey("Enter activates the highlighted item", func() {
			key(tui.KeyEnter)
			So(activated, ShouldResemble, []string{"One"})
		})

		Convey("when added to a terminal", func() {
			term := newTerminal(t, 20, 20)
			So(term.AddWidget(menu, 0, 0, 0), ShouldBeNil)
			mouse := func(x, y int, buttons ...tui.Code) []event.Event {
				term.Feed(tui.Input{Type: tui.MouseInput, X: x, Y: y, Buttons: buttons})
				var r []event.Event
				for _, e := range term.CheckInput() {
					r = append(r, menu.OnEvent(e)...)
				}
				return r
			}

			Convey("the mouse highlights items on hover", func() {
				mouse(3, 7)
				So(menu.Highlighted(), ShouldEqual, 1)
				mouse(0, 0)
				So(menu.Highlighted(), ShouldEqual, 1)
			})

			Convey("left click activates the clicked item", func() {
				mouse(3, 3, tui.MouseLeft)
				So(activated, ShouldResemble, []string{"One"})
				menu.OnEvent(event.New(event.Tick, time.Second))
				mouse(4, 7, tui.MouseLeft)
				So(activated, ShouldResemble, []string{"One", "Two"})
				So(menu.Highlighted(), ShouldEqual, 1)
			})

			Convey("it redraws after a tick", func() {
				key(tui.KeyDown)
				menu.OnEvent(event.New(event.Service, event.TickOver))
				ch, color := term.Cell(2, 6)
				green, _ := tui.ParseColor("green")
				So(ch, ShouldEqual, '┌')
				So(color, ShouldEqual, green)
			})
		})

		Convey("a custom background must be large enough", func() {
			_, err := NewMenuWidget([]*MenuItem{item("Three")}, MenuOptions{Background: static(t, "", "###")})
			So(errors.Is(err, ErrLayout), ShouldBeTrue)
		})
	})
}
