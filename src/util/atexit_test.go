package util

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAtExitOrder(t *testing.T) {
	var closed []string
	for _, name := range []string{"terminal", "sound", "watcher"} {
		name := name
		AtExit(func() { closed = append(closed, name) })
	}
	RunAtExitFuncs()
	// Last registered, first closed
	if diff := cmp.Diff([]string{"watcher", "sound", "terminal"}, closed); diff != "" {
		t.Error(diff)
	}

	RunAtExitFuncs()
	if len(closed) != 3 {
		t.Errorf("closed twice: %v", closed)
	}
}

func TestAtExitNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("nil func accepted")
		}
	}()
	AtExit(nil)
}
