package resources

import (
	"context"
	"path/filepath"

	"github.com/asticode/go-astilog"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/synedraacus/bearhug/src/util"
)

// EvtAssetsChanged is set on the event box when a watched file changes. Its
// value is a []interface{} of the changed paths.
const EvtAssetsChanged util.EventType = 1

// Watcher reports changes to asset files. Directories are watched rather
// than files, so that editors replacing a file by renaming are noticed.
type Watcher struct {
	watcher *fsnotify.Watcher
	box     *util.EventBox
	paths   map[string]bool
}

// NewWatcher starts watching paths. Changes are appended to box once Run is
// called.
func NewWatcher(box *util.EventBox, paths ...string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(ErrResource, err.Error())
	}
	w := &Watcher{watcher: fw, box: box, paths: make(map[string]bool)}
	dirs := make(map[string]bool)
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			fw.Close()
			return nil, errors.Wrap(ErrResource, err.Error())
		}
		w.paths[abs] = true
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errors.Wrapf(ErrResource, "watch directory %s: %v", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

// Run forwards changes until the context is cancelled or Close is called
func (w *Watcher) Run(ctx context.Context) error {
	const changes = fsnotify.Write | fsnotify.Create | fsnotify.Rename
	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if e.Op&changes == 0 {
				continue
			}
			abs, err := filepath.Abs(e.Name)
			if err != nil || !w.paths[abs] {
				continue
			}
			astilog.Debugf("Asset changed: %s", abs)
			w.box.Append(EvtAssetsChanged, abs)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			astilog.Errorf("Asset watcher: %v", err)
		}
	}
}

// Close stops watching
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
