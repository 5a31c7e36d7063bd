package config

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// OnExternalEdit is invoked with the full path of a file that changed inside
// a watched data directory.
type OnExternalEdit func(path string)

// Watcher notices external edits to files under a data directory —
// learned-rules.json or user-profile.md changed by hand, or restored from a
// backup, while the daemon is running. It watches the parent directory
// rather than the files themselves (internal/config/watcher.go in
// allaspectsdev-tokenman), since editors and internal/atomicfile both replace
// a file by writing a temp file and renaming over the original, which would
// silently stop a direct file watch.
type Watcher struct {
	fsw     *fsnotify.Watcher
	dir     string
	names   map[string]bool
	onEdit  OnExternalEdit
	done    chan struct{}
}

// Watch begins watching dataDir for changes to any of the given file names
// (e.g. "learned-rules.json", "user-profile.md"). The caller must call
// Close when done.
func Watch(dataDir string, fileNames []string, onEdit OnExternalEdit) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dataDir); err != nil {
		fsw.Close()
		return nil, err
	}

	names := make(map[string]bool, len(fileNames))
	for _, n := range fileNames {
		names[n] = true
	}

	w := &Watcher{
		fsw:    fsw,
		dir:    dataDir,
		names:  names,
		onEdit: onEdit,
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			base := filepath.Base(event.Name)
			if w.names[base] && w.onEdit != nil {
				w.onEdit(filepath.Join(w.dir, base))
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher and releases its underlying file descriptor.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
