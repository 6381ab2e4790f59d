package sysfs

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Monitor watches a single sysfs attribute and invokes a callback whenever
// it changes. Callbacks run on the watcher goroutine; callers are expected
// to bounce them onto their own event loop.
type Monitor struct {
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// MonitorAttr starts watching path for writes and creations. The callback
// fires once per filesystem event, coalescing is left to the consumer.
func (fs FS) MonitorAttr(path string, changed func()) (*Monitor, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	full := fs.Path(path)
	// Watch the parent so creation of the attribute itself is seen too.
	if err := watcher.Add(filepath.Dir(full)); err != nil {
		watcher.Close()
		return nil, err
	}

	m := &Monitor{watcher: watcher, done: make(chan struct{})}
	go func() {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Name != full {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					changed()
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-m.done:
				return
			}
		}
	}()
	return m, nil
}

// Close stops the monitor. Safe to call on a nil monitor.
func (m *Monitor) Close() {
	if m == nil {
		return
	}
	close(m.done)
	m.watcher.Close()
}
