package core

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchDebounce = 100 * time.Millisecond

// Watcher calls onChange whenever a file under one of its roots is written,
// created, removed or renamed. Bursts of events inside watchDebounce collapse
// into a single call.
type Watcher struct {
	fsw      *fsnotify.Watcher
	onChange func(path string)
	done     chan struct{}
	once     sync.Once
}

func NewWatcher(roots []string, onChange func(path string)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	for _, root := range roots {
		if err := addRecursive(fsw, root); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	w := &Watcher{
		fsw:      fsw,
		onChange: onChange,
		done:     make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	if _, err := os.Stat(root); os.IsNotExist(err) {
		return nil
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		pending string
		fire    <-chan time.Time
	)

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write | fsnotify.Create | fsnotify.Remove | fsnotify.Rename) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := addRecursive(w.fsw, ev.Name); err != nil {
						slog.Warn("failed to watch new directory", "path", ev.Name, "error", err)
					}
				}
			}
			pending = ev.Name
			if timer == nil {
				timer = time.NewTimer(watchDebounce)
			} else {
				timer.Reset(watchDebounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			w.onChange(pending)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fsw.Close()
	})
	return err
}
