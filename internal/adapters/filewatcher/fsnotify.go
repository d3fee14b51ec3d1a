// Package filewatcher watches the documents directory for changes.
package filewatcher

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/0xcro3dile/docchat-go/internal/domain/ports"
)

// FSNotifyWatcher implements ports.FileWatcher using fsnotify.
type FSNotifyWatcher struct {
	watcher    *fsnotify.Watcher
	extensions map[string]struct{}
	log        logrus.FieldLogger
}

// NewFSNotifyWatcher creates a watcher that reports changes to files with
// one of extensions (matched case-insensitively).
func NewFSNotifyWatcher(extensions []string, log logrus.FieldLogger) (*FSNotifyWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if len(extensions) == 0 {
		extensions = []string{".txt", ".md", ".markdown", ".pdf"}
	}
	exts := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = struct{}{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &FSNotifyWatcher{
		watcher:    w,
		extensions: exts,
		log:        log.WithField("component", "filewatcher"),
	}, nil
}

// Watch starts monitoring dir. The channel closes when ctx ends or the
// watcher stops.
func (w *FSNotifyWatcher) Watch(ctx context.Context, dir string) (<-chan ports.FileEvent, error) {
	if err := w.watcher.Add(dir); err != nil {
		return nil, err
	}

	events := make(chan ports.FileEvent, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if !w.watched(event.Name) {
					continue
				}
				op, ok := operation(event.Op)
				if !ok {
					continue
				}
				w.log.WithFields(logrus.Fields{"path": event.Name, "op": op.String()}).Debug("file changed")

				select {
				case events <- ports.FileEvent{Path: event.Name, Operation: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.log.WithError(err).Warn("watch error")
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *FSNotifyWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *FSNotifyWatcher) watched(path string) bool {
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// operation maps fsnotify ops; a rename is the old name going away.
func operation(op fsnotify.Op) (ports.FileOperation, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return ports.FileCreated, true
	case op.Has(fsnotify.Write):
		return ports.FileModified, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return ports.FileDeleted, true
	default:
		return 0, false
	}
}

// Debounce coalesces bursts of events into one signal sent after wait has
// passed without a new event. The returned channel closes with events.
func Debounce(ctx context.Context, events <-chan ports.FileEvent, wait time.Duration) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)
		timer := time.NewTimer(wait)
		timer.Stop()
		pending := false

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					if pending {
						select {
						case out <- struct{}{}:
						default:
						}
					}
					return
				}
				timer.Reset(wait)
				pending = true
			case <-timer.C:
				pending = false
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()

	return out
}

var _ ports.FileWatcher = (*FSNotifyWatcher)(nil)
