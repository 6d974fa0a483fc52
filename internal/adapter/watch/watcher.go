// Package watch adapts fsnotify to the domain file-event model. The
// watcher is a push source; the coordinator never polls.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/dmitriid/svx/internal/ctxlog"
	"github.com/dmitriid/svx/internal/domain"
)

type Watcher struct {
	fsw    *fsnotify.Watcher
	events chan domain.FileEvent
}

// New watches root and all of its subdirectories.
func New(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}

	return &Watcher{
		fsw:    fsw,
		events: make(chan domain.FileEvent),
	}, nil
}

// Events delivers translated file events. The channel is closed when Run
// returns.
func (w *Watcher) Events() <-chan domain.FileEvent {
	return w.events
}

// Run pumps fsnotify events into the domain event channel until the
// context is canceled or the underlying watcher closes. Directories
// created under the watched root are added to the watch set as they
// appear.
func (w *Watcher) Run(ctx context.Context) error {
	defer close(w.events)
	logger := ctxlog.FromContext(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			if ev.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.fsw.Add(ev.Name); err != nil {
						logger.Error("failed to watch new directory", "path", ev.Name, "error", err)
					}
					continue
				}
			}

			kinds := translate(ev.Op)
			if len(kinds) == 0 {
				continue
			}

			select {
			case w.events <- domain.FileEvent{Path: ev.Name, Kinds: kinds}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func translate(op fsnotify.Op) []domain.EventKind {
	var kinds []domain.EventKind
	if op.Has(fsnotify.Create) {
		kinds = append(kinds, domain.EventCreated)
	}
	if op.Has(fsnotify.Write) {
		kinds = append(kinds, domain.EventUpdated)
	}
	if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
		kinds = append(kinds, domain.EventRemoved)
	}
	return kinds
}
