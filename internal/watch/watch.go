// Package watch re-renders repository status whenever the working tree
// changes. It is a front-end convenience; it never mutates repository state.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"gitlite/internal/logging"
	"gitlite/internal/repo"
)

const debounce = 300 * time.Millisecond

// Watcher observes the working directory and invokes a render callback after
// bursts of filesystem events settle.
type Watcher struct {
	root    string
	watcher *fsnotify.Watcher
	render  func() error
	logger  *logging.Logger
}

// New creates a watcher over the working directory at root.
func New(root string, render func() error, logger *logging.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(root); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %q: %w", root, err)
	}
	return &Watcher{root: root, watcher: fw, render: render, logger: logger}, nil
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func (w *Watcher) ignored(name string) bool {
	rel, err := filepath.Rel(w.root, name)
	if err != nil {
		return true
	}
	base := filepath.Base(rel)
	return rel == repo.ControlDirName ||
		strings.HasPrefix(rel, repo.ControlDirName+string(filepath.Separator)) ||
		(base != "" && base[0] == '.')
}

// Run renders once, then re-renders after each settled burst of events until
// the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.render(); err != nil {
		return err
	}

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.ignored(event.Name) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
				fire = timer.C
			} else {
				timer.Reset(debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", zap.Error(err))
		case <-fire:
			timer = nil
			fire = nil
			if err := w.render(); err != nil {
				return err
			}
		}
	}
}
