package preview

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	ferrors "git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

// watcher reports changes anywhere below a content root. Directories
// created later are added as they appear.
type watcher struct {
	fs     *fsnotify.Watcher
	root   string
	output string
	logger *slog.Logger
}

func newWatcher(root, output string, logger *slog.Logger) (*watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryRuntime, "create file watcher").Build()
	}
	w := &watcher{fs: fw, root: root, output: output, logger: logger}
	if err := w.addRecursive(root); err != nil {
		_ = fw.Close()
		return nil, err
	}
	return w, nil
}

func (w *watcher) Close() error { return w.fs.Close() }

// Run forwards relevant events to onChange until ctx is done.
func (w *watcher) Run(ctx context.Context, onChange func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(ev, onChange)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *watcher) handle(ev fsnotify.Event, onChange func()) {
	if shouldIgnoreEvent(ev.Name) || w.inOutput(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addRecursive(ev.Name)
		}
	}
	w.logger.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	onChange()
}

func (w *watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.inOutput(path) || (path != root && strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			w.logger.Warn("Watch add failed", logfields.Dir(path), logfields.Error(err))
		}
		return nil
	})
}

// inOutput reports whether path lies in the output tree, which may be
// nested inside the content root.
func (w *watcher) inOutput(path string) bool {
	rel, err := filepath.Rel(w.output, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// shouldIgnoreEvent returns true for filesystem events that should not trigger rebuilds.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)

	// Hidden files, including editor lock files such as .#name.
	if strings.HasPrefix(base, ".") {
		return true
	}

	// Editor backup and swap files.
	if strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx") ||
		strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#") {
		return true
	}

	return base == "Thumbs.db"
}
