package decision

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"janus/internal/logging"
	"janus/internal/matrix"
)

// Watcher reloads the matrix file when it changes on disk and swaps the new
// matrix into the decider. A reload that fails validation keeps the old
// matrix in effect; the bad document is logged, never half-applied.
type Watcher struct {
	path     string
	decider  *Decider
	watcher  *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
}

// NewWatcher watches the directory containing path (editors replace files,
// which drops inode-level watches) and filters events for the file itself.
func NewWatcher(path string, d *Decider) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		path:     path,
		decider:  d,
		watcher:  fsw,
		debounce: 100 * time.Millisecond,
		log:      logging.New("matrix-watch"),
	}, nil
}

// Run processes events until ctx is done. It blocks; run it in a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	defer w.watcher.Close()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	reload := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(w.path) {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: editors emit bursts of events per save.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case reload <- struct{}{}:
				default:
				}
			})
		case <-reload:
			w.reload()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) reload() {
	m, err := matrix.LoadFromPath(w.path)
	if err != nil {
		w.log.Error("matrix reload rejected; keeping previous matrix",
			"path", w.path, "error", err)
		return
	}
	w.decider.Swap(m)
	w.log.Info("matrix reloaded", "path", w.path)
}
