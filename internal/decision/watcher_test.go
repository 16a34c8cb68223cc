package decision

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"janus/internal/engine"
)

const watcherDocA = `
rules:
  - name: route
    priority: 50
    condition:
      framework: react
    engine: modern
    confidence: 80
    reason: initial
`

const watcherDocB = `
rules:
  - name: route
    priority: 50
    condition:
      framework: react
    engine: legacy
    confidence: 80
    reason: reloaded
`

func TestWatcher_ReloadSwapsMatrix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.yaml")
	if err := os.WriteFile(path, []byte(watcherDocA), 0o644); err != nil {
		t.Fatal(err)
	}

	d := New(loadMatrix(t, watcherDocA), Options{})
	w, err := NewWatcher(path, d)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Let the watcher settle before writing.
	time.Sleep(50 * time.Millisecond)
	if err := os.WriteFile(path, []byte(watcherDocB), 0o644); err != nil {
		t.Fatal(err)
	}

	meta := TestMetadata{TestID: "t", Framework: "react"}
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if d.Decide(meta).Engine == engine.Legacy {
			return
		}
		d.PurgeCache()
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("matrix was not reloaded after file change")
}

func TestWatcher_NoReloadAfterShutdown(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.yaml")
	if err := os.WriteFile(path, []byte(watcherDocA), 0o644); err != nil {
		t.Fatal(err)
	}

	d := New(loadMatrix(t, watcherDocA), Options{})
	w, err := NewWatcher(path, d)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)

	// Queue a change and shut down before the debounce window elapses; the
	// pending timer must be stopped, not fire into a dead watcher.
	if err := os.WriteFile(path, []byte(watcherDocB), 0o644); err != nil {
		t.Fatal(err)
	}
	cancel()
	<-done

	time.Sleep(3 * w.debounce)
	dec := d.Decide(TestMetadata{TestID: "t", Framework: "react"})
	if dec.Engine != engine.Modern {
		t.Errorf("matrix swapped after shutdown, got %+v", dec)
	}
}

func TestWatcher_BadReloadKeepsOldMatrix(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "matrix.yaml")
	if err := os.WriteFile(path, []byte(watcherDocA), 0o644); err != nil {
		t.Fatal(err)
	}

	d := New(loadMatrix(t, watcherDocA), Options{})
	w, err := NewWatcher(path, d)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.watcher.Close()

	// Drive the reload directly with a document that fails validation.
	if err := os.WriteFile(path, []byte("rules:\n  - name: bad\n    engine: selenium\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	w.reload()

	dec := d.Decide(TestMetadata{TestID: "t", Framework: "react"})
	if dec.Engine != engine.Modern || dec.MatchedRule != "route" {
		t.Errorf("old matrix should remain in effect, got %+v", dec)
	}
}
