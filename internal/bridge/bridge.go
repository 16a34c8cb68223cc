// Package bridge snapshots authentication state (cookies, token-bearing
// local/session storage) from one engine's browser context and replays it
// into the other engine's context.
//
// A Bridge keeps no reference to either context after a call returns and
// holds no per-call state, so one instance can be shared across concurrent
// workflow executions without synchronization.
package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"janus/internal/engine"
	"janus/internal/logging"
)

// ExtractionError reports a failed session snapshot, typically because the
// source context is closed or unreachable.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string { return fmt.Sprintf("extract session: %v", e.Err) }
func (e *ExtractionError) Unwrap() error { return e.Err }

// InjectionError reports a failed session replay. Stage is "cookies",
// "navigate", or "storage".
type InjectionError struct {
	Stage string
	Err   error
}

func (e *InjectionError) Error() string {
	return fmt.Sprintf("inject session (%s): %v", e.Stage, e.Err)
}
func (e *InjectionError) Unwrap() error { return e.Err }

// Probe is a caller-supplied lightweight continuity check, e.g. "is the
// logged-in account menu present" or "does /api/me return 200".
type Probe func(ctx context.Context, ec engine.Context) (bool, error)

// Options narrows what the bridge transfers. Zero value transfers everything.
type Options struct {
	// StorageKeys restricts storage extraction to these keys. Empty means
	// every entry in both storage scopes.
	StorageKeys []string
}

// Bridge transfers session state between engine contexts.
type Bridge struct {
	opts Options
	log  *slog.Logger
}

// New returns a Bridge with the given options.
func New(opts Options) *Bridge {
	return &Bridge{opts: opts, log: logging.New("bridge")}
}

// Extract snapshots all cookies and the configured storage entries from the
// source context.
func (b *Bridge) Extract(ctx context.Context, src engine.Context) (*SessionState, error) {
	cookies, err := src.Cookies(ctx)
	if err != nil {
		return nil, &ExtractionError{Err: fmt.Errorf("read cookies: %w", err)}
	}

	state := &SessionState{
		Cookies:    cookies,
		Tokens:     make(map[StorageKind]map[string]string, 2),
		CapturedAt: time.Now().UTC(),
	}
	for _, kind := range []StorageKind{StorageLocal, StorageSession} {
		entries := map[string]string{}
		if err := src.Evaluate(ctx, readStorageScript(kind), &entries); err != nil {
			return nil, &ExtractionError{Err: fmt.Errorf("read %s storage: %w", kind, err)}
		}
		state.Tokens[kind] = b.filterKeys(entries)
	}

	b.log.Debug("session extracted",
		"engine", string(src.Engine()),
		"cookies", len(state.Cookies),
		"local_entries", len(state.Tokens[StorageLocal]),
		"session_entries", len(state.Tokens[StorageSession]))
	return state, nil
}

// Inject replays the snapshot into the target context. Cookies are set
// before navigation (some engines reject cookies for unvisited domains at
// page level, so they go in through the network layer first); storage
// entries are written by script evaluation after the first navigation to
// targetURL establishes an origin.
func (b *Bridge) Inject(ctx context.Context, dst engine.Context, state *SessionState, targetURL string) error {
	if state.Empty() {
		return &InjectionError{Stage: "cookies", Err: fmt.Errorf("session snapshot is empty")}
	}

	if len(state.Cookies) > 0 {
		if err := dst.SetCookies(ctx, state.Cookies); err != nil {
			return &InjectionError{Stage: "cookies", Err: err}
		}
	}
	if err := dst.Navigate(ctx, targetURL); err != nil {
		return &InjectionError{Stage: "navigate", Err: err}
	}
	for _, kind := range []StorageKind{StorageLocal, StorageSession} {
		entries := state.Tokens[kind]
		if len(entries) == 0 {
			continue
		}
		script, err := writeStorageScript(kind, entries)
		if err != nil {
			return &InjectionError{Stage: "storage", Err: err}
		}
		if err := dst.Evaluate(ctx, script, nil); err != nil {
			return &InjectionError{Stage: "storage", Err: fmt.Errorf("write %s storage: %w", kind, err)}
		}
	}

	b.log.Debug("session injected",
		"engine", string(dst.Engine()), "target", targetURL)
	return nil
}

// ValidateContinuity runs the caller's probe against the target context.
// A false result is a normal outcome, not an error; the returned error is
// reserved for probe transport failures.
func (b *Bridge) ValidateContinuity(ctx context.Context, dst engine.Context, probe Probe) (bool, error) {
	if probe == nil {
		return false, fmt.Errorf("validate continuity: nil probe")
	}
	ok, err := probe(ctx, dst)
	if err != nil {
		return false, fmt.Errorf("continuity probe: %w", err)
	}
	return ok, nil
}

func (b *Bridge) filterKeys(entries map[string]string) map[string]string {
	if len(b.opts.StorageKeys) == 0 {
		return entries
	}
	out := make(map[string]string, len(b.opts.StorageKeys))
	for _, k := range b.opts.StorageKeys {
		if v, ok := entries[k]; ok {
			out[k] = v
		}
	}
	return out
}

func storageObject(kind StorageKind) string {
	if kind == StorageSession {
		return "window.sessionStorage"
	}
	return "window.localStorage"
}

// readStorageScript returns a script that dumps one storage scope as a
// string map.
func readStorageScript(kind StorageKind) string {
	return fmt.Sprintf(`(() => {
	const s = %s;
	const out = {};
	for (let i = 0; i < s.length; i++) {
		const k = s.key(i);
		out[k] = s.getItem(k);
	}
	return out;
})()`, storageObject(kind))
}

// writeStorageScript returns a script that writes the given entries into
// one storage scope. Entries travel as a JSON literal to avoid any escaping
// of keys or values.
func writeStorageScript(kind StorageKind, entries map[string]string) (string, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return "", fmt.Errorf("encode storage entries: %w", err)
	}
	return fmt.Sprintf(`((entries) => {
	const s = %s;
	for (const [k, v] of Object.entries(entries)) {
		s.setItem(k, v);
	}
	return true;
})(%s)`, storageObject(kind), payload), nil
}
