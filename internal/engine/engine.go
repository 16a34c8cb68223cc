// Package engine defines the narrow capability seam over the two browser
// automation backends. The decision, bridge, and workflow packages depend
// only on the Engine value and the Context interface, never on a concrete
// backend API.
package engine

import (
	"context"
	"fmt"
	"time"
)

// Engine identifies one of the two automation backends.
// Modern drives a local Chrome over CDP and suits dynamic single-page
// applications; Legacy attaches to a remote debugger endpoint (grid or
// long-lived enterprise browser) and suits SSO-heavy, frame-nested UIs.
type Engine string

const (
	Modern Engine = "modern"
	Legacy Engine = "legacy"
)

// Valid reports whether e is a member of the closed engine set.
func (e Engine) Valid() bool {
	return e == Modern || e == Legacy
}

// Parse converts a string to an Engine, rejecting anything outside the
// closed set.
func Parse(s string) (Engine, error) {
	e := Engine(s)
	if !e.Valid() {
		return "", fmt.Errorf("unknown engine %q (want %q or %q)", s, Modern, Legacy)
	}
	return e, nil
}

// Cookie is one browser cookie in engine-neutral form.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure"`
	HTTPOnly bool      `json:"http_only"`
}

// Context is a live browser context owned by one workflow step.
// Implementations wrap a concrete backend; callers must Close when done.
type Context interface {
	// Engine returns the backend this context runs on.
	Engine() Engine
	// Navigate loads the given URL and waits for the load event.
	Navigate(ctx context.Context, url string) error
	// CurrentURL returns the URL of the active page.
	CurrentURL(ctx context.Context) (string, error)
	// Cookies returns all cookies visible to the context.
	Cookies(ctx context.Context) ([]Cookie, error)
	// SetCookies installs cookies into the context. Valid before navigation.
	SetCookies(ctx context.Context, cookies []Cookie) error
	// Evaluate runs a JavaScript expression in the active page and
	// unmarshals the result into out (out may be nil to discard).
	Evaluate(ctx context.Context, expr string, out any) error
	// Close releases the context and its backend resources.
	Close() error
}

// Launcher produces a live Context for one engine.
type Launcher interface {
	Launch(ctx context.Context) (Context, error)
}

// ResolutionError reports an engine binding the runtime cannot satisfy.
type ResolutionError struct {
	Engine Engine
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no launcher registered for engine %q", e.Engine)
}

// Registry maps engine values to launchers. It is populated once at startup
// and read-only afterwards.
type Registry struct {
	launchers map[Engine]Launcher
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{launchers: make(map[Engine]Launcher)}
}

// Register binds a launcher to an engine, replacing any previous binding.
func (r *Registry) Register(e Engine, l Launcher) {
	r.launchers[e] = l
}

// Launch resolves the engine and starts a context on it.
func (r *Registry) Launch(ctx context.Context, e Engine) (Context, error) {
	l, ok := r.launchers[e]
	if !ok {
		return nil, &ResolutionError{Engine: e}
	}
	return l.Launch(ctx)
}
