// Package enginetest provides an in-memory engine.Context and Launcher for
// tests that must not start a real browser.
package enginetest

import (
	"context"
	"fmt"
	"sync"

	"janus/internal/engine"
)

// Context is a fake engine.Context backed by plain maps.
// Zero value is usable; set the Fail* fields to force errors.
type Context struct {
	Kind engine.Engine

	mu      sync.Mutex
	url     string
	cookies []engine.Cookie
	closed  bool

	// EvalFunc handles Evaluate calls. Nil means Evaluate succeeds and
	// leaves out untouched.
	EvalFunc func(expr string, out any) error

	FailNavigate   error
	FailCookies    error
	FailSetCookies error

	NavigateCount int
	CloseCount    int
}

func (c *Context) Engine() engine.Engine {
	if c.Kind == "" {
		return engine.Modern
	}
	return c.Kind
}

func (c *Context) Navigate(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("context closed")
	}
	if c.FailNavigate != nil {
		return c.FailNavigate
	}
	c.url = url
	c.NavigateCount++
	return nil
}

func (c *Context) CurrentURL(_ context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return "", fmt.Errorf("context closed")
	}
	return c.url, nil
}

func (c *Context) Cookies(_ context.Context) ([]engine.Cookie, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, fmt.Errorf("context closed")
	}
	if c.FailCookies != nil {
		return nil, c.FailCookies
	}
	out := make([]engine.Cookie, len(c.cookies))
	copy(out, c.cookies)
	return out, nil
}

func (c *Context) SetCookies(_ context.Context, cookies []engine.Cookie) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("context closed")
	}
	if c.FailSetCookies != nil {
		return c.FailSetCookies
	}
	c.cookies = append(c.cookies, cookies...)
	return nil
}

// SeedCookies installs cookies without going through SetCookies, so tests
// can pre-authenticate a context even when FailSetCookies is set.
func (c *Context) SeedCookies(cookies ...engine.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cookies = append(c.cookies, cookies...)
}

func (c *Context) Evaluate(_ context.Context, expr string, out any) error {
	c.mu.Lock()
	closed := c.closed
	fn := c.EvalFunc
	c.mu.Unlock()
	if closed {
		return fmt.Errorf("context closed")
	}
	if fn == nil {
		return nil
	}
	return fn(expr, out)
}

func (c *Context) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.CloseCount++
	return nil
}

// Closed reports whether Close has been called.
func (c *Context) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Launcher hands out prepared fake contexts, or an error.
type Launcher struct {
	Kind engine.Engine
	Err  error

	mu       sync.Mutex
	prepared []*Context
	Launched []*Context
}

// Prepare queues a context to be returned by the next Launch call.
func (l *Launcher) Prepare(c *Context) { l.prepared = append(l.prepared, c) }

func (l *Launcher) Launch(_ context.Context) (engine.Context, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.Err != nil {
		return nil, l.Err
	}
	var c *Context
	if len(l.prepared) > 0 {
		c = l.prepared[0]
		l.prepared = l.prepared[1:]
	} else {
		c = &Context{Kind: l.Kind}
	}
	l.Launched = append(l.Launched, c)
	return c, nil
}
