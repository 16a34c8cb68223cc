package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// ModernLauncher starts a local headless Chrome via the exec allocator.
type ModernLauncher struct {
	Headless bool
	// ExtraFlags are appended to the default allocator options.
	ExtraFlags map[string]any
}

// Launch starts a fresh local browser context.
func (l *ModernLauncher) Launch(ctx context.Context) (Context, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	for k, v := range l.ExtraFlags {
		opts = append(opts, chromedp.Flag(k, v))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Force browser startup now so launch failures surface here, not on
	// the first action.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch modern engine: %w", err)
	}
	return &cdpContext{
		engine: Modern,
		ctx:    browserCtx,
		cancel: func() { browserCancel(); allocCancel() },
	}, nil
}

// LegacyLauncher attaches to an already-running browser (enterprise grid or
// long-lived debugging endpoint) over the remote debugging protocol.
type LegacyLauncher struct {
	// DebuggerURL is the websocket debugger address, e.g. ws://grid:9222.
	DebuggerURL string
}

// Launch attaches a new context to the remote browser.
func (l *LegacyLauncher) Launch(ctx context.Context) (Context, error) {
	if l.DebuggerURL == "" {
		return nil, fmt.Errorf("launch legacy engine: debugger URL not configured")
	}
	allocCtx, allocCancel := chromedp.NewRemoteAllocator(ctx, l.DebuggerURL)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch legacy engine: %w", err)
	}
	return &cdpContext{
		engine: Legacy,
		ctx:    browserCtx,
		cancel: func() { browserCancel(); allocCancel() },
	}, nil
}

// cdpContext adapts a chromedp browser context to the Context seam.
// Both engines share this adapter; they differ only in how the underlying
// browser is allocated.
type cdpContext struct {
	engine Engine
	ctx    context.Context
	cancel context.CancelFunc
}

func (c *cdpContext) Engine() Engine { return c.engine }

func (c *cdpContext) Navigate(ctx context.Context, url string) error {
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *cdpContext) CurrentURL(ctx context.Context) (string, error) {
	var url string
	if err := c.run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

func (c *cdpContext) Cookies(ctx context.Context) ([]Cookie, error) {
	var out []Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		raw, err := network.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		out = make([]Cookie, 0, len(raw))
		for _, ck := range raw {
			c := Cookie{
				Name:     ck.Name,
				Value:    ck.Value,
				Domain:   ck.Domain,
				Path:     ck.Path,
				Secure:   ck.Secure,
				HTTPOnly: ck.HTTPOnly,
			}
			if ck.Expires > 0 {
				c.Expires = time.Unix(int64(ck.Expires), 0).UTC()
			}
			out = append(out, c)
		}
		return nil
	}))
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cdpContext) SetCookies(ctx context.Context, cookies []Cookie) error {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, ck := range cookies {
		p := &network.CookieParam{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Secure:   ck.Secure,
			HTTPOnly: ck.HTTPOnly,
		}
		if !ck.Expires.IsZero() {
			exp := cdp.TimeSinceEpoch(ck.Expires)
			p.Expires = &exp
		}
		params = append(params, p)
	}
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return storage.SetCookies(params).Do(ctx)
	}))
}

func (c *cdpContext) Evaluate(ctx context.Context, expr string, out any) error {
	return c.run(ctx, chromedp.Evaluate(expr, out))
}

func (c *cdpContext) Close() error {
	c.cancel()
	return nil
}

// run executes actions on the browser context while honoring the caller's
// context for cancellation.
func (c *cdpContext) run(ctx context.Context, actions ...chromedp.Action) error {
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(c.ctx, actions...) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
