package fetch

import (
	"context"
	"time"
)

// Renderer loads a page in an environment that executes its scripts and
// returns the rendered HTML. waitSelector is a CSS selector the renderer
// should wait for before snapshotting; implementations fall back to whatever
// content is present if the selector never appears within timeout.
//
// Ashby, Gem, and some Workday boards are client-rendered and produce nearly
// empty static HTML; everything else can use PlainRenderer.
type Renderer interface {
	Render(ctx context.Context, url, waitSelector string, timeout time.Duration) (Result, error)
}

// PlainRenderer satisfies Renderer with a plain HTTP fetch. Used where no
// headless browser worker is configured; the extractors then see the static
// HTML and their conservative fallbacks apply.
type PlainRenderer struct {
	Client *Client
}

func (r PlainRenderer) Render(ctx context.Context, url, _ string, timeout time.Duration) (Result, error) {
	return r.Client.Get(ctx, url, timeout)
}
