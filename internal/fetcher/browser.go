package fetcher

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// BrowserOptions configures the headless-browser fetcher.
type BrowserOptions struct {
	UserAgent string
	// RenderWait gives client-side rendering time to settle after load.
	RenderWait time.Duration
	PageDelay  time.Duration
	// ExecPath points at a specific Chrome binary; empty uses chromedp's
	// default discovery.
	ExecPath string
}

// BrowserFetcher renders pages in headless Chrome before returning their
// HTML. Needed for the sites that build listing cards client-side.
type BrowserFetcher struct {
	allocCtx   context.Context
	cancel     context.CancelFunc
	renderWait time.Duration
	limiter    *rate.Limiter
}

// NewBrowser starts a headless Chrome allocator. Close releases it.
func NewBrowser(opts BrowserOptions) *BrowserFetcher {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.RenderWait <= 0 {
		opts.RenderWait = 3 * time.Second
	}
	if opts.PageDelay <= 0 {
		opts.PageDelay = 4 * time.Second
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(opts.UserAgent),
	)
	if opts.ExecPath != "" {
		execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), execOpts...)
	return &BrowserFetcher{
		allocCtx:   allocCtx,
		cancel:     cancel,
		renderWait: opts.RenderWait,
		limiter:    rate.NewLimiter(rate.Every(opts.PageDelay), 1),
	}
}

// Fetch implements Fetcher by navigating a fresh tab and capturing the
// rendered document.
func (f *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: page delay")
	}

	tabCtx, cancelTab := chromedp.NewContext(f.allocCtx, chromedp.WithLogf(func(string, ...any) {}))
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, 45*time.Second)
	defer cancelTimeout()

	// Honor caller cancellation without tying tab lifetime to caller ctx.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancelTimeout()
		case <-done:
		}
	}()

	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(f.renderWait),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: render %s", url)
	}
	return []byte(html), nil
}

// Close releases the browser allocator.
func (f *BrowserFetcher) Close() {
	f.cancel()
}
