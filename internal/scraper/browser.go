package scraper

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/kataras/golog"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
)

// Browser renders JavaScript pages in one shared headless Chrome.
// Each Render call opens its own tab, so workers may render concurrently.
type Browser struct {
	Config  *config.BrowserConfig
	timeout time.Duration
	log     *golog.Logger

	browserCtx context.Context
	cancel     context.CancelFunc
}

// NewBrowser starts the browser process
func NewBrowser(cfg *config.AppConfig, log *golog.Logger) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Browser.Headless),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(cfg.Browser.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// The first Run starts Chrome; fail early if it cannot launch.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, eris.Wrap(err, "start browser")
	}

	return &Browser{
		Config:     &cfg.Browser,
		timeout:    cfg.Scraper.Timeout,
		log:        log,
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
	}, nil
}

// Close shuts the browser down
func (b *Browser) Close() {
	b.cancel()
}

// FetchHTML renders a page and returns its outer HTML
func (b *Browser) FetchHTML(ctx context.Context, url string) (string, error) {
	return b.Render(ctx, url, "")
}

// Render navigates a fresh tab to url, waits for waitSelector when given,
// runs extra actions, and returns the rendered HTML.
func (b *Browser) Render(ctx context.Context, url, waitSelector string, extra ...chromedp.Action) (string, error) {
	tabCtx, cancelTab := chromedp.NewContext(b.browserCtx)
	defer cancelTab()
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, b.timeout)
	defer cancelTimeout()

	var html string
	var screenshot []byte

	tasks := []chromedp.Action{chromedp.Navigate(url)}
	if waitSelector != "" {
		tasks = append(tasks, chromedp.WaitReady(waitSelector, chromedp.ByQuery))
	}
	if b.Config.WaitTime > 0 {
		tasks = append(tasks, chromedp.Sleep(b.Config.WaitTime))
	}
	tasks = append(tasks, extra...)
	tasks = append(tasks, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if b.Config.Screenshot {
		tasks = append(tasks, chromedp.CaptureScreenshot(&screenshot))
	}

	if err := chromedp.Run(tabCtx, tasks...); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", eris.Wrapf(err, "render %s", url)
	}

	if len(screenshot) > 0 {
		b.saveScreenshot(screenshot)
	}
	return html, nil
}

func (b *Browser) saveScreenshot(data []byte) {
	if err := os.MkdirAll(b.Config.ScreenshotDir, 0755); err != nil {
		b.log.Warnf("create screenshot dir: %v", err)
		return
	}
	path := filepath.Join(b.Config.ScreenshotDir, fmt.Sprintf("%d.png", time.Now().UnixNano()))
	if err := os.WriteFile(path, data, 0644); err != nil {
		b.log.Warnf("save screenshot: %v", err)
		return
	}
	b.log.Debugf("screenshot saved to %s", path)
}

// ScrollAction scrolls the element matched by selector to its bottom
// times times, pausing between scrolls so lazy results can load.
func ScrollAction(selector string, times int, pause time.Duration) chromedp.Action {
	js := fmt.Sprintf(`(function(){var el=document.querySelector(%q); if(el){el.scrollTop=el.scrollHeight;} return !!el;})()`, selector)
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for i := 0; i < times; i++ {
			var found bool
			if err := chromedp.Evaluate(js, &found).Do(ctx); err != nil {
				return err
			}
			if !found {
				return nil
			}
			if err := chromedp.Sleep(pause).Do(ctx); err != nil {
				return err
			}
		}
		return nil
	})
}
