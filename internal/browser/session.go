package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"chartscraper/internal/proxy"
)

// requestHeaders are sent with every request for the lifetime of a browser
// process. Chrome owns the hop-by-hop headers; these are the document-level
// ones a regular browsing session carries.
var requestHeaders = network.Headers{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
	"Accept-Language":           "en-US,en;q=0.9",
	"DNT":                       "1",
	"Upgrade-Insecure-Requests": "1",
}

// Session owns one headless Chrome instance. The process holds exactly one
// session for the lifetime of a run; Restart replaces the browser in place
// after a suspected block, and Close must run on every exit path.
type Session struct {
	headless    bool
	loadTimeout time.Duration
	agents      *proxy.Manager
	logger      *zap.Logger

	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewSession launches a browser and verifies it is responsive.
func NewSession(headless bool, loadTimeout time.Duration, agents *proxy.Manager, logger *zap.Logger) (*Session, error) {
	s := &Session{
		headless:    headless,
		loadTimeout: loadTimeout,
		agents:      agents,
		logger:      logger,
	}
	if err := s.launch(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) launch() error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.UserAgent(s.agents.UserAgent()),
	)
	if proxy := s.agents.Proxy(); proxy != "" {
		opts = append(opts, chromedp.ProxyServer(proxy))
	}

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	s.ctx, s.cancel = chromedp.NewContext(s.allocCtx)

	// Starting the browser here beats failing on the first navigation. The
	// extra headers persist across navigations until the next Restart.
	err := chromedp.Run(s.ctx,
		network.Enable(),
		network.SetExtraHTTPHeaders(requestHeaders),
	)
	if err != nil {
		s.teardown()
		return fmt.Errorf("start browser: %w", err)
	}
	return nil
}

func (s *Session) teardown() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// Restart replaces the browser process in place with a fresh user agent.
// Used as a recovery action after a suspected block.
func (s *Session) Restart(ctx context.Context) error {
	s.logger.Warn("restarting browser session")
	s.teardown()
	return s.launch()
}

// Close terminates the browser process.
func (s *Session) Close() {
	s.teardown()
}

// Navigate loads a URL and waits for the document body, bounded by the
// session's page-load timeout.
func (s *Session) Navigate(ctx context.Context, url string) error {
	nctx, cancel := s.bound(ctx, s.loadTimeout)
	defer cancel()

	err := chromedp.Run(nctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Click activates the matched element directly.
func (s *Session) Click(ctx context.Context, m Match) error {
	cctx, cancel := s.bound(ctx, s.loadTimeout)
	defer cancel()
	return chromedp.Run(cctx, chromedp.Click(m.Value, queryOption(m.By)))
}

// ClickScript activates the matched element from page script. Fallback for
// elements whose direct click is intercepted by overlays or layout shifts.
func (s *Session) ClickScript(ctx context.Context, m Match) error {
	var js string
	switch m.By {
	case ByXPath:
		js = fmt.Sprintf(
			`document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue.click()`,
			m.Value)
	default:
		js = fmt.Sprintf(`document.querySelector(%q).click()`, m.Value)
	}

	cctx, cancel := s.bound(ctx, s.loadTimeout)
	defer cancel()
	return chromedp.Run(cctx, chromedp.Evaluate(js, nil))
}

// OuterHTML captures the matched element's outer HTML. Extraction then runs
// against this static snapshot, so later DOM churn cannot invalidate it.
func (s *Session) OuterHTML(ctx context.Context, m Match) (string, error) {
	var html string
	hctx, cancel := s.bound(ctx, s.loadTimeout)
	defer cancel()
	if err := chromedp.Run(hctx, chromedp.OuterHTML(m.Value, &html, queryOption(m.By))); err != nil {
		return "", fmt.Errorf("capture element html: %w", err)
	}
	return html, nil
}

// PageHTML captures the full document, used for block detection and for
// reading identity strings out of the page chrome.
func (s *Session) PageHTML(ctx context.Context) (string, error) {
	var html string
	hctx, cancel := s.bound(ctx, s.loadTimeout)
	defer cancel()
	if err := chromedp.Run(hctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("capture page html: %w", err)
	}
	return html, nil
}

// IsSelected reports whether the matched control renders with selected
// visual weight. Chart sites mark the active view toggle bold.
func (s *Session) IsSelected(ctx context.Context, m Match) (bool, error) {
	var js string
	switch m.By {
	case ByXPath:
		js = fmt.Sprintf(`(() => {
			const el = document.evaluate(%q, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue;
			if (!el) return false;
			const w = getComputedStyle(el).fontWeight;
			return parseInt(w, 10) >= 700 || el.classList.contains("selected");
		})()`, m.Value)
	default:
		js = fmt.Sprintf(`(() => {
			const el = document.querySelector(%q);
			if (!el) return false;
			const w = getComputedStyle(el).fontWeight;
			return parseInt(w, 10) >= 700 || el.classList.contains("selected");
		})()`, m.Value)
	}

	var selected bool
	sctx, cancel := s.bound(ctx, s.loadTimeout)
	defer cancel()
	if err := chromedp.Run(sctx, chromedp.Evaluate(js, &selected)); err != nil {
		return false, err
	}
	return selected, nil
}

// Sleep blocks for the given duration unless the context ends first.
func (s *Session) Sleep(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (s *Session) bound(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	merged, cancelMerge := mergeContext(s.ctx, ctx)
	bctx, cancelTimeout := context.WithTimeout(merged, d)
	return bctx, func() {
		cancelTimeout()
		cancelMerge()
	}
}

// mergeContext derives a chromedp-valid context from the session's browser
// context that is additionally cancelled when the caller's context ends.
func mergeContext(browserCtx, callerCtx context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(browserCtx)
	stop := context.AfterFunc(callerCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
