package scrape

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"chartscraper/internal/browser"
	"chartscraper/internal/chart"
	"chartscraper/internal/config"
	"chartscraper/internal/domain"
	"chartscraper/internal/monitoring"
)

// State of the retry loop for one page.
type State int

const (
	StateAttempting State = iota
	StateSuccess
	StateRetrying
	StateExhausted
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateRetrying:
		return "retrying"
	case StateExhausted:
		return "exhausted"
	default:
		return "attempting"
	}
}

// denialMarkers are substrings whose presence in a page body is read as a
// block rather than a transient miss.
var denialMarkers = []string{
	"access denied",
	"403 forbidden",
	"rate limit",
	"captcha",
	"checking your browser",
}

// PageJob describes one navigate-locate-extract target.
type PageJob struct {
	URL       string
	ChartDate string
	Mode      domain.ViewMode // empty = leave the page in its default mode
	Table     []browser.Strategy

	// FallbackLink, when set, is tried if no table strategy matches: the
	// link is clicked and the table chain re-resolved. Track pages hide
	// the streams table behind a "Streams" link in some variants.
	FallbackLink []browser.Strategy
}

// Driver wraps a full navigate-locate-extract attempt in a bounded retry
// loop. Every failure mode below the orchestrator is converted to a typed
// outcome here; nothing propagates as a raw panic past this boundary.
type Driver struct {
	browser   Browser
	navigator *Navigator
	cfg       *config.Config
	metrics   *monitoring.Metrics
	logger    *zap.Logger
}

func NewDriver(b Browser, nav *Navigator, cfg *config.Config, m *monitoring.Metrics, logger *zap.Logger) *Driver {
	return &Driver{
		browser:   b,
		navigator: nav,
		cfg:       cfg,
		metrics:   m,
		logger:    logger,
	}
}

// Run executes the attempt loop for one page. On success it returns the
// extracted batch plus the full page HTML for side-channel reads (identity
// strings in the page chrome). On a spent budget it returns a typed
// *ExhaustedError so the caller can skip one page without aborting a run.
func (d *Driver) Run(ctx context.Context, job PageJob) (*domain.ChartBatch, string, error) {
	state := StateAttempting
	var last error

	for attempt := 1; attempt <= d.cfg.MaxAttempts; attempt++ {
		start := time.Now()
		d.metrics.IncAttempts()

		batch, pageHTML, err := d.attempt(ctx, job)
		rec := domain.ScrapeAttempt{Number: attempt, Elapsed: time.Since(start), Err: err}
		if batch != nil {
			rec.Rows = len(batch.Rows)
		}

		if err == nil {
			state = StateSuccess
			d.metrics.IncPagesScraped()
			d.metrics.AddRowsExtracted(rec.Rows)
			d.metrics.ObserveScrapeDuration(rec.Elapsed)
			d.logger.Info("page scraped",
				zap.String("url", job.URL),
				zap.Int("attempt", rec.Number),
				zap.Int("rows", rec.Rows),
				zap.Int("dropped", batch.DroppedRows),
				zap.Duration("elapsed", rec.Elapsed),
			)
			return batch, pageHTML, nil
		}

		last = err
		d.metrics.IncErrors(errorLabel(err))

		if attempt == d.cfg.MaxAttempts {
			state = StateExhausted
			break
		}
		state = StateRetrying
		d.logger.Warn("scrape attempt failed",
			zap.String("url", job.URL),
			zap.String("state", state.String()),
			zap.Int("attempt", rec.Number),
			zap.Duration("elapsed", rec.Elapsed),
			zap.Error(err),
		)

		// A denial needs a fresh session, not just another attempt.
		var blocked *BlockedError
		if errors.As(err, &blocked) {
			if rerr := d.browser.Restart(ctx); rerr != nil {
				d.logger.Error("session restart failed", zap.Error(rerr))
			}
		}

		d.browser.Sleep(ctx, d.retryDelay())
		if ctx.Err() != nil {
			break
		}
	}

	d.logger.Error("retry budget spent",
		zap.String("url", job.URL),
		zap.String("state", state.String()),
		zap.Int("attempts", d.cfg.MaxAttempts),
		zap.Error(last),
	)
	return nil, "", &ExhaustedError{URL: job.URL, Attempts: d.cfg.MaxAttempts, Last: last}
}

func (d *Driver) attempt(ctx context.Context, job PageJob) (*domain.ChartBatch, string, error) {
	if err := d.browser.Navigate(ctx, job.URL); err != nil {
		return nil, "", err
	}

	pageHTML, err := d.browser.PageHTML(ctx)
	if err != nil {
		return nil, "", err
	}
	if marker, blocked := detectDenial(pageHTML); blocked {
		return nil, "", &BlockedError{Marker: marker}
	}

	if job.Mode != "" {
		if err := d.navigator.SwitchView(ctx, job.Mode); err != nil {
			return nil, "", err
		}
	}

	m, ok := d.resolveTable(ctx, job)
	if !ok {
		return nil, "", ErrLocatorExhausted
	}

	tableHTML, err := d.browser.OuterHTML(ctx, m)
	if err != nil {
		return nil, "", err
	}

	batch, err := chart.ParseTable(tableHTML, job.ChartDate)
	if err != nil {
		return nil, "", err
	}
	return batch, pageHTML, nil
}

func (d *Driver) resolveTable(ctx context.Context, job PageJob) (browser.Match, bool) {
	timeout := time.Duration(d.cfg.LocatorTimeout) * time.Second

	if m, ok := d.browser.Resolve(ctx, job.Table, timeout); ok {
		return m, true
	}
	if len(job.FallbackLink) == 0 {
		return browser.Match{}, false
	}

	link, ok := d.browser.Resolve(ctx, job.FallbackLink, timeout)
	if !ok {
		return browser.Match{}, false
	}
	if err := d.navigator.safeClick(ctx, link); err != nil {
		d.logger.Warn("fallback link click failed", zap.Error(err))
		return browser.Match{}, false
	}
	d.browser.Sleep(ctx, d.cfg.SettleDelay())

	return d.browser.Resolve(ctx, job.Table, timeout)
}

// retryDelay is the configured base delay plus optional jitter; jitter
// keeps the retry cadence from looking machine-regular to the target.
func (d *Driver) retryDelay() time.Duration {
	delay := d.cfg.RetryDelay()
	if jitter := d.cfg.RetryJitter(); jitter > 0 {
		delay += time.Duration(rand.Int63n(int64(jitter)))
	}
	return delay
}

func detectDenial(html string) (string, bool) {
	lower := strings.ToLower(html)
	for _, marker := range denialMarkers {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	return "", false
}
