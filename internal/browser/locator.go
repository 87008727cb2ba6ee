package browser

import (
	"context"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// By names a way of addressing a DOM element.
type By int

const (
	ByCSS By = iota
	ByXPath
)

func (b By) String() string {
	if b == ByXPath {
		return "xpath"
	}
	return "css"
}

// Strategy is one candidate way of locating an element. Visible requires the
// element to be rendered; otherwise mere presence in the DOM is enough.
type Strategy struct {
	By      By
	Value   string
	Visible bool
}

// Match identifies the strategy that resolved, so follow-up operations
// (click, outer HTML) can address the same element.
type Match struct {
	By    By
	Value string
}

// Resolve tries each strategy in order, each with its own bounded wait, and
// returns the first that matches. Chart pages are not API-stable: the same
// logical table may carry different classes or appear only after a view
// toggle, so chains are ordered from most to least specific. Returns
// found=false when every strategy exhausts its wait; it never returns an
// error.
func (s *Session) Resolve(ctx context.Context, chain []Strategy, perWait time.Duration) (Match, bool) {
	for _, strat := range chain {
		wctx, cancel := s.bound(ctx, perWait)

		var action chromedp.Action
		if strat.Visible {
			action = chromedp.WaitVisible(strat.Value, queryOption(strat.By))
		} else {
			action = chromedp.WaitReady(strat.Value, queryOption(strat.By))
		}

		err := chromedp.Run(wctx, action)
		cancel()

		if err == nil {
			return Match{By: strat.By, Value: strat.Value}, true
		}
		s.logger.Debug("locator strategy missed",
			zap.String("by", strat.By.String()),
			zap.String("value", strat.Value),
			zap.Error(err),
		)
		if ctx.Err() != nil {
			break
		}
	}
	return Match{}, false
}

func queryOption(b By) chromedp.QueryOption {
	if b == ByXPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}
