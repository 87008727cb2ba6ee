package scrape

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chartscraper/internal/browser"
	"chartscraper/internal/domain"
)

// Navigator switches a chart page between daily and weekly rendering.
type Navigator struct {
	browser        Browser
	locatorTimeout time.Duration
	settleDelay    time.Duration
	logger         *zap.Logger
}

func NewNavigator(b Browser, locatorTimeout, settleDelay time.Duration, logger *zap.Logger) *Navigator {
	return &Navigator{
		browser:        b,
		locatorTimeout: locatorTimeout,
		settleDelay:    settleDelay,
		logger:         logger,
	}
}

// SwitchView activates the toggle for the target mode. An absent toggle is
// accepted as a no-op: many pages default to the desired mode and carry no
// control at all. Verification of the switch is best-effort against an
// uncontrolled page; a failed verification logs a warning and proceeds.
func (n *Navigator) SwitchView(ctx context.Context, mode domain.ViewMode) error {
	m, ok := n.browser.Resolve(ctx, toggleStrategies(mode), n.locatorTimeout)
	if !ok {
		n.logger.Info("view toggle not present, accepting current mode",
			zap.String("mode", string(mode)))
		return nil
	}

	if err := n.safeClick(ctx, m); err != nil {
		return fmt.Errorf("activate %s toggle: %w", mode, err)
	}
	n.browser.Sleep(ctx, n.settleDelay)

	selected, err := n.browser.IsSelected(ctx, m)
	if err != nil {
		n.logger.Warn("could not verify view switch", zap.String("mode", string(mode)), zap.Error(err))
	} else if !selected {
		n.logger.Warn("view toggle did not take selected state", zap.String("mode", string(mode)))
	}
	return nil
}

// safeClick clicks directly and falls back to a script-driven click when
// the direct one throws.
func (n *Navigator) safeClick(ctx context.Context, m browser.Match) error {
	if err := n.browser.Click(ctx, m); err != nil {
		n.logger.Debug("direct click failed, using script click", zap.Error(err))
		return n.browser.ClickScript(ctx, m)
	}
	return nil
}

// toggleStrategies orders the known renderings of a view toggle from most
// to least specific.
func toggleStrategies(mode domain.ViewMode) []browser.Strategy {
	label := "Daily"
	if mode == domain.ViewWeekly {
		label = "Weekly"
	}
	return []browser.Strategy{
		{By: browser.ByXPath, Value: fmt.Sprintf("//a[normalize-space()='%s']", label), Visible: true},
		{By: browser.ByXPath, Value: fmt.Sprintf("//a[contains(text(), '%s')]", label), Visible: true},
		{By: browser.ByCSS, Value: fmt.Sprintf("a[href*='_%s']", string(mode)), Visible: false},
		{By: browser.ByXPath, Value: fmt.Sprintf("//span[normalize-space()='%s']", label), Visible: false},
	}
}
