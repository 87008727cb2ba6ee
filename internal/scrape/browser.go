package scrape

import (
	"context"
	"time"

	"chartscraper/internal/browser"
)

// Browser is the slice of the session the scrape layer depends on.
// *browser.Session satisfies it; tests substitute a scripted fake.
type Browser interface {
	Navigate(ctx context.Context, url string) error
	Resolve(ctx context.Context, chain []browser.Strategy, perWait time.Duration) (browser.Match, bool)
	Click(ctx context.Context, m browser.Match) error
	ClickScript(ctx context.Context, m browser.Match) error
	OuterHTML(ctx context.Context, m browser.Match) (string, error)
	PageHTML(ctx context.Context) (string, error)
	IsSelected(ctx context.Context, m browser.Match) (bool, error)
	Restart(ctx context.Context) error
	Sleep(ctx context.Context, d time.Duration)
}
