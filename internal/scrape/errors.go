package scrape

import (
	"errors"
	"fmt"

	"chartscraper/internal/chart"
)

var (
	// ErrLocatorExhausted means no selector strategy matched within its
	// wait. Retryable.
	ErrLocatorExhausted = errors.New("no locator strategy matched")

	// ErrNoDatesInRange means the site's published date index had no
	// dates inside the requested window. Fatal to a range scrape.
	ErrNoDatesInRange = errors.New("no chart dates published in the requested range")

	// ErrNoDataScraped means every date in the range failed extraction.
	// Fatal to a range scrape.
	ErrNoDataScraped = errors.New("all dates in the range failed during extraction")
)

// BlockedError reports page content that indicates access denial. The
// driver reacts by re-initializing the browser session before the next
// retry instead of retrying as-is.
type BlockedError struct {
	Marker string
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("page indicates access denial (matched %q)", e.Marker)
}

// ExhaustedError is the typed failure returned when the retry budget for a
// single page is spent. The orchestrator skips the page and continues; it
// never sees a raw panic or a driver-internal error.
type ExhaustedError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("scrape of %s exhausted after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// errorLabel maps a failure to a metrics label.
func errorLabel(err error) string {
	var blocked *BlockedError
	switch {
	case errors.Is(err, ErrLocatorExhausted):
		return "locator_exhausted"
	case errors.Is(err, chart.ErrMissingHeaders):
		return "missing_headers"
	case errors.Is(err, chart.ErrEmptyTable):
		return "empty_table"
	case errors.As(err, &blocked):
		return "blocked"
	default:
		return "other"
	}
}
